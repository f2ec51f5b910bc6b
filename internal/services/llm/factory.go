package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/scholia/internal/common"
	"github.com/ternarybob/scholia/internal/interfaces"
)

// NewLLMService creates the LLM service implementation selected by
// config.LLM.Provider. The Claude provider always carries a Gemini
// service for embeddings and transcription, which Anthropic does not
// offer.
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	if cfg.LLM.Provider != "gemini" && cfg.LLM.Provider != "claude" {
		return nil, fmt.Errorf("invalid LLM provider '%s': must be 'gemini' or 'claude'", cfg.LLM.Provider)
	}

	logger.Info().Str("provider", cfg.LLM.Provider).Msg("Initializing LLM service")

	limiter := newProviderLimiter(&cfg.LLM)

	gemini, err := NewGeminiService(&cfg.LLM, limiter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini service: %w", err)
	}

	switch cfg.LLM.Provider {
	case "claude":
		claude, err := NewClaudeService(&cfg.LLM, gemini, limiter, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Claude service: %w", err)
		}
		return claude, nil

	default:
		return gemini, nil
	}
}

// newProviderLimiter builds the shared request limiter. A non-positive
// rate disables limiting.
func newProviderLimiter(cfg *common.LLMConfig) *rate.Limiter {
	if cfg.RateLimitPerSecond <= 0 {
		return nil
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
}
