package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scholia/internal/common"
	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/services"
	"golang.org/x/time/rate"
)

// ClaudeService implements the LLMService chat operations using the
// Anthropic Claude API. Claude has no embedding or transcription endpoint,
// so those calls delegate to a Gemini fallback service.
type ClaudeService struct {
	config    *common.LLMConfig
	logger    arbor.ILogger
	client    *anthropic.Client
	fallback  *GeminiService
	limiter   *rate.Limiter
	timeout   time.Duration
	maxTokens int
}

// convertMessagesToClaude converts []interfaces.Message to Claude MessageParam
// format, extracting the first system message for the System parameter.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		switch msg.Role {
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return claudeMessages, systemText, nil
}

// NewClaudeService creates a new Claude LLM service. The fallback Gemini
// service handles embeddings and transcription.
func NewClaudeService(config *common.LLMConfig, fallback *GeminiService, limiter *rate.Limiter, logger arbor.ILogger) (*ClaudeService, error) {
	if config.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for Claude service (set via ANTHROPIC_API_KEY or llm.anthropic_api_key in config)")
	}
	if fallback == nil {
		return nil, fmt.Errorf("Claude service requires a Gemini fallback for embeddings and transcription")
	}

	model := config.ChatModelName
	if model == "" || !strings.HasPrefix(model, "claude") {
		model = "claude-sonnet-4-20250514"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.AnthropicAPIKey),
	)

	service := &ClaudeService{
		config:    config,
		logger:    logger,
		client:    &client,
		fallback:  fallback,
		limiter:   limiter,
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Info().
		Str("model", model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude LLM service initialized")

	return service, nil
}

// Embed delegates to the Gemini fallback; Anthropic has no embedding endpoint
func (s *ClaudeService) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.fallback.Embed(ctx, text)
}

// Transcribe delegates to the Gemini fallback
func (s *ClaudeService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return s.fallback.Transcribe(ctx, audio, mimeType)
}

// Chat generates a completion response based on the conversation history
func (s *ClaudeService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", services.NewDomainError(services.KindGeneration, "messages cannot be empty for chat completion", nil)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(timeoutCtx); err != nil {
			return "", providerError("rate limiter wait failed", err)
		}
	}

	startTime := time.Now()
	response, err := s.generateCompletion(timeoutCtx, messages)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Claude chat completion failed")
		return "", err
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(response)).
		Dur("duration", time.Since(startTime)).
		Msg("Claude chat completion completed")

	return response, nil
}

// HealthCheck exercises the Claude API with a minimal probe
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("Claude client is not initialized")
	}

	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	response, err := s.generateCompletion(healthCheckCtx, []interfaces.Message{
		{Role: "user", Content: "ping"},
	})
	if err != nil {
		return fmt.Errorf("Claude probe failed: %w", err)
	}
	if len(strings.TrimSpace(response)) == 0 {
		return fmt.Errorf("Claude probe returned empty response")
	}

	return nil
}

// GetMode returns the provider backing this service
func (s *ClaudeService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeClaude
}

// Close releases client resources
func (s *ClaudeService) Close() error {
	s.client = nil
	return nil
}

// generateCompletion encapsulates the Claude API chat completion call
func (s *ClaudeService) generateCompletion(ctx context.Context, messages []interfaces.Message) (string, error) {
	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return "", services.NewDomainError(services.KindGeneration, "failed to convert messages", err)
	}

	model := s.config.ChatModelName
	if model == "" || !strings.HasPrefix(model, "claude") {
		model = "claude-sonnet-4-20250514"
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(s.maxTokens),
		Messages:  claudeMessages,
	}
	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", providerError("Claude API call failed", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", services.NewDomainError(services.KindGeneration, "no response generated from Claude API", nil)
	}

	return response.String(), nil
}
