package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scholia/internal/common"
	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/services"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService implements the LLMService interface using Google Gemini via
// the genai SDK. It provides embeddings, chat completions, and audio
// transcription.
type GeminiService struct {
	config  *common.LLMConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// convertMessagesToGemini converts []interfaces.Message to Gemini Content format.
// System messages are extracted separately for use with SystemInstruction.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
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

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		var role genai.Role = genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	return contents, systemText, nil
}

// NewGeminiService creates a new Gemini LLM service instance
func NewGeminiService(config *common.LLMConfig, limiter *rate.Limiter, logger arbor.ILogger) (*GeminiService, error) {
	if config.GoogleAPIKey == "" {
		return nil, fmt.Errorf("Google API key is required for Gemini service (set via GOOGLE_API_KEY or llm.google_api_key in config)")
	}

	if config.EmbedModelName == "" {
		config.EmbedModelName = "gemini-embedding-001"
	}
	if config.ChatModelName == "" {
		config.ChatModelName = "gemini-2.0-flash"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.GoogleAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  config,
		logger:  logger,
		client:  client,
		limiter: limiter,
		timeout: timeout,
	}

	logger.Info().
		Str("embed_model", config.EmbedModelName).
		Str("chat_model", config.ChatModelName).
		Int("embed_dimension", config.EmbedDimension).
		Dur("timeout", timeout).
		Msg("Gemini LLM service initialized")

	return service, nil
}

// Embed generates an embedding vector of the configured dimension
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, services.NewDomainError(services.KindProvider, "text cannot be empty for embedding generation", nil)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.waitLimiter(timeoutCtx); err != nil {
		return nil, err
	}

	startTime := time.Now()

	outputDim := int32(s.config.EmbedDimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	result, err := s.client.Models.EmbedContent(timeoutCtx, s.config.EmbedModelName,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embeddingConfig)
	if err != nil {
		return nil, providerError("embedding generation failed", err)
	}

	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}
	if len(embedding) == 0 {
		return nil, services.NewDomainError(services.KindProvider, "no embedding returned from API", nil)
	}

	if len(embedding) != s.config.EmbedDimension {
		return nil, services.NewDomainError(services.KindDimensionMismatch,
			fmt.Sprintf("expected %d components, got %d", s.config.EmbedDimension, len(embedding)), nil)
	}

	s.logger.Debug().
		Int("text_length", len(text)).
		Int("embedding_dim", len(embedding)).
		Dur("duration", time.Since(startTime)).
		Msg("Embedding generation completed")

	return embedding, nil
}

// Chat generates a completion response based on the conversation history
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", services.NewDomainError(services.KindGeneration, "messages cannot be empty for chat completion", nil)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.waitLimiter(timeoutCtx); err != nil {
		return "", err
	}

	geminiContents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", services.NewDomainError(services.KindGeneration, "failed to convert messages", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}
	if s.config.MaxTokens > 0 {
		config.MaxOutputTokens = int32(s.config.MaxTokens)
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.config.ChatModelName, geminiContents, config)
	if err != nil {
		return "", providerError("chat generation failed", err)
	}

	// Iterate candidates until non-empty text is found
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", services.NewDomainError(services.KindGeneration, "no response generated from chat model", nil)
	}

	return response.String(), nil
}

// Transcribe converts an audio payload into text using the multimodal chat model
func (s *GeminiService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", services.NewDomainError(services.KindExtraction, "audio payload is empty", nil)
	}
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", services.NewDomainError(services.KindExtraction,
			fmt.Sprintf("unsupported audio mime type %q", mimeType), nil)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.waitLimiter(timeoutCtx); err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText("Transcribe this lecture recording verbatim. Return only the transcript text."),
			genai.NewPartFromBytes(audio, mimeType),
		}, genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.config.ChatModelName, contents, nil)
	if err != nil {
		return "", providerError("audio transcription failed", err)
	}

	transcript := strings.TrimSpace(resp.Text())
	if transcript == "" {
		return "", services.NewDomainError(services.KindExtraction, "empty transcript returned", nil)
	}

	return transcript, nil
}

// HealthCheck verifies the embedding model responds to a minimal probe
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	healthCheckCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	embedding, err := s.Embed(healthCheckCtx, "health check probe")
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("embedding probe returned empty vector")
	}

	return nil
}

// GetMode returns the provider backing this service
func (s *GeminiService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeGemini
}

// Close releases client resources
func (s *GeminiService) Close() error {
	s.client = nil
	return nil
}

func (s *GeminiService) waitLimiter(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return providerError("rate limiter wait failed", err)
	}
	return nil
}

// providerError classifies a provider failure as timeout or outage
func providerError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.NewDomainError(services.KindProviderTimeout, message, err)
	}
	return services.NewDomainError(services.KindProvider, message, err)
}
