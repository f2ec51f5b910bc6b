package interfaces

import "context"

// LLMMode identifies which cloud provider backs the LLM service.
type LLMMode string

const (
	// LLMModeGemini indicates Google Gemini via the genai SDK
	LLMModeGemini LLMMode = "gemini"
	// LLMModeClaude indicates Anthropic Claude (chat only; embeddings and
	// transcription fall back to Gemini)
	LLMModeClaude LLMMode = "claude"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the language-model operations the retrieval core
// depends on: embedding generation and bounded chat completions. Every call
// must respect the caller's context deadline.
type LLMService interface {
	// Embed generates an embedding vector of the configured dimension for
	// the given text. Fails on empty input or provider outage.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat generates a completion for the conversation, bounded by the
	// service's configured maximum output tokens.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the provider is reachable and responding.
	HealthCheck(ctx context.Context) error

	// GetMode returns which provider backs this service.
	GetMode() LLMMode

	// Close releases client resources.
	Close() error
}

// Transcriber converts uploaded audio into text. Fails with an extraction
// error on unsupported or corrupt input, before any embedding work happens.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
