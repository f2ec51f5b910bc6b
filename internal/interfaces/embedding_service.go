package interfaces

import (
	"context"

	"github.com/ternarybob/scholia/internal/models"
	"github.com/ternarybob/scholia/internal/vector"
)

// EmbeddingService generates vector embeddings
type EmbeddingService interface {
	// Generate embedding for raw text
	GenerateEmbedding(ctx context.Context, text string) (vector.Vector, error)

	// Generate and set embedding for a document
	EmbedDocument(ctx context.Context, doc *models.Document) error

	// Generate query embedding (computed once per question and reused)
	GenerateQueryEmbedding(ctx context.Context, question string) (vector.Vector, error)

	// Get model information
	ModelName() string
	Dimension() int

	// Check if service is available
	IsAvailable(ctx context.Context) bool
}
