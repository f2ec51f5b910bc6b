package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/models"
	"github.com/ternarybob/scholia/internal/services"
	"github.com/ternarybob/scholia/internal/vector"
)

// Service implements interfaces.EmbeddingService on top of the LLM
// provider. It is the single place query and document text is turned
// into vectors, so dimension enforcement lives here.
type Service struct {
	llmService interfaces.LLMService
	modelName  string
	dimension  int
	logger     arbor.ILogger
}

// NewService creates a new embedding service
func NewService(llmService interfaces.LLMService, modelName string, dimension int, logger arbor.ILogger) interfaces.EmbeddingService {
	return &Service{
		llmService: llmService,
		modelName:  modelName,
		dimension:  dimension,
		logger:     logger,
	}
}

// GenerateEmbedding creates a vector embedding for text
func (s *Service) GenerateEmbedding(ctx context.Context, text string) (vector.Vector, error) {
	if text == "" {
		return nil, services.NewDomainError(services.KindInvalidRequest, "text cannot be empty", nil)
	}

	start := time.Now()
	embedding, err := s.llmService.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(embedding) == 0 {
		return nil, services.NewDomainError(services.KindProvider, "provider returned empty embedding", nil)
	}

	if s.dimension > 0 && len(embedding) != s.dimension {
		return nil, services.NewDomainError(
			services.KindDimensionMismatch,
			fmt.Sprintf("provider returned %d dimensions, expected %d", len(embedding), s.dimension),
			nil,
		)
	}

	s.logger.Debug().
		Str("mode", string(s.llmService.GetMode())).
		Int("embedding_dim", len(embedding)).
		Dur("duration", duration).
		Msg("Generated embedding")

	return vector.Vector(embedding), nil
}

// EmbedDocument generates and sets the embedding for a document. Title
// and content are embedded together so title-only matches still score.
func (s *Service) EmbedDocument(ctx context.Context, doc *models.Document) error {
	text := prepareDocumentText(doc)

	embedding, err := s.GenerateEmbedding(ctx, text)
	if err != nil {
		return err
	}

	doc.Embedding = embedding
	doc.EmbeddingRaw = ""
	doc.EmbeddingModel = s.modelName

	s.logger.Debug().
		Str("doc_id", doc.ID).
		Int("embedding_dim", len(embedding)).
		Int("text_length", len(text)).
		Msg("Embedded document")

	return nil
}

// GenerateQueryEmbedding generates the embedding for a question
func (s *Service) GenerateQueryEmbedding(ctx context.Context, question string) (vector.Vector, error) {
	return s.GenerateEmbedding(ctx, question)
}

// ModelName returns the embedding model name
func (s *Service) ModelName() string {
	return s.modelName
}

// Dimension returns the embedding dimension
func (s *Service) Dimension() int {
	return s.dimension
}

// IsAvailable checks if the embedding service is available
func (s *Service) IsAvailable(ctx context.Context) bool {
	if s.llmService == nil {
		return false
	}

	if err := s.llmService.HealthCheck(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("LLM service not available")
		return false
	}

	return true
}

func prepareDocumentText(doc *models.Document) string {
	if doc.Title == "" {
		return doc.Content
	}
	return fmt.Sprintf("%s\n\n%s", doc.Title, doc.Content)
}
