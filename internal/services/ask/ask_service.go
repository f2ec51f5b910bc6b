package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/common"
	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/models"
	"github.com/ternarybob/scholia/internal/services"
	"github.com/ternarybob/scholia/internal/services/retrieval"
	"github.com/ternarybob/scholia/internal/services/router"
	"github.com/ternarybob/scholia/internal/vector"
)

// Service is the retrieval orchestrator. Each call is an independent,
// stateless unit of work: the question is embedded once, retrieval is
// executed against a point-in-time snapshot of the owner's corpus, and
// any step's failure is surfaced with its originating error kind. No
// partial results, no automatic retries.
type Service struct {
	router    *router.Service
	retriever *retrieval.Service
	embedding interfaces.EmbeddingService
	llm       interfaces.LLMService
	events    interfaces.EventService
	config    *common.AskConfig
	logger    arbor.ILogger
}

// NewService creates the ask orchestrator
func NewService(
	routerSvc *router.Service,
	retriever *retrieval.Service,
	embedding interfaces.EmbeddingService,
	llm interfaces.LLMService,
	events interfaces.EventService,
	config *common.AskConfig,
	logger arbor.ILogger,
) interfaces.AskService {
	return &Service{
		router:    routerSvc,
		retriever: retriever,
		embedding: embedding,
		llm:       llm,
		events:    events,
		config:    config,
		logger:    logger,
	}
}

// AskCorpus answers a question from every document in the collections
// the router selects. If the routed scope holds zero records the call
// fails before any generation happens: answering from an empty context
// is disallowed.
func (s *Service) AskCorpus(ctx context.Context, q *interfaces.CorpusQuestion) (*models.Answer, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return nil, services.NewDomainError(services.KindInvalidRequest, "question is required", nil)
	}
	if q.OwnerID == "" {
		return nil, services.NewDomainError(services.KindInvalidRequest, "owner id is required", nil)
	}

	start := time.Now()

	questionVec, err := s.embedding.GenerateQueryEmbedding(ctx, question)
	if err != nil {
		return nil, err
	}

	plan := s.router.Plan(question)
	records, err := s.retriever.FetchAll(plan, q.OwnerID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, services.NewDomainError(services.KindNoResults,
			"no documents found in the targeted collections", nil)
	}

	sources, err := scoreSources(questionVec, records)
	if err != nil {
		return nil, err
	}

	contextText := assembleCorpusContext(records, s.config.MaxContextChars)

	text, err := s.synthesize(ctx, corpusSystemPrompt, contextText, question)
	if err != nil {
		return nil, err
	}

	answer := &models.Answer{
		Text:       text,
		Similarity: models.AggregateSimilarity,
		Sources:    sources,
	}

	s.logger.Info().
		Str("owner_id", q.OwnerID).
		Int("record_count", len(records)).
		Dur("duration", time.Since(start)).
		Msg("Answered corpus question")

	s.publishAnswered(ctx, q.OwnerID, question)
	return answer, nil
}

// AskDocument answers a question about one owned document. The cosine
// similarity between the question vector and the document's stored
// vector is computed here and carried into the answer.
func (s *Service) AskDocument(ctx context.Context, q *interfaces.DocumentQuestion) (*models.Answer, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return nil, services.NewDomainError(services.KindInvalidRequest, "question is required", nil)
	}
	if q.OwnerID == "" {
		return nil, services.NewDomainError(services.KindInvalidRequest, "owner id is required", nil)
	}

	start := time.Now()

	questionVec, err := s.embedding.GenerateQueryEmbedding(ctx, question)
	if err != nil {
		return nil, err
	}

	doc, err := s.retriever.FetchOne(q.Collection, q.DocumentID, q.OwnerID)
	if err != nil {
		return nil, err
	}

	docVec, err := vector.Decode(doc.RawEmbedding())
	if err != nil {
		return nil, services.NewDomainError(services.KindMalformedEmbedding,
			fmt.Sprintf("document %s has a malformed embedding", doc.ID), err)
	}

	similarity, err := cosineOrKind(questionVec, docVec)
	if err != nil {
		return nil, err
	}

	contextText := assembleDocumentContext(doc)

	text, err := s.synthesize(ctx, documentSystemPrompt, contextText, question)
	if err != nil {
		return nil, err
	}

	answer := &models.Answer{
		Text:       text,
		Similarity: similarity,
		Sources: []models.AnswerSource{
			{Collection: doc.Collection, Similarity: similarity},
		},
	}

	s.logger.Info().
		Str("owner_id", q.OwnerID).
		Str("doc_id", doc.ID).
		Float64("similarity", similarity).
		Dur("duration", time.Since(start)).
		Msg("Answered document question")

	s.publishAnswered(ctx, q.OwnerID, question)
	return answer, nil
}

// HealthCheck verifies the downstream providers are reachable
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.llm.HealthCheck(ctx)
}

// synthesize builds the two-role prompt and delegates generation. An
// empty completion is a generation failure, never a silent empty
// answer.
func (s *Service) synthesize(ctx context.Context, systemPrompt, contextText, question string) (string, error) {
	messages := []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(contextText, question)},
	}

	text, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", services.NewDomainError(services.KindGeneration,
			"provider returned an empty completion", nil)
	}
	return text, nil
}

// scoreSources computes per-record similarity against the question
// vector. The aggregate answer keeps its sentinel score, but callers
// still see how close each contributing document was.
func scoreSources(questionVec vector.Vector, records []models.RetrievedRecord) ([]models.AnswerSource, error) {
	sources := make([]models.AnswerSource, 0, len(records))
	for _, rec := range records {
		sim, err := cosineOrKind(questionVec, rec.Vector)
		if err != nil {
			return nil, err
		}
		sources = append(sources, models.AnswerSource{
			Collection: rec.Collection,
			Similarity: sim,
		})
	}
	return sources, nil
}

// cosineOrKind maps vector-integrity failures onto the domain error
// taxonomy. Integrity failures are never coerced into a fake score.
func cosineOrKind(a, b vector.Vector) (float64, error) {
	sim, err := vector.Cosine(a, b)
	if err != nil {
		switch {
		case errors.Is(err, vector.ErrDimensionMismatch):
			return 0, services.NewDomainError(services.KindDimensionMismatch, "stored vector dimension differs from question vector", err)
		case errors.Is(err, vector.ErrDegenerateVector):
			return 0, services.NewDomainError(services.KindDegenerateVector, "zero-norm vector cannot be compared", err)
		default:
			return 0, err
		}
	}
	return sim, nil
}

func (s *Service) publishAnswered(ctx context.Context, ownerID, question string) {
	if s.events == nil {
		return
	}
	event := interfaces.Event{
		Type:    interfaces.EventQuestionAnswered,
		OwnerID: ownerID,
		Payload: map[string]string{
			"question": question,
		},
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish question answered event")
	}
}
