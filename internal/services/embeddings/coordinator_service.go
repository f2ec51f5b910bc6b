package embeddings

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/common"
	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/models"
	"github.com/ternarybob/scholia/internal/services/workers"
)

// CoordinatorService backfills embeddings for documents that were
// stored without one, either because ingestion predates the current
// model or because the provider was down at write time. It runs on a
// cron schedule and on demand via the embedding_triggered event; the
// two paths share a single-run guard so overlapping triggers are
// skipped rather than queued.
type CoordinatorService struct {
	embeddingService interfaces.EmbeddingService
	documentStorage  interfaces.DocumentStorage
	eventService     interfaces.EventService
	config           *common.EmbeddingsConfig
	cron             *cron.Cron
	logger           arbor.ILogger
	isProcessing     bool
	mu               sync.Mutex
}

// NewCoordinatorService creates a new embedding coordinator
func NewCoordinatorService(
	embeddingService interfaces.EmbeddingService,
	documentStorage interfaces.DocumentStorage,
	eventService interfaces.EventService,
	config *common.EmbeddingsConfig,
	logger arbor.ILogger,
) *CoordinatorService {
	return &CoordinatorService{
		embeddingService: embeddingService,
		documentStorage:  documentStorage,
		eventService:     eventService,
		config:           config,
		cron:             cron.New(),
		logger:           logger,
	}
}

// Start subscribes to embedding events and begins the cron schedule.
// An empty schedule disables the periodic run; events still work.
func (s *CoordinatorService) Start() error {
	handler := func(ctx context.Context, event interfaces.Event) error {
		return s.run(ctx)
	}
	if _, err := s.eventService.Subscribe(interfaces.EventEmbeddingTriggered, handler); err != nil {
		return fmt.Errorf("failed to subscribe to embedding events: %w", err)
	}

	if s.config.Schedule == "" {
		s.logger.Debug().Msg("Embedding schedule disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.run(context.Background()); err != nil {
			s.logger.Warn().Err(err).Msg("Scheduled embedding run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add embedding cron job: %w", err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Msg("Embedding coordinator started")
	return nil
}

// Stop halts the cron schedule and waits for a running pass to finish
func (s *CoordinatorService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// run performs one backfill pass over documents missing embeddings
func (s *CoordinatorService) run(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Panic recovered in embedding run")
		}
	}()

	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Warn().Msg("Embedding run already in progress, skipping")
		return nil
	}
	s.isProcessing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	limit := s.config.Limit
	if limit <= 0 {
		limit = 100
	}

	docs, err := s.documentStorage.ListMissingEmbeddings(limit)
	if err != nil {
		return fmt.Errorf("failed to list documents missing embeddings: %w", err)
	}
	if len(docs) == 0 {
		s.logger.Debug().Msg("No documents missing embeddings")
		return nil
	}

	s.logger.Info().
		Int("count", len(docs)).
		Msg("Backfilling embeddings")

	// Single worker keeps provider rate-limit pressure predictable.
	pool := workers.NewPool(1, s.logger)
	pool.Start()

	for _, doc := range docs {
		doc := doc
		if err := pool.Submit(func(ctx context.Context) error {
			return s.embedDocument(ctx, doc)
		}); err != nil {
			s.logger.Error().
				Err(err).
				Str("doc_id", doc.ID).
				Msg("Failed to submit embed task")
		}
	}

	pool.Wait()

	if errs := pool.Errors(); len(errs) > 0 {
		for _, err := range errs {
			s.logger.Error().Err(err).Msg("Embed task error")
		}
		return fmt.Errorf("embedding run completed with %d errors", len(errs))
	}

	s.logger.Info().
		Int("count", len(docs)).
		Msg("Embedding run complete")
	return nil
}

func (s *CoordinatorService) embedDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}

	if err := s.embeddingService.EmbedDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
	}

	if err := s.documentStorage.SaveDocument(doc); err != nil {
		return fmt.Errorf("failed to save embedded document %s: %w", doc.ID, err)
	}

	s.logger.Debug().
		Str("doc_id", doc.ID).
		Msg("Document embedded")
	return nil
}
