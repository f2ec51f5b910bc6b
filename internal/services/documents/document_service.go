package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/common"
	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/models"
	"github.com/ternarybob/scholia/internal/services"
)

// Service implements DocumentService. Ingestion turns an upload into
// text first, embeds it once, then persists: extraction failures are
// rejected before any provider call is spent on unusable input. When
// the embedding provider is down the document is still saved and the
// coordinator backfills the vector later.
type Service struct {
	storage     interfaces.DocumentStorage
	embedding   interfaces.EmbeddingService
	extractor   interfaces.Extractor
	transcriber interfaces.Transcriber
	events      interfaces.EventService
	validate    *validator.Validate
	logger      arbor.ILogger
}

// NewService creates a new document service
func NewService(
	storage interfaces.DocumentStorage,
	embedding interfaces.EmbeddingService,
	extractor interfaces.Extractor,
	transcriber interfaces.Transcriber,
	events interfaces.EventService,
	logger arbor.ILogger,
) interfaces.DocumentService {
	return &Service{
		storage:     storage,
		embedding:   embedding,
		extractor:   extractor,
		transcriber: transcriber,
		events:      events,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Ingest extracts text if needed, embeds it once, and persists the
// document under the owner's identity.
func (s *Service) Ingest(ctx context.Context, req *interfaces.IngestRequest) (*models.Document, error) {
	if req == nil {
		return nil, services.NewDomainError(services.KindInvalidRequest, "request body is required", nil)
	}
	if req.OwnerID == "" {
		return nil, services.NewDomainError(services.KindInvalidRequest, "owner id is required", nil)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, services.NewDomainError(services.KindInvalidRequest, err.Error(), err)
	}
	if _, err := models.ParseCollectionKind(string(req.Collection)); err != nil {
		return nil, services.NewDomainError(services.KindInvalidRequest, err.Error(), err)
	}

	content, err := s.resolveContent(ctx, req)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:         common.NewDocumentID(),
		OwnerID:    req.OwnerID,
		Collection: req.Collection,
		Title:      req.Title,
		Content:    content,
	}
	if req.Collection == models.CollectionNote {
		doc.Note = req.Note
	}

	if err := s.embedding.EmbedDocument(ctx, doc); err != nil {
		// Saved without a vector; the coordinator backfills it.
		s.logger.Warn().
			Err(err).
			Str("doc_id", doc.ID).
			Msg("Embedding failed at ingest, deferring to coordinator")
	}

	if err := s.storage.SaveDocument(doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	s.logger.Info().
		Str("doc_id", doc.ID).
		Str("collection", string(doc.Collection)).
		Int("content_length", len(doc.Content)).
		Msg("Document ingested")

	s.publish(ctx, interfaces.EventDocumentSaved, doc.ID, req.OwnerID)
	if len(doc.Embedding) == 0 {
		s.publish(ctx, interfaces.EventEmbeddingTriggered, doc.ID, req.OwnerID)
	}

	return doc, nil
}

// Get returns one owned document
func (s *Service) Get(ctx context.Context, collection models.CollectionKind, id, ownerID string) (*models.Document, error) {
	return s.storage.GetByOwner(collection, id, ownerID)
}

// List returns owner-scoped documents
func (s *Service) List(ctx context.Context, ownerID string, opts *interfaces.ListOptions) ([]*models.Document, error) {
	if ownerID == "" {
		return nil, services.NewDomainError(services.KindInvalidRequest, "owner id is required", nil)
	}
	return s.storage.List(ownerID, opts)
}

// Delete removes one owned document
func (s *Service) Delete(ctx context.Context, collection models.CollectionKind, id, ownerID string) error {
	affected, err := s.storage.DeleteByOwner(collection, id, ownerID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return services.NewDomainError(services.KindNotFound, fmt.Sprintf("document not found: %s", id), nil)
	}

	s.logger.Info().
		Str("doc_id", id).
		Str("collection", string(collection)).
		Msg("Document deleted")

	s.publish(ctx, interfaces.EventDocumentDeleted, id, ownerID)
	return nil
}

// Stats summarizes the owner's corpus
func (s *Service) Stats(ctx context.Context, ownerID string) (*models.DocumentStats, error) {
	if ownerID == "" {
		return nil, services.NewDomainError(services.KindInvalidRequest, "owner id is required", nil)
	}
	return s.storage.CountByOwner(ownerID)
}

// resolveContent turns the upload into text. Exactly one payload form
// is accepted; binary payloads go through extraction or transcription
// before any embedding work.
func (s *Service) resolveContent(ctx context.Context, req *interfaces.IngestRequest) (string, error) {
	populated := 0
	if strings.TrimSpace(req.Text) != "" {
		populated++
	}
	if len(req.PDF) > 0 {
		populated++
	}
	if len(req.Audio) > 0 {
		populated++
	}
	if populated == 0 {
		return "", services.NewDomainError(services.KindInvalidRequest,
			"one of text, pdf, or audio is required", nil)
	}
	if populated > 1 {
		return "", services.NewDomainError(services.KindInvalidRequest,
			"only one of text, pdf, or audio may be set", nil)
	}

	switch {
	case len(req.PDF) > 0:
		text, err := s.extractor.ExtractText(ctx, req.PDF)
		if err != nil {
			return "", err
		}
		return text, nil

	case len(req.Audio) > 0:
		text, err := s.transcriber.Transcribe(ctx, req.Audio, req.AudioMIME)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", services.NewDomainError(services.KindExtraction,
				"transcription produced no text", nil)
		}
		return text, nil

	default:
		return strings.TrimSpace(req.Text), nil
	}
}

func (s *Service) publish(ctx context.Context, eventType interfaces.EventType, docID, ownerID string) {
	if s.events == nil {
		return
	}
	event := interfaces.Event{
		Type:    eventType,
		OwnerID: ownerID,
		Payload: map[string]string{
			"doc_id": docID,
		},
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_type", string(eventType)).
			Msg("Failed to publish document event")
	}
}
