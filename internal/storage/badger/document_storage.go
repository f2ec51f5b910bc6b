package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/models"
	"github.com/ternarybob/scholia/internal/services"
	"github.com/timshannon/badgerhold/v4"
)

// DocumentStorage implements the DocumentStorage interface for Badger.
// Every query predicate includes OwnerID: this layer is the enforcement
// point for multi-tenant isolation.
type DocumentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDocumentStorage creates a new DocumentStorage instance
func NewDocumentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DocumentStorage {
	return &DocumentStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DocumentStorage) SaveDocument(doc *models.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if doc.OwnerID == "" {
		return fmt.Errorf("document owner is required")
	}
	if doc.Content == "" {
		return fmt.Errorf("document content is required")
	}
	if _, err := models.ParseCollectionKind(string(doc.Collection)); err != nil {
		return err
	}

	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if err := s.db.Store().Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// GetByOwner returns a document only when both id and owner match. A valid
// id paired with the wrong owner reports not-found, never the row.
func (s *DocumentStorage) GetByOwner(collection models.CollectionKind, id, ownerID string) (*models.Document, error) {
	var doc models.Document
	if err := s.db.Store().Get(id, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, services.NewDomainError(services.KindNotFound, fmt.Sprintf("document %s", id), nil)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if doc.OwnerID != ownerID || doc.Collection != collection {
		return nil, services.NewDomainError(services.KindNotFound, fmt.Sprintf("document %s", id), nil)
	}

	return &doc, nil
}

func (s *DocumentStorage) ListByOwner(collection models.CollectionKind, ownerID string) ([]*models.Document, error) {
	var docs []models.Document
	query := badgerhold.Where("OwnerID").Eq(ownerID).And("Collection").Eq(collection)
	if err := s.db.Store().Find(&docs, query); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	result := make([]*models.Document, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

func (s *DocumentStorage) List(ownerID string, opts *interfaces.ListOptions) ([]*models.Document, error) {
	query := badgerhold.Where("OwnerID").Eq(ownerID)

	if opts != nil {
		if opts.Collection != "" {
			query = query.And("Collection").Eq(opts.Collection)
		}
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
	}

	var docs []models.Document
	if err := s.db.Store().Find(&docs, query); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	result := make([]*models.Document, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

// DeleteByOwner removes a document and reports the number of matched rows.
// Deleting another owner's document matches zero rows.
func (s *DocumentStorage) DeleteByOwner(collection models.CollectionKind, id, ownerID string) (int, error) {
	doc, err := s.GetByOwner(collection, id, ownerID)
	if err != nil {
		if kind, ok := services.KindOf(err); ok && kind == services.KindNotFound {
			return 0, nil
		}
		return 0, err
	}

	if err := s.db.Store().Delete(doc.ID, &models.Document{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to delete document: %w", err)
	}
	return 1, nil
}

func (s *DocumentStorage) ListMissingEmbeddings(limit int) ([]*models.Document, error) {
	// Documents whose ingestion-time embedding failed carry neither a native
	// vector nor a legacy textual encoding.
	var docs []models.Document
	query := badgerhold.Where("Embedding").MatchFunc(func(ra *badgerhold.RecordAccess) (bool, error) {
		doc, ok := ra.Record().(*models.Document)
		if !ok {
			return false, fmt.Errorf("unexpected record type %T", ra.Record())
		}
		return len(doc.Embedding) == 0 && doc.EmbeddingRaw == "", nil
	})
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := s.db.Store().Find(&docs, query); err != nil {
		return nil, fmt.Errorf("failed to list documents missing embeddings: %w", err)
	}

	result := make([]*models.Document, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

func (s *DocumentStorage) CountByOwner(ownerID string) (*models.DocumentStats, error) {
	stats := &models.DocumentStats{
		DocumentsByCollection: make(map[models.CollectionKind]int),
		LastUpdated:           time.Now(),
	}

	for _, kind := range models.AllCollections() {
		count, err := s.db.Store().Count(&models.Document{},
			badgerhold.Where("OwnerID").Eq(ownerID).And("Collection").Eq(kind))
		if err != nil {
			return nil, fmt.Errorf("failed to count documents: %w", err)
		}
		stats.DocumentsByCollection[kind] = int(count)
		stats.TotalDocuments += int(count)
	}

	return stats, nil
}
