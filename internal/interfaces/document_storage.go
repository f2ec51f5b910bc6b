package interfaces

import "github.com/ternarybob/scholia/internal/models"

// ListOptions filters owner-scoped document listings
type ListOptions struct {
	Collection models.CollectionKind // empty = all collections
	Limit      int
	Offset     int
}

// DocumentStorage persists documents. Every read and write is scoped by
// owner; the store is the enforcement point for multi-tenant isolation, so a
// valid document id paired with the wrong owner behaves exactly like a
// missing document.
type DocumentStorage interface {
	SaveDocument(doc *models.Document) error

	// GetByOwner returns the document only when both id and owner match.
	GetByOwner(collection models.CollectionKind, id, ownerID string) (*models.Document, error)

	// ListByOwner returns every document the owner holds in the collection.
	ListByOwner(collection models.CollectionKind, ownerID string) ([]*models.Document, error)

	// List returns owner-scoped documents across collections with paging.
	List(ownerID string, opts *ListOptions) ([]*models.Document, error)

	// DeleteByOwner removes the document and reports how many rows matched.
	DeleteByOwner(collection models.CollectionKind, id, ownerID string) (int, error)

	// ListMissingEmbeddings returns documents without a stored embedding,
	// across all owners, for the re-embed coordinator.
	ListMissingEmbeddings(limit int) ([]*models.Document, error)

	CountByOwner(ownerID string) (*models.DocumentStats, error)
}

// StorageManager owns the database connection and the typed stores
type StorageManager interface {
	DocumentStorage() DocumentStorage
	Close() error
}
