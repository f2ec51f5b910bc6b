package interfaces

import (
	"context"

	"github.com/ternarybob/scholia/internal/models"
)

// IngestRequest carries one document into the corpus. Exactly one of Text,
// PDF, or Audio is set; binary payloads are extracted or transcribed before
// any embedding work is attempted.
type IngestRequest struct {
	OwnerID    string                `json:"-"`
	Collection models.CollectionKind `json:"collection" validate:"required"`
	Title      string                `json:"title" validate:"required,max=512"`

	Text  string `json:"text,omitempty"`
	PDF   []byte `json:"pdf,omitempty"`
	Audio []byte `json:"audio,omitempty"`
	// AudioMIME identifies the audio container, e.g. "audio/mpeg"
	AudioMIME string `json:"audio_mime,omitempty"`

	Note *models.NoteMetadata `json:"note,omitempty"`
}

// DocumentService ingests and manages owned documents
type DocumentService interface {
	// Ingest extracts text if needed, embeds it once, and persists the document.
	Ingest(ctx context.Context, req *IngestRequest) (*models.Document, error)

	Get(ctx context.Context, collection models.CollectionKind, id, ownerID string) (*models.Document, error)
	List(ctx context.Context, ownerID string, opts *ListOptions) ([]*models.Document, error)
	Delete(ctx context.Context, collection models.CollectionKind, id, ownerID string) error
	Stats(ctx context.Context, ownerID string) (*models.DocumentStats, error)
}

// Extractor converts an uploaded binary document into text
type Extractor interface {
	// ExtractText returns the text content of a PDF payload.
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}
