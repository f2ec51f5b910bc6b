package models

import (
	"fmt"
	"time"
)

// CollectionKind identifies which document collection a record belongs to.
// The three collections share an identical (text, vector, owner) read shape
// but carry different metadata.
type CollectionKind string

const (
	// CollectionAudio holds lecture audio transcripts
	CollectionAudio CollectionKind = "audio"
	// CollectionNote holds uploaded study notes
	CollectionNote CollectionKind = "note"
	// CollectionPastPaper holds scanned past exam papers
	CollectionPastPaper CollectionKind = "pastpaper"
)

// AllCollections returns every collection kind in canonical order.
func AllCollections() []CollectionKind {
	return []CollectionKind{CollectionAudio, CollectionNote, CollectionPastPaper}
}

// ParseCollectionKind validates a collection name from an external caller.
func ParseCollectionKind(s string) (CollectionKind, error) {
	switch CollectionKind(s) {
	case CollectionAudio, CollectionNote, CollectionPastPaper:
		return CollectionKind(s), nil
	default:
		return "", fmt.Errorf("unknown collection kind: %q", s)
	}
}

// Document is a stored study document owned by exactly one user. Every
// persisted document has a non-empty Content body and an embedding of the
// configured dimension, computed once at ingestion.
type Document struct {
	// Identity
	ID         string         `json:"id"`       // doc_{uuid}
	OwnerID    string         `json:"owner_id"` // opaque user key; scopes every read and write
	Collection CollectionKind `json:"collection"`

	// Content
	Title   string `json:"title"`
	Content string `json:"content"`

	// Embedding. Exactly one of Embedding / EmbeddingRaw is populated:
	// documents ingested by this service carry the native vector, documents
	// imported from older exports carry the serialized textual encoding and
	// are decoded at read time.
	Embedding      []float32 `json:"embedding,omitempty"`
	EmbeddingRaw   string    `json:"embedding_raw,omitempty"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`

	// Collection-specific metadata. Audio and past papers carry nothing
	// beyond the title; notes carry the study taxonomy below.
	Note *NoteMetadata `json:"note,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteMetadata is the study taxonomy attached to note documents.
type NoteMetadata struct {
	Category string   `json:"category,omitempty"`
	Exam     string   `json:"exam,omitempty"`
	Paper    string   `json:"paper,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Topics   []string `json:"topics,omitempty"`
}

// ProjectText reads the text field a query plan's mapping names.
func (d *Document) ProjectText(field string) (string, error) {
	switch field {
	case "Content":
		return d.Content, nil
	case "Title":
		return d.Title, nil
	default:
		return "", fmt.Errorf("unknown text field %q", field)
	}
}

// ProjectVector reads the embedding field a query plan's mapping names,
// in whichever representation the document stores it. Returns nil for a
// document that has not been embedded yet.
func (d *Document) ProjectVector(field string) (any, error) {
	switch field {
	case "Embedding":
		return d.RawEmbedding(), nil
	case "EmbeddingRaw":
		if d.EmbeddingRaw == "" {
			return nil, nil
		}
		return d.EmbeddingRaw, nil
	default:
		return nil, fmt.Errorf("unknown vector field %q", field)
	}
}

// RawEmbedding returns whichever embedding representation the document
// carries, for normalization through vector.Decode.
func (d *Document) RawEmbedding() any {
	if len(d.Embedding) > 0 {
		return d.Embedding
	}
	if d.EmbeddingRaw != "" {
		return d.EmbeddingRaw
	}
	return nil
}

// DocumentStats summarizes a single owner's corpus.
type DocumentStats struct {
	TotalDocuments        int                    `json:"total_documents"`
	DocumentsByCollection map[CollectionKind]int `json:"documents_by_collection"`
	LastUpdated           time.Time              `json:"last_updated"`
}
