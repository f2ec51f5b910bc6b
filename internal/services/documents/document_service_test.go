package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/models"
	"github.com/ternarybob/scholia/internal/services"
	"github.com/ternarybob/scholia/internal/vector"
)

type memoryStorage struct {
	docs map[string]*models.Document
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{docs: make(map[string]*models.Document)}
}

func (m *memoryStorage) SaveDocument(doc *models.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *memoryStorage) GetByOwner(collection models.CollectionKind, id, ownerID string) (*models.Document, error) {
	doc, ok := m.docs[id]
	if !ok || doc.OwnerID != ownerID || doc.Collection != collection {
		return nil, services.NewDomainError(services.KindNotFound, "document not found", nil)
	}
	return doc, nil
}

func (m *memoryStorage) ListByOwner(collection models.CollectionKind, ownerID string) ([]*models.Document, error) {
	return nil, nil
}

func (m *memoryStorage) List(ownerID string, opts *interfaces.ListOptions) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range m.docs {
		if doc.OwnerID == ownerID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memoryStorage) DeleteByOwner(collection models.CollectionKind, id, ownerID string) (int, error) {
	doc, ok := m.docs[id]
	if !ok || doc.OwnerID != ownerID || doc.Collection != collection {
		return 0, nil
	}
	delete(m.docs, id)
	return 1, nil
}

func (m *memoryStorage) ListMissingEmbeddings(limit int) ([]*models.Document, error) {
	return nil, nil
}

func (m *memoryStorage) CountByOwner(ownerID string) (*models.DocumentStats, error) {
	return &models.DocumentStats{}, nil
}

type stubEmbedding struct {
	vec  vector.Vector
	err  error
	dims int
}

func (s *stubEmbedding) GenerateEmbedding(ctx context.Context, text string) (vector.Vector, error) {
	return s.vec, s.err
}

func (s *stubEmbedding) EmbedDocument(ctx context.Context, doc *models.Document) error {
	if s.err != nil {
		return s.err
	}
	doc.Embedding = s.vec
	return nil
}

func (s *stubEmbedding) GenerateQueryEmbedding(ctx context.Context, question string) (vector.Vector, error) {
	return s.vec, s.err
}

func (s *stubEmbedding) ModelName() string                    { return "stub" }
func (s *stubEmbedding) Dimension() int                       { return s.dims }
func (s *stubEmbedding) IsAvailable(ctx context.Context) bool { return s.err == nil }

type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubTranscriber struct {
	text  string
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	s.calls++
	return s.text, s.err
}

type fixture struct {
	svc         interfaces.DocumentService
	storage     *memoryStorage
	embedding   *stubEmbedding
	extractor   *stubExtractor
	transcriber *stubTranscriber
}

func newFixture() *fixture {
	storage := newMemoryStorage()
	embedding := &stubEmbedding{vec: vector.Vector{0.1, 0.2}, dims: 2}
	extractor := &stubExtractor{text: "extracted pdf text"}
	transcriber := &stubTranscriber{text: "transcribed audio"}

	svc := NewService(storage, embedding, extractor, transcriber, nil, arbor.NewLogger())
	return &fixture{
		svc:         svc,
		storage:     storage,
		embedding:   embedding,
		extractor:   extractor,
		transcriber: transcriber,
	}
}

func TestIngest_TextDocument(t *testing.T) {
	f := newFixture()

	doc, err := f.svc.Ingest(context.Background(), &interfaces.IngestRequest{
		OwnerID:    "owner-a",
		Collection: models.CollectionNote,
		Title:      "Cell Biology",
		Text:       "Mitosis has four phases",
		Note:       &models.NoteMetadata{Subject: "biology"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Mitosis has four phases", doc.Content)
	assert.Equal(t, []float32{0.1, 0.2}, []float32(doc.Embedding))
	assert.Equal(t, "biology", doc.Note.Subject)

	stored, err := f.svc.Get(context.Background(), models.CollectionNote, doc.ID, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, doc.Content, stored.Content)
}

func TestIngest_PDFGoesThroughExtraction(t *testing.T) {
	f := newFixture()

	doc, err := f.svc.Ingest(context.Background(), &interfaces.IngestRequest{
		OwnerID:    "owner-a",
		Collection: models.CollectionPastPaper,
		Title:      "2024 Exam",
		PDF:        []byte("%PDF-1.7 fake"),
	})
	require.NoError(t, err)
	assert.Equal(t, "extracted pdf text", doc.Content)
	assert.Equal(t, 1, f.extractor.calls)
}

func TestIngest_AudioGoesThroughTranscription(t *testing.T) {
	f := newFixture()

	doc, err := f.svc.Ingest(context.Background(), &interfaces.IngestRequest{
		OwnerID:    "owner-a",
		Collection: models.CollectionAudio,
		Title:      "Lecture 3",
		Audio:      []byte{0x01, 0x02},
		AudioMIME:  "audio/mpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, "transcribed audio", doc.Content)
	assert.Equal(t, 1, f.transcriber.calls)
}

func TestIngest_ExtractionFailureSkipsEmbedding(t *testing.T) {
	f := newFixture()
	f.extractor.err = services.NewDomainError(services.KindExtraction, "corrupt PDF", nil)

	_, err := f.svc.Ingest(context.Background(), &interfaces.IngestRequest{
		OwnerID:    "owner-a",
		Collection: models.CollectionPastPaper,
		Title:      "Broken",
		PDF:        []byte("garbage"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrExtraction)
	assert.Empty(t, f.storage.docs)
}

func TestIngest_EmbeddingOutageDefersToCoordinator(t *testing.T) {
	f := newFixture()
	f.embedding.err = services.NewDomainError(services.KindProvider, "provider down", nil)

	doc, err := f.svc.Ingest(context.Background(), &interfaces.IngestRequest{
		OwnerID:    "owner-a",
		Collection: models.CollectionNote,
		Title:      "Saved anyway",
		Text:       "content survives outages",
	})
	require.NoError(t, err)
	assert.Empty(t, doc.Embedding)

	stored := f.storage.docs[doc.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "content survives outages", stored.Content)
}

func TestIngest_ValidationFailures(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		req  *interfaces.IngestRequest
	}{
		{
			name: "missing owner",
			req: &interfaces.IngestRequest{
				Collection: models.CollectionNote, Title: "t", Text: "x",
			},
		},
		{
			name: "missing title",
			req: &interfaces.IngestRequest{
				OwnerID: "owner-a", Collection: models.CollectionNote, Text: "x",
			},
		},
		{
			name: "unknown collection",
			req: &interfaces.IngestRequest{
				OwnerID: "owner-a", Collection: "junk", Title: "t", Text: "x",
			},
		},
		{
			name: "no payload",
			req: &interfaces.IngestRequest{
				OwnerID: "owner-a", Collection: models.CollectionNote, Title: "t",
			},
		},
		{
			name: "multiple payloads",
			req: &interfaces.IngestRequest{
				OwnerID: "owner-a", Collection: models.CollectionNote, Title: "t",
				Text: "x", PDF: []byte("y"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Ingest(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrInvalidRequest)
		})
	}
}

func TestDelete_MissingDocumentFailsAsNotFound(t *testing.T) {
	f := newFixture()

	err := f.svc.Delete(context.Background(), models.CollectionNote, "doc_missing", "owner-a")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestDelete_RemovesOwnedDocument(t *testing.T) {
	f := newFixture()

	doc, err := f.svc.Ingest(context.Background(), &interfaces.IngestRequest{
		OwnerID:    "owner-a",
		Collection: models.CollectionNote,
		Title:      "t",
		Text:       "x",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), models.CollectionNote, doc.ID, "owner-a"))
	assert.Empty(t, f.storage.docs)
}
