package retrieval

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/models"
	"github.com/ternarybob/scholia/internal/services"
)

// memoryStorage is an in-memory DocumentStorage for retrieval tests.
type memoryStorage struct {
	docs []*models.Document
}

func (m *memoryStorage) SaveDocument(doc *models.Document) error {
	m.docs = append(m.docs, doc)
	return nil
}

func (m *memoryStorage) GetByOwner(collection models.CollectionKind, id, ownerID string) (*models.Document, error) {
	for _, doc := range m.docs {
		if doc.ID == id && doc.OwnerID == ownerID && doc.Collection == collection {
			return doc, nil
		}
	}
	return nil, services.NewDomainError(services.KindNotFound, fmt.Sprintf("document not found: %s", id), nil)
}

func (m *memoryStorage) ListByOwner(collection models.CollectionKind, ownerID string) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range m.docs {
		if doc.OwnerID == ownerID && doc.Collection == collection {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memoryStorage) List(ownerID string, opts *interfaces.ListOptions) ([]*models.Document, error) {
	return nil, nil
}

func (m *memoryStorage) DeleteByOwner(collection models.CollectionKind, id, ownerID string) (int, error) {
	return 0, nil
}

func (m *memoryStorage) ListMissingEmbeddings(limit int) ([]*models.Document, error) {
	return nil, nil
}

func (m *memoryStorage) CountByOwner(ownerID string) (*models.DocumentStats, error) {
	return &models.DocumentStats{}, nil
}

func newTestService(docs ...*models.Document) *Service {
	return NewService(&memoryStorage{docs: docs}, arbor.NewLogger())
}

func planFor(kinds ...models.CollectionKind) *models.QueryPlan {
	plan := &models.QueryPlan{}
	for _, kind := range kinds {
		plan.Targets = append(plan.Targets, models.CollectionTarget{
			Kind:    kind,
			Mapping: models.FieldMapping{TextField: "Content", VectorField: "Embedding"},
		})
	}
	return plan
}

func TestFetchOne_ReturnsOwnedDocument(t *testing.T) {
	doc := &models.Document{
		ID:         "doc_1",
		OwnerID:    "owner-a",
		Collection: models.CollectionNote,
		Content:    "mitosis has four phases",
		Embedding:  []float32{0.1, 0.2, 0.3},
	}
	svc := newTestService(doc)

	got, err := svc.FetchOne(models.CollectionNote, "doc_1", "owner-a")
	require.NoError(t, err)
	assert.Equal(t, "mitosis has four phases", got.Content)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got.Embedding)
}

func TestFetchOne_CrossOwnerAccessFailsAsNotFound(t *testing.T) {
	doc := &models.Document{
		ID:         "doc_1",
		OwnerID:    "owner-a",
		Collection: models.CollectionNote,
		Content:    "private notes",
		Embedding:  []float32{0.1, 0.2},
	}
	svc := newTestService(doc)

	got, err := svc.FetchOne(models.CollectionNote, "doc_1", "owner-b")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestFetchOne_RejectsEmptyIdentifiers(t *testing.T) {
	svc := newTestService()

	_, err := svc.FetchOne(models.CollectionNote, "", "owner-a")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	_, err = svc.FetchOne(models.CollectionNote, "doc_1", "")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestFetchAll_CollectsAcrossCollections(t *testing.T) {
	svc := newTestService(
		&models.Document{
			ID: "doc_1", OwnerID: "owner-a", Collection: models.CollectionAudio,
			Content: "audio transcript", Embedding: []float32{1, 0},
		},
		&models.Document{
			ID: "doc_2", OwnerID: "owner-a", Collection: models.CollectionPastPaper,
			Content: "past paper text", EmbeddingRaw: "[0, 1]",
		},
		&models.Document{
			ID: "doc_3", OwnerID: "owner-b", Collection: models.CollectionAudio,
			Content: "someone else's transcript", Embedding: []float32{0.5, 0.5},
		},
	)

	records, err := svc.FetchAll(planFor(models.CollectionAudio, models.CollectionPastPaper), "owner-a")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "audio transcript", records[0].Text)
	assert.Equal(t, models.CollectionAudio, records[0].Collection)
	assert.Equal(t, "past paper text", records[1].Text)
	assert.Equal(t, models.CollectionPastPaper, records[1].Collection)
}

func TestFetchAll_NormalizesSerializedAndNativeEmbeddings(t *testing.T) {
	svc := newTestService(
		&models.Document{
			ID: "doc_native", OwnerID: "owner-a", Collection: models.CollectionNote,
			Content: "native", Embedding: []float32{0.25, -0.5, 1},
		},
		&models.Document{
			ID: "doc_text", OwnerID: "owner-a", Collection: models.CollectionNote,
			Content: "textual", EmbeddingRaw: "[0.25, -0.5, 1]",
		},
	)

	records, err := svc.FetchAll(planFor(models.CollectionNote), "owner-a")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, records[0].Vector, records[1].Vector)
}

func TestFetchAll_MalformedEmbeddingFails(t *testing.T) {
	svc := newTestService(
		&models.Document{
			ID: "doc_bad", OwnerID: "owner-a", Collection: models.CollectionNote,
			Content: "broken", EmbeddingRaw: `["not", "numbers"]`,
		},
	)

	_, err := svc.FetchAll(planFor(models.CollectionNote), "owner-a")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrMalformedEmbedding)
}

func TestFetchAll_EmptyCorpusReturnsEmptyListNotError(t *testing.T) {
	svc := newTestService()

	records, err := svc.FetchAll(planFor(models.CollectionAudio, models.CollectionNote, models.CollectionPastPaper), "owner-a")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchAll_SkipsDocumentsAwaitingEmbedding(t *testing.T) {
	svc := newTestService(
		&models.Document{
			ID: "doc_pending", OwnerID: "owner-a", Collection: models.CollectionNote,
			Content: "awaiting backfill",
		},
		&models.Document{
			ID: "doc_ready", OwnerID: "owner-a", Collection: models.CollectionNote,
			Content: "embedded", Embedding: []float32{1, 0},
		},
	)

	records, err := svc.FetchAll(planFor(models.CollectionNote), "owner-a")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "embedded", records[0].Text)
}

func TestFetchAll_RejectsEmptyPlan(t *testing.T) {
	svc := newTestService()

	_, err := svc.FetchAll(nil, "owner-a")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	_, err = svc.FetchAll(&models.QueryPlan{}, "owner-a")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestFetchAll_ProjectsThroughFieldMapping(t *testing.T) {
	svc := newTestService(
		&models.Document{
			ID: "doc_1", OwnerID: "owner-a", Collection: models.CollectionNote,
			Title: "Cell Division", Content: "mitosis has four phases",
			Embedding: []float32{1, 0},
		},
	)

	plan := &models.QueryPlan{Targets: []models.CollectionTarget{{
		Kind:    models.CollectionNote,
		Mapping: models.FieldMapping{TextField: "Title", VectorField: "Embedding"},
	}}}

	records, err := svc.FetchAll(plan, "owner-a")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Cell Division", records[0].Text)
}

func TestFetchAll_RejectsUnknownMappingFields(t *testing.T) {
	svc := newTestService(
		&models.Document{
			ID: "doc_1", OwnerID: "owner-a", Collection: models.CollectionNote,
			Content: "hello", Embedding: []float32{1, 0},
		},
	)

	badText := &models.QueryPlan{Targets: []models.CollectionTarget{{
		Kind:    models.CollectionNote,
		Mapping: models.FieldMapping{TextField: "NoSuchField", VectorField: "Embedding"},
	}}}
	_, err := svc.FetchAll(badText, "owner-a")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	badVector := &models.QueryPlan{Targets: []models.CollectionTarget{{
		Kind:    models.CollectionNote,
		Mapping: models.FieldMapping{TextField: "Content", VectorField: "AlsoMissing"},
	}}}
	_, err = svc.FetchAll(badVector, "owner-a")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestFetchAll_JoinsResultsInPlanOrder(t *testing.T) {
	svc := newTestService(
		&models.Document{
			ID: "doc_note", OwnerID: "owner-a", Collection: models.CollectionNote,
			Content: "note text", Embedding: []float32{1, 0},
		},
		&models.Document{
			ID: "doc_paper", OwnerID: "owner-a", Collection: models.CollectionPastPaper,
			Content: "paper text", Embedding: []float32{0, 1},
		},
	)

	records, err := svc.FetchAll(planFor(models.CollectionPastPaper, models.CollectionNote), "owner-a")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.CollectionPastPaper, records[0].Collection)
	assert.Equal(t, models.CollectionNote, records[1].Collection)
}
