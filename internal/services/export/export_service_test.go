package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/models"
)

func TestExportPDF(t *testing.T) {
	service := NewService(arbor.NewLogger())

	tests := []struct {
		name string
		doc  *models.Document
	}{
		{
			name: "plain text note",
			doc: &models.Document{
				ID:         "doc_1",
				Collection: models.CollectionNote,
				Title:      "Cell Biology",
				Content:    "Mitosis has four phases.",
			},
		},
		{
			name: "markdown note with metadata",
			doc: &models.Document{
				ID:         "doc_2",
				Collection: models.CollectionNote,
				Title:      "Revision Plan",
				Content:    "# Week 1\n\nSome **bold** and *italic* text.\n\n- topic one\n- topic two\n\n```\nx = y + z\n```",
				Note: &models.NoteMetadata{
					Subject: "biology",
					Exam:    "finals",
					Topics:  []string{"mitosis", "meiosis"},
				},
			},
		},
		{
			name: "empty content",
			doc: &models.Document{
				ID:         "doc_3",
				Collection: models.CollectionAudio,
				Title:      "Silent Lecture",
				Content:    "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfBytes, err := service.ExportPDF(tt.doc)
			assert.NoError(t, err)
			assert.NotEmpty(t, pdfBytes)
			assert.Equal(t, "%PDF", string(pdfBytes[:4]))
		})
	}
}

func TestMetadataLine(t *testing.T) {
	doc := &models.Document{
		Collection: models.CollectionNote,
		Note: &models.NoteMetadata{
			Subject: "chemistry",
			Topics:  []string{"acids", "bases"},
		},
	}
	assert.Equal(t, "note | chemistry | acids, bases", metadataLine(doc))

	bare := &models.Document{Collection: models.CollectionPastPaper}
	assert.Equal(t, "pastpaper", metadataLine(bare))
}
