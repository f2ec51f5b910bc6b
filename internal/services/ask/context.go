package ask

import (
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/scholia/internal/models"
)

// assembleDocumentContext returns a single document's text verbatim.
// No truncation or summarization: the full stored text is the prompt
// context for the per-document path.
func assembleDocumentContext(doc *models.Document) string {
	return doc.Content
}

// assembleCorpusContext concatenates every retrieved record's text in
// retrieval order, newline-separated, without deduplication. When
// maxChars is positive the result is cut at that boundary; the cap is
// applied to the joined text so every collection is treated the same.
func assembleCorpusContext(records []models.RetrievedRecord, maxChars int) string {
	parts := make([]string, 0, len(records))
	for _, rec := range records {
		parts = append(parts, rec.Text)
	}

	joined := strings.Join(parts, "\n")
	if maxChars > 0 && len(joined) > maxChars {
		// Back up to a rune boundary so the cut never emits a partial
		// UTF-8 sequence.
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(joined[cut]) {
			cut--
		}
		joined = joined[:cut]
	}
	return joined
}

// buildUserPrompt embeds the context and the question verbatim into
// the user message.
func buildUserPrompt(contextText, question string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
