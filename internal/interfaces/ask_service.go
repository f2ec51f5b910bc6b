package interfaces

import (
	"context"

	"github.com/ternarybob/scholia/internal/models"
)

// CorpusQuestion asks a question across the owner's whole corpus, scoped to
// the collections the router selects from the question text.
type CorpusQuestion struct {
	OwnerID  string `json:"-"`
	Question string `json:"question"`
}

// DocumentQuestion asks a question about one previously identified document.
type DocumentQuestion struct {
	OwnerID    string                `json:"-"`
	Collection models.CollectionKind `json:"collection"`
	DocumentID string                `json:"document_id"`
	Question   string                `json:"question"`
}

// AskService is the retrieval orchestrator: one stateless invocation per
// question, wiring router, retriever, assembler and synthesizer.
type AskService interface {
	// AskCorpus answers from every document in the routed collections.
	AskCorpus(ctx context.Context, q *CorpusQuestion) (*models.Answer, error)

	// AskDocument answers from a single owned document and carries the
	// question/document cosine similarity into the answer.
	AskDocument(ctx context.Context, q *DocumentQuestion) (*models.Answer, error)

	// HealthCheck verifies the downstream providers are reachable.
	HealthCheck(ctx context.Context) error
}
