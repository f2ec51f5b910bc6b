package router

import (
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/models"
)

// keywordTable maps question keywords to the collection they imply.
// Matching is case-insensitive substring matching; a question can hit
// several rows and every matched collection is included.
var keywordTable = []struct {
	keywords   []string
	collection models.CollectionKind
}{
	{keywords: []string{"paper", "previous"}, collection: models.CollectionPastPaper},
	{keywords: []string{"audio"}, collection: models.CollectionAudio},
	{keywords: []string{"question", "notes"}, collection: models.CollectionNote},
}

// defaultMapping names the stored fields every collection reads its
// (text, vector) pair from. The collections share one schema today,
// so one mapping serves all three.
var defaultMapping = models.FieldMapping{
	TextField:   "Content",
	VectorField: "Embedding",
}

// Service decides which collections are in scope for a question.
// Deterministic and stateless.
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new collection router
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Route returns the collections a question should be answered from.
// When no keyword matches, every collection is targeted: a question
// that names no collection still deserves an answer from the full
// corpus, at the cost of retrieving more than strictly needed.
func (s *Service) Route(question string) []models.CollectionKind {
	lowered := strings.ToLower(question)

	var matched []models.CollectionKind
	seen := make(map[models.CollectionKind]bool)

	for _, entry := range keywordTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lowered, kw) {
				if !seen[entry.collection] {
					seen[entry.collection] = true
					matched = append(matched, entry.collection)
				}
				break
			}
		}
	}

	if len(matched) == 0 {
		matched = models.AllCollections()
		s.logger.Debug().Msg("No collection keyword matched, targeting full corpus")
	}

	return matched
}

// Plan builds the query plan for a question: the routed collections in
// canonical order, each paired with its field mapping.
func (s *Service) Plan(question string) *models.QueryPlan {
	kinds := s.Route(question)

	plan := &models.QueryPlan{
		Targets: make([]models.CollectionTarget, 0, len(kinds)),
	}
	for _, kind := range kinds {
		plan.Targets = append(plan.Targets, models.CollectionTarget{
			Kind:    kind,
			Mapping: defaultMapping,
		})
	}

	s.logger.Debug().
		Int("target_count", len(plan.Targets)).
		Msg("Built query plan")

	return plan
}
