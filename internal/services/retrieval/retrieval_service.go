package retrieval

import (
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/models"
	"github.com/ternarybob/scholia/internal/services"
	"github.com/ternarybob/scholia/internal/vector"
)

// Service executes query plans against document storage. Both entry
// points are scoped by owner identity; the underlying store enforces
// the isolation, this layer normalizes embeddings into the canonical
// vector type so downstream code never sees the stored representation.
type Service struct {
	storage interfaces.DocumentStorage
	logger  arbor.ILogger
}

// NewService creates a new retrieval service
func NewService(storage interfaces.DocumentStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// FetchOne retrieves a single document by id for the given owner. A
// valid id owned by someone else fails with not-found, identical to a
// missing document.
func (s *Service) FetchOne(collection models.CollectionKind, documentID, ownerID string) (*models.Document, error) {
	if documentID == "" {
		return nil, services.NewDomainError(services.KindInvalidRequest, "document id is required", nil)
	}
	if ownerID == "" {
		return nil, services.NewDomainError(services.KindInvalidRequest, "owner id is required", nil)
	}

	doc, err := s.storage.GetByOwner(collection, documentID, ownerID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("doc_id", doc.ID).
		Str("collection", string(doc.Collection)).
		Msg("Fetched document")

	return doc, nil
}

// FetchAll executes the plan for the owner, collecting one record per
// stored document across every targeted collection. Stored embeddings
// arrive either as native float sequences or as serialized text;
// both are decoded here into the canonical Vector. An owner with no
// documents in any targeted collection yields an empty list, not an
// error.
func (s *Service) FetchAll(plan *models.QueryPlan, ownerID string) ([]models.RetrievedRecord, error) {
	if ownerID == "" {
		return nil, services.NewDomainError(services.KindInvalidRequest, "owner id is required", nil)
	}
	if plan == nil || len(plan.Targets) == 0 {
		return nil, services.NewDomainError(services.KindInvalidRequest, "query plan has no targets", nil)
	}

	// Collections are disjoint and read-only for this operation, so the
	// targets fan out concurrently; results are joined in plan order.
	perTarget := make([][]models.RetrievedRecord, len(plan.Targets))
	errs := make([]error, len(plan.Targets))

	var wg sync.WaitGroup
	for i, target := range plan.Targets {
		wg.Add(1)
		go func(i int, target models.CollectionTarget) {
			defer wg.Done()
			perTarget[i], errs[i] = s.fetchTarget(target, ownerID)
		}(i, target)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var records []models.RetrievedRecord
	for _, batch := range perTarget {
		records = append(records, batch...)
	}

	s.logger.Debug().
		Int("record_count", len(records)).
		Int("target_count", len(plan.Targets)).
		Msg("Executed query plan")

	return records, nil
}

// fetchTarget reads one collection's documents, projecting (text, vector)
// through the target's field mapping.
func (s *Service) fetchTarget(target models.CollectionTarget, ownerID string) ([]models.RetrievedRecord, error) {
	docs, err := s.storage.ListByOwner(target.Kind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", target.Kind, err)
	}

	var records []models.RetrievedRecord
	for _, doc := range docs {
		text, err := doc.ProjectText(target.Mapping.TextField)
		if err != nil {
			return nil, services.NewDomainError(
				services.KindInvalidRequest,
				fmt.Sprintf("query plan names an unknown text field for %s", target.Kind),
				err,
			)
		}

		raw, err := doc.ProjectVector(target.Mapping.VectorField)
		if err != nil {
			return nil, services.NewDomainError(
				services.KindInvalidRequest,
				fmt.Sprintf("query plan names an unknown vector field for %s", target.Kind),
				err,
			)
		}
		if raw == nil {
			// Not yet embedded; the coordinator will backfill it.
			s.logger.Debug().
				Str("doc_id", doc.ID).
				Msg("Skipping document awaiting embedding")
			continue
		}

		vec, err := vector.Decode(raw)
		if err != nil {
			return nil, services.NewDomainError(
				services.KindMalformedEmbedding,
				fmt.Sprintf("document %s has a malformed embedding", doc.ID),
				err,
			)
		}

		records = append(records, models.RetrievedRecord{
			Text:       text,
			Vector:     vec,
			Collection: target.Kind,
		})
	}

	return records, nil
}
