package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/interfaces"
)

// askTimeout bounds one question-answering invocation end to end.
const askTimeout = 60 * time.Second

// AskHandler exposes the question-answering endpoints
type AskHandler struct {
	askService interfaces.AskService
	logger     arbor.ILogger
}

// NewAskHandler creates a new ask handler
func NewAskHandler(askService interfaces.AskService, logger arbor.ILogger) *AskHandler {
	return &AskHandler{
		askService: askService,
		logger:     logger,
	}
}

// AskCorpusHandler handles POST /api/ask
func (h *AskHandler) AskCorpusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	owner, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	var req interfaces.CorpusQuestion
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OwnerID = owner

	ctx, cancel := context.WithTimeout(r.Context(), askTimeout)
	defer cancel()

	answer, err := h.askService.AskCorpus(ctx, &req)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Corpus question failed")
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, answer)
}

// HealthHandler handles GET /api/ask/health
func (h *AskHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.askService.HealthCheck(ctx); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// askDocument handles POST /api/documents/{id}/ask, dispatched from the
// document routes.
func (h *AskHandler) askDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	owner, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	var req interfaces.DocumentQuestion
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OwnerID = owner
	req.DocumentID = documentID

	ctx, cancel := context.WithTimeout(r.Context(), askTimeout)
	defer cancel()

	answer, err := h.askService.AskDocument(ctx, &req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("doc_id", documentID).
			Msg("Document question failed")
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, answer)
}
