package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/models"
	"github.com/ternarybob/scholia/internal/services/export"
)

// DocumentHandler exposes document ingestion and management endpoints
type DocumentHandler struct {
	documentService interfaces.DocumentService
	exportService   *export.Service
	askHandler      *AskHandler
	logger          arbor.ILogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	documentService interfaces.DocumentService,
	exportService *export.Service,
	askHandler *AskHandler,
	logger arbor.ILogger,
) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		exportService:   exportService,
		askHandler:      askHandler,
		logger:          logger,
	}
}

// CollectionHandler handles GET (list) and POST (ingest) on
// /api/documents.
func (h *DocumentHandler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.ingest(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// StatsHandler handles GET /api/documents/stats
func (h *DocumentHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	owner, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	stats, err := h.documentService.Stats(r.Context(), owner)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

// ItemHandler dispatches /api/documents/{id} and its subpaths:
// GET/DELETE on the document itself, POST {id}/ask, GET {id}/export.
func (h *DocumentHandler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	parts := strings.SplitN(rest, "/", 2)
	documentID := parts[0]
	if documentID == "" {
		WriteError(w, http.StatusBadRequest, "Missing document id")
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "ask":
			if !RequireMethod(w, r, "POST") {
				return
			}
			h.askHandler.askDocument(w, r, documentID)
		case "export":
			if !RequireMethod(w, r, "GET") {
				return
			}
			h.exportPDF(w, r, documentID)
		default:
			WriteError(w, http.StatusNotFound, "Unknown document operation")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, documentID)
	case http.MethodDelete:
		h.delete(w, r, documentID)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *DocumentHandler) ingest(w http.ResponseWriter, r *http.Request) {
	owner, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	var req interfaces.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OwnerID = owner

	doc, err := h.documentService.Ingest(r.Context(), &req)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Document ingest failed")
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) list(w http.ResponseWriter, r *http.Request) {
	owner, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	opts := &interfaces.ListOptions{}
	if c := r.URL.Query().Get("collection"); c != "" {
		kind, err := models.ParseCollectionKind(c)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Collection = kind
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.Offset = n
		}
	}

	docs, err := h.documentService.List(r.Context(), owner, opts)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	})
}

func (h *DocumentHandler) get(w http.ResponseWriter, r *http.Request, documentID string) {
	owner, ok := RequireOwner(w, r)
	if !ok {
		return
	}
	collection, ok := h.collectionParam(w, r)
	if !ok {
		return
	}

	doc, err := h.documentService.Get(r.Context(), collection, documentID, owner)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) delete(w http.ResponseWriter, r *http.Request, documentID string) {
	owner, ok := RequireOwner(w, r)
	if !ok {
		return
	}
	collection, ok := h.collectionParam(w, r)
	if !ok {
		return
	}

	if err := h.documentService.Delete(r.Context(), collection, documentID, owner); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"id":     documentID,
	})
}

func (h *DocumentHandler) exportPDF(w http.ResponseWriter, r *http.Request, documentID string) {
	owner, ok := RequireOwner(w, r)
	if !ok {
		return
	}
	collection, ok := h.collectionParam(w, r)
	if !ok {
		return
	}

	doc, err := h.documentService.Get(r.Context(), collection, documentID, owner)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	pdfBytes, err := h.exportService.ExportPDF(doc)
	if err != nil {
		h.logger.Error().Err(err).Str("doc_id", documentID).Msg("PDF export failed")
		WriteError(w, http.StatusInternalServerError, "Failed to export document")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Title+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

func (h *DocumentHandler) collectionParam(w http.ResponseWriter, r *http.Request) (models.CollectionKind, bool) {
	kind, err := models.ParseCollectionKind(r.URL.Query().Get("collection"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Query parameter 'collection' must be one of audio, note, pastpaper")
		return "", false
	}
	return kind, true
}
