package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/scholia/internal/services"
)

// OwnerHeader carries the opaque owner identity derived from the
// external authentication step.
const OwnerHeader = "X-Scholia-Owner"

// RequireMethod validates the HTTP method, writing a 405 on mismatch.
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// RequireOwner extracts the owner identity, writing a 401 when absent.
func RequireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := r.Header.Get(OwnerHeader)
	if owner == "" {
		WriteError(w, http.StatusUnauthorized, "Missing owner identity")
		return "", false
	}
	return owner, true
}

// WriteJSON writes a JSON response with the specified status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteDomainError maps a domain error kind onto its HTTP status. One
// kind maps to one response; unknown errors surface as a plain 500.
func WriteDomainError(w http.ResponseWriter, err error) error {
	kind, ok := services.KindOf(err)
	if !ok {
		return WriteError(w, http.StatusInternalServerError, "Internal server error")
	}

	status := http.StatusInternalServerError
	switch kind {
	case services.KindInvalidRequest:
		status = http.StatusBadRequest
	case services.KindNotFound, services.KindNoResults:
		status = http.StatusNotFound
	case services.KindExtraction:
		status = http.StatusUnprocessableEntity
	case services.KindProvider, services.KindGeneration:
		status = http.StatusBadGateway
	case services.KindProviderTimeout:
		status = http.StatusGatewayTimeout
	case services.KindDimensionMismatch, services.KindDegenerateVector, services.KindMalformedEmbedding:
		status = http.StatusInternalServerError
	}

	return WriteJSON(w, status, map[string]string{
		"status": "error",
		"kind":   string(kind),
		"error":  err.Error(),
	})
}
