package services

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a failure so callers can distinguish "no data" from
// "corrupt data" from "dependency down". One kind maps to one user-visible
// response; failures are never batched or hidden behind a generic success.
type ErrorKind string

const (
	// KindInvalidRequest is a caller error: missing question, id, or body
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindNotFound means no row matched the id and owner
	KindNotFound ErrorKind = "not_found"
	// KindNoResults means the query plan's scope yielded zero records
	KindNoResults ErrorKind = "no_results"
	// KindDimensionMismatch is a stored-data integrity failure
	KindDimensionMismatch ErrorKind = "dimension_mismatch"
	// KindDegenerateVector is a zero-norm vector integrity failure
	KindDegenerateVector ErrorKind = "degenerate_vector"
	// KindMalformedEmbedding is an undecodable stored embedding
	KindMalformedEmbedding ErrorKind = "malformed_embedding"
	// KindProvider is an external provider outage or rejection
	KindProvider ErrorKind = "provider"
	// KindProviderTimeout is an external provider deadline expiry
	KindProviderTimeout ErrorKind = "provider_timeout"
	// KindGeneration is a failed or empty language-generation completion
	KindGeneration ErrorKind = "generation"
	// KindExtraction is an unsupported or corrupt uploaded document
	KindExtraction ErrorKind = "extraction"
)

// DomainError carries an error kind alongside the underlying cause. The core
// never recovers from a failure by substituting defaults; every error is
// reported with its specific kind.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches two DomainErrors by kind, so sentinel comparisons like
// errors.Is(err, services.ErrNotFound) work regardless of message or cause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewDomainError creates a DomainError wrapping an underlying cause.
func NewDomainError(kind ErrorKind, message string, err error) *DomainError {
	return &DomainError{Kind: kind, Message: message, Err: err}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrInvalidRequest     = &DomainError{Kind: KindInvalidRequest, Message: "invalid request"}
	ErrNotFound           = &DomainError{Kind: KindNotFound, Message: "document not found"}
	ErrNoResults          = &DomainError{Kind: KindNoResults, Message: "no documents in scope"}
	ErrDimensionMismatch  = &DomainError{Kind: KindDimensionMismatch, Message: "embedding dimension mismatch"}
	ErrDegenerateVector   = &DomainError{Kind: KindDegenerateVector, Message: "degenerate embedding vector"}
	ErrMalformedEmbedding = &DomainError{Kind: KindMalformedEmbedding, Message: "malformed stored embedding"}
	ErrProvider           = &DomainError{Kind: KindProvider, Message: "provider failure"}
	ErrProviderTimeout    = &DomainError{Kind: KindProviderTimeout, Message: "provider call timed out"}
	ErrGeneration         = &DomainError{Kind: KindGeneration, Message: "answer generation failed"}
	ErrExtraction         = &DomainError{Kind: KindExtraction, Message: "text extraction failed"}
)

// KindOf returns the ErrorKind of err if it is (or wraps) a DomainError.
func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
