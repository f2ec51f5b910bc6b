package vector

import (
	"errors"
	"math"
)

// Vector is a fixed-dimension embedding vector. The dimension is set by the
// embedding model and agreed at configuration time; vectors of different
// lengths are never comparable.
type Vector []float32

var (
	// ErrDimensionMismatch indicates two vectors of different lengths were compared
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrDegenerateVector indicates a zero-norm vector that carries no direction.
	// Callers must be able to distinguish "no signal" from "orthogonal", so this
	// is an error rather than a zero similarity.
	ErrDegenerateVector = errors.New("degenerate zero-norm vector")

	// ErrMalformedEmbedding indicates a stored embedding that could not be
	// decoded into a flat numeric sequence
	ErrMalformedEmbedding = errors.New("malformed embedding")
)

// Cosine computes the cosine similarity between two vectors: dot(a,b)/(|a|*|b|).
// The result is in [-1, 1].
func Cosine(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, ErrDegenerateVector
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Guard against float drift pushing the result out of range
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}

	return sim, nil
}

// IsFinite reports whether every component is a finite number.
func (v Vector) IsFinite() bool {
	for _, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
