package vector

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Decode normalizes a stored embedding into a canonical Vector. Embeddings
// arrive in two shapes depending on how the document was ingested: a native
// numeric sequence ([]float32, []float64, []any of numbers) or a serialized
// textual encoding (a JSON array string, possibly as []byte). Decoding happens
// once at the store boundary so downstream code only ever sees Vector.
func Decode(raw any) (Vector, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil embedding", ErrMalformedEmbedding)
	case Vector:
		return checkFinite(v)
	case []float32:
		return checkFinite(Vector(v))
	case []float64:
		out := make(Vector, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return checkFinite(out)
	case []any:
		out := make(Vector, len(v))
		for i, e := range v {
			f, ok := asNumber(e)
			if !ok {
				return nil, fmt.Errorf("%w: non-numeric entry at index %d", ErrMalformedEmbedding, i)
			}
			out[i] = float32(f)
		}
		return checkFinite(out)
	case string:
		return decodeText(v)
	case []byte:
		return decodeText(string(v))
	default:
		return nil, fmt.Errorf("%w: unsupported representation %T", ErrMalformedEmbedding, raw)
	}
}

// decodeText parses a serialized textual encoding of an embedding, e.g.
// "[0.12, -0.5, 0.9]" as written by older exports.
func decodeText(s string) (Vector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty textual encoding", ErrMalformedEmbedding)
	}

	var values []json.Number
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEmbedding, err)
	}

	out := make(Vector, len(values))
	for i, n := range values {
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: non-numeric entry at index %d", ErrMalformedEmbedding, i)
		}
		out[i] = float32(f)
	}
	return checkFinite(out)
}

func asNumber(e any) (float64, bool) {
	switch n := e.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func checkFinite(v Vector) (Vector, error) {
	for i, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: non-finite component at index %d", ErrMalformedEmbedding, i)
		}
	}
	return v, nil
}
