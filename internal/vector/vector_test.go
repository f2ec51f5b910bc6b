package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine_SelfSimilarity(t *testing.T) {
	vectors := []Vector{
		{1, 0, 0},
		{0.3, -0.7, 0.2},
		{5, 5, 5, 5},
	}

	for _, v := range vectors {
		sim, err := Cosine(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-6)
	}
}

func TestCosine_Symmetry(t *testing.T) {
	a := Vector{0.1, 0.9, -0.4}
	b := Vector{-0.2, 0.5, 0.8}

	ab, err := Cosine(a, b)
	require.NoError(t, err)
	ba, err := Cosine(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
}

func TestCosine_Orthogonal(t *testing.T) {
	sim, err := Cosine(Vector{1, 0}, Vector{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-6)
}

func TestCosine_Opposite(t *testing.T) {
	sim, err := Cosine(Vector{1, 2, 3}, Vector{-1, -2, -3})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-6)
}

func TestCosine_DimensionMismatch(t *testing.T) {
	pairs := []struct {
		a, b Vector
	}{
		{Vector{1, 2}, Vector{1, 2, 3}},
		{Vector{1}, Vector{}},
		{Vector{1, 2, 3, 4}, Vector{1}},
	}

	for _, p := range pairs {
		_, err := Cosine(p.a, p.b)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	}
}

func TestCosine_DegenerateVector(t *testing.T) {
	_, err := Cosine(Vector{0, 0, 0}, Vector{1, 2, 3})
	assert.ErrorIs(t, err, ErrDegenerateVector)

	_, err = Cosine(Vector{1, 2, 3}, Vector{0, 0, 0})
	assert.ErrorIs(t, err, ErrDegenerateVector)

	_, err = Cosine(Vector{}, Vector{})
	assert.ErrorIs(t, err, ErrDegenerateVector)
}

func TestCosine_NeverNaN(t *testing.T) {
	// Error paths must never leak NaN to callers
	sim, err := Cosine(Vector{0, 0}, Vector{0, 0})
	assert.Error(t, err)
	assert.False(t, math.IsNaN(sim))
}

func TestDecode_NativeForms(t *testing.T) {
	want := Vector{1.5, -2, 0.25}

	got, err := Decode([]float32{1.5, -2, 0.25})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = Decode([]float64{1.5, -2, 0.25})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = Decode([]any{1.5, float64(-2), 0.25})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecode_TextualEncoding(t *testing.T) {
	got, err := Decode("[1.5, -2, 0.25]")
	require.NoError(t, err)
	assert.Equal(t, Vector{1.5, -2, 0.25}, got)

	got, err = Decode([]byte(" [0.5,0.5] "))
	require.NoError(t, err)
	assert.Equal(t, Vector{0.5, 0.5}, got)
}

func TestDecode_RoundTripIdempotence(t *testing.T) {
	// A serialized textual encoding and a native sequence of the same numbers
	// must decode to identical vectors.
	native, err := Decode([]float64{0.125, -0.75, 3})
	require.NoError(t, err)

	textual, err := Decode("[0.125, -0.75, 3]")
	require.NoError(t, err)

	assert.Equal(t, native, textual)
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"non-numeric entry", []any{1.0, "two", 3.0}},
		{"nested sequence", []any{[]any{1.0}, 2.0}},
		{"garbage text", "not a vector"},
		{"object text", `{"a":1}`},
		{"empty text", "   "},
		{"unsupported type", map[string]int{"a": 1}},
		{"nan component", []float64{1, math.NaN()}},
		{"inf component", []float64{math.Inf(1), 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.raw)
			assert.ErrorIs(t, err, ErrMalformedEmbedding)
		})
	}
}
