package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilaritySelf(t *testing.T) {
	v := []float64{0.3, -1.2, 4.5, 0.07}
	got, ok := cosineSimilarity(v, v)
	require.True(t, ok)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestCosineSimilaritySymmetry(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{-2, 0.5, 7}
	ab, ok := cosineSimilarity(a, b)
	require.True(t, ok)
	ba, ok := cosineSimilarity(b, a)
	require.True(t, ok)
	assert.Equal(t, ab, ba)
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	got, ok := cosineSimilarity([]float64{1, 0}, []float64{0, 1})
	require.True(t, ok)
	assert.InDelta(t, 0.0, got, 1e-12)
}

func TestCosineSimilarityOpposite(t *testing.T) {
	got, ok := cosineSimilarity([]float64{1, 1}, []float64{-1, -1})
	require.True(t, ok)
	assert.InDelta(t, -1.0, got, 1e-12)
}

func TestCosineSimilarityUndefined(t *testing.T) {
	_, ok := cosineSimilarity([]float64{0, 0}, []float64{1, 2})
	assert.False(t, ok, "zero magnitude is undefined")

	_, ok = cosineSimilarity([]float64{1, 2}, []float64{1, 2, 3})
	assert.False(t, ok, "length mismatch is undefined")
}
