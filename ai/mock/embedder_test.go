package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	embedder := NewMockEmbedder()

	first, err := embedder.EmbedTexts(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	second, err := embedder.EmbedTexts(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
	assert.Len(t, first[0], defaultDim)
	assert.NotEqual(t, first[0], first[1], "different texts should embed differently")
	assert.Equal(t, 2, embedder.CallCount())
	assert.Equal(t, []string{"alpha", "beta", "alpha", "beta"}, embedder.SeenTexts())
}

func TestMockEmbedder_DimOverride(t *testing.T) {
	embedder := NewMockEmbedder()
	embedder.Dim = 16

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"text"})
	require.NoError(t, err)
	assert.Len(t, vectors[0], 16)
}

func TestMockEmbedder_InjectedFailure(t *testing.T) {
	embedder := NewMockEmbedder()
	injected := errors.New("service down")
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, injected
	}

	_, err := embedder.EmbedTexts(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, injected)
	assert.Equal(t, 1, embedder.CallCount())

	embedder.Reset()
	assert.Equal(t, 0, embedder.CallCount())
	_, err = embedder.EmbedTexts(context.Background(), []string{"text"})
	assert.NoError(t, err)
}

func TestDeterministicVector_UnitNorm(t *testing.T) {
	vector := DeterministicVector("any text", 32)

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
}
