package openai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedderRequiresAPIKey(t *testing.T) {
	_, err := NewEmbedder("")
	require.ErrorIs(t, err, ErrAPIKeyNotSet)
}

func TestNewEmbedderDefaults(t *testing.T) {
	e, err := NewEmbedder("test-key")
	require.NoError(t, err)

	assert.Equal(t, DefaultEmbeddingModel, e.ModelName())
	assert.Equal(t, DefaultEmbeddingDimension, e.Dimension())
	assert.Equal(t, 100, e.MaxBatchSize())
}

func TestNewEmbedderOptions(t *testing.T) {
	e, err := NewEmbedder("test-key",
		WithEmbeddingModel("text-embedding-3-large"),
		WithEmbeddingDimension(1024),
	)
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-large", e.ModelName())
	assert.Equal(t, 1024, e.Dimension())
}

func TestBatchEmbedValidatesInput(t *testing.T) {
	e, err := NewEmbedder("test-key")
	require.NoError(t, err)

	_, err = e.BatchEmbed(context.Background(), nil)
	require.Error(t, err)

	tooMany := make([]string, 101)
	for i := range tooMany {
		tooMany[i] = strings.Repeat("a", 10)
	}
	_, err = e.BatchEmbed(context.Background(), tooMany)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}
