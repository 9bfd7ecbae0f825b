package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

func TestMemoryVectorStoreSimilaritySearch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryVectorStore()

	docs := []interfaces.VectorDocument{
		{ID: "a", Text: "alpha", Vector: []float32{1, 0, 0}},
		{ID: "b", Text: "beta", Vector: []float32{0, 1, 0}},
		{ID: "c", Text: "gamma", Vector: []float32{0.9, 0.1, 0}},
	}
	require.NoError(t, store.LoadDocuments(ctx, "entities", docs))

	results, err := store.SimilaritySearchByVector(ctx, "entities", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, "c", results[1].Document.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryVectorStoreFilterByID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryVectorStore()
	require.NoError(t, store.LoadDocuments(ctx, "entities", []interfaces.VectorDocument{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{0, 1}},
	}))

	require.NoError(t, store.FilterByID(ctx, "entities", []string{"a"}))

	results, err := store.SimilaritySearchByVector(ctx, "entities", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Document.ID)
}

func TestMemoryVectorStoreClearIndex(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryVectorStore()
	require.NoError(t, store.LoadDocuments(ctx, "entities", []interfaces.VectorDocument{
		{ID: "a", Vector: []float32{1, 0}},
	}))
	require.NoError(t, store.ClearIndex(ctx, "entities"))

	results, err := store.SimilaritySearchByVector(ctx, "entities", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
