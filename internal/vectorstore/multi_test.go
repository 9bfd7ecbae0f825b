package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

func TestMultiStoreRoutesPerIndex(t *testing.T) {
	ctx := context.Background()
	entities := NewMemoryVectorStore()
	reports := NewMemoryVectorStore()
	multi := NewMultiStore(map[string]interfaces.BaseVectorStore{
		"entities":               entities,
		"community_full_content": reports,
	})

	require.NoError(t, multi.LoadDocuments(ctx, "entities", []interfaces.VectorDocument{
		{ID: "e1", Vector: []float32{1, 0}},
	}))
	require.NoError(t, multi.LoadDocuments(ctx, "community_full_content", []interfaces.VectorDocument{
		{ID: "r1", Vector: []float32{0, 1}},
	}))

	results, err := entities.SimilaritySearchByVector(ctx, "entities", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "e1", results[0].Document.ID)
}

func TestMultiStoreSearchAcrossIndicesTagsAndMerges(t *testing.T) {
	ctx := context.Background()
	entities := NewMemoryVectorStore()
	reports := NewMemoryVectorStore()
	multi := NewMultiStore(map[string]interfaces.BaseVectorStore{
		"entities":               entities,
		"community_full_content": reports,
	})

	require.NoError(t, multi.LoadDocuments(ctx, "entities", []interfaces.VectorDocument{
		{ID: "e1", Vector: []float32{1, 0}},
	}))
	require.NoError(t, multi.LoadDocuments(ctx, "community_full_content", []interfaces.VectorDocument{
		{ID: "r1", Vector: []float32{0.9, 0.1}},
	}))

	results, err := multi.SearchAcrossIndices(ctx, []string{"entities", "community_full_content"}, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		id, indexName, ok := SplitQualifiedID(r.Document.ID)
		require.True(t, ok)
		assert.Contains(t, []string{"e1", "r1"}, id)
		assert.Contains(t, []string{"entities", "community_full_content"}, indexName)
	}
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSplitQualifiedIDRejectsUntaggedID(t *testing.T) {
	id, indexName, ok := SplitQualifiedID("plain-id-with-dashes")
	assert.False(t, ok)
	assert.Empty(t, indexName)
	assert.Equal(t, "plain-id-with-dashes", id)
}
