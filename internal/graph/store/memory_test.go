package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/types"
)

func TestMemoryGraphStoreNeighbours(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraphStore()

	require.NoError(t, g.MergeEntities(ctx, "run-1", []types.Entity{
		{Title: "alice"}, {Title: "bob"}, {Title: "carol"},
	}))
	require.NoError(t, g.MergeRelationships(ctx, "run-1", []types.Relationship{
		{Source: "alice", Target: "bob"},
		{Source: "bob", Target: "carol"},
	}))

	entities, relationships, err := g.Neighbours(ctx, "run-1", "alice", 1)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "bob", entities[0].Title)
	assert.Len(t, relationships, 1)

	entities, _, err = g.Neighbours(ctx, "run-1", "alice", 2)
	require.NoError(t, err)
	titles := map[string]struct{}{}
	for _, e := range entities {
		titles[e.Title] = struct{}{}
	}
	assert.Contains(t, titles, "bob")
	assert.Contains(t, titles, "carol")
}

func TestMemoryGraphStoreDropNamespaceIsolated(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraphStore()

	require.NoError(t, g.MergeEntities(ctx, "run-1", []types.Entity{{Title: "alice"}}))
	require.NoError(t, g.MergeEntities(ctx, "run-2", []types.Entity{{Title: "alice"}}))

	require.NoError(t, g.DropNamespace(ctx, "run-1"))

	entities, _, err := g.Neighbours(ctx, "run-1", "alice", 1)
	require.NoError(t, err)
	assert.Empty(t, entities)

	require.NotEmpty(t, g.entities["run-2"])
}
