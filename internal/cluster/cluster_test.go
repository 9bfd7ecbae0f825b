package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
)

func cycleGraph() ([]types.Entity, []types.Relationship) {
	entities := []types.Entity{
		{ID: "A", Title: "A"},
		{ID: "B", Title: "B"},
		{ID: "C", Title: "C"},
		{ID: "D", Title: "D"},
	}
	relationships := []types.Relationship{
		{ID: "AB", Source: "A", Target: "B", Weight: 1},
		{ID: "BC", Source: "B", Target: "C", Weight: 1},
		{ID: "CD", Source: "C", Target: "D", Weight: 1},
		{ID: "DA", Source: "D", Target: "A", Weight: 1},
	}
	return entities, relationships
}

// TestClusterStabilityMatchesS3Scenario mirrors S3: a 4-node cycle with
// equal weights and max_cluster_size equal to the component size never
// splits, and two invocations with the same seed produce identical
// (level, community, parent, members) rows.
func TestClusterStabilityMatchesS3Scenario(t *testing.T) {
	cfg := config.ClusterGraphConfig{MaxClusterSize: 4, Seed: 0xDEADBEEF}
	clusterer := New(cfg)

	entities, relationships := cycleGraph()
	run1, err := clusterer.Cluster(context.Background(), entities, relationships)
	require.NoError(t, err)

	clusterer2 := New(cfg)
	run2, err := clusterer2.Cluster(context.Background(), entities, relationships)
	require.NoError(t, err)

	require.Len(t, run1, 1)
	require.Len(t, run2, 1)

	normalize := func(c types.Community) types.Community {
		c.ID = ""
		return c
	}
	assert.Equal(t, normalize(run1[0]), normalize(run2[0]))
	assert.Equal(t, 0, run1[0].Level)
	assert.Equal(t, -1, run1[0].Parent)
	assert.Equal(t, 4, run1[0].Size)
	assert.Equal(t, []string{"A", "B", "C", "D"}, run1[0].EntityIDs)
	assert.Empty(t, run1[0].Children)
}

func TestClusterSplitsOversizedComponentDeterministically(t *testing.T) {
	entities := []types.Entity{
		{ID: "A", Title: "A"}, {ID: "B", Title: "B"},
		{ID: "C", Title: "C"}, {ID: "D", Title: "D"},
		{ID: "E", Title: "E"}, {ID: "F", Title: "F"},
	}
	// Two dense triangles (A,B,C) and (D,E,F) joined by one thin bridge.
	relationships := []types.Relationship{
		{ID: "AB", Source: "A", Target: "B", Weight: 5},
		{ID: "BC", Source: "B", Target: "C", Weight: 5},
		{ID: "CA", Source: "C", Target: "A", Weight: 5},
		{ID: "DE", Source: "D", Target: "E", Weight: 5},
		{ID: "EF", Source: "E", Target: "F", Weight: 5},
		{ID: "FD", Source: "F", Target: "D", Weight: 5},
		{ID: "CD", Source: "C", Target: "D", Weight: 1},
	}
	cfg := config.ClusterGraphConfig{MaxClusterSize: 3, Seed: 42}

	run1, err := New(cfg).Cluster(context.Background(), entities, relationships)
	require.NoError(t, err)
	run2, err := New(cfg).Cluster(context.Background(), entities, relationships)
	require.NoError(t, err)

	require.Equal(t, len(run1), len(run2))
	for i := range run1 {
		assert.Equal(t, run1[i].Level, run2[i].Level)
		assert.Equal(t, run1[i].Community, run2[i].Community)
		assert.Equal(t, run1[i].Parent, run2[i].Parent)
		assert.Equal(t, run1[i].EntityIDs, run2[i].EntityIDs)
	}

	// The root (level 0) must cover all six entities and, once split,
	// every descendant group must respect max_cluster_size.
	require.NotEmpty(t, run1)
	root := run1[0]
	assert.Equal(t, 0, root.Level)
	assert.Equal(t, 6, root.Size)
	for _, c := range run1 {
		if c.Level > 0 {
			assert.LessOrEqual(t, c.Size, cfg.MaxClusterSize)
		}
	}
}

func TestClusterEmptyGraphReturnsNoCommunities(t *testing.T) {
	cfg := config.ClusterGraphConfig{MaxClusterSize: 10, Seed: 1}
	rows, err := New(cfg).Cluster(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
