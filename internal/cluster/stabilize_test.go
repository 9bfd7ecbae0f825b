package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStabilizeMergesMultiEdgesAndDropsSelfLoops(t *testing.T) {
	g := Stabilize(
		[]string{"a", "b", "c"},
		[]StableEdge{
			{Source: "a", Target: "b", Weight: 1},
			{Source: "b", Target: "a", Weight: 2}, // duplicate, reversed
			{Source: "c", Target: "c", Weight: 5},  // self-loop, dropped
		},
	)

	assert.Equal(t, []string{"a", "b", "c"}, g.Nodes)
	if assert.Len(t, g.Edges, 1) {
		assert.Equal(t, "a", g.Edges[0].Source)
		assert.Equal(t, "b", g.Edges[0].Target)
		assert.Equal(t, 3.0, g.Edges[0].Weight)
	}
}

func TestStabilizeSortsEdgesByEndpoints(t *testing.T) {
	g := Stabilize(
		[]string{"z", "a", "m"},
		[]StableEdge{
			{Source: "z", Target: "m", Weight: 1},
			{Source: "a", Target: "z", Weight: 1},
			{Source: "a", Target: "m", Weight: 1},
		},
	)
	want := []string{"a-m", "a-z", "m-z"}
	var got []string
	for _, e := range g.Edges {
		got = append(got, e.Source+"-"+e.Target)
	}
	assert.Equal(t, want, got)
}

func TestConnectedComponentsSeparatesDisjointSubgraphs(t *testing.T) {
	g := Stabilize(
		[]string{"a", "b", "c", "d"},
		[]StableEdge{
			{Source: "a", Target: "b", Weight: 1},
			{Source: "c", Target: "d", Weight: 1},
		},
	)
	adj := Adjacency(g)
	components := ConnectedComponents(g.Nodes, adj)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, components)
}

func TestLargestConnectedComponentKeepsBiggestOnly(t *testing.T) {
	g := Stabilize(
		[]string{"a", "b", "c", "d", "e"},
		[]StableEdge{
			{Source: "a", Target: "b", Weight: 1},
			{Source: "b", Target: "c", Weight: 1},
			{Source: "d", Target: "e", Weight: 1},
		},
	)
	lcc := LargestConnectedComponent(g)
	assert.Equal(t, []string{"a", "b", "c"}, lcc.Nodes)
	assert.Len(t, lcc.Edges, 2)
}
