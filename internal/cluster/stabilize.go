// Package cluster implements the hierarchical Leiden-style decomposition
// of the entity-relationship graph (spec §4.9). No library in the
// example pack (or the wider ecosystem reachable from it) offers a real
// Leiden/Louvain implementation, so this is hand-rolled on the standard
// library; see DESIGN.md for the justification.
package cluster

import "sort"

// StableEdge is one deduplicated, self-loop-free undirected edge of a
// stabilized graph.
type StableEdge struct {
	Source string
	Target string
	Weight float64
}

// StableGraph is a graph that has been normalized for deterministic
// clustering: nodes sorted, edges deduplicated (multi-edges merged by
// summed weight), self-loops removed, and edges sorted by
// (min(u,v), max(u,v)) (spec §4.9).
type StableGraph struct {
	Nodes []string
	Edges []StableEdge
}

// Stabilize builds an undirected graph from entities and relationships,
// merging multi-edges and dropping self-loops (spec edge case: "the
// clusterer removes self-loops before Leiden and forbids multi-edges").
func Stabilize(entityTitles []string, relationshipEndpoints []StableEdge) StableGraph {
	nodeSet := make(map[string]struct{}, len(entityTitles))
	for _, title := range entityTitles {
		nodeSet[title] = struct{}{}
	}

	weights := make(map[[2]string]float64)
	for _, r := range relationshipEndpoints {
		if r.Source == r.Target {
			continue
		}
		u, v := r.Source, r.Target
		if u > v {
			u, v = v, u
		}
		nodeSet[u] = struct{}{}
		nodeSet[v] = struct{}{}
		weights[[2]string{u, v}] += r.Weight
	}

	nodes := make([]string, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	edges := make([]StableEdge, 0, len(weights))
	for k, w := range weights {
		edges = append(edges, StableEdge{Source: k[0], Target: k[1], Weight: w})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	return StableGraph{Nodes: nodes, Edges: edges}
}

// Adjacency builds a symmetric weighted adjacency list from a stabilized
// graph's edges.
func Adjacency(g StableGraph) map[string]map[string]float64 {
	adj := make(map[string]map[string]float64, len(g.Nodes))
	for _, n := range g.Nodes {
		adj[n] = map[string]float64{}
	}
	for _, e := range g.Edges {
		adj[e.Source][e.Target] += e.Weight
		adj[e.Target][e.Source] += e.Weight
	}
	return adj
}

// LargestConnectedComponent restricts g to its largest connected
// component (spec §4.9's optional use_lcc setting). Ties on size break
// on the component whose sorted member list sorts first.
func LargestConnectedComponent(g StableGraph) StableGraph {
	adj := Adjacency(g)
	components := ConnectedComponents(g.Nodes, adj)
	if len(components) <= 1 {
		return g
	}

	best := components[0]
	for _, c := range components[1:] {
		if len(c) > len(best) || (len(c) == len(best) && c[0] < best[0]) {
			best = c
		}
	}
	keep := make(map[string]struct{}, len(best))
	for _, n := range best {
		keep[n] = struct{}{}
	}

	edges := make([]StableEdge, 0)
	for _, e := range g.Edges {
		if _, ok := keep[e.Source]; !ok {
			continue
		}
		if _, ok := keep[e.Target]; !ok {
			continue
		}
		edges = append(edges, e)
	}
	return StableGraph{Nodes: best, Edges: edges}
}

// ConnectedComponents finds connected components via BFS over nodes in
// sorted order, visiting each node's neighbours in sorted order. This
// ordering is what makes the result deterministic across runs.
func ConnectedComponents(nodes []string, adj map[string]map[string]float64) [][]string {
	visited := make(map[string]bool, len(nodes))
	var components [][]string

	for _, start := range nodes {
		if visited[start] {
			continue
		}
		var members []string
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)

			neighbours := make([]string, 0, len(adj[cur]))
			for n := range adj[cur] {
				neighbours = append(neighbours, n)
			}
			sort.Strings(neighbours)
			for _, n := range neighbours {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Strings(members)
		components = append(components, members)
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})
	return components
}
