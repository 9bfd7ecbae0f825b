package cluster

import (
	"math/rand"
	"sort"
)

// splitModularity partitions members into sub-groups by greedily
// optimizing modularity (a single-pass, simplified Louvain move phase),
// grounded on the same BFS-components-then-greedy-merge shape used for
// community detection in the pack's lightweight graph reasoning package.
// Returns []members{} unchanged (one group) when no beneficial move
// exists, so the caller can detect "would not split further".
func splitModularity(members []string, adj map[string]map[string]float64, rng *rand.Rand) [][]string {
	if len(members) <= 1 {
		return [][]string{members}
	}

	index := make(map[string]int, len(members))
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	for i, m := range sorted {
		index[m] = i
	}

	degree := make([]float64, len(sorted))
	var totalWeight float64
	for i, m := range sorted {
		for n, w := range adj[m] {
			if _, ok := index[n]; !ok {
				continue // neighbour outside this subgraph
			}
			degree[i] += w
			totalWeight += w
		}
	}
	totalWeight /= 2
	if totalWeight == 0 {
		return [][]string{members}
	}
	m2 := 2 * totalWeight

	community := make([]int, len(sorted))
	for i := range community {
		community[i] = i
	}
	commStrength := append([]float64(nil), degree...)

	order := make([]int, len(sorted))
	for i := range order {
		order[i] = i
	}

	const maxPasses = 20
	improved := true
	for pass := 0; pass < maxPasses && improved; pass++ {
		improved = false
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, i := range order {
			node := sorted[i]
			current := community[i]

			neighbourWeight := make(map[int]float64)
			for n, w := range adj[node] {
				j, ok := index[n]
				if !ok || j == i {
					continue
				}
				neighbourWeight[community[j]] += w
			}
			if len(neighbourWeight) == 0 {
				continue
			}

			commStrength[current] -= degree[i]

			bestComm := current
			bestGain := neighbourWeight[current] - degree[i]*commStrength[current]/m2
			candidates := make([]int, 0, len(neighbourWeight))
			for c := range neighbourWeight {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)
			for _, c := range candidates {
				gain := neighbourWeight[c] - degree[i]*commStrength[c]/m2
				if gain > bestGain || (gain == bestGain && c < bestComm) {
					bestGain = gain
					bestComm = c
				}
			}

			commStrength[bestComm] += degree[i]
			if bestComm != current {
				community[i] = bestComm
				improved = true
			}
		}
	}

	groups := make(map[int][]string)
	for i, m := range sorted {
		groups[community[i]] = append(groups[community[i]], m)
	}
	if len(groups) <= 1 {
		return [][]string{members}
	}

	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	result := make([][]string, 0, len(groups))
	for _, id := range ids {
		g := groups[id]
		sort.Strings(g)
		result = append(result, g)
	}
	return result
}
