package cluster

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// HierarchicalLeiden implements interfaces.Clusterer. It decomposes the
// stabilized entity graph into connected components (level 0), then
// recursively splits any component larger than MaxClusterSize with a
// greedy modularity pass, producing a community forest (spec §4.9).
type HierarchicalLeiden struct {
	cfg config.ClusterGraphConfig
}

func New(cfg config.ClusterGraphConfig) *HierarchicalLeiden {
	return &HierarchicalLeiden{cfg: cfg}
}

var _ interfaces.Clusterer = (*HierarchicalLeiden)(nil)

func (h *HierarchicalLeiden) Cluster(ctx context.Context, entities []types.Entity, relationships []types.Relationship) ([]types.Community, error) {
	titles := make([]string, 0, len(entities))
	entityByTitle := make(map[string]types.Entity, len(entities))
	for _, e := range entities {
		titles = append(titles, e.Title)
		entityByTitle[e.Title] = e
	}

	edges := make([]StableEdge, 0, len(relationships))
	for _, r := range relationships {
		edges = append(edges, StableEdge{Source: r.Source, Target: r.Target, Weight: r.Weight})
	}

	graph := Stabilize(titles, edges)
	if h.cfg.UseLCC {
		graph = LargestConnectedComponent(graph)
	}
	if len(graph.Nodes) == 0 {
		return nil, nil
	}

	adj := Adjacency(graph)
	members := make(map[string]struct{}, len(graph.Nodes))
	for _, n := range graph.Nodes {
		members[n] = struct{}{}
	}
	relevantRelationships := make([]types.Relationship, 0, len(relationships))
	for _, r := range relationships {
		if r.Source == r.Target {
			continue
		}
		if _, ok := members[r.Source]; !ok {
			continue
		}
		if _, ok := members[r.Target]; !ok {
			continue
		}
		relevantRelationships = append(relevantRelationships, r)
	}

	maxSize := h.cfg.MaxClusterSize
	if maxSize <= 0 {
		maxSize = len(graph.Nodes)
	}

	period := types.NowPeriod(time.Now())
	builder := &communityBuilder{
		adj:           adj,
		entityByTitle: entityByTitle,
		relationships: relevantRelationships,
		maxSize:       maxSize,
		period:        period,
		rng:           rand.New(rand.NewSource(h.cfg.Seed)),
	}

	components := ConnectedComponents(graph.Nodes, adj)
	var rows []types.Community
	for _, comp := range components {
		builder.assign(comp, 0, -1, &rows)
	}
	return rows, nil
}

// communityBuilder assigns sequential integer community ids in a fixed
// traversal order, so that identical input plus identical seed always
// reproduces identical (level, community, parent, members) rows (spec
// §4.9 determinism contract).
type communityBuilder struct {
	adj           map[string]map[string]float64
	entityByTitle map[string]types.Entity
	relationships []types.Relationship
	maxSize       int
	period        string
	rng           *rand.Rand
	nextID        int
}

func (b *communityBuilder) assign(members []string, level, parent int, rows *[]types.Community) int {
	id := b.nextID
	b.nextID++

	idx := len(*rows)
	*rows = append(*rows, b.buildRow(id, level, parent, members))

	if len(members) > b.maxSize {
		groups := splitModularity(members, b.adj, b.rng)
		if len(groups) > 1 {
			children := make([]int, 0, len(groups))
			for _, g := range groups {
				childID := b.assign(g, level+1, id, rows)
				children = append(children, childID)
			}
			(*rows)[idx].Children = children
		}
	}

	return id
}

func (b *communityBuilder) buildRow(id, level, parent int, members []string) types.Community {
	memberSet := make(map[string]struct{}, len(members))
	for _, m := range members {
		memberSet[m] = struct{}{}
	}

	entityIDs := make([]string, 0, len(members))
	textUnitSet := map[string]struct{}{}
	for _, m := range members {
		e, ok := b.entityByTitle[m]
		if !ok {
			continue
		}
		entityIDs = append(entityIDs, e.ID)
		for _, tu := range e.TextUnitIDs {
			textUnitSet[tu] = struct{}{}
		}
	}
	sort.Strings(entityIDs)

	var relationshipIDs []string
	for _, r := range b.relationships {
		_, sourceIn := memberSet[r.Source]
		_, targetIn := memberSet[r.Target]
		if sourceIn && targetIn {
			relationshipIDs = append(relationshipIDs, r.ID)
		}
	}
	sort.Strings(relationshipIDs)

	textUnitIDs := make([]string, 0, len(textUnitSet))
	for tu := range textUnitSet {
		textUnitIDs = append(textUnitIDs, tu)
	}
	sort.Strings(textUnitIDs)

	return types.Community{
		ID:              uuid.New().String(),
		HumanReadableID: int64(id),
		Community:       id,
		Level:           level,
		Parent:          parent,
		Title:           fmt.Sprintf("Community %d", id),
		EntityIDs:       entityIDs,
		RelationshipIDs: relationshipIDs,
		TextUnitIDs:     textUnitIDs,
		Period:          b.period,
		Size:            len(members),
	}
}
