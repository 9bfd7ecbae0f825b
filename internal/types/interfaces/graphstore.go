package interfaces

import (
	"context"

	"github.com/rinarakaki/graphrag/internal/types"
)

// GraphStore persists the entity-relationship graph to a dedicated graph
// database, namespaced per pipeline run so concurrent indexing runs never
// collide on node identity (spec §4.9, grounded on the teacher's Neo4j
// retrieval repository).
type GraphStore interface {
	MergeEntities(ctx context.Context, namespace string, entities []types.Entity) error
	MergeRelationships(ctx context.Context, namespace string, relationships []types.Relationship) error
	Neighbours(ctx context.Context, namespace string, entityTitle string, hops int) ([]types.Entity, []types.Relationship, error)
	DropNamespace(ctx context.Context, namespace string) error
}

// Clusterer partitions the entity graph into a hierarchical community
// structure (spec §4.9, capability C9).
type Clusterer interface {
	Cluster(ctx context.Context, entities []types.Entity, relationships []types.Relationship) ([]types.Community, error)
}

// CommunityReporter generates one CommunityReport per Community (spec
// §4.10, capability C10).
type CommunityReporter interface {
	Report(ctx context.Context, community types.Community, entities []types.Entity, relationships []types.Relationship, findingsTextUnits []types.TextUnit) (types.CommunityReport, error)
}
