// Package store persists the entity-relationship graph to Neo4j, namespaced
// per pipeline run (spec §4.9), grounded on the teacher's Neo4jRepository.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/rinarakaki/graphrag/internal/logger"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// Neo4jGraphStore implements interfaces.GraphStore. Every node carries a
// namespace property so concurrent runs against one database never share
// entities, and DropNamespace can tear a run's graph down without touching
// any other run's.
type Neo4jGraphStore struct {
	driver    neo4j.DriverWithContext
	nodeLabel string
}

func NewNeo4jGraphStore(driver neo4j.DriverWithContext) *Neo4jGraphStore {
	return &Neo4jGraphStore{driver: driver, nodeLabel: "GraphragEntity"}
}

func sanitizeTitle(title string) string {
	return strings.ReplaceAll(title, "'", "")
}

func (s *Neo4jGraphStore) MergeEntities(ctx context.Context, namespace string, entities []types.Entity) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		UNWIND $rows AS row
		MERGE (e:%s {namespace: row.namespace, title: row.title})
		SET e.type = row.type,
		    e.description = row.description,
		    e.frequency = row.frequency,
		    e.degree = row.degree
	`, s.nodeLabel)

	rows := make([]map[string]any, len(entities))
	for i, e := range entities {
		rows[i] = map[string]any{
			"namespace":   namespace,
			"title":       sanitizeTitle(e.Title),
			"type":        e.Type,
			"description": e.Description,
			"frequency":   e.Frequency,
			"degree":      e.Degree,
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{"rows": rows})
		return nil, err
	})
	if err != nil {
		logger.Errorf(ctx, "merging entities into graph store: %v", err)
		return pipelineerr.Wrap(pipelineerr.StorageError, "merging entities", err)
	}
	return nil
}

func (s *Neo4jGraphStore) MergeRelationships(ctx context.Context, namespace string, relationships []types.Relationship) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		UNWIND $rows AS row
		MATCH (source:%s {namespace: row.namespace, title: row.source})
		MATCH (target:%s {namespace: row.namespace, title: row.target})
		MERGE (source)-[r:RELATED {namespace: row.namespace}]->(target)
		SET r.description = row.description,
		    r.weight = row.weight,
		    r.combined_degree = row.combined_degree
	`, s.nodeLabel, s.nodeLabel)

	rows := make([]map[string]any, len(relationships))
	for i, r := range relationships {
		rows[i] = map[string]any{
			"namespace":       namespace,
			"source":          sanitizeTitle(r.Source),
			"target":          sanitizeTitle(r.Target),
			"description":     r.Description,
			"weight":          r.Weight,
			"combined_degree": r.CombinedDegree,
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{"rows": rows})
		return nil, err
	})
	if err != nil {
		logger.Errorf(ctx, "merging relationships into graph store: %v", err)
		return pipelineerr.Wrap(pipelineerr.StorageError, "merging relationships", err)
	}
	return nil
}

func (s *Neo4jGraphStore) Neighbours(ctx context.Context, namespace string, entityTitle string, hops int) ([]types.Entity, []types.Relationship, error) {
	if hops <= 0 {
		hops = 1
	}
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (origin:%s {namespace: $namespace, title: $title})-[r:RELATED*1..%d]-(neighbour:%s {namespace: $namespace})
		RETURN DISTINCT neighbour, r
	`, s.nodeLabel, hops, s.nodeLabel)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"namespace": namespace, "title": sanitizeTitle(entityTitle)})
		if err != nil {
			return nil, err
		}

		var entities []types.Entity
		var relationships []types.Relationship
		seen := make(map[string]struct{})
		for records.Next(ctx) {
			record := records.Record()
			node, ok := record.Get("neighbour")
			if !ok {
				continue
			}
			n := node.(neo4j.Node)
			title, _ := n.Props["title"].(string)
			if _, dup := seen[title]; dup {
				continue
			}
			seen[title] = struct{}{}
			entities = append(entities, neo4jNodeToEntity(n))

			rels, _ := record.Get("r")
			for _, rel := range toRelationshipSlice(rels) {
				relationships = append(relationships, neo4jRelToRelationship(rel))
			}
		}
		return struct {
			entities      []types.Entity
			relationships []types.Relationship
		}{entities, relationships}, records.Err()
	})
	if err != nil {
		return nil, nil, pipelineerr.Wrap(pipelineerr.StorageError, "querying neighbours", err)
	}

	out := result.(struct {
		entities      []types.Entity
		relationships []types.Relationship
	})
	return out.entities, out.relationships, nil
}

func (s *Neo4jGraphStore) DropNamespace(ctx context.Context, namespace string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (e:%s {namespace: $namespace})
		DETACH DELETE e
	`, s.nodeLabel)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{"namespace": namespace})
		return nil, err
	})
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "dropping graph namespace", err)
	}
	return nil
}

func neo4jNodeToEntity(n neo4j.Node) types.Entity {
	title, _ := n.Props["title"].(string)
	typ, _ := n.Props["type"].(string)
	description, _ := n.Props["description"].(string)
	frequency, _ := n.Props["frequency"].(int64)
	degree, _ := n.Props["degree"].(int64)
	return types.Entity{
		Title:       title,
		Type:        typ,
		Description: description,
		Frequency:   int(frequency),
		Degree:      int(degree),
	}
}

func neo4jRelToRelationship(r neo4j.Relationship) types.Relationship {
	description, _ := r.Props["description"].(string)
	weight, _ := r.Props["weight"].(float64)
	combinedDegree, _ := r.Props["combined_degree"].(int64)
	return types.Relationship{
		Description:    description,
		Weight:         weight,
		CombinedDegree: int(combinedDegree),
	}
}

// toRelationshipSlice normalises the "r" column of a variable-length path
// match, which the driver returns as either a single Relationship or a
// []any of them depending on hop count.
func toRelationshipSlice(v any) []neo4j.Relationship {
	switch rel := v.(type) {
	case neo4j.Relationship:
		return []neo4j.Relationship{rel}
	case []any:
		out := make([]neo4j.Relationship, 0, len(rel))
		for _, item := range rel {
			if r, ok := item.(neo4j.Relationship); ok {
				out = append(out, r)
			}
		}
		return out
	default:
		return nil
	}
}

var _ interfaces.GraphStore = (*Neo4jGraphStore)(nil)
