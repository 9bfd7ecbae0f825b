package main

import (
	"context"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/search"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// defaultNamespace is the single graph namespace local and drift search
// read from; multi-namespace indexes are out of scope (spec.md §1
// Non-goals). The indexing stages do not write to the graph store.
const defaultNamespace = "default"

// answer dispatches one query to the requested search mode, loading
// whatever tables that mode needs from the run's output storage.
func answer(ctx context.Context, engine *search.Engine, storage interfaces.TableStorage, cfg *config.Config, method, query string) (types.SearchResult, error) {
	switch method {
	case "basic":
		return engine.Basic(ctx, query, "text_unit.text", cfg.BasicSearch)
	case "global":
		var reports []types.CommunityReport
		if err := storage.ReadTable(ctx, "community_reports", &reports); err != nil {
			return types.SearchResult{}, err
		}
		return engine.Global(ctx, query, reports, cfg.GlobalSearch, cfg.ClusterGraph.Seed)
	case "local":
		in, err := loadLocalInputs(ctx, storage)
		if err != nil {
			return types.SearchResult{}, err
		}
		return engine.Local(ctx, query, defaultNamespace, "entity.description", cfg.LocalSearch, in)
	case "drift":
		in, err := loadLocalInputs(ctx, storage)
		if err != nil {
			return types.SearchResult{}, err
		}
		return engine.Drift(ctx, query, defaultNamespace, "entity.description", cfg.DriftSearch, cfg.LocalSearch, in)
	default:
		return types.SearchResult{}, pipelineerr.New(pipelineerr.ConfigError, "unknown query method", map[string]any{"method": method})
	}
}

// loadLocalInputs assembles search.LocalInputs from the entities,
// communities, community_reports and text_units tables a completed
// indexing run leaves behind.
func loadLocalInputs(ctx context.Context, storage interfaces.TableStorage) (search.LocalInputs, error) {
	var entities []types.Entity
	if err := storage.ReadTable(ctx, "entities", &entities); err != nil {
		return search.LocalInputs{}, err
	}
	var communities []types.Community
	if err := storage.ReadTable(ctx, "communities", &communities); err != nil {
		return search.LocalInputs{}, err
	}
	var reports []types.CommunityReport
	if err := storage.ReadTable(ctx, "community_reports", &reports); err != nil {
		return search.LocalInputs{}, err
	}
	var units []types.TextUnit
	if err := storage.ReadTable(ctx, "text_units", &units); err != nil {
		return search.LocalInputs{}, err
	}

	titleByID := make(map[string]string, len(entities))
	for _, e := range entities {
		titleByID[e.ID] = e.Title
	}

	entityCommunities := map[string][]int{}
	for _, c := range communities {
		for _, id := range c.EntityIDs {
			title, ok := titleByID[id]
			if !ok {
				continue
			}
			entityCommunities[title] = append(entityCommunities[title], c.Community)
		}
	}

	reportsByCommunity := make(map[int]types.CommunityReport, len(reports))
	for _, r := range reports {
		reportsByCommunity[r.Community] = r
	}

	unitsByID := make(map[string]types.TextUnit, len(units))
	for _, u := range units {
		unitsByID[u.ID] = u
	}

	return search.LocalInputs{
		TextUnitsByID:      unitsByID,
		ReportsByCommunity: reportsByCommunity,
		EntityCommunities:  entityCommunities,
	}, nil
}
