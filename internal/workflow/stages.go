package workflow

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rinarakaki/graphrag/internal/chunking"
	"github.com/rinarakaki/graphrag/internal/concurrency"
	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/embed"
	"github.com/rinarakaki/graphrag/internal/extract"
	"github.com/rinarakaki/graphrag/internal/logger"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/summarize"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// IndexDeps bundles every component an indexing run's stages need, built
// by internal/container and handed to BuildIndexWorkflows by cmd/graphrag.
type IndexDeps struct {
	Cfg        *config.Config
	Documents  []types.Document
	Extractor  *extract.Extractor
	Summarizer *summarize.Summarizer
	Clusterer  interfaces.Clusterer
	Reporter   interfaces.CommunityReporter
	Embedder   *embed.Embedder
	Tokenizer  chunking.Tokenizer
	Pool       *concurrency.Pool
}

// BuildIndexWorkflows lays out the indexing pipeline's stages in the
// declared order spec.md §4 walks through: chunk, extract+merge the
// graph, cluster it into communities, report on each community, then
// embed every configured field. Each stage persists its table so a crash
// mid-run resumes from the last completed stage (spec §4.12 point 3).
func BuildIndexWorkflows(deps IndexDeps) []Workflow {
	return []Workflow{
		{Name: "create_base_text_units", Run: deps.chunkStage},
		{Name: "extract_graph", Run: deps.extractStage},
		{Name: "create_communities", Run: deps.clusterStage},
		{Name: "create_community_reports", Run: deps.reportStage},
		{Name: "generate_text_embeddings", Run: deps.embedStage},
	}
}

func (d IndexDeps) chunkStage(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
	if err := rc.Storage.WriteTable(ctx, "documents", d.Documents); err != nil {
		return nil, err
	}
	units, err := chunking.Chunk(cfg.Chunks, d.Tokenizer, d.Documents)
	if err != nil {
		return nil, err
	}
	if err := rc.Storage.WriteTable(ctx, "text_units", units); err != nil {
		return nil, err
	}
	return map[string]any{"text_units": units}, nil
}

func (d IndexDeps) extractStage(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
	units, _ := rc.State["text_units"].([]types.TextUnit)

	extractions := make([]extract.UnitExtraction, len(units))
	var skipped int64
	err := concurrency.Run(ctx, d.Pool, indexRange(len(units)), func(ctx context.Context, i int) error {
		unit := units[i]
		entities, relationships, err := d.Extractor.Extract(ctx, unit)
		if err != nil {
			if !pipelineerr.IsKind(err, pipelineerr.ParseFailed) {
				return err
			}
			// A chunk whose extraction response didn't parse is logged,
			// counted and skipped rather than failing the whole run (spec
			// §4.7/§7); whatever entities/relationships were salvaged from
			// earlier gleaning turns are still kept.
			atomic.AddInt64(&skipped, 1)
			logger.Warnf(ctx, "skipping text unit %s after unparseable extraction: %v", unit.ID, err)
		}
		extractions[i] = extract.UnitExtraction{TextUnitID: unit.ID, Entities: entities, Relationships: relationships}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logger.Warnf(ctx, "extraction: skipped %d of %d text units due to unparseable responses", skipped, len(units))
	}

	mergedEntities, mergedRelationships := extract.Merge(extractions)
	if len(mergedEntities) == 0 && len(mergedRelationships) == 0 {
		return nil, pipelineerr.New(pipelineerr.ExtractionFailed, "extraction produced no entities or relationships for the corpus", map[string]any{
			"text_units": len(units),
			"skipped":    skipped,
		})
	}
	degree := extract.Degrees(mergedRelationships)

	entities := make([]types.Entity, len(mergedEntities))
	if err := concurrency.Run(ctx, d.Pool, indexRange(len(mergedEntities)), func(ctx context.Context, i int) error {
		m := mergedEntities[i]
		description, err := d.Summarizer.Summarize(ctx, m.Descriptions)
		if err != nil {
			return err
		}
		entities[i] = types.Entity{
			ID:              uuid.New().String(),
			HumanReadableID: int64(i),
			Title:           m.Title,
			Type:            m.Type,
			Description:     description,
			TextUnitIDs:     m.TextUnitIDs,
			Frequency:       m.Frequency,
			Degree:          degree[m.Title],
		}
		return nil
	}); err != nil {
		return nil, err
	}

	relationships := make([]types.Relationship, len(mergedRelationships))
	if err := concurrency.Run(ctx, d.Pool, indexRange(len(mergedRelationships)), func(ctx context.Context, i int) error {
		m := mergedRelationships[i]
		description, err := d.Summarizer.Summarize(ctx, m.Descriptions)
		if err != nil {
			return err
		}
		relationships[i] = types.Relationship{
			ID:              uuid.New().String(),
			HumanReadableID: int64(i),
			Source:          m.Source,
			Target:          m.Target,
			Description:     description,
			Weight:          m.Weight,
			CombinedDegree:  degree[m.Source] + degree[m.Target],
			TextUnitIDs:     m.TextUnitIDs,
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := rc.Storage.WriteTable(ctx, "entities", entities); err != nil {
		return nil, err
	}
	if err := rc.Storage.WriteTable(ctx, "relationships", relationships); err != nil {
		return nil, err
	}
	return map[string]any{"entities": entities, "relationships": relationships}, nil
}

func (d IndexDeps) clusterStage(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
	entities, _ := rc.State["entities"].([]types.Entity)
	relationships, _ := rc.State["relationships"].([]types.Relationship)

	communities, err := d.Clusterer.Cluster(ctx, entities, relationships)
	if err != nil {
		return nil, err
	}
	if err := rc.Storage.WriteTable(ctx, "communities", communities); err != nil {
		return nil, err
	}
	return map[string]any{"communities": communities}, nil
}

func (d IndexDeps) reportStage(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
	communities, _ := rc.State["communities"].([]types.Community)
	entities, _ := rc.State["entities"].([]types.Entity)
	relationships, _ := rc.State["relationships"].([]types.Relationship)
	units, _ := rc.State["text_units"].([]types.TextUnit)

	unitByID := make(map[string]types.TextUnit, len(units))
	for _, u := range units {
		unitByID[u.ID] = u
	}
	entityByID := make(map[string]types.Entity, len(entities))
	for _, e := range entities {
		entityByID[e.ID] = e
	}

	reports := make([]types.CommunityReport, len(communities))
	if err := concurrency.Run(ctx, d.Pool, indexRange(len(communities)), func(ctx context.Context, i int) error {
		community := communities[i]
		communityEntities := selectEntities(entities, community.EntityIDs)
		communityRelationships := selectRelationships(relationships, community.RelationshipIDs)

		var findingsUnits []types.TextUnit
		for _, id := range community.TextUnitIDs {
			if u, ok := unitByID[id]; ok {
				findingsUnits = append(findingsUnits, u)
			}
		}

		report, err := d.Reporter.Report(ctx, community, communityEntities, communityRelationships, findingsUnits)
		if err != nil {
			return err
		}
		reports[i] = report
		return nil
	}); err != nil {
		return nil, err
	}

	if err := rc.Storage.WriteTable(ctx, "community_reports", reports); err != nil {
		return nil, err
	}
	return map[string]any{"community_reports": reports}, nil
}

func (d IndexDeps) embedStage(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
	units, _ := rc.State["text_units"].([]types.TextUnit)
	entities, _ := rc.State["entities"].([]types.Entity)
	reports, _ := rc.State["community_reports"].([]types.CommunityReport)

	for _, name := range cfg.Embeddings.Names {
		var inputs []embed.FieldInput
		switch name {
		case "text_unit.text":
			for _, u := range units {
				inputs = append(inputs, embed.FieldInput{ID: u.ID, Text: u.Text})
			}
		case "entity.description":
			for _, e := range entities {
				inputs = append(inputs, embed.FieldInput{ID: e.ID, Text: e.Description, Attributes: map[string]string{"title": e.Title}})
			}
		case "community.full_content":
			for _, r := range reports {
				inputs = append(inputs, embed.FieldInput{ID: r.ID, Text: r.FullContent, Attributes: map[string]string{"title": r.Title}})
			}
		default:
			return nil, pipelineerr.New(pipelineerr.ConfigError, "unknown embeddings field name", map[string]any{"name": name})
		}
		if err := d.Embedder.EmbedField(ctx, name, inputs, true); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func selectEntities(all []types.Entity, ids []string) []types.Entity {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []types.Entity
	for _, e := range all {
		if _, ok := wanted[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

func selectRelationships(all []types.Relationship, ids []string) []types.Relationship {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []types.Relationship
	for _, r := range all {
		if _, ok := wanted[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

func indexRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
