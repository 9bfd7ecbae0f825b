package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
)

const localAnswerPromptTemplate = `Answer the question using the entities, relationships, source
excerpts and community summaries below.

%s

Question: %s`

// LocalInputs carries the table data the local search mode needs beyond
// what's queryable through the vector/graph stores directly: text unit
// bodies keyed by id (for section "text units") and community reports
// keyed by the communities an entity belongs to (for section "community
// summaries"). Loading these is the pipeline runner's concern.
type LocalInputs struct {
	TextUnitsByID      map[string]types.TextUnit
	ReportsByCommunity map[int]types.CommunityReport
	EntityCommunities  map[string][]int // entity title -> community ids it belongs to
	Exclude            map[string]bool  // entity titles to exclude from candidates
	Include            []string         // entity titles to force-include
}

// Local maps the query to candidate entities via embedding similarity,
// expands to related entities over the relationship graph, and assembles
// a four-section, token-bounded context (spec §4.14's Local mode).
func (e *Engine) Local(ctx context.Context, query string, namespace string, entityIndexName string, cfg config.LocalSearchConfig, in LocalInputs) (types.SearchResult, error) {
	start := time.Now()
	result := types.SearchResult{}

	vector, err := e.embedQuery(ctx, query)
	if err != nil {
		return types.SearchResult{}, err
	}

	topKEntities := cfg.TopKEntities
	if topKEntities <= 0 {
		topKEntities = 10
	}
	hits, err := e.VectorStore.SimilaritySearchByVector(ctx, entityIndexName, vector, topKEntities*2)
	if err != nil {
		return types.SearchResult{}, err
	}

	candidateTitles := make([]string, 0, len(hits))
	seen := map[string]bool{}
	for _, h := range hits {
		title := h.Document.ID
		if in.Exclude[title] || seen[title] {
			continue
		}
		seen[title] = true
		candidateTitles = append(candidateTitles, title)
	}
	for _, title := range in.Include {
		if !seen[title] {
			seen[title] = true
			candidateTitles = append(candidateTitles, title)
		}
	}
	if len(candidateTitles) > topKEntities {
		candidateTitles = candidateTitles[:topKEntities]
	}

	var entityRecords, relationshipRecords []types.ContextRecord
	var textUnitIDs []string
	seenTextUnit := map[string]bool{}
	seenRelationship := map[string]bool{}
	communitySet := map[int]bool{}

	for _, title := range candidateTitles {
		entities, relationships, err := e.GraphStore.Neighbours(ctx, namespace, title, 1)
		if err != nil {
			return types.SearchResult{}, err
		}
		for _, ent := range entities {
			if !seen[ent.Title] {
				seen[ent.Title] = true
			}
			entityRecords = append(entityRecords, types.ContextRecord{
				Source: "entities", ID: ent.Title,
				Text: fmt.Sprintf("%s (%s): %s", ent.Title, ent.Type, ent.Description),
			})
			for _, tu := range ent.TextUnitIDs {
				if !seenTextUnit[tu] {
					seenTextUnit[tu] = true
					textUnitIDs = append(textUnitIDs, tu)
				}
			}
			for _, cid := range in.EntityCommunities[ent.Title] {
				communitySet[cid] = true
			}
		}
		sort.Slice(relationships, func(i, j int) bool { return relationships[i].CombinedDegree > relationships[j].CombinedDegree })
		if len(relationships) > cfg.TopKRelationships && cfg.TopKRelationships > 0 {
			relationships = relationships[:cfg.TopKRelationships]
		}
		for _, rel := range relationships {
			key := rel.Source + "->" + rel.Target
			if seenRelationship[key] {
				continue
			}
			seenRelationship[key] = true
			relationshipRecords = append(relationshipRecords, types.ContextRecord{
				Source: "relationships", ID: key,
				Text: fmt.Sprintf("%s -> %s: %s", rel.Source, rel.Target, rel.Description),
			})
		}
	}

	textUnitCap := cfg.TextUnitPropK
	if textUnitCap <= 0 || textUnitCap > len(textUnitIDs) {
		textUnitCap = len(textUnitIDs)
	}
	var textUnitRecords []types.ContextRecord
	for _, id := range textUnitIDs[:textUnitCap] {
		if tu, ok := in.TextUnitsByID[id]; ok {
			textUnitRecords = append(textUnitRecords, types.ContextRecord{Source: "text_units", ID: tu.ID, Text: tu.Text})
		}
	}

	communityIDs := make([]int, 0, len(communitySet))
	for id := range communitySet {
		communityIDs = append(communityIDs, id)
	}
	sort.Ints(communityIDs)
	communityCap := cfg.CommunityPropK
	if communityCap <= 0 || communityCap > len(communityIDs) {
		communityCap = len(communityIDs)
	}
	var communityRecords []types.ContextRecord
	for _, id := range communityIDs[:communityCap] {
		if report, ok := in.ReportsByCommunity[id]; ok {
			communityRecords = append(communityRecords, types.ContextRecord{Source: "communities", ID: report.ID, Text: report.Summary})
		}
	}

	allRecords := make([]types.ContextRecord, 0, len(entityRecords)+len(relationshipRecords)+len(textUnitRecords)+len(communityRecords))
	allRecords = append(allRecords, entityRecords...)
	allRecords = append(allRecords, relationshipRecords...)
	allRecords = append(allRecords, textUnitRecords...)
	allRecords = append(allRecords, communityRecords...)

	contextChunks, kept := e.packContext(allRecords, cfg.MaxContextTokens)

	prompt := fmt.Sprintf(localAnswerPromptTemplate, contextChunks, query)
	response, err := e.chat(ctx, prompt, types.ChatOptions{Temperature: 0}, &result)
	if err != nil {
		return types.SearchResult{}, err
	}

	result.Response = response
	result.ContextChunks = contextChunks
	result.ContextRecords = kept
	result.CompletionTime = time.Since(start)
	return result, nil
}
