// Package extract implements the LLM-driven entity/relationship extractor
// (spec §4.7), grounded on the teacher's Formater/QAPromptGenerator/
// Extractor in chat_pipline/extract_entity.go, adapted from chat-entity
// extraction to corpus-wide graph extraction.
package extract

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
)

const (
	entityPrefix       = "entity"
	relationSourceKey  = "source"
	relationTargetKey  = "target"
	relationDescKey    = "description"
	relationWeightKey  = "weight"
	entityTypeKey      = "type"
	entityDescKey      = "description"
)

var fenceRE = regexp.MustCompile("```(?P<lang>[A-Za-z0-9_+-]+)?(?:\\s*\\n)?(?P<body>[\\s\\S]*?)```")

// rawEntity and rawRelationship are the per-text-unit extraction records
// the LLM emits, before normalization and corpus-wide merge.
type rawEntity struct {
	Title       string
	Type        string
	Description string
}

type rawRelationship struct {
	Source      string
	Target      string
	Description string
	Weight      float64
}

// extractContent pulls the JSON body out of a fenced code block, falling
// back to the raw text when no fence is present (grounded on the
// teacher's Formater.extractContent).
func extractContent(text string) string {
	matches := fenceRE.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(matches[0][2])
}

// parseRecords parses the extraction response into entity and
// relationship records. The LLM is instructed to emit a JSON array of
// objects, each either an entity record (has "entity") or a relationship
// record (has "source" and "target").
func parseRecords(text string) ([]rawEntity, []rawRelationship, error) {
	content := extractContent(text)
	if content == "" {
		return nil, nil, nil
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(content), &items); err != nil {
		return nil, nil, pipelineerr.Wrap(pipelineerr.ParseFailed, "parsing extraction response", err)
	}

	var entities []rawEntity
	var relationships []rawRelationship
	for _, item := range items {
		switch {
		case item[entityPrefix] != nil:
			entities = append(entities, rawEntity{
				Title:       normalizeTitle(fmt.Sprintf("%v", item[entityPrefix])),
				Type:        fmt.Sprintf("%v", item[entityTypeKey]),
				Description: fmt.Sprintf("%v", item[entityDescKey]),
			})
		case item[relationSourceKey] != nil && item[relationTargetKey] != nil:
			weight := 1.0
			if w, ok := item[relationWeightKey].(float64); ok {
				weight = w
			}
			relationships = append(relationships, rawRelationship{
				Source:      normalizeTitle(fmt.Sprintf("%v", item[relationSourceKey])),
				Target:      normalizeTitle(fmt.Sprintf("%v", item[relationTargetKey])),
				Description: fmt.Sprintf("%v", item[relationDescKey]),
				Weight:      weight,
			})
		}
	}
	return entities, relationships, nil
}

// normalizeTitle uppercases, trims, and HTML-unescapes a raw title so two
// mentions of the same entity compare equal (spec §4.7).
func normalizeTitle(title string) string {
	return strings.ToUpper(strings.TrimSpace(html.UnescapeString(title)))
}
