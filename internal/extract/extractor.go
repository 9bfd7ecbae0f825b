package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/logger"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

const systemPromptTemplate = `You are an information extraction system. Given a chunk of text and a
list of entity types, extract every entity and relationship you find.

Entity types: %s

Respond with a single JSON array inside a fenced code block. Each entity
record has keys "entity", "type", "description". Each relationship
record has keys "source", "target", "description", "weight" (a number).`

// Extractor calls the graph-extraction chat model for each TextUnit (one
// call plus up to maxGleanings follow-up calls) and parses the responses
// into per-text-unit entity/relationship records,
// grounded on the teacher's Extractor/QAPromptGenerator.
type Extractor struct {
	chat         interfaces.ChatModel
	entityTypes  []string
	maxGleanings int
}

func NewExtractor(chat interfaces.ChatModel, cfg config.ExtractionConfig) *Extractor {
	return &Extractor{chat: chat, entityTypes: cfg.EntityTypes, maxGleanings: cfg.MaxGleanings}
}

// Extract runs the extraction prompt against one TextUnit, with up to
// maxGleanings additional "anything missed?" follow-up turns (spec §4.7's
// gleaning loop from the original implementation).
func (e *Extractor) Extract(ctx context.Context, unit types.TextUnit) ([]rawEntity, []rawRelationship, error) {
	history := []types.ChatMessage{
		{Role: "system", Content: fmt.Sprintf(systemPromptTemplate, strings.Join(e.entityTypes, ", "))},
	}
	prompt := unit.Text

	var entities []rawEntity
	var relationships []rawRelationship

	for attempt := 0; attempt <= e.maxGleanings; attempt++ {
		resp, err := e.chat.Chat(ctx, history, prompt, types.ChatOptions{Temperature: 0})
		if err != nil {
			return nil, nil, pipelineerr.Wrap(pipelineerr.LLMTransient, "extracting graph records", err)
		}

		parsedEntities, parsedRelationships, err := parseRecords(resp.Content)
		if err != nil {
			logger.Warnf(ctx, "skipping unparseable extraction for text unit %s: %v", unit.ID, err)
			return entities, relationships, pipelineerr.Wrap(pipelineerr.ParseFailed, "parsing extraction", err)
		}
		entities = append(entities, parsedEntities...)
		relationships = append(relationships, parsedRelationships...)

		if len(parsedEntities) == 0 && len(parsedRelationships) == 0 {
			break
		}
		history = append(history,
			types.ChatMessage{Role: "user", Content: prompt},
			types.ChatMessage{Role: "assistant", Content: resp.Content},
		)
		prompt = "MANY entities and relationships were missed. Add them below using the same format. If none were missed, respond with an empty array."
	}

	return entities, relationships, nil
}
