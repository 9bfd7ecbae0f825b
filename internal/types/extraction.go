package types

// ExtractedNode is one entity record as parsed from a single LLM extraction
// call, before cross-text-unit merging.
type ExtractedNode struct {
	Title       string
	Type        string
	Description string
}

// ExtractedEdge is one relationship record as parsed from a single LLM
// extraction call, before cross-text-unit merging.
type ExtractedEdge struct {
	Source      string
	Target      string
	Description string
	Weight      float64
}

// ExtractionResult is the raw per-text-unit output of the graph extractor,
// keyed back to the text unit it came from so merge can attribute
// TextUnitIDs correctly.
type ExtractionResult struct {
	TextUnitID string
	Nodes      []ExtractedNode
	Edges      []ExtractedEdge
}

// PromptExample is one worked (text, extraction) pair rendered into the
// extraction system prompt as a few-shot example.
type PromptExample struct {
	Text  string
	Nodes []ExtractedNode
	Edges []ExtractedEdge
}

// ExtractionPrompt configures the extraction prompt template: the entity
// type tag list, the instructional description, and worked examples.
type ExtractionPrompt struct {
	Description string
	EntityTypes []string
	Examples    []PromptExample
}
