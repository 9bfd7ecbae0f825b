package types

import "time"

// SearchMode selects one of the four query-time orchestrators (spec §4.14).
type SearchMode string

const (
	SearchModeLocal  SearchMode = "local"
	SearchModeGlobal SearchMode = "global"
	SearchModeDrift  SearchMode = "drift"
	SearchModeBasic  SearchMode = "basic"
)

// ContextRecord is one row of assembled context handed to the chat model,
// tagged with the table it came from so callers can render citations.
type ContextRecord struct {
	Source string // "entities" | "relationships" | "text_units" | "communities" | "reports"
	ID     string
	Text   string
}

// SearchResult is the shared return shape of all four search orchestrators
// (spec §4.14).
type SearchResult struct {
	Response        string
	ContextChunks   string
	ContextRecords  []ContextRecord
	CompletionTime  time.Duration
	LLMCalls        int
	PromptTokens    int
	OutputTokens    int
}

// StreamDelta is one piece of a streamed search response.
type StreamDelta struct {
	Content string
	Done    bool
}
