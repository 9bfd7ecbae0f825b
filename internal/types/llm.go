package types

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tunes a single chat call. Zero values mean "let the model
// default apply".
type ChatOptions struct {
	Temperature float64
	TopP        float64
	Seed        int
	MaxTokens   int
}

// ChatMetrics reports token accounting for a single chat call, used by
// search orchestrators to accumulate llm_calls/prompt_tokens/output_tokens.
type ChatMetrics struct {
	PromptTokens int
	OutputTokens int
}

// ChatResponse is the result of a non-streaming chat call (spec §4.4).
type ChatResponse struct {
	Content  string
	History  []ChatMessage
	Metrics  ChatMetrics
	CacheHit bool
}

// ModelSource distinguishes a locally-hosted model (e.g. Ollama) from a
// remote API-compatible one (spec §4.4 construction is config-driven).
type ModelSource string

const (
	ModelSourceLocal  ModelSource = "local"
	ModelSourceRemote ModelSource = "remote"
)

// RetryStrategy names the backoff shape applied to transient LLM failures.
type RetryStrategy string

const (
	RetryStrategyExponentialBackoff RetryStrategy = "exponential_backoff"
)

// ModelConfig is the configuration-driven construction record for one named
// ChatModel or EmbeddingModel (spec §4.4).
type ModelConfig struct {
	Name               string
	Type               string // "chat" | "embedding"
	Source             ModelSource
	ModelName          string
	BaseURL            string
	APIKey             string
	Dimensions         int
	TokensPerMinute    int
	RequestsPerMinute  int
	ConcurrentRequests int
	MaxRetries         int // retries after the first try; a negative value (-1) sets no try cap, leaving MaxRetryWait as the only bound (it is not resolved to an expected call count)
	RetryStrategy      RetryStrategy
	MaxRetryWait       float64 // seconds
	RequestTimeout     float64 // seconds
}
