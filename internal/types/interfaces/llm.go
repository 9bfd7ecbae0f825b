package interfaces

import (
	"context"

	"github.com/rinarakaki/graphrag/internal/types"
)

// ChatModel is the capability set for a conversational LLM (spec §4.4,
// capability C4). Implementations own their own rate limiting and retry
// policy per the owning ModelConfig.
type ChatModel interface {
	Chat(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (types.ChatResponse, error)
	ChatStream(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (<-chan types.StreamDelta, <-chan error)
}

// EmbeddingModel is the capability set for a text embedding model (spec
// §4.4, capability C4).
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Manager resolves named ChatModel/EmbeddingModel instances from
// configuration, scoped per pipeline run so concurrent runs never share
// rate-limiter or cache state (spec §4.4, A.5).
type Manager interface {
	Chat(name string) (ChatModel, error)
	Embedding(name string) (EmbeddingModel, error)
}
