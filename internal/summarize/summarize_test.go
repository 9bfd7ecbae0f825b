package summarize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/cache"
	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
)

type fakeChatModel struct {
	calls    int
	response string
}

func (f *fakeChatModel) Chat(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (types.ChatResponse, error) {
	f.calls++
	return types.ChatResponse{Content: f.response}, nil
}

func (f *fakeChatModel) ChatStream(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (<-chan types.StreamDelta, <-chan error) {
	panic("not used")
}

// TestSummarizeMatchesS2Scenario mirrors S2: the summarizer, mocked to
// return "maker of X; based in Y", collapses a two-entry description list.
func TestSummarizeMatchesS2Scenario(t *testing.T) {
	chat := &fakeChatModel{response: "maker of X; based in Y"}
	summarizer := NewSummarizer(chat, cache.NewMemoryCache(), config.SummarizationConfig{MaxLength: 200})

	summary, err := summarizer.Summarize(context.Background(), []string{"maker of X", "based in Y"})
	require.NoError(t, err)
	assert.Equal(t, "maker of X; based in Y", summary)
	assert.Equal(t, 1, chat.calls)
}

func TestSummarizeSingleDescriptionSkipsLLM(t *testing.T) {
	chat := &fakeChatModel{response: "should not be used"}
	summarizer := NewSummarizer(chat, cache.NewMemoryCache(), config.SummarizationConfig{MaxLength: 200})

	summary, err := summarizer.Summarize(context.Background(), []string{"only one"})
	require.NoError(t, err)
	assert.Equal(t, "only one", summary)
	assert.Equal(t, 0, chat.calls)
}

func TestSummarizeIsCached(t *testing.T) {
	chat := &fakeChatModel{response: "summary"}
	summarizer := NewSummarizer(chat, cache.NewMemoryCache(), config.SummarizationConfig{MaxLength: 200})

	ctx := context.Background()
	_, err := summarizer.Summarize(ctx, []string{"a", "b"})
	require.NoError(t, err)
	_, err = summarizer.Summarize(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, chat.calls)
}
