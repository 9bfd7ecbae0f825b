package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

type wordTokenizer struct{}

func (wordTokenizer) Encode(text string) []int {
	n := 1
	for _, r := range text {
		if r == ' ' {
			n++
		}
	}
	return make([]int, n)
}
func (wordTokenizer) Decode(tokens []int) string { panic("not used") }

type fakeChat struct {
	responses []string
	calls     int
}

func (f *fakeChat) Chat(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (types.ChatResponse, error) {
	resp := "answer"
	if f.calls < len(f.responses) {
		resp = f.responses[f.calls]
	}
	f.calls++
	return types.ChatResponse{Content: resp, Metrics: types.ChatMetrics{PromptTokens: 5, OutputTokens: 2}}, nil
}
func (f *fakeChat) ChatStream(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (<-chan types.StreamDelta, <-chan error) {
	panic("not used")
}

type fakeEmbedding struct{}

func (fakeEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = []float32{1, 0}
	}
	return vecs, nil
}
func (fakeEmbedding) Dimensions() int { return 2 }

type fakeVectorStore struct {
	hits []interfaces.VectorSearchResult
}

func (f *fakeVectorStore) LoadDocuments(ctx context.Context, indexName string, docs []interfaces.VectorDocument) error {
	return nil
}
func (f *fakeVectorStore) SimilaritySearchByVector(ctx context.Context, indexName string, vector []float32, k int) ([]interfaces.VectorSearchResult, error) {
	if k < len(f.hits) {
		return f.hits[:k], nil
	}
	return f.hits, nil
}
func (f *fakeVectorStore) SimilaritySearchByText(ctx context.Context, indexName string, embed func(context.Context, string) ([]float32, error), text string, k int) ([]interfaces.VectorSearchResult, error) {
	return nil, nil
}
func (f *fakeVectorStore) FilterByID(ctx context.Context, indexName string, ids []string) error {
	return nil
}
func (f *fakeVectorStore) ClearIndex(ctx context.Context, indexName string) error { return nil }

func TestBasicSearchAssemblesContextAndAnswers(t *testing.T) {
	chat := &fakeChat{responses: []string{"final answer"}}
	store := &fakeVectorStore{hits: []interfaces.VectorSearchResult{
		{Document: interfaces.VectorDocument{ID: "tu1", Text: "alpha beta gamma"}, Score: 0.9},
		{Document: interfaces.VectorDocument{ID: "tu2", Text: "delta epsilon"}, Score: 0.8},
	}}
	e := New(chat, fakeEmbedding{}, store, nil, wordTokenizer{})

	result, err := e.Basic(context.Background(), "what is alpha?", "text_units", config.BasicSearchConfig{TopK: 2, MaxContextTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, "final answer", result.Response)
	assert.Equal(t, 1, result.LLMCalls)
	assert.Len(t, result.ContextRecords, 2)
}

func TestGlobalSearchMapsThenReduces(t *testing.T) {
	chat := &fakeChat{responses: []string{"point A", "point B", "final"}}
	e := New(chat, fakeEmbedding{}, nil, nil, wordTokenizer{})

	reports := []types.CommunityReport{
		{ID: "r1", Community: 1, Rank: 5, Summary: "one two three"},
		{ID: "r2", Community: 2, Rank: 1, Summary: "four five six"},
		{ID: "r3", Community: 3, Rank: 0, Summary: "below rank, excluded"},
	}
	cfg := config.GlobalSearchConfig{MinCommunityRank: 1, DataMaxTokens: 3}

	result, err := e.Global(context.Background(), "summarize", reports, cfg, 42)
	require.NoError(t, err)
	assert.Equal(t, "final", result.Response)
	assert.Equal(t, 3, result.LLMCalls) // 2 map batches + 1 reduce
	assert.Len(t, result.ContextRecords, 2)
}

func TestGlobalSearchDeterministicWithSameSeed(t *testing.T) {
	reports := []types.CommunityReport{
		{ID: "r1", Community: 1, Rank: 5, Summary: "a"},
		{ID: "r2", Community: 2, Rank: 5, Summary: "b"},
		{ID: "r3", Community: 3, Rank: 5, Summary: "c"},
	}
	cfg := config.GlobalSearchConfig{DataMaxTokens: 100}

	chat1 := &fakeChat{responses: []string{"pts", "final"}}
	e1 := New(chat1, fakeEmbedding{}, nil, nil, wordTokenizer{})
	r1, err := e1.Global(context.Background(), "q", append([]types.CommunityReport{}, reports...), cfg, 7)
	require.NoError(t, err)

	chat2 := &fakeChat{responses: []string{"pts", "final"}}
	e2 := New(chat2, fakeEmbedding{}, nil, nil, wordTokenizer{})
	r2, err := e2.Global(context.Background(), "q", append([]types.CommunityReport{}, reports...), cfg, 7)
	require.NoError(t, err)

	assert.Equal(t, r1.ContextRecords, r2.ContextRecords)
}
