package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/concurrency"
	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// wordTokenizer treats each space-separated word as one token, so a
// generated "w0 w1 w2 ..." string has an exact, easily-asserted token
// count.
type wordTokenizer struct{}

func (wordTokenizer) Encode(text string) []int {
	if text == "" {
		return nil
	}
	var toks []int
	n := 0
	for _, r := range text {
		if r == ' ' {
			n++
		}
	}
	for i := 0; i <= n; i++ {
		toks = append(toks, i)
	}
	return toks
}

func (wordTokenizer) Decode(tokens []int) string {
	return words(len(tokens))
}

type countingEmbedder struct {
	calls       int
	batchCounts []int
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.batchCounts = append(c.batchCounts, len(texts))
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = []float32{1, 0}
	}
	return vecs, nil
}

func (c *countingEmbedder) Dimensions() int { return 2 }

type recordingStore struct {
	cleared bool
	docs    []interfaces.VectorDocument
}

func (r *recordingStore) LoadDocuments(ctx context.Context, indexName string, docs []interfaces.VectorDocument) error {
	r.docs = docs
	return nil
}
func (r *recordingStore) SimilaritySearchByVector(ctx context.Context, indexName string, vector []float32, k int) ([]interfaces.VectorSearchResult, error) {
	return nil, nil
}
func (r *recordingStore) SimilaritySearchByText(ctx context.Context, indexName string, embed func(context.Context, string) ([]float32, error), text string, k int) ([]interfaces.VectorSearchResult, error) {
	return nil, nil
}
func (r *recordingStore) FilterByID(ctx context.Context, indexName string, ids []string) error {
	return nil
}
func (r *recordingStore) ClearIndex(ctx context.Context, indexName string) error {
	r.cleared = true
	return nil
}

func words(n int) string {
	s := "w0"
	for i := 1; i < n; i++ {
		s += " w" + string(rune('a'+i%26))
	}
	return s
}

// TestEmbedFieldMatchesS6BatchingScenario mirrors S6: ten 1000-token
// inputs, batch_size=4, batch_max_tokens=3000 must produce batches of
// sizes [3,3,3,1] and exactly four embedding calls.
func TestEmbedFieldMatchesS6BatchingScenario(t *testing.T) {
	pool, err := concurrency.NewPool(1)
	require.NoError(t, err)
	defer pool.Release()

	chat := &countingEmbedder{}
	store := &recordingStore{}
	cfg := config.EmbeddingsConfig{BatchSize: 4, BatchMaxTokens: 3000}
	e := New(chat, store, wordTokenizer{}, cfg, pool)

	inputs := make([]FieldInput, 10)
	for i := range inputs {
		inputs[i] = FieldInput{ID: string(rune('a' + i)), Text: words(1000)}
	}

	err = e.EmbedField(context.Background(), "text_units", inputs, true)
	require.NoError(t, err)
	assert.Equal(t, 4, chat.calls)
	assert.Equal(t, []int{3, 3, 3, 1}, chat.batchCounts)
	assert.True(t, store.cleared)
	assert.Len(t, store.docs, 10)
}

func TestEmbedFieldSkipsEmptyInputs(t *testing.T) {
	pool, err := concurrency.NewPool(1)
	require.NoError(t, err)
	defer pool.Release()

	chat := &countingEmbedder{}
	store := &recordingStore{}
	cfg := config.EmbeddingsConfig{BatchSize: 4, BatchMaxTokens: 3000}
	e := New(chat, store, wordTokenizer{}, cfg, pool)

	inputs := []FieldInput{
		{ID: "a", Text: "hello world"},
		{ID: "b", Text: "   "},
		{ID: "c", Text: ""},
	}
	err = e.EmbedField(context.Background(), "entities", inputs, false)
	require.NoError(t, err)
	assert.Equal(t, 1, chat.calls)
	require.Len(t, store.docs, 1)
	assert.Equal(t, "a", store.docs[0].ID)
	assert.False(t, store.cleared)
}

func TestEmbedFieldAveragesAndNormalizesSplitInput(t *testing.T) {
	pool, err := concurrency.NewPool(1)
	require.NoError(t, err)
	defer pool.Release()

	chat := &countingEmbedder{}
	store := &recordingStore{}
	cfg := config.EmbeddingsConfig{BatchSize: 10, BatchMaxTokens: 500}
	e := New(chat, store, wordTokenizer{}, cfg, pool)

	inputs := []FieldInput{{ID: "long", Text: words(1000)}}
	err = e.EmbedField(context.Background(), "entities", inputs, false)
	require.NoError(t, err)
	require.Len(t, store.docs, 1)

	vec := store.docs[0].Vector
	var normSquared float64
	for _, v := range vec {
		normSquared += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, normSquared, 1e-6)
}
