package chunking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
)

// letterTokenizer treats each space-separated word as exactly one token,
// matching the S1 scenario's "encoder where each letter is one token".
type letterTokenizer struct{}

func (letterTokenizer) Encode(text string) []int {
	words := splitWords(text)
	tokens := make([]int, len(words))
	for i := range words {
		tokens[i] = i
	}
	return tokens
}

func (letterTokenizer) Decode(tokens []int) string {
	words := []string{"A", "B", "C", "D", "E", "F"}
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = words[t]
	}
	return joinWords(out)
}

func splitWords(text string) []string {
	var words []string
	var cur []rune
	for _, r := range text {
		if r == ' ' {
			if len(cur) > 0 {
				words = append(words, string(cur))
				cur = nil
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

func joinWords(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}

func TestChunkTokensStrategyProducesSlidingWindows(t *testing.T) {
	cfg := config.ChunksConfig{Size: 3, Overlap: 1, Strategy: StrategyTokens}
	docs := []types.Document{{ID: "doc-1", Text: "A B C D E F"}}

	units, err := Chunk(cfg, letterTokenizer{}, docs)
	require.NoError(t, err)
	require.Len(t, units, 3)

	assert.Equal(t, "A B C", units[0].Text)
	assert.Equal(t, 3, units[0].NTokens)
	assert.Equal(t, "C D E", units[1].Text)
	assert.Equal(t, 3, units[1].NTokens)
	assert.Equal(t, "E F", units[2].Text)
	assert.Equal(t, 2, units[2].NTokens)

	for _, u := range units {
		assert.Equal(t, []string{"doc-1"}, u.DocumentIDs)
		assert.NotEmpty(t, u.ID)
	}
}

func TestChunkSentencesStrategyNeverMerges(t *testing.T) {
	cfg := config.ChunksConfig{Strategy: StrategySentences}
	docs := []types.Document{{ID: "doc-1", Text: "First sentence. Second sentence! Third?"}}

	tokenizer, err := NewTokenizer("")
	require.NoError(t, err)

	units, err := Chunk(cfg, tokenizer, docs)
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, "First sentence.", units[0].Text)
	assert.Equal(t, "Second sentence!", units[1].Text)
	assert.Equal(t, "Third?", units[2].Text)
}

func TestChunkMetadataExceedsBudgetFailsConfigError(t *testing.T) {
	cfg := config.ChunksConfig{
		Size:                      2,
		Overlap:                   0,
		Strategy:                  StrategyTokens,
		PrependMetadata:           true,
		ChunkSizeIncludesMetadata: true,
	}
	docs := []types.Document{{
		ID:       "doc-1",
		Text:     "A B C",
		Metadata: map[string]string{"source": "a very long metadata value that eats the whole budget"},
	}}

	tokenizer, err := NewTokenizer("")
	require.NoError(t, err)

	_, err = Chunk(cfg, tokenizer, docs)
	require.Error(t, err)
}
