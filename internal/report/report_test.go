package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
)

type fakeChat struct {
	response string
}

func (f *fakeChat) Chat(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (types.ChatResponse, error) {
	return types.ChatResponse{Content: f.response}, nil
}
func (f *fakeChat) ChatStream(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (<-chan types.StreamDelta, <-chan error) {
	panic("not used")
}

type wordTokenizer struct{}

func (wordTokenizer) Encode(text string) []int {
	n := 1
	for _, r := range text {
		if r == ' ' {
			n++
		}
	}
	toks := make([]int, n)
	return toks
}
func (wordTokenizer) Decode(tokens []int) string { panic("not used") }

func TestReportParsesFencedJSON(t *testing.T) {
	chat := &fakeChat{response: "```json\n" +
		`{"title":"Acme cluster","summary":"Acme and its partners","findings":[{"summary":"Acme leads","explanation":"highest degree"}],"rating":7.5,"rating_explanation":"well connected"}` +
		"\n```"}
	r := New(chat, wordTokenizer{}, config.CommunityReportsConfig{MaxInputLength: 1000, MaxReportLength: 200})

	community := types.Community{Community: 3, Level: 0, Parent: -1, Period: "2026-07-30", Size: 2}
	entities := []types.Entity{{Title: "ACME", Type: "organization", Description: "maker of X"}}
	relationships := []types.Relationship{{Source: "ACME", Target: "BOB", Description: "employs"}}

	out, err := r.Report(context.Background(), community, entities, relationships, nil)
	require.NoError(t, err)
	assert.Equal(t, "Acme cluster", out.Title)
	assert.Equal(t, 7.5, out.Rank)
	assert.Len(t, out.Findings, 1)
	assert.Equal(t, 3, out.Community)
	assert.NotEmpty(t, out.FullContent)
	assert.NotEmpty(t, out.FullContentJSON)
}

func TestReportFallsBackOnParseFailure(t *testing.T) {
	chat := &fakeChat{response: "this is not json at all"}
	r := New(chat, wordTokenizer{}, config.CommunityReportsConfig{MaxInputLength: 1000, MaxReportLength: 200})

	community := types.Community{Community: 5, Level: 0, Parent: -1}
	out, err := r.Report(context.Background(), community, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Rank)
	assert.Equal(t, "Community 5", out.Title)
	assert.Equal(t, "this is not json at all", out.Summary)
}

func TestBuildContextRespectsTokenBudget(t *testing.T) {
	r := New(&fakeChat{}, wordTokenizer{}, config.CommunityReportsConfig{MaxInputLength: 3})
	entities := []types.Entity{
		{Title: "A", Description: "one two three four five"},
		{Title: "B", Description: "six seven eight nine ten"},
	}
	ctxText := r.buildContext(entities, nil, nil)
	assert.Equal(t, "Entities:", ctxText)
}
