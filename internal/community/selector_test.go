package community

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
)

// TestSelectMatchesS4Scenario mirrors S4: level-0 reports r1(rating 5),
// r2(rating 0), each with one level-1 child r11(rating 4)/r21(rating 5).
// threshold=3, keep_parent=false, max_level=2 must select exactly {r11}.
func TestSelectMatchesS4Scenario(t *testing.T) {
	fixedRatings := map[int]int{1: 5, 2: 0, 11: 4, 21: 5}
	rater := func(ctx context.Context, query string, report types.CommunityReport) (int, int, int, error) {
		return fixedRatings[report.Community], 10, 10, nil
	}

	communities := map[int]types.Community{
		1:  {Community: 1, Level: 0, Parent: -1, Children: []int{11}},
		2:  {Community: 2, Level: 0, Parent: -1, Children: []int{21}},
		11: {Community: 11, Level: 1, Parent: 1},
		21: {Community: 21, Level: 1, Parent: 2},
	}
	reports := map[int]types.CommunityReport{
		1:  {Community: 1, Level: 0, Parent: -1},
		2:  {Community: 2, Level: 0, Parent: -1},
		11: {Community: 11, Level: 1, Parent: 1},
		21: {Community: 21, Level: 1, Parent: 2},
	}

	cfg := config.DynamicSelectionConfig{RateThreshold: 3, NumRepeats: 1, KeepParent: false, MaxLevel: 2}
	sel := New(cfg, rater)

	result, err := sel.Select(context.Background(), "q", reports, communities)
	require.NoError(t, err)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, 11, result.Reports[0].Community)
	assert.Equal(t, 3, result.LLMCalls) // one rate call per visited community: 1, 2 and 11 (21 is never queued)
}

func TestSelectKeepsParentWhenConfigured(t *testing.T) {
	rater := func(ctx context.Context, query string, report types.CommunityReport) (int, int, int, error) {
		return 5, 0, 0, nil
	}
	communities := map[int]types.Community{
		1: {Community: 1, Level: 0, Parent: -1, Children: []int{11}},
		11: {Community: 11, Level: 1, Parent: 1},
	}
	reports := map[int]types.CommunityReport{
		1:  {Community: 1, Level: 0, Parent: -1},
		11: {Community: 11, Level: 1, Parent: 1},
	}
	cfg := config.DynamicSelectionConfig{RateThreshold: 3, NumRepeats: 1, KeepParent: true, MaxLevel: 2}
	result, err := New(cfg, rater).Select(context.Background(), "q", reports, communities)
	require.NoError(t, err)
	ids := []int{}
	for _, r := range result.Reports {
		ids = append(ids, r.Community)
	}
	assert.ElementsMatch(t, []int{1, 11}, ids)
}

func TestParseRatingClampsAndDefaultsOnGarbage(t *testing.T) {
	assert.Equal(t, 7, parseRating("7"))
	assert.Equal(t, 10, parseRating("15"))
	assert.Equal(t, 0, parseRating("not a number"))
	assert.Equal(t, 3, parseRating("rating: 3/10"))
}
