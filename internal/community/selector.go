// Package community implements the dynamic community selector (spec
// §4.13): a breadth-first walk of the community tree that asks the chat
// model to rate each community's relevance to a query, descending into
// children only of communities that clear the threshold.
package community

import (
	"context"
	"math"
	"sort"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
)

// Rater rates one community report's relevance to query on a 0-10 scale,
// returning the prompt/output token cost of the call that produced it.
type Rater func(ctx context.Context, query string, report types.CommunityReport) (rating int, promptTokens int, outputTokens int, err error)

// Result is the dynamic selector's output (spec §4.13 step 4).
type Result struct {
	Reports      []types.CommunityReport
	LLMCalls     int
	PromptTokens int
	OutputTokens int
	Ratings      map[int]int
}

type Selector struct {
	cfg  config.DynamicSelectionConfig
	rate Rater
}

func New(cfg config.DynamicSelectionConfig, rate Rater) *Selector {
	return &Selector{cfg: cfg, rate: rate}
}

// Select runs the breadth-first rating walk described in spec §4.13.
// reports and communities are both keyed by Community.Community (the
// integer cluster id).
func (s *Selector) Select(ctx context.Context, query string, reports map[int]types.CommunityReport, communities map[int]types.Community) (Result, error) {
	byLevel := map[int][]int{}
	for id, c := range communities {
		byLevel[c.Level] = append(byLevel[c.Level], id)
	}
	for lvl := range byLevel {
		sort.Ints(byLevel[lvl])
	}

	relevant := map[int]bool{}
	ratings := map[int]int{}
	var llmCalls, promptTokens, outputTokens int

	repeats := s.cfg.NumRepeats
	if repeats <= 0 {
		repeats = 1
	}

	queue := append([]int(nil), byLevel[0]...)
	level := 0

	for len(queue) > 0 {
		sort.Ints(queue)
		var next []int

		for _, id := range queue {
			report, ok := reports[id]
			if !ok {
				continue
			}

			total := 0
			for i := 0; i < repeats; i++ {
				r, pt, ot, err := s.rate(ctx, query, report)
				if err != nil {
					return Result{}, err
				}
				llmCalls++
				promptTokens += pt
				outputTokens += ot
				total += r
			}
			avg := int(math.Round(float64(total) / float64(repeats)))
			ratings[id] = avg

			if float64(avg) < s.cfg.RateThreshold {
				continue
			}

			relevant[id] = true
			if !s.cfg.KeepParent {
				delete(relevant, communities[id].Parent)
			}
			for _, childID := range communities[id].Children {
				if _, ok := reports[childID]; ok {
					next = append(next, childID)
				}
			}
		}

		level++
		queue = next
		if len(queue) == 0 && len(relevant) == 0 && level <= s.cfg.MaxLevel {
			queue = append(queue, byLevel[level]...)
		}
	}

	ids := make([]int, 0, len(relevant))
	for id := range relevant {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]types.CommunityReport, 0, len(ids))
	for _, id := range ids {
		out = append(out, reports[id])
	}

	return Result{Reports: out, LLMCalls: llmCalls, PromptTokens: promptTokens, OutputTokens: outputTokens, Ratings: ratings}, nil
}
