package search

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
)

const mapPromptTemplate = `Given these community reports, list the key points relevant to the
question. One point per line.

Reports:
%s

Question: %s`

const reducePromptTemplate = `Combine the key points below into one final answer to the question.

Key points:
%s

Question: %s`

// Global builds per-batch community-report context in a seed-stable
// randomized order, maps each batch to key points, then reduces the
// key points into a final answer (spec §4.14's Global mode).
func (e *Engine) Global(ctx context.Context, query string, reports []types.CommunityReport, cfg config.GlobalSearchConfig, seed int64) (types.SearchResult, error) {
	start := time.Now()
	result := types.SearchResult{}

	filtered := make([]types.CommunityReport, 0, len(reports))
	for _, r := range reports {
		if r.Rank >= cfg.MinCommunityRank {
			filtered = append(filtered, r)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(filtered), func(i, j int) { filtered[i], filtered[j] = filtered[j], filtered[i] })

	batches := batchReports(filtered, e, cfg.DataMaxTokens)

	var keyPoints []string
	var records []types.ContextRecord
	for _, batch := range batches {
		var lines []string
		for _, r := range batch {
			lines = append(lines, fmt.Sprintf("Community %d (rank %.1f): %s", r.Community, r.Rank, r.Summary))
			records = append(records, types.ContextRecord{Source: "reports", ID: r.ID, Text: r.Summary})
		}
		prompt := fmt.Sprintf(mapPromptTemplate, strings.Join(lines, "\n"), query)
		response, err := e.chat(ctx, prompt, types.ChatOptions{Temperature: 0, MaxTokens: cfg.MapMaxLength}, &result)
		if err != nil {
			return types.SearchResult{}, err
		}
		if strings.TrimSpace(response) != "" {
			keyPoints = append(keyPoints, response)
		}
	}

	reducePrompt := fmt.Sprintf(reducePromptTemplate, strings.Join(keyPoints, "\n\n"), query)
	response, err := e.chat(ctx, reducePrompt, types.ChatOptions{Temperature: 0, MaxTokens: cfg.ReduceMaxLength}, &result)
	if err != nil {
		return types.SearchResult{}, err
	}

	result.Response = response
	result.ContextChunks = strings.Join(keyPoints, "\n\n")
	result.ContextRecords = records
	result.CompletionTime = time.Since(start)
	return result, nil
}

// batchReports packs reports in (already randomized) order into batches
// bounded by dataMaxTokens summed tokens, the same greedy-pack shape used
// by the embedder's token-budgeted batching.
func batchReports(reports []types.CommunityReport, e *Engine, dataMaxTokens int) [][]types.CommunityReport {
	if dataMaxTokens <= 0 {
		return [][]types.CommunityReport{reports}
	}

	var batches [][]types.CommunityReport
	var current []types.CommunityReport
	used := 0
	for _, r := range reports {
		n := len(e.Tokenizer.Encode(r.Summary))
		if len(current) > 0 && used+n > dataMaxTokens {
			batches = append(batches, current)
			current = nil
			used = 0
		}
		current = append(current, r)
		used += n
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
