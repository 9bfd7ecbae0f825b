package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
)

const driftPrimerPromptTemplate = `Propose up to %[2]d distinct follow-up questions that would help answer
the question below more thoroughly. One per line, no numbering.

Question: %[1]s`

const driftReducePromptTemplate = `Aggregate the answers to the follow-up questions below into one
final answer to the original question.

Answers:
%s

Original question: %s`

// Drift expands the query into drift_k_follow_ups sub-queries over
// primer_folds folds, runs a local search per sub-query, and repeats for
// n_depth levels (each level's follow-ups becoming the next level's base
// queries) before reducing every collected answer into a final response
// (spec §4.14's Drift mode).
func (e *Engine) Drift(ctx context.Context, query string, namespace string, entityIndexName string, cfg config.DriftSearchConfig, localCfg config.LocalSearchConfig, in LocalInputs) (types.SearchResult, error) {
	start := time.Now()
	result := types.SearchResult{}

	depth := cfg.NDepth
	if depth <= 0 {
		depth = 1
	}
	folds := cfg.PrimerFolds
	if folds <= 0 {
		folds = 1
	}
	followUps := cfg.DriftKFollowUps
	if followUps <= 0 {
		followUps = 1
	}

	var answers []string
	var records []types.ContextRecord
	queryPool := []string{query}

	for d := 0; d < depth && len(queryPool) > 0; d++ {
		var subQueries []string
		for f := 0; f < folds; f++ {
			base := queryPool[f%len(queryPool)]
			primerPrompt := fmt.Sprintf(driftPrimerPromptTemplate, base, followUps)
			response, err := e.chat(ctx, primerPrompt, types.ChatOptions{Temperature: 0}, &result)
			if err != nil {
				return types.SearchResult{}, err
			}
			subQueries = append(subQueries, parseFollowUpQueries(response, followUps)...)
		}

		for _, sq := range subQueries {
			localResult, err := e.Local(ctx, sq, namespace, entityIndexName, localCfg, in)
			if err != nil {
				return types.SearchResult{}, err
			}
			result.LLMCalls += localResult.LLMCalls
			result.PromptTokens += localResult.PromptTokens
			result.OutputTokens += localResult.OutputTokens
			if strings.TrimSpace(localResult.Response) != "" {
				answers = append(answers, localResult.Response)
			}
			records = append(records, localResult.ContextRecords...)
		}
		queryPool = subQueries
	}

	reducePrompt := fmt.Sprintf(driftReducePromptTemplate, strings.Join(answers, "\n\n"), query)
	response, err := e.chat(ctx, reducePrompt, types.ChatOptions{Temperature: 0}, &result)
	if err != nil {
		return types.SearchResult{}, err
	}

	result.Response = response
	result.ContextChunks = strings.Join(answers, "\n\n")
	result.ContextRecords = records
	result.CompletionTime = time.Since(start)
	return result, nil
}

// parseFollowUpQueries splits a primer response into at most max
// non-empty lines.
func parseFollowUpQueries(response string, max int) []string {
	var out []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) >= max {
			break
		}
	}
	return out
}
