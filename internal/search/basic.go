package search

import (
	"context"
	"fmt"
	"time"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
)

const basicAnswerPromptTemplate = `Answer the question using only the text excerpts below. If the
excerpts do not contain the answer, say so.

Excerpts:
%s

Question: %s`

// Basic runs text-unit similarity search against the vector store,
// assembles the hits into a token-bounded context, and asks the chat
// model to answer from it (spec §4.14: "Basic: text-unit similarity
// search -> answer prompt").
func (e *Engine) Basic(ctx context.Context, query string, indexName string, cfg config.BasicSearchConfig) (types.SearchResult, error) {
	start := time.Now()
	result := types.SearchResult{}

	vector, err := e.embedQuery(ctx, query)
	if err != nil {
		return types.SearchResult{}, err
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 10
	}
	hits, err := e.VectorStore.SimilaritySearchByVector(ctx, indexName, vector, topK)
	if err != nil {
		return types.SearchResult{}, err
	}

	records := make([]types.ContextRecord, 0, len(hits))
	for _, h := range hits {
		records = append(records, types.ContextRecord{Source: "text_units", ID: h.Document.ID, Text: h.Document.Text})
	}

	contextChunks, kept := e.packContext(records, cfg.MaxContextTokens)
	prompt := fmt.Sprintf(basicAnswerPromptTemplate, contextChunks, query)

	response, err := e.chat(ctx, prompt, types.ChatOptions{Temperature: 0}, &result)
	if err != nil {
		return types.SearchResult{}, err
	}

	result.Response = response
	result.ContextChunks = contextChunks
	result.ContextRecords = kept
	result.CompletionTime = time.Since(start)
	return result, nil
}
