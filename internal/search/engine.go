// Package search implements the four query-time orchestrators (spec
// §4.14): local, global, drift and basic. Each shares the
// search(query, history?) -> {response, context_chunks, context_records,
// completion_time, llm_calls, prompt_tokens, output_tokens} shape defined
// in types.SearchResult, grounded on the teacher's retriever/chat_pipline
// request-then-respond pattern generalized to four distinct context
// assembly strategies over the same underlying stores.
package search

import (
	"context"
	"strings"

	"github.com/rinarakaki/graphrag/internal/chunking"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// Engine bundles the capabilities every search mode draws on. Table data
// (entities, relationships, text units, reports) is supplied per call
// rather than owned by the engine, since loading it is the pipeline
// runner's concern (spec §4.1/§4.12), not the search orchestrators'.
type Engine struct {
	Chat        interfaces.ChatModel
	Embedding   interfaces.EmbeddingModel
	VectorStore interfaces.BaseVectorStore
	GraphStore  interfaces.GraphStore
	Tokenizer   chunking.Tokenizer
}

func New(chat interfaces.ChatModel, embedding interfaces.EmbeddingModel, vectorStore interfaces.BaseVectorStore, graphStore interfaces.GraphStore, tokenizer chunking.Tokenizer) *Engine {
	return &Engine{Chat: chat, Embedding: embedding, VectorStore: vectorStore, GraphStore: graphStore, Tokenizer: tokenizer}
}

// embedQuery is the single-text convenience wrapper every mode uses to
// turn a query string into a vector for similarity search.
func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := e.Embedding.Embed(ctx, []string{query})
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.LLMTransient, "embedding query", err)
	}
	if len(vecs) == 0 {
		return nil, pipelineerr.New(pipelineerr.LLMTerminal, "embedding model returned no vector for query", nil)
	}
	return vecs[0], nil
}

// packContext greedily joins records in order, stopping once adding the
// next would exceed maxTokens (spec's recurring "token-bounded" context
// assembly rule, shared by the reporter and every search mode).
func (e *Engine) packContext(records []types.ContextRecord, maxTokens int) (string, []types.ContextRecord) {
	if maxTokens <= 0 {
		var lines []string
		for _, r := range records {
			lines = append(lines, r.Text)
		}
		return strings.Join(lines, "\n"), records
	}

	var kept []types.ContextRecord
	var lines []string
	used := 0
	for _, r := range records {
		n := len(e.Tokenizer.Encode(r.Text))
		if used+n > maxTokens && len(kept) > 0 {
			break
		}
		kept = append(kept, r)
		lines = append(lines, r.Text)
		used += n
	}
	return strings.Join(lines, "\n"), kept
}

// chat runs one chat call and folds its token accounting into an
// in-progress types.SearchResult, the "every call into the chat model is
// logged and counted" invariant shared by all four modes (spec §4.14).
func (e *Engine) chat(ctx context.Context, prompt string, opts types.ChatOptions, result *types.SearchResult) (string, error) {
	resp, err := e.Chat.Chat(ctx, nil, prompt, opts)
	if err != nil {
		return "", pipelineerr.Wrap(pipelineerr.LLMTransient, "search chat call", err)
	}
	result.LLMCalls++
	result.PromptTokens += resp.Metrics.PromptTokens
	result.OutputTokens += resp.Metrics.OutputTokens
	return resp.Content, nil
}

