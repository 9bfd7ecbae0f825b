// Package embed implements the batched, token-budgeted embedding stage
// (spec §4.11): tokenize each field value, split over-length inputs into
// snippets bounded by batch_max_tokens, pack snippets into requests
// respecting both batch_size and batch_max_tokens, run bounded-parallel
// embedding calls, then reconstitute per-input vectors by averaging and
// L2-normalizing snippet embeddings for inputs that were split.
//
// Grounded on the teacher's ants-pool-backed batch dispatch
// (internal/concurrency's RunBatched lineage) generalized from fixed-size
// batching to the spec's dual count/token budget.
package embed

import (
	"context"
	"math"
	"strings"

	"github.com/rinarakaki/graphrag/internal/chunking"
	"github.com/rinarakaki/graphrag/internal/concurrency"
	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// FieldInput is one (id, text) pair selected for embedding, e.g. an
// entity description or a text unit's body.
type FieldInput struct {
	ID         string
	Text       string
	Attributes map[string]string
}

// Embedder runs the embedding stage for one configured field across one
// vector-store index.
type Embedder struct {
	model     interfaces.EmbeddingModel
	store     interfaces.BaseVectorStore
	tokenizer chunking.Tokenizer
	cfg       config.EmbeddingsConfig
	pool      *concurrency.Pool
}

func New(model interfaces.EmbeddingModel, store interfaces.BaseVectorStore, tokenizer chunking.Tokenizer, cfg config.EmbeddingsConfig, pool *concurrency.Pool) *Embedder {
	return &Embedder{model: model, store: store, tokenizer: tokenizer, cfg: cfg, pool: pool}
}

type snippet struct {
	inputIndex int
	text       string
	nTokens    int
}

// EmbedField embeds every non-empty input and upserts the resulting
// vectors into indexName. overwrite clears the index before upserting,
// the caller's responsibility to set true only on the first batch of a
// run (spec §4.11).
func (e *Embedder) EmbedField(ctx context.Context, indexName string, inputs []FieldInput, overwrite bool) error {
	snippets, snippetsByInput := e.splitSnippets(inputs)
	batches := e.batchSnippets(snippets)

	vectors := make([][]float32, len(snippets))
	err := concurrency.Run(ctx, e.pool, batches, func(ctx context.Context, batch []int) error {
		texts := make([]string, len(batch))
		for i, idx := range batch {
			texts[i] = snippets[idx].text
		}
		vecs, err := e.model.Embed(ctx, texts)
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.LLMTransient, "embedding batch", err)
		}
		for i, idx := range batch {
			vectors[idx] = vecs[i]
		}
		return nil
	})
	if err != nil {
		return err
	}

	docs := make([]interfaces.VectorDocument, 0, len(inputs))
	for i, in := range inputs {
		idxs := snippetsByInput[i]
		if len(idxs) == 0 {
			continue // empty input maps to None: no vector, no upsert
		}
		vec := vectors[idxs[0]]
		if len(idxs) > 1 {
			vec = l2Normalize(averageVectors(vectors, idxs))
		}
		docs = append(docs, interfaces.VectorDocument{
			ID:         in.ID,
			Text:       in.Text,
			Vector:     vec,
			Attributes: in.Attributes,
		})
	}

	if overwrite {
		if err := e.store.ClearIndex(ctx, indexName); err != nil {
			return pipelineerr.Wrap(pipelineerr.StorageError, "clearing index before overwrite", err)
		}
	}
	if len(docs) == 0 {
		return nil
	}
	if err := e.store.LoadDocuments(ctx, indexName, docs); err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "upserting embedded documents", err)
	}
	return nil
}

// splitSnippets tokenizes each input and splits any input whose token
// count exceeds batch_max_tokens into contiguous snippets of at most
// batch_max_tokens tokens each.
func (e *Embedder) splitSnippets(inputs []FieldInput) ([]snippet, map[int][]int) {
	var snippets []snippet
	byInput := make(map[int][]int, len(inputs))

	maxTokens := e.cfg.BatchMaxTokens
	if maxTokens <= 0 {
		maxTokens = 1
	}

	for i, in := range inputs {
		if strings.TrimSpace(in.Text) == "" {
			continue
		}
		tokens := e.tokenizer.Encode(in.Text)
		if len(tokens) <= maxTokens {
			byInput[i] = append(byInput[i], len(snippets))
			snippets = append(snippets, snippet{inputIndex: i, text: in.Text, nTokens: len(tokens)})
			continue
		}
		for start := 0; start < len(tokens); start += maxTokens {
			end := start + maxTokens
			if end > len(tokens) {
				end = len(tokens)
			}
			byInput[i] = append(byInput[i], len(snippets))
			snippets = append(snippets, snippet{inputIndex: i, text: e.tokenizer.Decode(tokens[start:end]), nTokens: end - start})
		}
	}
	return snippets, byInput
}

// batchSnippets greedily packs snippets in order into batches bounded by
// both batch_size (count) and batch_max_tokens (summed tokens), the
// dual constraint exercised by the S6 scenario (spec §4.11/§8).
func (e *Embedder) batchSnippets(snippets []snippet) [][]int {
	batchSize := e.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	maxTokens := e.cfg.BatchMaxTokens

	var batches [][]int
	var current []int
	currentTokens := 0

	for i, s := range snippets {
		exceedsCount := len(current) >= batchSize
		exceedsTokens := maxTokens > 0 && len(current) > 0 && currentTokens+s.nTokens > maxTokens
		if exceedsCount || exceedsTokens {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}
		current = append(current, i)
		currentTokens += s.nTokens
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func averageVectors(vectors [][]float32, idxs []int) []float32 {
	dims := len(vectors[idxs[0]])
	sum := make([]float32, dims)
	for _, idx := range idxs {
		for d, v := range vectors[idx] {
			sum[d] += v
		}
	}
	n := float32(len(idxs))
	for d := range sum {
		sum[d] /= n
	}
	return sum
}

func l2Normalize(vec []float32) []float32 {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
