package vectorstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// idSeparator tags a result id with the index it came from as
// "{originalID}{idSeparator}{indexName}" (spec §4.5's multi-index round
// trip). A plain "-" collides with entity/relationship/community UUIDs,
// which already contain dashes, so this uses the ASCII unit separator
// (0x1F) instead: a byte that never appears in a UUID or a title.
const idSeparator = "\x1f"

// QualifyID tags id with the index it was returned from.
func QualifyID(id, indexName string) string {
	return id + idSeparator + indexName
}

// SplitQualifiedID recovers the original id and index name from a tagged
// id. ok is false if id was never tagged (no idSeparator present).
func SplitQualifiedID(qualified string) (id string, indexName string, ok bool) {
	i := strings.LastIndex(qualified, idSeparator)
	if i < 0 {
		return qualified, "", false
	}
	return qualified[:i], qualified[i+len(idSeparator):], true
}

// MultiStore routes per-index BaseVectorStore calls to the named backend
// responsible for that index, and additionally supports fanning a single
// query out across several indices at once (spec §4.5's multi-index
// wrapper), grounded on the teacher's CompositeRetrieveEngine fan-out.
type MultiStore struct {
	indices map[string]interfaces.BaseVectorStore
}

func NewMultiStore(indices map[string]interfaces.BaseVectorStore) *MultiStore {
	return &MultiStore{indices: indices}
}

func (m *MultiStore) backend(indexName string) (interfaces.BaseVectorStore, error) {
	b, ok := m.indices[indexName]
	if !ok {
		return nil, pipelineerr.New(pipelineerr.ConfigError, "unknown vector index", map[string]any{"index": indexName})
	}
	return b, nil
}

func (m *MultiStore) LoadDocuments(ctx context.Context, indexName string, docs []interfaces.VectorDocument) error {
	b, err := m.backend(indexName)
	if err != nil {
		return err
	}
	return b.LoadDocuments(ctx, indexName, docs)
}

func (m *MultiStore) SimilaritySearchByVector(ctx context.Context, indexName string, vector []float32, k int) ([]interfaces.VectorSearchResult, error) {
	b, err := m.backend(indexName)
	if err != nil {
		return nil, err
	}
	return b.SimilaritySearchByVector(ctx, indexName, vector, k)
}

func (m *MultiStore) SimilaritySearchByText(ctx context.Context, indexName string, embed func(context.Context, string) ([]float32, error), text string, k int) ([]interfaces.VectorSearchResult, error) {
	b, err := m.backend(indexName)
	if err != nil {
		return nil, err
	}
	return b.SimilaritySearchByText(ctx, indexName, embed, text, k)
}

func (m *MultiStore) FilterByID(ctx context.Context, indexName string, ids []string) error {
	b, err := m.backend(indexName)
	if err != nil {
		return err
	}
	return b.FilterByID(ctx, indexName, ids)
}

func (m *MultiStore) ClearIndex(ctx context.Context, indexName string) error {
	b, err := m.backend(indexName)
	if err != nil {
		return err
	}
	return b.ClearIndex(ctx, indexName)
}

// SearchAcrossIndices queries every named index concurrently, tags each
// result's document id with its source index via QualifyID, merges by
// score, and truncates to the global top k.
func (m *MultiStore) SearchAcrossIndices(ctx context.Context, indexNames []string, vector []float32, k int) ([]interfaces.VectorSearchResult, error) {
	var wg sync.WaitGroup
	perIndex := make([][]interfaces.VectorSearchResult, len(indexNames))
	errs := make([]error, len(indexNames))

	for i, name := range indexNames {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results, err := m.SimilaritySearchByVector(ctx, name, vector, k)
			if err != nil {
				errs[i] = pipelineerr.Wrap(pipelineerr.StorageError, "multi-index search against "+name, err)
				return
			}
			tagged := make([]interfaces.VectorSearchResult, len(results))
			for j, r := range results {
				doc := r.Document
				doc.ID = QualifyID(doc.ID, name)
				tagged[j] = interfaces.VectorSearchResult{Document: doc, Score: r.Score}
			}
			perIndex[i] = tagged
		}(i, name)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var merged []interfaces.VectorSearchResult
	for _, results := range perIndex {
		merged = append(merged, results...)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if k > 0 && len(merged) > k {
		merged = merged[:k]
	}
	return merged, nil
}

var _ interfaces.BaseVectorStore = (*MultiStore)(nil)
