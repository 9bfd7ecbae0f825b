package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// MemoryVectorStore is a brute-force cosine-similarity index, used by
// tests and the default configuration when no Postgres DSN is set.
type MemoryVectorStore struct {
	mu      sync.RWMutex
	indices map[string]map[string]interfaces.VectorDocument
}

func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{indices: make(map[string]map[string]interfaces.VectorDocument)}
}

func (s *MemoryVectorStore) LoadDocuments(ctx context.Context, indexName string, docs []interfaces.VectorDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[indexName]
	if !ok {
		idx = make(map[string]interfaces.VectorDocument)
		s.indices[indexName] = idx
	}
	for _, d := range docs {
		idx[d.ID] = d
	}
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func (s *MemoryVectorStore) SimilaritySearchByVector(ctx context.Context, indexName string, vector []float32, k int) ([]interfaces.VectorSearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indices[indexName]
	results := make([]interfaces.VectorSearchResult, 0, len(idx))
	for _, d := range idx {
		results = append(results, interfaces.VectorSearchResult{Document: d, Score: cosine(vector, d.Vector)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *MemoryVectorStore) SimilaritySearchByText(ctx context.Context, indexName string, embed func(context.Context, string) ([]float32, error), text string, k int) ([]interfaces.VectorSearchResult, error) {
	vector, err := embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.SimilaritySearchByVector(ctx, indexName, vector, k)
}

func (s *MemoryVectorStore) FilterByID(ctx context.Context, indexName string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	idx := s.indices[indexName]
	for id := range idx {
		if _, ok := keep[id]; !ok {
			delete(idx, id)
		}
	}
	return nil
}

func (s *MemoryVectorStore) ClearIndex(ctx context.Context, indexName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indices, indexName)
	return nil
}

var _ interfaces.BaseVectorStore = (*MemoryVectorStore)(nil)
