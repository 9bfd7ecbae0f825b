package interfaces

import "context"

// VectorDocument is one row upserted into a vector index.
type VectorDocument struct {
	ID         string
	Text       string
	Vector     []float32
	Attributes map[string]string
}

// VectorSearchResult is one hit returned from a similarity search.
type VectorSearchResult struct {
	Document VectorDocument
	Score    float64
}

// BaseVectorStore is the capability set for a similarity index (spec §4.5,
// capability C5). IndexName namespaces a logical table (entities,
// community_full_content, etc.) within one physical store.
type BaseVectorStore interface {
	LoadDocuments(ctx context.Context, indexName string, docs []VectorDocument) error
	SimilaritySearchByVector(ctx context.Context, indexName string, vector []float32, k int) ([]VectorSearchResult, error)
	SimilaritySearchByText(ctx context.Context, indexName string, embed func(context.Context, string) ([]float32, error), text string, k int) ([]VectorSearchResult, error)
	FilterByID(ctx context.Context, indexName string, ids []string) error
	ClearIndex(ctx context.Context, indexName string) error
}
