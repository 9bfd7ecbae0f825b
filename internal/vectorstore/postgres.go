// Package vectorstore implements interfaces.BaseVectorStore (spec §4.5)
// against Postgres/pgvector and an in-memory fallback, plus a multi-index
// composite used when several physical stores back one logical index set.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// pgRow is the gorm model backing every logical vector index; IndexName
// namespaces rows so one physical table serves entities, relationships,
// and community_full_content without collision (spec §4.5).
type pgRow struct {
	ID         string `gorm:"primaryKey"`
	IndexName  string `gorm:"primaryKey;index"`
	Text       string
	Attributes string // json-encoded map[string]string
	Dimension  int
	Embedding  pgvector.HalfVector `gorm:"type:halfvec"`
}

func (pgRow) TableName() string { return "graphrag_vectors" }

// PostgresVectorStore persists vector documents in Postgres using the
// pgvector extension, grounded on the teacher's pgRepository.
type PostgresVectorStore struct {
	db *gorm.DB
}

func NewPostgresVectorStore(db *gorm.DB) (*PostgresVectorStore, error) {
	if err := db.AutoMigrate(&pgRow{}); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "migrating vector table", err)
	}
	return &PostgresVectorStore{db: db}, nil
}

func encodeAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return "{}"
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func (s *PostgresVectorStore) LoadDocuments(ctx context.Context, indexName string, docs []interfaces.VectorDocument) error {
	rows := make([]pgRow, len(docs))
	for i, d := range docs {
		rows[i] = pgRow{
			ID:         d.ID,
			IndexName:  indexName,
			Text:       d.Text,
			Attributes: encodeAttributes(d.Attributes),
			Dimension:  len(d.Vector),
			Embedding:  pgvector.NewHalfVector(d.Vector),
		}
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}, {Name: "index_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "attributes", "dimension", "embedding"}),
	}).Create(&rows).Error
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "loading vector documents", err)
	}
	return nil
}

func (s *PostgresVectorStore) SimilaritySearchByVector(ctx context.Context, indexName string, vector []float32, k int) ([]interfaces.VectorSearchResult, error) {
	dim := len(vector)
	var rows []struct {
		pgRow
		Score float64
	}
	err := s.db.WithContext(ctx).Model(&pgRow{}).
		Select(fmt.Sprintf("*, (1 - (embedding::halfvec(%d) <=> ?::halfvec)) as score", dim), pgvector.NewHalfVector(vector)).
		Where("index_name = ? AND dimension = ?", indexName, dim).
		Order(clause.Expr{SQL: fmt.Sprintf("embedding::halfvec(%d) <=> ?::halfvec", dim), Vars: []any{pgvector.NewHalfVector(vector)}}).
		Limit(k).
		Find(&rows).Error
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "vector similarity search", err)
	}

	out := make([]interfaces.VectorSearchResult, len(rows))
	for i, r := range rows {
		out[i] = interfaces.VectorSearchResult{
			Document: interfaces.VectorDocument{ID: r.ID, Text: r.Text},
			Score:    r.Score,
		}
	}
	return out, nil
}

func (s *PostgresVectorStore) SimilaritySearchByText(ctx context.Context, indexName string, embed func(context.Context, string) ([]float32, error), text string, k int) ([]interfaces.VectorSearchResult, error) {
	vector, err := embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.SimilaritySearchByVector(ctx, indexName, vector, k)
}

func (s *PostgresVectorStore) FilterByID(ctx context.Context, indexName string, ids []string) error {
	err := s.db.WithContext(ctx).Where("index_name = ? AND id NOT IN ?", indexName, ids).Delete(&pgRow{}).Error
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "filtering vector index by id", err)
	}
	return nil
}

func (s *PostgresVectorStore) ClearIndex(ctx context.Context, indexName string) error {
	if err := s.db.WithContext(ctx).Where("index_name = ?", indexName).Delete(&pgRow{}).Error; err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "clearing vector index", err)
	}
	return nil
}

var _ interfaces.BaseVectorStore = (*PostgresVectorStore)(nil)
