package repository

import (
	"context"

	"audit-ai-be/internal/model"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ScoredDocumentEmbedding pairs a stored chunk with its cosine similarity
type ScoredDocumentEmbedding struct {
	Embedding  *model.DocumentEmbedding
	Similarity float64
}

// DocumentEmbeddingRepository is the persistence contract for the
// compliance document chunks and their vectors
type DocumentEmbeddingRepository interface {
	Create(ctx context.Context, embedding *model.DocumentEmbedding) error
	Count(ctx context.Context) (int64, error)
	CountBySourceFile(ctx context.Context, sourceFile string) (int64, error)
	DeleteBySourceFile(ctx context.Context, sourceFile string) error
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*ScoredDocumentEmbedding, error)
}

type documentEmbeddingRepository struct {
	db *gorm.DB
}

func NewDocumentEmbeddingRepository(db *gorm.DB) DocumentEmbeddingRepository {
	return &documentEmbeddingRepository{db: db}
}

func (r *documentEmbeddingRepository) Create(ctx context.Context, embedding *model.DocumentEmbedding) error {
	if embedding.Id == uuid.Nil {
		embedding.Id = uuid.New()
	}
	return r.db.WithContext(ctx).Create(embedding).Error
}

func (r *documentEmbeddingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DocumentEmbedding{}).Count(&count).Error
	return count, err
}

func (r *documentEmbeddingRepository) CountBySourceFile(ctx context.Context, sourceFile string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.DocumentEmbedding{}).
		Where("source_file = ?", sourceFile).
		Count(&count).Error
	return count, err
}

func (r *documentEmbeddingRepository) DeleteBySourceFile(ctx context.Context, sourceFile string) error {
	return r.db.WithContext(ctx).
		Where("source_file = ?", sourceFile).
		Delete(&model.DocumentEmbedding{}).Error
}

// SearchSimilarWithScore returns the nearest chunks by cosine similarity.
// Cosine distance in pgvector is 1 - cosine_similarity, so we compute
// 1 - (embedding_value <=> query_vector) to order by similarity.
func (r *documentEmbeddingRepository) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*ScoredDocumentEmbedding, error) {
	if limit <= 0 {
		limit = 3
	}

	type result struct {
		model.DocumentEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("document_embeddings").
		Select("document_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("document_embeddings.deleted_at IS NULL").
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*ScoredDocumentEmbedding, len(results))
	for i, res := range results {
		embedding := res.DocumentEmbedding
		scored[i] = &ScoredDocumentEmbedding{
			Embedding:  &embedding,
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
