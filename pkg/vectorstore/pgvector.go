package vectorstore

import (
	"context"
	"fmt"
	"log"

	"audit-ai-be/internal/repository"
	"audit-ai-be/pkg/embedding"
)

// PgVectorStore implements VectorStore over the pgvector-backed chunk
// repository. The query text is embedded on every call; pooling of the
// underlying connections makes the store safe for concurrent requests.
type PgVectorStore struct {
	repo              repository.DocumentEmbeddingRepository
	embeddingProvider embedding.EmbeddingProvider
	logger            *log.Logger
}

var _ VectorStore = &PgVectorStore{}

func NewPgVectorStore(
	repo repository.DocumentEmbeddingRepository,
	embeddingProvider embedding.EmbeddingProvider,
	logger *log.Logger,
) *PgVectorStore {
	return &PgVectorStore{
		repo:              repo,
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

func (s *PgVectorStore) SimilaritySearch(ctx context.Context, query string, k int) ([]Document, error) {
	embeddingRes, err := s.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	scored, err := s.repo.SearchSimilarWithScore(ctx, embeddingRes.Values, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	documents := make([]Document, len(scored))
	for i, res := range scored {
		documents[i] = Document{
			ID:         res.Embedding.Id.String(),
			Content:    res.Embedding.Content,
			SourceFile: res.Embedding.SourceFile,
			Page:       res.Embedding.Page,
			Score:      float32(res.Similarity),
		}
	}

	s.logger.Printf("[SEARCH] %d documents for k=%d", len(documents), k)
	return documents, nil
}
