package vectorstore

import "context"

// Document represents a retrieved chunk of the compliance corpus
type Document struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	SourceFile string  `json:"source_file"`
	Page       int     `json:"page"`
	Score      float32 `json:"score"`
}

// VectorStore defines the contract for nearest-neighbor lookup over
// document embeddings. Implementations must be safe for concurrent use
// by multiple simultaneous requests.
type VectorStore interface {
	// SimilaritySearch returns the top-k most similar documents for the
	// query text, ordered by descending similarity.
	SimilaritySearch(ctx context.Context, query string, k int) ([]Document, error)
}
