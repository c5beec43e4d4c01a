package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"audit-ai-be/internal/config"
	"audit-ai-be/internal/repository"
	"audit-ai-be/pkg/database"
	"audit-ai-be/pkg/embedding"
)

// Runs a batch of probe queries against the vector store and prints the
// similarity distribution per query. Useful for judging whether grading
// failures come from a thin corpus or from bad retrieval.
func main() {
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		log.Fatal("DB_CONNECTION_STRING not set")
	}

	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	default:
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Failed to connect to DB:", err)
	}

	repo := repository.NewDocumentEmbeddingRepository(db)
	ctx := context.Background()

	// Probe queries, override with CLI args
	queries := []string{
		"What does the framework require for access control?",
		"incident response process",
		"data retention policy",
		"multi-factor authentication",
	}
	if len(os.Args) > 1 {
		queries = os.Args[1:]
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("RETRIEVAL DIAGNOSTIC TOOL")
	fmt.Println(strings.Repeat("=", 80))

	total, err := repo.Count(ctx)
	if err != nil {
		log.Fatal("Failed to count corpus:", err)
	}
	fmt.Printf("Corpus size: %d chunks\n", total)

	for _, query := range queries {
		fmt.Printf("\nQuery: %q\n", query)
		fmt.Println(strings.Repeat("-", 80))

		result, err := embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
		if err != nil {
			fmt.Printf("  embedding failed: %v\n", err)
			continue
		}

		scored, err := repo.SearchSimilarWithScore(ctx, result.Values, cfg.Rag.TopK)
		if err != nil {
			fmt.Printf("  search failed: %v\n", err)
			continue
		}
		if len(scored) == 0 {
			fmt.Println("  no results")
			continue
		}

		for i, s := range scored {
			preview := s.Embedding.Content
			if len(preview) > 70 {
				preview = preview[:70] + "..."
			}
			fmt.Printf("  #%d  sim=%.4f  %s p.%d  %s\n",
				i+1, s.Similarity, s.Embedding.SourceFile, s.Embedding.Page, preview)
		}
	}
}
