package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"audit-ai-be/internal/config"
	"audit-ai-be/internal/dto"
	"audit-ai-be/internal/repository"
	"audit-ai-be/internal/service"
	"audit-ai-be/pkg/database"
	"audit-ai-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/fatih/color"
)

// Loads a plain-text or markdown compliance document, chunks it, and embeds
// every chunk into the vector store. Runs the same publish/consume path the
// API server uses, just in one process.
func main() {
	var (
		filePath   = flag.String("file", "", "path to the document to ingest (txt or md)")
		sourceName = flag.String("source", "", "source file name stored with each chunk (defaults to the file's base name)")
		replace    = flag.Bool("replace", false, "delete previously ingested chunks for this source first")
		timeout    = flag.Duration("timeout", 5*time.Minute, "how long to wait for all chunks to be embedded")
	)
	flag.Parse()

	if *filePath == "" {
		color.Red("Error: -file is required")
		flag.Usage()
		os.Exit(1)
	}

	content, err := os.ReadFile(*filePath)
	if err != nil {
		color.Red("Error: failed to read %s: %v", *filePath, err)
		os.Exit(1)
	}
	source := *sourceName
	if source == "" {
		source = filepath.Base(*filePath)
	}

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("Error: failed to connect to database: %v", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		color.Red("Error: failed to run migrations: %v", err)
		os.Exit(1)
	}

	repo := repository.NewDocumentEmbeddingRepository(db)

	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	default:
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	consumer := service.NewConsumerService(pubSub, cfg.Rag.IngestTopicName, repo, embeddingProvider)
	if err := consumer.Consume(ctx); err != nil {
		color.Red("Error: failed to start consumer: %v", err)
		os.Exit(1)
	}

	ingestion := service.NewIngestionService(pubSub, cfg.Rag.IngestTopicName, repo)

	// Baseline before publishing. With -replace the existing chunks are
	// deleted synchronously inside Ingest, so the baseline is zero.
	before, err := repo.CountBySourceFile(ctx, source)
	if err != nil {
		color.Red("Error: failed to count existing chunks: %v", err)
		os.Exit(1)
	}
	if *replace {
		before = 0
	}

	color.Cyan("Ingesting %s (%d bytes) as source %q", *filePath, len(content), source)

	resp, err := ingestion.Ingest(ctx, &dto.IngestDocumentRequest{
		SourceFile: source,
		Content:    string(content),
		Replace:    *replace,
	})
	if err != nil {
		color.Red("Error: ingestion failed: %v", err)
		os.Exit(1)
	}
	color.Yellow("Published %d chunks, waiting for embeddings...", resp.Chunks)

	// Embedding happens asynchronously in the consumer. Poll the store until
	// every published chunk has landed.
	expected := before + int64(resp.Chunks)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			color.Red("Error: timed out waiting for embeddings: %v", ctx.Err())
			os.Exit(1)
		case <-ticker.C:
		}

		current, err := repo.CountBySourceFile(context.Background(), source)
		if err != nil {
			color.Red("Error: failed to count chunks: %v", err)
			os.Exit(1)
		}
		if current >= expected {
			total, _ := repo.Count(context.Background())
			color.Green("Done: %d chunks embedded for %q (%d total in store)", resp.Chunks, source, total)
			return
		}
	}
}
