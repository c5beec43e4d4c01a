//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"

	"audit-ai-be/internal/config"
	"audit-ai-be/pkg/embedding"
)

func main() {
	// 1. Load Config
	cfg := config.Load()
	fmt.Printf("Loaded Config > Embedding Provider: %s\n", cfg.Ai.EmbeddingProvider)
	fmt.Printf("Loaded Config > Ollama URL: %s\n", cfg.Ai.OllamaBaseURL)
	fmt.Printf("Loaded Config > Ollama Model: %s\n", cfg.Ai.OllamaModel)

	// 2. Initialize Ollama Provider explicitly for testing
	provider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)

	// 3. Test Text
	text := "Access to physical and logical assets is limited to authorized users."
	fmt.Printf("\nGenerating embedding for: \"%s\"\n", text)

	// 4. Generate
	result, err := provider.Generate(context.Background(), text, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Fatalf("Error generating embedding: %v", err)
	}

	// 5. Inspect Result
	dims := len(result.Values)
	fmt.Printf("Success! Generated Embedding Dimensions: %d\n", dims)
	if dims > 5 {
		fmt.Printf("First 5 values: %v...\n", result.Values[:5])
	}

	// 6. Validation against the table schema
	if dims != 768 {
		log.Fatalf("Dimension mismatch: got %d, schema expects vector(768)", dims)
	}
	fmt.Println("Dimension matches vector(768) column.")
}
