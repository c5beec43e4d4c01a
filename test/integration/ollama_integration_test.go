// Experimental local-model integration tests. These hit a live Ollama
// instance and are skipped unless OLLAMA_INTEGRATION=1 is set.

package integration

import (
	"context"
	"math"
	"os"
	"testing"

	"audit-ai-be/pkg/embedding"
	"audit-ai-be/pkg/llm/ollama"
)

func ollamaEnv(t *testing.T) (baseURL string) {
	t.Helper()
	if os.Getenv("OLLAMA_INTEGRATION") != "1" {
		t.Skip("Skipping integration test: OLLAMA_INTEGRATION not set")
	}
	baseURL = os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return baseURL
}

func TestOllamaEmbeddingDimensions(t *testing.T) {
	baseURL := ollamaEnv(t)

	model := os.Getenv("OLLAMA_EMBEDDING_MODEL")
	if model == "" {
		model = "nomic-embed-text"
	}
	provider := embedding.NewOllamaProvider(baseURL, model)

	result, err := provider.Generate(context.Background(), "incident response procedures", embedding.TaskRetrievalQuery)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(result.Values) != 768 {
		t.Fatalf("dimensions = %d, want 768 to match the vector column", len(result.Values))
	}

	// The provider normalizes to unit length for cosine search
	var norm float64
	for _, v := range result.Values {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 0.01 {
		t.Errorf("vector norm = %f, want ~1.0", math.Sqrt(norm))
	}
}

func TestOllamaGenerateAndStream(t *testing.T) {
	baseURL := ollamaEnv(t)

	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = "gemma:2b"
	}
	provider := ollama.NewOllamaProvider(baseURL, model)

	answer, err := provider.Generate(context.Background(), "Reply with the single word: ok")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer == "" {
		t.Error("Generate() returned empty response")
	}

	var streamed string
	full, err := provider.Stream(context.Background(), "Count from 1 to 5.", func(token string) error {
		streamed += token
		return nil
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if full != streamed {
		t.Errorf("accumulated return %q differs from streamed tokens %q", full, streamed)
	}
}
