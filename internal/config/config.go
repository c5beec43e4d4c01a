package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Rag      RagConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider       string // "groq" or "ollama"
	LLMModel          string // e.g. "llama-3.3-70b-versatile"
	GroqApiKey        string
	OllamaBaseURL     string
	EmbeddingProvider string // "gemini" or "ollama"
	GeminiApiKey      string
	OllamaModel       string // embedding model, e.g. "nomic-embed-text"
}

type RagConfig struct {
	TopK                int      // retrieval fan-out per round
	MaxRewrites         int      // rewrite retries before forced generation
	SourceTags          bool     // tag context chunks with their source file
	ExtraRefusalPhrases []string // appended to the built-in refusal list
	IngestTopicName     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "groq"),
			LLMModel:          getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
			GroqApiKey:        getEnv("GROQ_API_KEY", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			GeminiApiKey:      getEnv("GEMINI_API_KEY", ""),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Rag: RagConfig{
			TopK:                getEnvAsInt("RAG_TOP_K", 3),
			MaxRewrites:         getEnvAsInt("RAG_MAX_REWRITES", 3),
			SourceTags:          getEnvAsBool("RAG_SOURCE_TAGS", true),
			ExtraRefusalPhrases: getEnvAsList("RAG_EXTRA_REFUSAL_PHRASES"),
			IngestTopicName:     getEnv("INGEST_TOPIC_NAME", "EMBED_DOCUMENT_CHUNK"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return nil
	}
	parts := strings.Split(strValue, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
