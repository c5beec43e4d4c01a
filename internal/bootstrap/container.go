package bootstrap

import (
	"log"

	"audit-ai-be/internal/config"
	"audit-ai-be/internal/controller"
	"audit-ai-be/internal/pkg/logger"
	"audit-ai-be/internal/repository"
	"audit-ai-be/internal/service"
	"audit-ai-be/pkg/embedding"
	"audit-ai-be/pkg/llm/factory"
	"audit-ai-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	QueryController controller.IQueryController

	// Services (exposed for transports and background runners)
	QueryService     service.IQueryService
	IngestionService service.IIngestionService
	ConsumerService  service.IConsumerService

	// Core Facades
	Logger *logger.ZapLogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		sysLogger.Info("bootstrap", "Using Ollama embedding provider", map[string]interface{}{
			"model": cfg.Ai.OllamaModel,
		})
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
		sysLogger.Info("bootstrap", "Using Gemini embedding provider", nil)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GroqApiKey,
	)
	if err != nil {
		log.Panicf("Unable to initialize LLM provider: %v", err)
	}
	sysLogger.Info("bootstrap", "LLM provider initialized", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 4. Repositories & Store
	embeddingRepo := repository.NewDocumentEmbeddingRepository(db)
	store := vectorstore.NewPgVectorStore(embeddingRepo, embeddingProvider, log.Default())

	// 5. Services
	queryService := service.NewQueryService(llmProvider, store, embeddingRepo, cfg.Rag)
	ingestionService := service.NewIngestionService(pubSub, cfg.Rag.IngestTopicName, embeddingRepo)
	consumerService := service.NewConsumerService(pubSub, cfg.Rag.IngestTopicName, embeddingRepo, embeddingProvider)

	return &Container{
		QueryController:  controller.NewQueryController(queryService, ingestionService),
		QueryService:     queryService,
		IngestionService: ingestionService,
		ConsumerService:  consumerService,
		Logger:           sysLogger,
	}
}
