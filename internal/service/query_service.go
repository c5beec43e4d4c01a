package service

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"audit-ai-be/internal/config"
	"audit-ai-be/internal/dto"
	"audit-ai-be/internal/repository"
	"audit-ai-be/pkg/llm"
	"audit-ai-be/pkg/rag/generate"
	"audit-ai-be/pkg/rag/grader"
	"audit-ai-be/pkg/rag/intent"
	"audit-ai-be/pkg/rag/rewrite"
	"audit-ai-be/pkg/rag/sourcefilter"
	"audit-ai-be/pkg/rag/workflow"
	"audit-ai-be/pkg/vectorstore"
)

// cannedChatReply is the fallback when the chat-path model call fails
const cannedChatReply = "Hello! I am your Compliance Auditor AI. I can help you navigate security frameworks, risk management rules, and governance policies. What would you like to check?"

// IQueryService is the query orchestration surface exposed to transports
type IQueryService interface {
	ClassifyIntent(ctx context.Context, query string) intent.Intent
	RunChat(ctx context.Context, query string) string
	RunSearch(ctx context.Context, query string) (*dto.QueryResponse, error)
	RunSearchStream(ctx context.Context, query string, emit func(dto.StreamEvent) error) error
	Ask(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
	AskStream(ctx context.Context, req *dto.QueryRequest, emit func(dto.StreamEvent) error) error
	Health(ctx context.Context) (*dto.HealthResponse, error)
}

// queryService coordinates the router, the retrieval workflow and the
// source filter
type queryService struct {
	llmProvider  llm.LLMProvider
	intentRouter *intent.Router
	engine       *workflow.Engine
	sourceFilter *sourcefilter.Filter
	repo         repository.DocumentEmbeddingRepository
	ragLogger    *log.Logger
}

// NewQueryService wires the full query pipeline from injected service
// handles. The handles are shared across requests; everything mutable is
// per-request.
func NewQueryService(
	llmProvider llm.LLMProvider,
	store vectorstore.VectorStore,
	repo repository.DocumentEmbeddingRepository,
	ragCfg config.RagConfig,
) IQueryService {
	ragLogger := initRagLogger()

	engine := workflow.NewEngine(
		store,
		grader.NewGrader(llmProvider, ragLogger),
		rewrite.NewRewriter(llmProvider, ragLogger),
		generate.NewGenerator(llmProvider, ragCfg.SourceTags, ragLogger),
		workflow.Config{TopK: ragCfg.TopK, MaxRewrites: ragCfg.MaxRewrites},
		ragLogger,
	)

	return &queryService{
		llmProvider:  llmProvider,
		intentRouter: intent.NewRouter(llmProvider, ragLogger),
		engine:       engine,
		sourceFilter: sourcefilter.NewFilter(ragCfg.ExtraRefusalPhrases),
		repo:         repo,
		ragLogger:    ragLogger,
	}
}

func initRagLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// ClassifyIntent routes a query to the chat or search path
func (s *queryService) ClassifyIntent(ctx context.Context, query string) intent.Intent {
	return s.intentRouter.Classify(ctx, query)
}

// RunChat answers a conversational query directly, no retrieval. A model
// failure falls back to the canned assistant introduction rather than
// surfacing an error.
func (s *queryService) RunChat(ctx context.Context, query string) string {
	prompt := buildChatPrompt(query)

	reply, err := s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		s.ragLogger.Printf("[WARN] Chat reply failed, using canned response: %v", err)
		return cannedChatReply
	}
	if strings.TrimSpace(reply) == "" {
		return cannedChatReply
	}
	return reply
}

func buildChatPrompt(query string) string {
	var prompt strings.Builder
	prompt.WriteString("You are a Compliance Auditor AI assistant for security and governance frameworks.\n")
	prompt.WriteString("The user sent a conversational message, not a framework question. ")
	prompt.WriteString("Reply briefly and professionally, introduce what you can help with, and do not cite any documents.\n\n")
	prompt.WriteString("User message: ")
	prompt.WriteString(query)
	return prompt.String()
}

// RunSearch executes the retrieval workflow to completion and applies the
// source filter to the finished answer.
func (s *queryService) RunSearch(ctx context.Context, query string) (*dto.QueryResponse, error) {
	state, err := s.engine.Run(ctx, query)
	if err != nil {
		return nil, err
	}

	return &dto.QueryResponse{
		Answer:  state.Answer,
		Sources: toSourceDTOs(s.sourceFilter.Sources(state.Answer, state.Documents)),
		Intent:  string(intent.IntentSearch),
	}, nil
}

// RunSearchStream executes the retrieval workflow with incremental token
// delivery. All token events are emitted strictly before the single
// terminal sources event, because the refusal-phrase scan needs the full
// answer text.
func (s *queryService) RunSearchStream(ctx context.Context, query string, emit func(dto.StreamEvent) error) error {
	state, err := s.engine.RunStream(ctx, query, func(token string) error {
		return emit(dto.StreamEvent{Type: dto.StreamEventToken, Token: token})
	})
	if err != nil {
		// Cancellation mid-stream: no further events, no source analysis
		return err
	}

	return emit(dto.StreamEvent{
		Type:    dto.StreamEventSources,
		Sources: toSourceDTOs(s.sourceFilter.Sources(state.Answer, state.Documents)),
	})
}

// Ask routes the query and dispatches to the chat or search path
func (s *queryService) Ask(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	resolved := s.intentRouter.Classify(ctx, req.Query)
	if resolved == intent.IntentChat {
		return &dto.QueryResponse{
			Answer:  s.RunChat(ctx, req.Query),
			Sources: []dto.SourceDTO{},
			Intent:  string(intent.IntentChat),
		}, nil
	}
	return s.RunSearch(ctx, req.Query)
}

// AskStream is Ask with incremental delivery. The chat path emits the
// whole reply as one token event followed by an empty terminal event.
func (s *queryService) AskStream(ctx context.Context, req *dto.QueryRequest, emit func(dto.StreamEvent) error) error {
	resolved := s.intentRouter.Classify(ctx, req.Query)
	if resolved == intent.IntentChat {
		reply := s.RunChat(ctx, req.Query)
		if err := emit(dto.StreamEvent{Type: dto.StreamEventToken, Token: reply}); err != nil {
			return err
		}
		return emit(dto.StreamEvent{Type: dto.StreamEventSources})
	}
	return s.RunSearchStream(ctx, req.Query, emit)
}

// Health reports process liveness plus the corpus size
func (s *queryService) Health(ctx context.Context) (*dto.HealthResponse, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return &dto.HealthResponse{Status: "degraded"}, nil
	}
	return &dto.HealthResponse{Status: "ok", Documents: count}, nil
}

func toSourceDTOs(refs []sourcefilter.SourceRef) []dto.SourceDTO {
	sources := make([]dto.SourceDTO, len(refs))
	for i, ref := range refs {
		sources[i] = dto.SourceDTO{
			File: ref.File,
			Page: ref.Page,
			Text: ref.Text,
		}
	}
	return sources
}
