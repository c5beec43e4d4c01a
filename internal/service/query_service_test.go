package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"audit-ai-be/internal/config"
	"audit-ai-be/internal/dto"
	"audit-ai-be/internal/model"
	"audit-ai-be/internal/repository"
	"audit-ai-be/pkg/llm"
	"audit-ai-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
)

// scriptedLLM answers each model role from fixed strings, keyed off the
// prompt wording used by the router, grader, rewriter and generator.
type scriptedLLM struct {
	intent       string
	gradeVerdict string
	chatReply    string
	answer       string
	answerErr    error
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.Generate(ctx, history[len(history)-1].Content, options...)
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	switch {
	case strings.Contains(prompt, "Return ONLY the word 'chat' or 'search'"):
		return s.intent, nil
	case strings.Contains(prompt, "grader assessing relevance"):
		return s.gradeVerdict, nil
	case strings.Contains(prompt, "specialized vector search query"):
		return "rewritten", nil
	case strings.Contains(prompt, "conversational message"):
		return s.chatReply, nil
	default:
		return s.answer, s.answerErr
	}
}

func (s *scriptedLLM) Stream(ctx context.Context, prompt string, onToken llm.TokenFunc, options ...llm.Option) (string, error) {
	answer, err := s.Generate(ctx, prompt, options...)
	if err != nil {
		return "", err
	}
	for _, word := range strings.SplitAfter(answer, " ") {
		if err := onToken(word); err != nil {
			return "", err
		}
	}
	return answer, nil
}

type staticStore struct {
	documents []vectorstore.Document
	err       error
}

func (s *staticStore) SimilaritySearch(ctx context.Context, query string, k int) ([]vectorstore.Document, error) {
	return s.documents, s.err
}

type stubRepo struct {
	count    int64
	countErr error
}

func (r *stubRepo) Create(ctx context.Context, embedding *model.DocumentEmbedding) error {
	return nil
}

func (r *stubRepo) Count(ctx context.Context) (int64, error) {
	return r.count, r.countErr
}

func (r *stubRepo) CountBySourceFile(ctx context.Context, sourceFile string) (int64, error) {
	return r.count, r.countErr
}

func (r *stubRepo) DeleteBySourceFile(ctx context.Context, sourceFile string) error {
	return nil
}

func (r *stubRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*repository.ScoredDocumentEmbedding, error) {
	return nil, nil
}

func newTestQueryService(provider llm.LLMProvider, store vectorstore.VectorStore, repo repository.DocumentEmbeddingRepository) IQueryService {
	return NewQueryService(provider, store, repo, config.RagConfig{
		TopK:        3,
		MaxRewrites: 3,
	})
}

func TestAskChatPath(t *testing.T) {
	provider := &scriptedLLM{intent: "chat", chatReply: "Hello! How can I help with your compliance questions?"}
	svc := newTestQueryService(provider, &staticStore{}, &stubRepo{})

	resp, err := svc.Ask(context.Background(), &dto.QueryRequest{Query: "hi there"})
	assert.NoError(t, err)
	assert.Equal(t, "chat", resp.Intent)
	assert.Equal(t, provider.chatReply, resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.NotNil(t, resp.Sources)
}

func TestAskChatFallsBackToCannedReply(t *testing.T) {
	// Intent resolves to chat but the chat completion itself returns nothing
	provider := &scriptedLLM{intent: "chat", chatReply: ""}
	svc := newTestQueryService(provider, &staticStore{}, &stubRepo{})

	resp, err := svc.Ask(context.Background(), &dto.QueryRequest{Query: "hello"})
	assert.NoError(t, err)
	assert.Equal(t, cannedChatReply, resp.Answer)
}

func TestAskSearchPathWithSources(t *testing.T) {
	provider := &scriptedLLM{
		intent:       "search",
		gradeVerdict: "yes",
		answer:       "Access to assets must be limited to authorized users.",
	}
	store := &staticStore{documents: []vectorstore.Document{
		{Content: "PR.AC-1: Identities and credentials are managed", SourceFile: "nist_csf.txt", Page: 12},
	}}
	svc := newTestQueryService(provider, store, &stubRepo{})

	resp, err := svc.Ask(context.Background(), &dto.QueryRequest{Query: "What does PR.AC-1 require?"})
	assert.NoError(t, err)
	assert.Equal(t, "search", resp.Intent)
	assert.Equal(t, provider.answer, resp.Answer)
	assert.Len(t, resp.Sources, 1)
	assert.Equal(t, "nist_csf.txt", resp.Sources[0].File)
	assert.Equal(t, 12, resp.Sources[0].Page)
}

func TestAskSearchRefusalSuppressesSources(t *testing.T) {
	provider := &scriptedLLM{
		intent:       "search",
		gradeVerdict: "yes",
		answer:       "The specific information is missing from the database.",
	}
	store := &staticStore{documents: []vectorstore.Document{
		{Content: "unrelated chunk", SourceFile: "nist_csf.txt"},
	}}
	svc := newTestQueryService(provider, store, &stubRepo{})

	resp, err := svc.Ask(context.Background(), &dto.QueryRequest{Query: "What about quantum encryption?"})
	assert.NoError(t, err)
	assert.Empty(t, resp.Sources)
}

func TestAskOutOfDomainForcedGeneration(t *testing.T) {
	// No document ever grades relevant: the workflow exhausts its rewrites
	// and forces a generation that disclaims knowledge
	provider := &scriptedLLM{
		intent:       "search",
		gradeVerdict: "no",
		answer:       "The specific information is missing from the database.",
	}
	store := &staticStore{documents: []vectorstore.Document{
		{Content: "ID.AM-1: Physical devices are inventoried", SourceFile: "nist_csf.txt"},
	}}
	svc := newTestQueryService(provider, store, &stubRepo{})

	resp, err := svc.Ask(context.Background(), &dto.QueryRequest{Query: "chocolate cake recipe"})
	assert.NoError(t, err)
	assert.Equal(t, provider.answer, resp.Answer)
	assert.Empty(t, resp.Sources)
}

func TestAskStreamOrdering(t *testing.T) {
	provider := &scriptedLLM{
		intent:       "search",
		gradeVerdict: "yes",
		answer:       "Encryption at rest is required for all sensitive data.",
	}
	store := &staticStore{documents: []vectorstore.Document{
		{Content: "PR.DS-1: Data-at-rest is protected", SourceFile: "nist_csf.txt", Page: 15},
	}}
	svc := newTestQueryService(provider, store, &stubRepo{})

	var events []dto.StreamEvent
	err := svc.AskStream(context.Background(), &dto.QueryRequest{Query: "Is encryption at rest required?"}, func(ev dto.StreamEvent) error {
		events = append(events, ev)
		return nil
	})
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, len(events), 2)

	// Every event but the last is a token, the last is the single sources event
	var answer string
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, dto.StreamEventToken, ev.Type)
		answer += ev.Token
	}
	last := events[len(events)-1]
	assert.Equal(t, dto.StreamEventSources, last.Type)
	assert.Len(t, last.Sources, 1)
	assert.Equal(t, provider.answer, answer)
}

func TestAskStreamChatPath(t *testing.T) {
	provider := &scriptedLLM{intent: "chat", chatReply: "Hello!"}
	svc := newTestQueryService(provider, &staticStore{}, &stubRepo{})

	var events []dto.StreamEvent
	err := svc.AskStream(context.Background(), &dto.QueryRequest{Query: "hi"}, func(ev dto.StreamEvent) error {
		events = append(events, ev)
		return nil
	})
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, dto.StreamEventToken, events[0].Type)
	assert.Equal(t, "Hello!", events[0].Token)
	assert.Equal(t, dto.StreamEventSources, events[1].Type)
	assert.Empty(t, events[1].Sources)
}

func TestAskStreamCancellationStopsEvents(t *testing.T) {
	provider := &scriptedLLM{intent: "search", gradeVerdict: "yes", answer: "long answer text"}
	store := &staticStore{documents: []vectorstore.Document{{Content: "chunk"}}}
	svc := newTestQueryService(provider, store, &stubRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var events []dto.StreamEvent
	err := svc.AskStream(ctx, &dto.QueryRequest{Query: "anything"}, func(ev dto.StreamEvent) error {
		events = append(events, ev)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	// No terminal sources event after cancellation
	for _, ev := range events {
		assert.NotEqual(t, dto.StreamEventSources, ev.Type)
	}
}

func TestHealth(t *testing.T) {
	svc := newTestQueryService(&scriptedLLM{}, &staticStore{}, &stubRepo{count: 42})

	health, err := svc.Health(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, int64(42), health.Documents)
}

func TestHealthDegraded(t *testing.T) {
	svc := newTestQueryService(&scriptedLLM{}, &staticStore{}, &stubRepo{countErr: errors.New("db down")})

	health, err := svc.Health(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "degraded", health.Status)
}
