package generate

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"audit-ai-be/pkg/llm"
	"audit-ai-be/pkg/vectorstore"
)

type stubProvider struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.lastPrompt = prompt
	return s.response, s.err
}

func (s *stubProvider) Stream(ctx context.Context, prompt string, onToken llm.TokenFunc, options ...llm.Option) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	if err := onToken(s.response); err != nil {
		return "", err
	}
	return s.response, s.err
}

var testLogger = log.New(io.Discard, "", 0)

func TestBuildContextOrderAndSeparation(t *testing.T) {
	g := NewGenerator(&stubProvider{}, false, testLogger)
	docs := []vectorstore.Document{
		{Content: "first passage", SourceFile: "a.txt"},
		{Content: "second passage", SourceFile: "b.txt"},
	}

	got := g.BuildContext(docs)
	want := "first passage\n\nsecond passage"
	if got != want {
		t.Errorf("BuildContext() = %q, want %q", got, want)
	}
}

func TestBuildContextWithSourceTags(t *testing.T) {
	g := NewGenerator(&stubProvider{}, true, testLogger)
	docs := []vectorstore.Document{
		{Content: "identity policy", SourceFile: "nist_csf.txt"},
		{Content: "untagged chunk"},
	}

	got := g.BuildContext(docs)
	if !strings.Contains(got, "[Source: nist_csf.txt]\nidentity policy") {
		t.Errorf("BuildContext() missing source tag, got %q", got)
	}
	if !strings.Contains(got, "[Source: Unknown]\nuntagged chunk") {
		t.Errorf("BuildContext() missing Unknown fallback tag, got %q", got)
	}
}

func TestBuildContextEmpty(t *testing.T) {
	g := NewGenerator(&stubProvider{}, false, testLogger)
	if got := g.BuildContext(nil); got != "" {
		t.Errorf("BuildContext(nil) = %q, want empty", got)
	}
}

func TestGeneratePromptContainsQuestionAndContext(t *testing.T) {
	stub := &stubProvider{response: "answer text"}
	g := NewGenerator(stub, false, testLogger)
	docs := []vectorstore.Document{{Content: "retention is 90 days"}}

	got, err := g.Generate(context.Background(), "How long is retention?", docs)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "answer text" {
		t.Errorf("Generate() = %q", got)
	}
	if !strings.Contains(stub.lastPrompt, "retention is 90 days") {
		t.Error("prompt does not contain the document context")
	}
	if !strings.Contains(stub.lastPrompt, "How long is retention?") {
		t.Error("prompt does not contain the question")
	}
	if !strings.Contains(stub.lastPrompt, "missing from the database") {
		t.Error("prompt does not instruct the honest not-found answer")
	}
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	g := NewGenerator(&stubProvider{err: errors.New("model overloaded")}, false, testLogger)

	_, err := g.Generate(context.Background(), "q", nil)
	if err == nil {
		t.Fatal("Generate() error = nil, want wrapped provider error")
	}
	if !strings.Contains(err.Error(), "answer generation failed") {
		t.Errorf("error = %v, want the generation wrap", err)
	}
}

func TestGenerateStreamForwardsTokens(t *testing.T) {
	stub := &stubProvider{response: "streamed"}
	g := NewGenerator(stub, false, testLogger)

	var got string
	answer, err := g.GenerateStream(context.Background(), "q", nil, func(token string) error {
		got += token
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateStream() error = %v", err)
	}
	if answer != "streamed" || got != "streamed" {
		t.Errorf("answer = %q, tokens = %q, want both %q", answer, got, "streamed")
	}
}
