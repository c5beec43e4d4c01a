package intent

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"audit-ai-be/pkg/llm"
)

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) Stream(ctx context.Context, prompt string, onToken llm.TokenFunc, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     Intent
	}{
		{name: "plain chat", response: "chat", want: IntentChat},
		{name: "plain search", response: "search", want: IntentSearch},
		{name: "uppercase", response: "CHAT", want: IntentChat},
		{name: "verbose model output", response: "The category is: chat.", want: IntentChat},
		{name: "whitespace noise", response: "  search \n", want: IntentSearch},
		{name: "ambiguous output defaults to search", response: "I am not sure", want: IntentSearch},
		{name: "empty output defaults to search", response: "", want: IntentSearch},
		{name: "provider error defaults to search", err: errors.New("service unavailable"), want: IntentSearch},
	}

	logger := log.New(io.Discard, "", 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(&stubProvider{response: tt.response, err: tt.err}, logger)

			got := router.Classify(context.Background(), "hello")
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
