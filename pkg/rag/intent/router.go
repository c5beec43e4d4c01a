package intent

import (
	"context"
	"log"
	"strings"

	"audit-ai-be/pkg/llm"
)

// Intent classifies a query as conversational or information-seeking
type Intent string

const (
	IntentChat   Intent = "chat"
	IntentSearch Intent = "search"
)

// Router performs single-shot LLM classification of the user query.
// This is Phase 0 - NO retrieval, just routing.
type Router struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

// NewRouter creates a new intent router
func NewRouter(llmProvider llm.LLMProvider, logger *log.Logger) *Router {
	return &Router{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Classify returns exactly one of {chat, search} for the query.
// Any failure (service error or unparseable output) defaults to search so
// users never silently lose access to the knowledge base.
func (r *Router) Classify(ctx context.Context, query string) Intent {
	prompt := r.buildPrompt(query)

	response, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		r.logger.Printf("[WARN] Intent classification failed, defaulting to search: %v", err)
		return IntentSearch
	}

	resolved := normalize(response)
	r.logger.Printf("[INTENT] Classified as %s (raw: %s)", resolved, truncate(response, 40))
	return resolved
}

func (r *Router) buildPrompt(query string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a router for a compliance framework assistant.\n")
	prompt.WriteString("Classify the user message into exactly one category:\n\n")
	prompt.WriteString("chat: greetings, pleasantries, small talk, or questions about the assistant itself (e.g. 'hi', 'how are you?', 'who are you?')\n")
	prompt.WriteString("search: requests for facts, rules, definitions, or any content from the compliance framework documents\n\n")
	prompt.WriteString("User message: ")
	prompt.WriteString(query)
	prompt.WriteString("\n\nReturn ONLY the word 'chat' or 'search'.")

	return prompt.String()
}

// normalize tolerates formatting noise in the model output. The check is a
// deliberate loose substring match, not an exact parse: anything that does
// not clearly say "chat" routes to search.
func normalize(response string) Intent {
	if strings.Contains(strings.ToLower(response), "chat") {
		return IntentChat
	}
	return IntentSearch
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
