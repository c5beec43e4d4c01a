package rewrite

import (
	"context"
	"log"
	"strings"

	"audit-ai-be/pkg/llm"
)

// Rewriter produces an alternative search string when retrieval quality is
// judged poor. The rewritten query is used verbatim as the next retrieval
// string: a pathological rewrite that degrades retrieval quality is only
// caught by the workflow retry cap, not by content validation.
type Rewriter struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

// NewRewriter creates a new query rewriter
func NewRewriter(llmProvider llm.LLMProvider, logger *log.Logger) *Rewriter {
	return &Rewriter{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Rewrite asks the model for a retrieval-optimized reformulation of the
// original question.
func (r *Rewriter) Rewrite(ctx context.Context, question string) (string, error) {
	prompt := r.buildPrompt(question)

	response, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		return "", err
	}

	rewritten := strings.TrimSpace(response)
	r.logger.Printf("[REWRITE] New search query: %s", rewritten)
	return rewritten, nil
}

func (r *Rewriter) buildPrompt(question string) string {
	var prompt strings.Builder

	prompt.WriteString("You are generating a specialized vector search query from a user question.\n")
	prompt.WriteString("The previous search for the question '")
	prompt.WriteString(question)
	prompt.WriteString("' failed to yield relevant results.\n")
	prompt.WriteString("Please re-phrase the question to focus on key technical terms of the compliance framework.\n")
	prompt.WriteString("Return ONLY the new query text.")

	return prompt.String()
}
