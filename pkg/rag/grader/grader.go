package grader

import (
	"context"
	"log"
	"strings"

	"audit-ai-be/pkg/llm"
)

// Grader issues per-document binary relevance judgments against a question
type Grader struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

// NewGrader creates a new relevance grader
func NewGrader(llmProvider llm.LLMProvider, logger *log.Logger) *Grader {
	return &Grader{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Grade returns true when the document is judged relevant to the question.
// The verdict is normalized by substring match on "yes" in the lower-cased
// response: anything that does not contain "yes" counts as "no". This is a
// conservative bias against false positives.
func (g *Grader) Grade(ctx context.Context, question, document string) (bool, error) {
	prompt := g.buildPrompt(question, document)

	response, err := g.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		return false, err
	}

	relevant := strings.Contains(strings.ToLower(response), "yes")
	return relevant, nil
}

func (g *Grader) buildPrompt(question, document string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a grader assessing relevance of a retrieved document to a user question.\n")
	prompt.WriteString("Here is the retrieved document:\n\n")
	prompt.WriteString(document)
	prompt.WriteString("\n\nHere is the user question: ")
	prompt.WriteString(question)
	prompt.WriteString("\nIf the document contains keyword(s) or semantic meaning related to the user question, grade it as relevant.\n")
	prompt.WriteString("Return ONLY the word 'yes' or 'no'.")

	return prompt.String()
}
