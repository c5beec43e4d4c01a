package generate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"audit-ai-be/pkg/llm"
	"audit-ai-be/pkg/vectorstore"
)

// DegradedAnswer is returned to the caller when the language model service
// fails outright. The orchestrator pairs it with an empty document set.
const DegradedAnswer = "Sorry, an internal processing error occurred while preparing your answer. Please try again."

// Generator synthesizes a final answer from a set of context documents
type Generator struct {
	llmProvider llm.LLMProvider
	sourceTags  bool
	logger      *log.Logger
}

// NewGenerator creates a new answer generator. When sourceTags is set,
// each document is prefixed with its source identifier in the context blob
// so the model can cite it inline.
func NewGenerator(llmProvider llm.LLMProvider, sourceTags bool, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		sourceTags:  sourceTags,
		logger:      logger,
	}
}

// Generate produces the final answer from the question and the retrieved
// documents in one blocking call.
func (g *Generator) Generate(ctx context.Context, question string, documents []vectorstore.Document) (string, error) {
	prompt := g.buildPrompt(question, documents)

	answer, err := g.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}

	g.logger.Printf("[GENERATE] Answer produced from %d documents", len(documents))
	return answer, nil
}

// GenerateStream produces the answer incrementally, forwarding each token
// to onToken while accumulating the full text for downstream analysis.
func (g *Generator) GenerateStream(ctx context.Context, question string, documents []vectorstore.Document, onToken llm.TokenFunc) (string, error) {
	prompt := g.buildPrompt(question, documents)

	answer, err := g.llmProvider.Stream(ctx, prompt, onToken, llm.WithTemperature(0.0))
	if err != nil {
		return answer, fmt.Errorf("answer generation failed: %w", err)
	}

	g.logger.Printf("[GENERATE] Streamed answer produced from %d documents", len(documents))
	return answer, nil
}

// BuildContext concatenates document texts in retrieval order. There is no
// truncation beyond what upstream retrieval already bounds.
func (g *Generator) BuildContext(documents []vectorstore.Document) string {
	var b strings.Builder

	for i, doc := range documents {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if g.sourceTags {
			source := doc.SourceFile
			if source == "" {
				source = "Unknown"
			}
			b.WriteString(fmt.Sprintf("[Source: %s]\n", source))
		}
		b.WriteString(doc.Content)
	}

	return b.String()
}

func (g *Generator) buildPrompt(question string, documents []vectorstore.Document) string {
	var prompt strings.Builder

	prompt.WriteString("You are a strict Compliance Auditor AI. ")
	prompt.WriteString("Answer the user's question using ONLY the context provided below. ")
	if g.sourceTags {
		prompt.WriteString("When answering, refer to the specific document names (e.g., 'According to the framework document...'). ")
		prompt.WriteString("If the documents conflict, point out the difference. ")
	}
	prompt.WriteString("Do not invent rules. Keep the answer concise and professional. ")
	prompt.WriteString("If the context is empty or does not contain the answer, simply state that the specific information is missing from the database. Do not apologize.")
	prompt.WriteString("\n\nContext:\n")
	prompt.WriteString(g.BuildContext(documents))
	prompt.WriteString("\n\nQuestion: ")
	prompt.WriteString(question)
	prompt.WriteString("\nAnswer:")

	return prompt.String()
}
