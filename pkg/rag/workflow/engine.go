package workflow

import (
	"context"
	"log"

	"audit-ai-be/pkg/llm"
	"audit-ai-be/pkg/rag/generate"
	"audit-ai-be/pkg/rag/grader"
	"audit-ai-be/pkg/rag/rewrite"
	"audit-ai-be/pkg/vectorstore"
)

// Config holds the workflow tunables
type Config struct {
	// TopK is the retrieval fan-out per round.
	TopK int

	// MaxRewrites caps query rewrites before generation is forced. The cap
	// bounds worst-case latency to MaxRewrites+1 retrieval rounds.
	MaxRewrites int
}

// DefaultConfig returns the default workflow configuration
func DefaultConfig() Config {
	return Config{
		TopK:        3,
		MaxRewrites: 3,
	}
}

// Engine composes the grader, rewriter, generator and the vector store
// into a bounded retrieve-grade-rewrite loop. One Engine serves many
// concurrent requests; all per-request data lives in State.
type Engine struct {
	store     vectorstore.VectorStore
	grader    *grader.Grader
	rewriter  *rewrite.Rewriter
	generator *generate.Generator
	cfg       Config
	logger    *log.Logger
}

// NewEngine creates a workflow engine with injected service handles
func NewEngine(
	store vectorstore.VectorStore,
	docGrader *grader.Grader,
	queryRewriter *rewrite.Rewriter,
	answerGenerator *generate.Generator,
	cfg Config,
	logger *log.Logger,
) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	if cfg.MaxRewrites < 0 {
		cfg.MaxRewrites = DefaultConfig().MaxRewrites
	}
	return &Engine{
		store:     store,
		grader:    docGrader,
		rewriter:  queryRewriter,
		generator: answerGenerator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes the workflow to completion for one question and returns the
// final state. The only returned error is context cancellation; upstream
// service failures degrade into a fixed answer with empty context.
func (e *Engine) Run(ctx context.Context, question string) (*State, error) {
	return e.run(ctx, question, nil)
}

// RunStream is Run with incremental token delivery during generation.
// All tokens are emitted before the caller inspects the final state.
func (e *Engine) RunStream(ctx context.Context, question string, onToken llm.TokenFunc) (*State, error) {
	return e.run(ctx, question, onToken)
}

func (e *Engine) run(ctx context.Context, question string, onToken llm.TokenFunc) (*State, error) {
	state := &State{Question: question}
	phase := PhaseRetrieve

	for phase != PhaseDone {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		e.logger.Printf("[WORKFLOW] ---%s---", phase)

		var err error
		switch phase {
		case PhaseRetrieve:
			phase, err = e.retrieve(ctx, state)
		case PhaseGrade:
			phase, err = e.gradeDocuments(ctx, state)
		case PhaseTransform:
			phase, err = e.transformQuery(ctx, state)
		case PhaseGenerate:
			phase, err = e.generateAnswer(ctx, state, onToken)
		}
		if err != nil {
			return state, err
		}
	}

	return state, nil
}

// retrieve queries the vector store and replaces the document set wholesale
func (e *Engine) retrieve(ctx context.Context, state *State) (Phase, error) {
	documents, err := e.store.SimilaritySearch(ctx, state.retrievalQuery(), e.cfg.TopK)
	if err != nil {
		if ctx.Err() != nil {
			return PhaseDone, ctx.Err()
		}
		// Store unreachable: degrade rather than surface a fault
		e.logger.Printf("[ERROR] Vector search failed: %v", err)
		state.Documents = nil
		state.Answer = generate.DegradedAnswer
		return PhaseDone, nil
	}

	state.Documents = documents
	e.logger.Printf("[RETRIEVE] %d documents for query: %s", len(documents), truncate(state.retrievalQuery(), 60))
	return PhaseGrade, nil
}

// gradeDocuments judges each document in order and short-circuits at the
// first relevant verdict. One relevant chunk is sufficient to proceed to
// generation; the remainder is not graded.
func (e *Engine) gradeDocuments(ctx context.Context, state *State) (Phase, error) {
	state.Grade = GradeNotRelevant

	for i, doc := range state.Documents {
		relevant, err := e.grader.Grade(ctx, state.Question, doc.Content)
		if err != nil {
			if ctx.Err() != nil {
				return PhaseDone, ctx.Err()
			}
			// Count an ungradable document as not relevant
			e.logger.Printf("[WARN] Grading document %d failed: %v", i, err)
			continue
		}
		if relevant {
			state.Grade = GradeRelevant
			e.logger.Printf("[GRADE] Document %d relevant, short-circuiting", i)
			break
		}
	}

	e.logger.Printf("[GRADE] Result: relevant=%v (retry %d/%d)",
		state.Grade == GradeRelevant, state.RetryCount, e.cfg.MaxRewrites)
	return e.decide(state), nil
}

// decide picks the next phase from the grading verdict. Exhausted retries
// force generation with possibly poor context; the generator's prompt is
// responsible for an honest "not found" answer in that case.
func (e *Engine) decide(state *State) Phase {
	if state.Grade == GradeRelevant {
		return PhaseGenerate
	}
	if state.RetryCount >= e.cfg.MaxRewrites {
		e.logger.Printf("[WORKFLOW] Retry cap reached, forcing generation")
		return PhaseGenerate
	}
	return PhaseTransform
}

// transformQuery rewrites the search string and loops back to retrieval
func (e *Engine) transformQuery(ctx context.Context, state *State) (Phase, error) {
	rewritten, err := e.rewriter.Rewrite(ctx, state.Question)
	if err != nil {
		if ctx.Err() != nil {
			return PhaseDone, ctx.Err()
		}
		// Quality retry, not a fault retry: fail open into generation
		e.logger.Printf("[WARN] Query rewrite failed, forcing generation: %v", err)
		return PhaseGenerate, nil
	}

	state.SearchQuery = rewritten
	state.RetryCount++
	return PhaseRetrieve, nil
}

func (e *Engine) generateAnswer(ctx context.Context, state *State, onToken llm.TokenFunc) (Phase, error) {
	var answer string
	var err error

	if onToken != nil {
		answer, err = e.generator.GenerateStream(ctx, state.Question, state.Documents, onToken)
	} else {
		answer, err = e.generator.Generate(ctx, state.Question, state.Documents)
	}
	if err != nil {
		if ctx.Err() != nil {
			return PhaseDone, ctx.Err()
		}
		e.logger.Printf("[ERROR] Generation failed: %v", err)
		state.Answer = generate.DegradedAnswer
		state.Documents = nil
		return PhaseDone, nil
	}

	state.Answer = answer
	return PhaseDone, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
