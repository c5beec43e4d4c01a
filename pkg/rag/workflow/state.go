package workflow

import "audit-ai-be/pkg/vectorstore"

// Phase identifies a node of the retrieval workflow
type Phase int

const (
	PhaseRetrieve Phase = iota
	PhaseGrade
	PhaseTransform
	PhaseGenerate
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseRetrieve:
		return "RETRIEVE"
	case PhaseGrade:
		return "GRADE_DOCUMENTS"
	case PhaseTransform:
		return "TRANSFORM_QUERY"
	case PhaseGenerate:
		return "GENERATE"
	case PhaseDone:
		return "END"
	default:
		return "UNKNOWN"
	}
}

// Grade is the tri-state relevance verdict for one retrieval round
type Grade int

const (
	GradeUnset Grade = iota
	GradeRelevant
	GradeNotRelevant
)

// State is the mutable record owned exclusively by one in-flight run.
// It is created at the start of a search request and discarded at workflow
// completion; it is never shared across concurrent requests.
type State struct {
	// Question is the caller's original input. Never mutated.
	Question string

	// SearchQuery is the current retrieval string. Empty means "use Question".
	SearchQuery string

	// Documents holds only the most recent retrieval. Replaced wholesale
	// each round, never merged.
	Documents []vectorstore.Document

	// Grade is the verdict of the latest grading round.
	Grade Grade

	// RetryCount tracks rewrite rounds. Monotonically increasing, capped
	// by the engine before forced generation.
	RetryCount int

	// Answer is the final generated text.
	Answer string
}

// retrievalQuery returns the string to search with: the rewritten query if
// one exists, otherwise the original question.
func (s *State) retrievalQuery() string {
	if s.SearchQuery != "" {
		return s.SearchQuery
	}
	return s.Question
}
