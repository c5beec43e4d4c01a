package dto

// ChatTurn is one prior conversation turn. History is carried through for
// the caller's benefit; the retrieval workflow does not consume it.
type ChatTurn struct {
	Role    string `json:"role" validate:"omitempty,oneof=user assistant"`
	Content string `json:"content"`
}

type QueryRequest struct {
	Query   string     `json:"query" validate:"required,min=1"`
	History []ChatTurn `json:"history,omitempty"`
}

type SourceDTO struct {
	File string `json:"file"`
	Page int    `json:"page"`
	Text string `json:"text"`
}

type QueryResponse struct {
	Answer  string      `json:"answer"`
	Sources []SourceDTO `json:"sources"`
	Intent  string      `json:"intent"`
}

// Stream event types
const (
	StreamEventToken   = "token"
	StreamEventSources = "sources"
)

// StreamEvent is the tagged union sent over SSE and websocket transports.
// Zero or more token events precede exactly one terminal sources event;
// an absent sources field on the terminal event means "no sources".
type StreamEvent struct {
	Type    string      `json:"type"`
	Token   string      `json:"token,omitempty"`
	Sources []SourceDTO `json:"sources,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Documents int64  `json:"documents"`
}
