package sourcefilter

import (
	"strings"

	"audit-ai-be/pkg/vectorstore"
)

// DefaultPreviewLen bounds the per-document preview text in source payloads
const DefaultPreviewLen = 200

// defaultPhrases are the refusal indicators. If the generated answer
// contains any of them the source list is suppressed: we never cite
// documents as support for an answer that disclaims finding an answer.
var defaultPhrases = []string{
	"missing from the database",
	"does not mention",
	"cannot answer",
	"no information",
	"context does not contain",
	"not mentioned in the provided documents",
	"i cannot find this",
}

// SourceRef is the disclosed citation for one retrieved document
type SourceRef struct {
	File string `json:"file"`
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Filter decides which retrieved passages are surfaced to the caller once
// the full answer text is known.
type Filter struct {
	phrases    []string
	previewLen int
}

// NewFilter creates a filter with the default refusal phrases plus any
// configured extras.
func NewFilter(extraPhrases []string) *Filter {
	phrases := make([]string, 0, len(defaultPhrases)+len(extraPhrases))
	phrases = append(phrases, defaultPhrases...)
	for _, p := range extraPhrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			phrases = append(phrases, p)
		}
	}
	return &Filter{
		phrases:    phrases,
		previewLen: DefaultPreviewLen,
	}
}

// IsRefusal reports whether the answer contains any refusal phrase,
// case-insensitively.
func (f *Filter) IsRefusal(answer string) bool {
	lowered := strings.ToLower(answer)
	for _, phrase := range f.phrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// Sources returns the final citation payload for the answer. A refusing
// answer yields an empty list regardless of what was retrieved; otherwise
// the documents are emitted as retrieved, truncated to a short preview.
func (f *Filter) Sources(answer string, documents []vectorstore.Document) []SourceRef {
	if f.IsRefusal(answer) {
		return []SourceRef{}
	}

	sources := make([]SourceRef, 0, len(documents))
	for _, doc := range documents {
		sources = append(sources, SourceRef{
			File: doc.SourceFile,
			Page: doc.Page,
			Text: preview(doc.Content, f.previewLen),
		})
	}
	return sources
}

func preview(content string, maxLen int) string {
	if len(content) <= maxLen {
		return content
	}
	return content[:maxLen] + "..."
}
