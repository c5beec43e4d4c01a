package sourcefilter

import (
	"strings"
	"testing"

	"audit-ai-be/pkg/vectorstore"
)

func TestIsRefusal(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		extra  []string
		want   bool
	}{
		{name: "direct answer", answer: "PR.AC-1 requires identity management for authorized devices.", want: false},
		{name: "missing from database", answer: "The specific information is missing from the database.", want: true},
		{name: "case insensitive", answer: "I CANNOT FIND THIS in the framework.", want: true},
		{name: "phrase mid-sentence", answer: "Unfortunately the context does not contain any mention of retention periods.", want: true},
		{name: "does not mention", answer: "The framework does not mention biometric requirements.", want: true},
		{name: "extra configured phrase", answer: "Entschuldigung, dazu liegen keine daten vor.", extra: []string{"keine Daten vor"}, want: true},
		{name: "empty answer", answer: "", want: false},
		{name: "near miss is not a refusal", answer: "The database mentions encryption in transit.", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.extra)
			if got := f.IsRefusal(tt.answer); got != tt.want {
				t.Errorf("IsRefusal(%q) = %v, want %v", tt.answer, got, tt.want)
			}
		})
	}
}

func TestSourcesSuppressedOnRefusal(t *testing.T) {
	f := NewFilter(nil)
	docs := []vectorstore.Document{
		{SourceFile: "nist_csf.txt", Page: 4, Content: "Access control policy text"},
	}

	sources := f.Sources("I cannot find this in the provided framework.", docs)
	if sources == nil {
		t.Fatal("Sources() = nil, want an empty non-nil slice")
	}
	if len(sources) != 0 {
		t.Errorf("Sources() = %d refs on a refusing answer, want 0", len(sources))
	}
}

func TestSourcesPreserveRetrievalOrder(t *testing.T) {
	f := NewFilter(nil)
	docs := []vectorstore.Document{
		{SourceFile: "nist_csf.txt", Page: 2, Content: "first chunk"},
		{SourceFile: "iso_27001.txt", Page: 9, Content: "second chunk"},
	}

	sources := f.Sources("Encryption at rest is mandatory.", docs)
	if len(sources) != 2 {
		t.Fatalf("Sources() = %d refs, want 2", len(sources))
	}
	if sources[0].File != "nist_csf.txt" || sources[0].Page != 2 || sources[0].Text != "first chunk" {
		t.Errorf("sources[0] = %+v", sources[0])
	}
	if sources[1].File != "iso_27001.txt" || sources[1].Page != 9 {
		t.Errorf("sources[1] = %+v", sources[1])
	}
}

func TestSourcesTruncatePreview(t *testing.T) {
	f := NewFilter(nil)
	long := strings.Repeat("a", DefaultPreviewLen+50)
	docs := []vectorstore.Document{{SourceFile: "doc.txt", Content: long}}

	sources := f.Sources("answer", docs)
	if len(sources) != 1 {
		t.Fatalf("Sources() = %d refs, want 1", len(sources))
	}
	want := strings.Repeat("a", DefaultPreviewLen) + "..."
	if sources[0].Text != want {
		t.Errorf("preview length = %d, want %d with ellipsis", len(sources[0].Text), len(want))
	}

	short := "short enough"
	sources = f.Sources("answer", []vectorstore.Document{{Content: short}})
	if sources[0].Text != short {
		t.Errorf("short preview = %q, want unmodified content", sources[0].Text)
	}
}
