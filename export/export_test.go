package export

import (
	"strings"
	"testing"

	openparse "github.com/DivinciApp/open-parse"
)

func sampleDoc() openparse.ParsedDocument {
	return openparse.ParsedDocument{
		Nodes: []openparse.Node{
			{Text: "Introduction", Font: openparse.FontInfo{Bold: true}, Tokens: 1},
			{Text: "This is the opening paragraph of the document.", Tokens: 10},
			{Text: "And a second paragraph follows it.", Tokens: 8},
		},
	}
}

func TestMarkdown(t *testing.T) {
	got := Markdown(sampleDoc())

	if !strings.HasPrefix(got, "## Introduction") {
		t.Errorf("short bold node should render as heading:\n%s", got)
	}
	if !strings.Contains(got, "\n\nThis is the opening paragraph") {
		t.Errorf("paragraphs should be blank-line separated:\n%s", got)
	}
}

func TestMarkdown_Empty(t *testing.T) {
	if got := Markdown(openparse.ParsedDocument{}); got != "" {
		t.Errorf("empty document rendered %q", got)
	}
}

func TestHTML(t *testing.T) {
	got, err := HTML(sampleDoc())
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(got, "<h2>Introduction</h2>") {
		t.Errorf("heading missing from HTML:\n%s", got)
	}
	if !strings.Contains(got, "<p>This is the opening paragraph of the document.</p>") {
		t.Errorf("paragraph missing from HTML:\n%s", got)
	}
}
