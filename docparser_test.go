package openparse

import (
	"context"
	"errors"
	"testing"
)

// stripPipeline marks every node it sees and passes them through.
type recordingPipeline struct {
	seen int
	err  error
}

func (p *recordingPipeline) Run(_ context.Context, nodes []Node) ([]Node, error) {
	p.seen = len(nodes)
	if p.err != nil {
		return nil, p.err
	}
	return nodes, nil
}

func TestParse_NoPipeline(t *testing.T) {
	dp := NewDocumentParser()
	fragments := []Fragment{
		{Text: "Hello world.", Page: 1},
		{Text: "  trimmed  ", Page: 1},
	}

	doc, err := dp.Parse(context.Background(), "test.pdf", 1, fragments)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.ID == "" {
		t.Error("document should get an ID")
	}
	if doc.Filename != "test.pdf" || doc.NumPages != 1 {
		t.Errorf("metadata = (%q, %d)", doc.Filename, doc.NumPages)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(doc.Nodes))
	}
	if doc.Nodes[1].Text != "trimmed" {
		t.Errorf("node text should be trimmed, got %q", doc.Nodes[1].Text)
	}
	for i, n := range doc.Nodes {
		if n.Tokens == 0 {
			t.Errorf("node %d has no token estimate", i)
		}
		if n.Embedding != nil {
			t.Errorf("node %d carries an embedding", i)
		}
	}
}

func TestParse_PipelineRuns(t *testing.T) {
	p := &recordingPipeline{}
	dp := NewDocumentParser(WithPipeline(p))

	_, err := dp.Parse(context.Background(), "a.pdf", 1, []Fragment{{Text: "one"}, {Text: "two"}})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.seen != 2 {
		t.Errorf("pipeline saw %d nodes, want 2", p.seen)
	}
}

func TestParse_PipelineErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	dp := NewDocumentParser(WithPipeline(&recordingPipeline{err: boom}))

	doc, err := dp.Parse(context.Background(), "a.pdf", 1, []Fragment{{Text: "one"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if len(doc.Nodes) != 0 {
		t.Error("no partial output on pipeline failure")
	}
}

func TestParse_EmptyFragments(t *testing.T) {
	dp := NewDocumentParser()
	doc, err := dp.Parse(context.Background(), "empty.pdf", 0, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Nodes) != 0 {
		t.Errorf("expected 0 nodes, got %d", len(doc.Nodes))
	}
}
