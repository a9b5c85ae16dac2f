package process

import (
	"context"
	"errors"
	"testing"

	openparse "github.com/DivinciApp/open-parse"
)

func TestSortReadingOrder(t *testing.T) {
	nodes := []openparse.Node{
		placedNode("page2", 2, 50, 700, 200, 712),
		placedNode("bottom", 1, 50, 100, 200, 112),
		placedNode("top right", 1, 300, 700, 400, 712),
		placedNode("top left", 1, 50, 700, 200, 712),
	}

	SortReadingOrder(nodes)
	want := []string{"top left", "top right", "bottom", "page2"}
	for i, w := range want {
		if nodes[i].Text != w {
			t.Errorf("nodes[%d] = %q, want %q", i, nodes[i].Text, w)
		}
	}
}

// failingTransform aborts the pipeline with a fixed error.
type failingTransform struct{ err error }

func (f failingTransform) Name() string { return "failing" }
func (f failingTransform) Apply(context.Context, []openparse.Node) ([]openparse.Node, error) {
	return nil, f.err
}

func TestPipeline_ErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	p := New(&RemoveNodesBelowNTokens{MinTokens: 1}, failingTransform{err: boom})

	out, err := p.Run(context.Background(), []openparse.Node{placedNode("text", 1, 0, 0, 10, 10)})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transform error, got %v", err)
	}
	if out != nil {
		t.Error("no partial output on failure")
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(&RemoveNodesBelowNTokens{MinTokens: 1})
	if _, err := p.Run(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPipeline_DoesNotModifyInput(t *testing.T) {
	in := []openparse.Node{
		placedNode("second on page", 1, 50, 100, 200, 112),
		placedNode("first on page", 1, 50, 700, 200, 712),
	}

	p := NewNoOpPipeline()
	out, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if in[0].Text != "second on page" {
		t.Error("input slice was reordered in place")
	}
	if out[0].Text != "first on page" {
		t.Errorf("output not in reading order: %v", texts(out))
	}
}

func TestNewBasicPipeline_EndToEnd(t *testing.T) {
	watermark := placedNode("DRAFT", 1, 0, 0, 612, 792)
	body := placedNode("A reasonably long paragraph of real content that easily clears the final minimum token filter applied at the end of the basic pipeline, carrying enough words to be kept in the output without question or doubt whatsoever by any filter stage.", 1, 50, 400, 550, 500)

	p := NewBasicPipeline()
	out, err := p.Run(context.Background(), []openparse.Node{watermark, body})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected only the body paragraph, got %v", texts(out))
	}
}
