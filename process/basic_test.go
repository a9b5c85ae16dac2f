package process

import (
	"context"
	"strings"
	"testing"

	openparse "github.com/DivinciApp/open-parse"
)

func placedNode(text string, page int, x0, y0, x1, y1 float64) openparse.Node {
	return openparse.Node{
		ID:     openparse.NewID(),
		Text:   text,
		Tokens: openparse.HeuristicCounter{}.Count(text),
		Bbox: openparse.Bbox{
			Page: page, PageWidth: 612, PageHeight: 792,
			X0: x0, Y0: y0, X1: x1, Y1: y1,
		},
	}
}

func TestCombineNodesSpatially_MergesOverlapping(t *testing.T) {
	tr := &CombineNodesSpatially{XErrorMargin: 10, YErrorMargin: 4, Criteria: CriteriaBothSmall}

	out, err := tr.Apply(context.Background(), []openparse.Node{
		placedNode("broken", 1, 50, 700, 120, 712),
		placedNode("line", 1, 125, 700, 160, 712),
		placedNode("far away", 1, 50, 100, 160, 112),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(out))
	}
	if out[0].Text != "broken line" {
		t.Errorf("merged text = %q", out[0].Text)
	}
}

func TestCombineNodesSpatially_BothSmallRequired(t *testing.T) {
	big := placedNode(strings.Repeat("word ", 60), 1, 50, 700, 500, 712)
	small := placedNode("caption", 1, 50, 695, 200, 705)

	tr := &CombineNodesSpatially{XErrorMargin: 10, YErrorMargin: 10, Criteria: CriteriaBothSmall}
	out, err := tr.Apply(context.Background(), []openparse.Node{big, small})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 2 {
		t.Errorf("a large node must not merge under CriteriaBothSmall, got %d nodes", len(out))
	}
}

func TestCombineBullets(t *testing.T) {
	tr := &CombineBullets{}

	out, err := tr.Apply(context.Background(), []openparse.Node{
		placedNode("Features include:", 1, 50, 700, 200, 712),
		placedNode("- fast parsing", 1, 60, 685, 200, 697),
		placedNode("Unrelated paragraph.", 1, 50, 600, 300, 612),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(out))
	}
	if !strings.Contains(out[0].Text, "fast parsing") {
		t.Errorf("bullet not fused into its lead-in: %q", out[0].Text)
	}
}

func TestCombineBullets_LowercaseContinuation(t *testing.T) {
	tr := &CombineBullets{}

	out, err := tr.Apply(context.Background(), []openparse.Node{
		placedNode("The sentence continues", 1, 50, 700, 200, 712),
		placedNode("onto the next node.", 1, 50, 685, 200, 697),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("sentence split across nodes should fuse, got %d nodes", len(out))
	}
}

func TestCombineHeadingsWithClosestText(t *testing.T) {
	heading := placedNode("Introduction", 1, 50, 720, 200, 736)
	heading.Font = openparse.FontInfo{Name: "Helvetica-Bold", Size: 16, Bold: true}
	body := placedNode("This section describes the system in detail.", 1, 50, 690, 500, 712)
	body.Font = openparse.FontInfo{Name: "Helvetica", Size: 10}

	tr := &CombineHeadingsWithClosestText{}
	out, err := tr.Apply(context.Background(), []openparse.Node{heading, body})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("heading should fuse with its body, got %d nodes", len(out))
	}
	if !out[0].Font.Bold {
		t.Error("fused node should keep the heading's font")
	}
}

func TestRemoveFullPageStubs(t *testing.T) {
	watermark := placedNode("DRAFT", 1, 0, 0, 612, 792)
	content := placedNode("Real paragraph content goes here.", 1, 50, 700, 500, 712)

	tr := &RemoveFullPageStubs{MaxAreaPct: 0.35}
	out, err := tr.Apply(context.Background(), []openparse.Node{watermark, content})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 1 || out[0].Text != content.Text {
		t.Errorf("watermark should be dropped, got %d nodes", len(out))
	}
}

func TestRemoveMetadataElements(t *testing.T) {
	pageNum := placedNode("42", 1, 300, 10, 320, 22)
	footer := placedNode("Confidential", 1, 50, 5, 150, 18)
	content := placedNode("Body text in the middle of the page.", 1, 50, 400, 500, 412)

	tr := &RemoveMetadataElements{}
	out, err := tr.Apply(context.Background(), []openparse.Node{pageNum, footer, content})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 1 || out[0].Text != content.Text {
		t.Errorf("margin stubs should be dropped, got %v", texts(out))
	}
}

func TestRemoveRepeatedElements(t *testing.T) {
	nodes := []openparse.Node{
		placedNode("Chapter One", 1, 50, 780, 200, 790),
		placedNode("unique content a", 1, 50, 700, 300, 712),
		placedNode("Chapter One", 2, 50, 780, 200, 790),
		placedNode("unique content b", 2, 50, 700, 300, 712),
		placedNode("Chapter One", 3, 50, 780, 200, 790),
	}

	tr := &RemoveRepeatedElements{Threshold: 2}
	out, err := tr.Apply(context.Background(), nodes)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected repeated header dropped, got %v", texts(out))
	}
}

func TestRemoveNodesBelowNTokens(t *testing.T) {
	tr := &RemoveNodesBelowNTokens{MinTokens: 5}

	out, err := tr.Apply(context.Background(), []openparse.Node{
		placedNode("tiny", 1, 0, 0, 10, 10),
		placedNode("this node has comfortably more than five estimated tokens in it", 1, 0, 0, 10, 10),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected the splinter dropped, got %d nodes", len(out))
	}
}
