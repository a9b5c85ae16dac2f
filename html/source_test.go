package html

import (
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Release Notes</title></head>
<body>
<nav><a href="/">Home</a> | <a href="/about">About</a></nav>
<article>
<h1>Release Notes</h1>
<p>This release focuses on stability. Parsing large documents no longer exhausts memory, and several crashes in the layout stage were fixed along the way.</p>
<p>Upgrading requires no configuration changes. Existing pipelines continue to work exactly as before, with noticeably better throughput on multi-column input.</p>
</article>
<footer>Copyright 2026</footer>
</body>
</html>`

func TestFragments(t *testing.T) {
	frags, pages, err := NewSource().Fragments([]byte(samplePage), "https://example.com/notes")
	if err != nil {
		t.Fatalf("Fragments() error = %v", err)
	}
	if pages != 1 {
		t.Errorf("pages = %d, want 1", pages)
	}
	if len(frags) < 2 {
		t.Fatalf("expected at least title and body fragments, got %d", len(frags))
	}
	if frags[0].Text != "Release Notes" {
		t.Errorf("first fragment = %q, want the title", frags[0].Text)
	}
	// Fragments descend the synthetic page so reading order is preserved.
	for i := 1; i < len(frags); i++ {
		if frags[i].Bbox.Y1 >= frags[i-1].Bbox.Y1 {
			t.Fatalf("fragment %d does not descend: %v >= %v", i, frags[i].Bbox.Y1, frags[i-1].Bbox.Y1)
		}
	}
}

func TestFragments_Empty(t *testing.T) {
	if _, _, err := NewSource().Fragments(nil, ""); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestSplitBlocks(t *testing.T) {
	got := splitBlocks("first block\n\nsecond block\nthird line\n\n  \n")
	want := []string{"first block", "second block", "third line"}
	if len(got) != len(want) {
		t.Fatalf("blocks = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("block %d = %q, want %q", i, got[i], want[i])
		}
	}
}
