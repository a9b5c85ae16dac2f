package sqlite

import (
	"context"
	"testing"

	openparse "github.com/DivinciApp/open-parse"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(":memory:")
	t.Cleanup(func() { s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return s
}

func sampleDoc(filename string, createdAt int64) openparse.ParsedDocument {
	return openparse.ParsedDocument{
		ID:        openparse.NewID(),
		Filename:  filename,
		NumPages:  3,
		CreatedAt: createdAt,
		Nodes: []openparse.Node{
			{
				ID:     openparse.NewID(),
				Text:   "First node text.",
				Tokens: 4,
				Bbox:   openparse.Bbox{Page: 1, PageWidth: 612, PageHeight: 792, X0: 50, Y0: 700, X1: 500, Y1: 712},
				Font:   openparse.FontInfo{Name: "Helvetica", Size: 10},
			},
			{
				ID:     openparse.NewID(),
				Text:   "Second node text.",
				Tokens: 4,
				Bbox:   openparse.Bbox{Page: 2, PageWidth: 612, PageHeight: 792, X0: 50, Y0: 700, X1: 500, Y1: 712},
				Font:   openparse.FontInfo{Name: "Helvetica-Bold", Size: 12, Bold: true},
			},
		},
	}
}

func TestStoreAndGetDocument(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	doc := sampleDoc("report.pdf", 1000)

	if err := s.StoreDocument(ctx, doc); err != nil {
		t.Fatalf("StoreDocument() error = %v", err)
	}

	got, err := s.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got.Filename != "report.pdf" || got.NumPages != 3 {
		t.Errorf("metadata = (%q, %d)", got.Filename, got.NumPages)
	}
	if len(got.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(got.Nodes))
	}
	// Order, bbox, and font survive the round trip.
	if got.Nodes[0].Text != "First node text." || got.Nodes[1].Text != "Second node text." {
		t.Errorf("node order lost: %q, %q", got.Nodes[0].Text, got.Nodes[1].Text)
	}
	if got.Nodes[0].Bbox != doc.Nodes[0].Bbox {
		t.Errorf("bbox = %+v, want %+v", got.Nodes[0].Bbox, doc.Nodes[0].Bbox)
	}
	if !got.Nodes[1].Font.Bold {
		t.Error("font metadata lost")
	}
}

func TestListDocuments_NewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	older := sampleDoc("older.pdf", 100)
	newer := sampleDoc("newer.pdf", 200)
	for _, d := range []openparse.ParsedDocument{older, newer} {
		if err := s.StoreDocument(ctx, d); err != nil {
			t.Fatalf("StoreDocument() error = %v", err)
		}
	}

	docs, err := s.ListDocuments(ctx, 10)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Filename != "newer.pdf" {
		t.Errorf("docs[0] = %q, want newest first", docs[0].Filename)
	}
	if len(docs[0].Nodes) != 0 {
		t.Error("listing must not load nodes")
	}
}

func TestDeleteDocument(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	doc := sampleDoc("gone.pdf", 100)

	if err := s.StoreDocument(ctx, doc); err != nil {
		t.Fatalf("StoreDocument() error = %v", err)
	}
	if err := s.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if _, err := s.GetDocument(ctx, doc.ID); err == nil {
		t.Fatal("expected error fetching a deleted document")
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.GetDocument(context.Background(), "no-such-id"); err == nil {
		t.Fatal("expected error for unknown ID")
	}
}
