package openparse

// --- Extraction boundary types ---

// Fragment is a raw positioned unit of text produced by an extraction
// collaborator (PDF reader, readability source, OCR). Fragments are the
// input to DocumentParser; everything downstream works on Nodes.
type Fragment struct {
	Text string   `json:"text"`
	Page int      `json:"page"`
	Bbox Bbox     `json:"bbox"`
	Font FontInfo `json:"font"`
}

// Bbox is an axis-aligned bounding box in page coordinates (PDF convention:
// origin bottom-left, Y grows upward). PageHeight and PageWidth carry the
// page dimensions so transforms can reason about margins and page coverage
// without a separate page registry.
type Bbox struct {
	Page       int     `json:"page"`
	PageHeight float64 `json:"page_height"`
	PageWidth  float64 `json:"page_width"`
	X0         float64 `json:"x0"`
	Y0         float64 `json:"y0"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
}

// Area returns the box area in square points.
func (b Bbox) Area() float64 {
	return (b.X1 - b.X0) * (b.Y1 - b.Y0)
}

// PageAreaPct returns the fraction of the page this box covers, in [0, 1].
func (b Bbox) PageAreaPct() float64 {
	pageArea := b.PageHeight * b.PageWidth
	if pageArea <= 0 {
		return 0
	}
	return b.Area() / pageArea
}

// Union returns the smallest box containing both b and o. Both boxes must be
// on the same page; the caller is responsible for checking.
func (b Bbox) Union(o Bbox) Bbox {
	out := b
	out.X0 = min(b.X0, o.X0)
	out.Y0 = min(b.Y0, o.Y0)
	out.X1 = max(b.X1, o.X1)
	out.Y1 = max(b.Y1, o.Y1)
	return out
}

// OverlapsWithin reports whether b and o overlap once each is expanded by
// the given error margins. Spatial combining uses this to tolerate small
// gaps between fragments that visually belong together.
func (b Bbox) OverlapsWithin(o Bbox, xMargin, yMargin float64) bool {
	if b.Page != o.Page {
		return false
	}
	return b.X0-xMargin <= o.X1 && o.X0-xMargin <= b.X1 &&
		b.Y0-yMargin <= o.Y1 && o.Y0-yMargin <= b.Y1
}

// FontInfo is formatting metadata carried through merges unaltered.
type FontInfo struct {
	Name string  `json:"name,omitempty"`
	Size float64 `json:"size,omitempty"`
	Bold bool    `json:"bold,omitempty"`
}

// --- Pipeline working unit ---

// Node is the unit of text flowing through the ingestion pipeline. Nodes are
// created one-per-fragment, fused by merge transforms, and emitted in strict
// reading order. The Embedding field is transient: it is populated only
// while the semantic combine step runs and is always nil on pipeline output.
type Node struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Bbox      Bbox      `json:"bbox"`
	Font      FontInfo  `json:"font"`
	Tokens    int       `json:"tokens"`
	Embedding []float32 `json:"-"`
}

// ParsedDocument is the final output of a parse: ordered nodes with page and
// formatting metadata, embeddings always absent.
type ParsedDocument struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	NumPages  int    `json:"num_pages"`
	Nodes     []Node `json:"nodes"`
	CreatedAt int64  `json:"created_at"`
}

// Text returns the document text: node texts joined by double newlines.
func (d ParsedDocument) Text() string {
	switch len(d.Nodes) {
	case 0:
		return ""
	case 1:
		return d.Nodes[0].Text
	}
	n := 0
	for _, node := range d.Nodes {
		n += len(node.Text) + 2
	}
	buf := make([]byte, 0, n)
	for i, node := range d.Nodes {
		if i > 0 {
			buf = append(buf, '\n', '\n')
		}
		buf = append(buf, node.Text...)
	}
	return string(buf)
}
