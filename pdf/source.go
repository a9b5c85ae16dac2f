// Package pdf reads positioned text fragments from PDF documents for the
// ingestion pipeline.
//
// It uses ledongthuc/pdf (BSD-3, pure Go, no CGO). This is a separate
// subpackage so that the dependency is only pulled in by users who need
// PDF support; the pipeline itself only ever sees openparse.Fragment
// values.
package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	openparse "github.com/DivinciApp/open-parse"
)

// US Letter fallback when a page carries no MediaBox.
const (
	defaultPageWidth  = 612
	defaultPageHeight = 792
)

// lineYTolerance groups glyph runs into a line when their baselines differ
// by less than this fraction of the font size.
const lineYTolerance = 0.3

// Source extracts one fragment per text line, with page geometry and font
// metadata attached.
type Source struct{}

// NewSource creates a PDF fragment source.
func NewSource() *Source { return &Source{} }

// Fragments extracts positioned text fragments from a PDF, in reading
// order, and returns them together with the page count.
func (s *Source) Fragments(content []byte) ([]openparse.Fragment, int, error) {
	if len(content) == 0 {
		return nil, 0, fmt.Errorf("empty PDF content")
	}

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, 0, fmt.Errorf("open pdf: %w", err)
	}

	var fragments []openparse.Fragment
	numPages := r.NumPage()

	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageFrags, err := extractPage(page, i)
		if err != nil {
			continue // skip unreadable pages
		}
		fragments = append(fragments, pageFrags...)
	}

	return fragments, numPages, nil
}

// extractPage groups the page's glyph runs into lines and emits one
// fragment per line.
func extractPage(page pdf.Page, pageNum int) ([]openparse.Fragment, error) {
	content := page.Content()
	if len(content.Text) == 0 {
		return nil, nil
	}

	pageW, pageH := pageSize(page)

	runs := make([]pdf.Text, len(content.Text))
	copy(runs, content.Text)
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Y != runs[j].Y {
			return runs[i].Y > runs[j].Y // top to bottom
		}
		return runs[i].X < runs[j].X
	})

	var fragments []openparse.Fragment
	var line []pdf.Text
	flush := func() {
		if f, ok := lineFragment(line, pageNum, pageW, pageH); ok {
			fragments = append(fragments, f)
		}
		line = line[:0]
	}

	for _, t := range runs {
		if len(line) > 0 {
			prev := line[len(line)-1]
			tol := prev.FontSize * lineYTolerance
			if tol <= 0 {
				tol = 2
			}
			if abs(t.Y-prev.Y) > tol {
				flush()
			}
		}
		line = append(line, t)
	}
	flush()

	return fragments, nil
}

// lineFragment assembles one fragment from a line of glyph runs. Font
// metadata is taken from the first run; a gap wider than a third of the
// font size becomes a space.
func lineFragment(line []pdf.Text, pageNum int, pageW, pageH float64) (openparse.Fragment, bool) {
	if len(line) == 0 {
		return openparse.Fragment{}, false
	}

	var b strings.Builder
	x0, y0 := line[0].X, line[0].Y
	x1, y1 := line[0].X+line[0].W, line[0].Y+line[0].FontSize
	var prevEnd float64

	for i, t := range line {
		if i > 0 && t.X-prevEnd > t.FontSize/3 && !strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W

		x0 = min(x0, t.X)
		y0 = min(y0, t.Y)
		x1 = max(x1, t.X+t.W)
		y1 = max(y1, t.Y+t.FontSize)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return openparse.Fragment{}, false
	}

	first := line[0]
	return openparse.Fragment{
		Text: text,
		Page: pageNum,
		Bbox: openparse.Bbox{
			Page:       pageNum,
			PageWidth:  pageW,
			PageHeight: pageH,
			X0:         x0,
			Y0:         y0,
			X1:         x1,
			Y1:         y1,
		},
		Font: openparse.FontInfo{
			Name: first.Font,
			Size: first.FontSize,
			Bold: strings.Contains(strings.ToLower(first.Font), "bold"),
		},
	}, true
}

// pageSize reads the page MediaBox, falling back to US Letter.
func pageSize(page pdf.Page) (w, h float64) {
	w, h = defaultPageWidth, defaultPageHeight
	box := page.V.Key("MediaBox")
	if box.IsNull() || box.Len() < 4 {
		return w, h
	}
	x0 := box.Index(0).Float64()
	y0 := box.Index(1).Float64()
	x1 := box.Index(2).Float64()
	y1 := box.Index(3).Float64()
	if x1 > x0 && y1 > y0 {
		w, h = x1-x0, y1-y0
	}
	return w, h
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
