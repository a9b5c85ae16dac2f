// Package html reads text fragments from HTML documents, for feeding web
// content through the same ingestion pipeline as PDFs.
//
// Readability extraction (go-shiori/go-readability) strips navigation,
// ads, and boilerplate before the text is split into block fragments. HTML
// carries no page geometry, so fragments are emitted on a single synthetic
// page with vertical positions in block order — enough for the pipeline's
// reading-order sort, nothing more.
package html

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	openparse "github.com/DivinciApp/open-parse"
)

// Synthetic page geometry for position-less sources.
const (
	syntheticPageWidth  = 612
	syntheticPageHeight = 100000
	syntheticLineHeight = 12
)

// Source extracts readable fragments from HTML content.
type Source struct{}

// NewSource creates an HTML fragment source.
func NewSource() *Source { return &Source{} }

// Fragments extracts one fragment per text block from the readable portion
// of the document. sourceURL may be empty; it only aids readability's
// relative-link resolution. The page count is always 1.
func (s *Source) Fragments(content []byte, sourceURL string) ([]openparse.Fragment, int, error) {
	if len(content) == 0 {
		return nil, 0, fmt.Errorf("empty HTML content")
	}

	var pageURL *url.URL
	if sourceURL != "" {
		pageURL, _ = url.Parse(sourceURL)
	}

	article, err := readability.FromReader(strings.NewReader(string(content)), pageURL)
	if err != nil {
		return nil, 0, fmt.Errorf("readability: %w", err)
	}

	blocks := splitBlocks(article.TextContent)
	if article.Title != "" {
		blocks = append([]string{article.Title}, blocks...)
	}

	fragments := make([]openparse.Fragment, 0, len(blocks))
	for i, block := range blocks {
		y1 := float64(syntheticPageHeight - i*syntheticLineHeight)
		fragments = append(fragments, openparse.Fragment{
			Text: block,
			Page: 1,
			Bbox: openparse.Bbox{
				Page:       1,
				PageWidth:  syntheticPageWidth,
				PageHeight: syntheticPageHeight,
				X0:         0,
				Y0:         y1 - syntheticLineHeight,
				X1:         syntheticPageWidth,
				Y1:         y1,
			},
		})
	}
	return fragments, 1, nil
}

// splitBlocks splits extracted text on blank lines into trimmed blocks.
func splitBlocks(text string) []string {
	var blocks []string
	for _, part := range strings.Split(text, "\n\n") {
		for _, line := range strings.Split(part, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				blocks = append(blocks, line)
			}
		}
	}
	return blocks
}
