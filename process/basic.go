package process

import (
	"context"
	"strings"
	"unicode"

	openparse "github.com/DivinciApp/open-parse"
)

// Spatial transforms fuse and filter nodes using only layout signals: page
// geometry, font metadata, token counts. No embeddings are involved; these
// are the building blocks of the basic pipeline and the cleanup prefix of
// the semantic one.

// Token-count bands used by the spatial criteria. A "small" node is a
// sentence or two; a "stub" is a splinter like a broken bullet or a lone
// label.
const (
	smallNodeTokens = 50
	stubNodeTokens  = 10
)

func isSmall(n openparse.Node) bool { return n.Tokens <= smallNodeTokens }
func isStub(n openparse.Node) bool  { return n.Tokens <= stubNodeTokens }

// CombineCriteria selects which adjacent pairs CombineNodesSpatially fuses.
type CombineCriteria int

const (
	// CriteriaBothSmall fuses a pair only when both nodes are small.
	CriteriaBothSmall CombineCriteria = iota
	// CriteriaEitherStub fuses a pair when either node is a stub.
	CriteriaEitherStub
)

// CombineNodesSpatially fuses adjacent nodes whose bounding boxes overlap
// within the configured error margins — fragments that visually belong
// together but were extracted separately (broken lines, indented bullets,
// odd formatting).
type CombineNodesSpatially struct {
	XErrorMargin float64
	YErrorMargin float64
	Criteria     CombineCriteria
	Counter      openparse.TokenCounter
}

var _ Transform = (*CombineNodesSpatially)(nil)

func (t *CombineNodesSpatially) Name() string { return "combine-nodes-spatially" }

func (t *CombineNodesSpatially) Apply(_ context.Context, nodes []openparse.Node) ([]openparse.Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	counter := t.counter()

	out := make([]openparse.Node, 0, len(nodes))
	acc := nodes[0]
	for _, next := range nodes[1:] {
		if t.allows(acc, next) && acc.Bbox.OverlapsWithin(next.Bbox, t.XErrorMargin, t.YErrorMargin) {
			acc = openparse.MergeNodes(acc, next, counter)
			continue
		}
		out = append(out, acc)
		acc = next
	}
	return append(out, acc), nil
}

func (t *CombineNodesSpatially) allows(a, b openparse.Node) bool {
	switch t.Criteria {
	case CriteriaEitherStub:
		return isStub(a) || isStub(b)
	default:
		return isSmall(a) && isSmall(b)
	}
}

func (t *CombineNodesSpatially) counter() openparse.TokenCounter {
	if t.Counter != nil {
		return t.Counter
	}
	return openparse.HeuristicCounter{}
}

// CombineBullets fuses bullet items split across nodes (including across
// page breaks): a node whose text does not end a sentence followed by a node
// starting with a bullet marker or a lowercase continuation.
type CombineBullets struct {
	Counter openparse.TokenCounter
}

var _ Transform = (*CombineBullets)(nil)

func (t *CombineBullets) Name() string { return "combine-bullets" }

func (t *CombineBullets) Apply(_ context.Context, nodes []openparse.Node) ([]openparse.Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	counter := t.Counter
	if counter == nil {
		counter = openparse.HeuristicCounter{}
	}

	out := make([]openparse.Node, 0, len(nodes))
	acc := nodes[0]
	for _, next := range nodes[1:] {
		if bulletContinuation(acc.Text, next.Text) {
			acc = openparse.MergeNodes(acc, next, counter)
			continue
		}
		out = append(out, acc)
		acc = next
	}
	return append(out, acc), nil
}

var bulletMarkers = []string{"•", "◦", "▪", "– ", "- ", "* "}

func startsWithBullet(s string) bool {
	s = strings.TrimLeft(s, " \t")
	for _, m := range bulletMarkers {
		if strings.HasPrefix(s, m) {
			return true
		}
	}
	return false
}

func endsSentence(s string) bool {
	s = strings.TrimRight(s, " \t\n")
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case '.', '!', '?', ':', ';':
		return true
	}
	return false
}

func bulletContinuation(prev, next string) bool {
	if startsWithBullet(next) && (startsWithBullet(prev) || endsSentence(prev)) {
		return true
	}
	if endsSentence(prev) {
		return false
	}
	trimmed := strings.TrimLeft(next, " \t")
	if trimmed == "" {
		return false
	}
	r := []rune(trimmed)[0]
	return unicode.IsLower(r)
}

// CombineHeadingsWithClosestText fuses a heading node with the body text
// that follows it, so a section title never floats as its own output block.
// A heading is short, ends no sentence, and is visually emphasized (bold or
// set in a larger font than the node after it).
type CombineHeadingsWithClosestText struct {
	Counter openparse.TokenCounter
}

var _ Transform = (*CombineHeadingsWithClosestText)(nil)

func (t *CombineHeadingsWithClosestText) Name() string { return "combine-headings" }

func (t *CombineHeadingsWithClosestText) Apply(_ context.Context, nodes []openparse.Node) ([]openparse.Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	counter := t.Counter
	if counter == nil {
		counter = openparse.HeuristicCounter{}
	}

	out := make([]openparse.Node, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		n := nodes[i]
		if i+1 < len(nodes) && looksLikeHeading(n, nodes[i+1]) {
			merged := openparse.MergeNodes(n, nodes[i+1], counter)
			merged.Font = n.Font
			out = append(out, merged)
			i++
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func looksLikeHeading(n, following openparse.Node) bool {
	if n.Tokens > stubNodeTokens || endsSentence(n.Text) {
		return false
	}
	if n.Font.Bold {
		return true
	}
	return n.Font.Size > 0 && following.Font.Size > 0 && n.Font.Size > following.Font.Size*1.1
}

// RemoveFullPageStubs drops stub nodes stretched across most of a page —
// typically watermarks and sliced background text whose bounding box covers
// the page while carrying almost no content.
type RemoveFullPageStubs struct {
	MaxAreaPct float64
}

var _ Transform = (*RemoveFullPageStubs)(nil)

func (t *RemoveFullPageStubs) Name() string { return "remove-full-page-stubs" }

func (t *RemoveFullPageStubs) Apply(_ context.Context, nodes []openparse.Node) ([]openparse.Node, error) {
	out := nodes[:0:0]
	for _, n := range nodes {
		if isStub(n) && n.Bbox.PageAreaPct() >= t.MaxAreaPct {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// metadataMarginPct is the fraction of page height treated as header/footer
// territory by RemoveMetadataElements.
const metadataMarginPct = 0.05

// RemoveMetadataElements drops stub nodes that sit entirely inside the top
// or bottom page margin: page numbers, running headers, footer boilerplate.
type RemoveMetadataElements struct{}

var _ Transform = (*RemoveMetadataElements)(nil)

func (t *RemoveMetadataElements) Name() string { return "remove-metadata-elements" }

func (t *RemoveMetadataElements) Apply(_ context.Context, nodes []openparse.Node) ([]openparse.Node, error) {
	out := nodes[:0:0]
	for _, n := range nodes {
		if isStub(n) && inPageMargin(n.Bbox) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func inPageMargin(b openparse.Bbox) bool {
	if b.PageHeight <= 0 {
		return false
	}
	margin := b.PageHeight * metadataMarginPct
	return b.Y0 >= b.PageHeight-margin || b.Y1 <= margin
}

// RemoveRepeatedElements drops nodes whose exact text recurs more than
// Threshold times across the document — running headers and footers that
// survived the margin filter.
type RemoveRepeatedElements struct {
	Threshold int
}

var _ Transform = (*RemoveRepeatedElements)(nil)

func (t *RemoveRepeatedElements) Name() string { return "remove-repeated-elements" }

func (t *RemoveRepeatedElements) Apply(_ context.Context, nodes []openparse.Node) ([]openparse.Node, error) {
	threshold := t.Threshold
	if threshold <= 0 {
		threshold = 2
	}
	counts := make(map[string]int, len(nodes))
	for _, n := range nodes {
		counts[strings.TrimSpace(n.Text)]++
	}
	out := nodes[:0:0]
	for _, n := range nodes {
		if counts[strings.TrimSpace(n.Text)] > threshold {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// RemoveNodesBelowNTokens drops nodes with fewer than MinTokens estimated
// tokens — splinters that resisted every combine pass.
type RemoveNodesBelowNTokens struct {
	MinTokens int
}

var _ Transform = (*RemoveNodesBelowNTokens)(nil)

func (t *RemoveNodesBelowNTokens) Name() string { return "remove-nodes-below-n-tokens" }

func (t *RemoveNodesBelowNTokens) Apply(_ context.Context, nodes []openparse.Node) ([]openparse.Node, error) {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n.Tokens < t.MinTokens {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
