package openparse

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NodePipeline processes an ordered node sequence into a (possibly shorter)
// ordered node sequence. process.Pipeline is the standard implementation;
// any error aborts the parse with no partial output.
type NodePipeline interface {
	Run(ctx context.Context, nodes []Node) ([]Node, error)
}

// DocumentParser turns extracted fragments into a ParsedDocument: fragments
// become nodes (one per fragment), the configured pipeline fuses and filters
// them, and the result carries no embedding data.
type DocumentParser struct {
	pipeline NodePipeline
	counter  TokenCounter
	logger   *slog.Logger
}

// ParserOption configures a DocumentParser.
type ParserOption func(*DocumentParser)

// WithPipeline sets the processing pipeline. When unset, fragments pass
// through as nodes in reading order without combining.
func WithPipeline(p NodePipeline) ParserOption {
	return func(dp *DocumentParser) { dp.pipeline = p }
}

// WithTokenCounter sets the token estimator used for the initial node
// counts (default HeuristicCounter). Use the same counter configured on the
// pipeline; a run must not mix estimators.
func WithTokenCounter(c TokenCounter) ParserOption {
	return func(dp *DocumentParser) { dp.counter = c }
}

// WithLogger sets the structured logger (default: discard).
func WithLogger(l *slog.Logger) ParserOption {
	return func(dp *DocumentParser) { dp.logger = l }
}

// NewDocumentParser creates a DocumentParser.
func NewDocumentParser(opts ...ParserOption) *DocumentParser {
	dp := &DocumentParser{
		counter: HeuristicCounter{},
		logger:  nopLogger,
	}
	for _, o := range opts {
		o(dp)
	}
	return dp
}

// Parse converts fragments to nodes and runs them through the pipeline.
// The returned document's nodes are in reading order and never carry
// embeddings.
func (dp *DocumentParser) Parse(ctx context.Context, filename string, numPages int, fragments []Fragment) (ParsedDocument, error) {
	nodes := dp.NodesFromFragments(fragments)

	if dp.pipeline != nil {
		var err error
		nodes, err = dp.pipeline.Run(ctx, nodes)
		if err != nil {
			return ParsedDocument{}, err
		}
	}

	// The output never carries vector data, whatever the pipeline emitted.
	for i := range nodes {
		nodes[i].Embedding = nil
	}

	dp.logger.Info("parsed document",
		"filename", filename,
		"fragments", len(fragments),
		"nodes", len(nodes))

	return ParsedDocument{
		ID:        NewID(),
		Filename:  filename,
		NumPages:  numPages,
		Nodes:     nodes,
		CreatedAt: NowUnix(),
	}, nil
}

// NodesFromFragments creates one node per fragment: text NFC-normalized and
// trimmed, formatting carried over, token count estimated. Fragment order is
// preserved; the pipeline re-sorts into reading order on entry.
func (dp *DocumentParser) NodesFromFragments(fragments []Fragment) []Node {
	nodes := make([]Node, 0, len(fragments))
	for _, f := range fragments {
		text := strings.TrimSpace(norm.NFC.String(f.Text))
		bbox := f.Bbox
		bbox.Page = f.Page
		nodes = append(nodes, Node{
			ID:     NewID(),
			Text:   text,
			Bbox:   bbox,
			Font:   f.Font,
			Tokens: dp.counter.Count(text),
		})
	}
	return nodes
}
