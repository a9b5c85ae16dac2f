// Package process implements the node ingestion pipeline: ordered transforms
// that fuse, filter, and clean the node sequence produced from extracted
// fragments.
//
// A pipeline run is a single left-to-right pass per transform over nodes in
// reading order. Adjacency is defined solely by that order — transforms
// never recompute spatial proximity to decide what counts as "adjacent".
package process

import (
	"context"
	"log/slog"
	"sort"

	openparse "github.com/DivinciApp/open-parse"
)

// Transform is one processing step over the ordered node sequence. Apply
// returns a new sequence; it must preserve reading order and may only shrink
// or filter the input, never reorder it. An error aborts the whole pipeline
// run — no partial output is ever returned.
type Transform interface {
	Name() string
	Apply(ctx context.Context, nodes []openparse.Node) ([]openparse.Node, error)
}

// Pipeline runs a fixed list of transforms over a node sequence.
type Pipeline struct {
	transforms []Transform
	logger     *slog.Logger
}

// New creates a pipeline from the given transforms. Use NewBasicPipeline or
// NewSemanticPipeline for the stock configurations.
func New(transforms ...Transform) *Pipeline {
	return &Pipeline{transforms: transforms}
}

// SetLogger sets the structured logger for per-step progress. Nil disables
// logging (the default).
func (p *Pipeline) SetLogger(l *slog.Logger) { p.logger = l }

// Append adds a transform to the end of the pipeline.
func (p *Pipeline) Append(t Transform) { p.transforms = append(p.transforms, t) }

// Run sorts nodes into reading order once, then applies each transform in
// sequence. Each pipeline invocation is independent; Run may be called
// concurrently over unrelated node sequences.
func (p *Pipeline) Run(ctx context.Context, nodes []openparse.Node) ([]openparse.Node, error) {
	out := make([]openparse.Node, len(nodes))
	copy(out, nodes)
	SortReadingOrder(out)

	for _, t := range p.transforms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.logger != nil {
			p.logger.Debug("processing", "transform", t.Name(), "nodes", len(out))
		}
		var err error
		out, err = t.Apply(ctx, out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SortReadingOrder sorts nodes in place into source reading order: by page,
// then top-to-bottom (PDF coordinates: larger Y first), then left-to-right.
func SortReadingOrder(nodes []openparse.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Bbox, nodes[j].Bbox
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Y1 != b.Y1 {
			return a.Y1 > b.Y1
		}
		return a.X0 < b.X0
	})
}
