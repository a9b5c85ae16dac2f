package observer

import (
	"context"
	"time"

	openparse "github.com/DivinciApp/open-parse"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedPipeline wraps an openparse.NodePipeline with a span per run and
// counters for node reduction.
type ObservedPipeline struct {
	inner openparse.NodePipeline
	inst  *Instruments
	name  string
}

var _ openparse.NodePipeline = (*ObservedPipeline)(nil)

// WrapPipeline returns an instrumented pipeline. The name appears on spans
// and metrics so multiple pipelines can be distinguished.
func WrapPipeline(inner openparse.NodePipeline, name string, inst *Instruments) *ObservedPipeline {
	return &ObservedPipeline{inner: inner, inst: inst, name: name}
}

func (o *ObservedPipeline) Run(ctx context.Context, nodes []openparse.Node) ([]openparse.Node, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		AttrTransformName.String(o.name),
		AttrNodesIn.Int(len(nodes)),
	))
	defer span.End()
	start := time.Now()

	out, err := o.inner.Run(ctx, nodes)

	durationMs := float64(time.Since(start).Milliseconds())
	attrs := metric.WithAttributes(AttrTransformName.String(o.name))
	o.inst.TransformDuration.Record(ctx, durationMs, attrs)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(AttrNodesOut.Int(len(out)))
	if merged := len(nodes) - len(out); merged > 0 {
		o.inst.NodesMerged.Add(ctx, int64(merged), attrs)
	}
	return out, nil
}
