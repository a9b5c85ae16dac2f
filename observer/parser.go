package observer

import (
	"context"
	"time"

	openparse "github.com/DivinciApp/open-parse"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedParser wraps a DocumentParser so every Parse call gets a span,
// per-document counters, and a duration histogram.
type ObservedParser struct {
	inner *openparse.DocumentParser
	inst  *Instruments
}

// WrapParser returns an instrumented parser.
func WrapParser(inner *openparse.DocumentParser, inst *Instruments) *ObservedParser {
	return &ObservedParser{inner: inner, inst: inst}
}

func (o *ObservedParser) Parse(ctx context.Context, filename string, numPages int, fragments []openparse.Fragment) (openparse.ParsedDocument, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "parse.document", trace.WithAttributes(
		AttrFilename.String(filename),
		AttrNumPages.Int(numPages),
	))
	defer span.End()
	start := time.Now()

	doc, err := o.inner.Parse(ctx, filename, numPages, fragments)

	durationMs := float64(time.Since(start).Milliseconds())
	o.inst.ParseDuration.Record(ctx, durationMs, metric.WithAttributes())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return openparse.ParsedDocument{}, err
	}

	o.inst.DocumentsParsed.Add(ctx, 1, metric.WithAttributes())
	span.SetAttributes(AttrNodesOut.Int(len(doc.Nodes)))
	return doc, nil
}
