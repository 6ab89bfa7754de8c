// Package obslog is the ambient observability seam: OpenTelemetry
// lifecycle spans at the command-façade boundary, plus a debug-gated
// textual logger for everything beneath it. Grounded on the teacher's
// internal/storage/dolt (doltTracer/endSpan span lifecycle) and
// internal/debug (BD_DEBUG-gated Logf) packages.
package obslog

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the single OTel tracer for the façade boundary. It uses the
// global provider, a no-op until a caller wires a real one.
var tracer = otel.Tracer("github.com/NickOut/EttleX-R-sub001/facade")

// debugEnabled gates textual logging the same way the teacher gates its
// own debug output: a single environment variable, read once at startup.
var debugEnabled = os.Getenv("ETTLECTL_DEBUG") != ""

// Logf writes a line to stderr only when ETTLECTL_DEBUG is set. No package
// in this module calls it; the lower layers (command, traversal, manifest,
// commit) emit no spans of their own — spec.md §4.11 reserves spans for
// the façade boundary.
func Logf(format string, args ...any) {
	if debugEnabled {
		fmt.Fprintf(os.Stderr, "[ettlectl debug] "+format+"\n", args...)
	}
}

// StartOp begins a façade-boundary span named op.
func StartOp(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, op, trace.WithSpanKind(trace.SpanKindInternal))
}

// EndOp records err on span (if non-nil) and ends it, mirroring the
// teacher's endSpan helper.
func EndOp(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
