package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "inscrito"

// Tracer returns the process tracer. Exporter wiring (OTLP endpoint, sampler)
// is a deployment concern; without a configured provider the spans are no-ops.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Start opens a span on the process tracer.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}
