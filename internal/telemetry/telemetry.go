// Package telemetry wraps OpenTelemetry tracing for the sync engine's
// per-file sync. No SDK exporter is wired by default: StartSpan talks to the
// global (no-op by default) otel.Tracer, matching the tool's single-process
// CLI scope.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "memory-nexus"

// Tracer returns the package tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a span named name under ctx.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// EndSpan ends span, recording err if non-nil.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// String is a small convenience wrapper to avoid importing attribute
// directly from every call site.
func String(key, value string) attribute.KeyValue { return attribute.String(key, value) }

// Int is the integer counterpart of String.
func Int(key string, value int) attribute.KeyValue { return attribute.Int(key, value) }

// Bool is the boolean counterpart of String.
func Bool(key string, value bool) attribute.KeyValue { return attribute.Bool(key, value) }
