// Package tracing wraps OpenTelemetry span creation in a small
// functional-options builder, mirroring the teacher's spanConfig/SpanOption
// pattern so every part of this module starts spans the same way.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MyCarrier-DevOps/pr-merge-sync"

type spanConfig struct {
	serviceName string
	spanKind    trace.SpanKind
	attributes  []attribute.KeyValue
}

// SpanOption configures a span started by StartSpan.
type SpanOption func(*spanConfig)

// WithServiceName tags the span with a logical service name attribute.
func WithServiceName(name string) SpanOption {
	return func(c *spanConfig) { c.serviceName = name }
}

// WithSpanKind overrides the default internal span kind.
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) { c.spanKind = kind }
}

// WithAttributes appends attributes to the span at creation time.
func WithAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(c *spanConfig) { c.attributes = append(c.attributes, attrs...) }
}

// StartSpan starts a span named name under the package tracer, applying any
// supplied options. Callers must call the returned trace.Span's End().
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, trace.Span) {
	cfg := spanConfig{spanKind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}

	attrs := cfg.attributes
	if cfg.serviceName != "" {
		attrs = append(attrs, attribute.String("service.name", cfg.serviceName))
	}

	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, name, trace.WithSpanKind(cfg.spanKind), trace.WithAttributes(attrs...))
}
