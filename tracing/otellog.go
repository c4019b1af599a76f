package tracing

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Log level constants shared by every logger implementation in this module
// that needs to render a level into an OTel-compatible severity string.
const (
	TimestampFormat = time.RFC3339Nano

	LevelInfo  LogLevel = iota
	LevelDebug
	LevelWarn
	LevelError
)

const (
	// OtelEndpointEnv names the environment variable carrying the OTLP
	// collector endpoint; empty disables exporting entirely.
	OtelEndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// LogLevel mirrors the small level enum used across the pack's OTel helpers.
type LogLevel int

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// InitTracerProvider wires an OTLP HTTP trace exporter when endpoint is
// non-empty and registers it as the global tracer provider StartSpan uses,
// returning a shutdown func that callers should defer. It has no gin
// dependency.
func InitTracerProvider(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		endpoint = os.Getenv(OtelEndpointEnv)
	}
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("init otlp trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
