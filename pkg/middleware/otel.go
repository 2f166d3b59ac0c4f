package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumen-dev/lumen/pkg/store"
)

// Default tracer name for Lumen stores.
const defaultTracerName = "lumen"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "lumen").
	TracerName string

	// SpanName is the span name (default: "lumen.update").
	SpanName string

	// Filter determines which states to trace.
	// Return true to trace the run, false to skip. If nil, every run
	// is traced.
	Filter func(state store.State) bool

	// AttributeExtractor extracts custom attributes from the state.
	// Called for each traced run.
	AttributeExtractor func(state store.State) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithSpanName sets the span name.
func WithSpanName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.SpanName = name
	}
}

// WithFilter sets a filter function for runs.
func WithFilter(filter func(state store.State) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(state store.State) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
		SpanName:   "lumen.update",
	}
}

// OpenTelemetry wraps next in a span per middleware run.
//
// The span records the state key count, the wrapped middleware's error and
// status. The tracer comes from the global OpenTelemetry tracer provider;
// configure it in main() before applying the pipeline:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
//	middleware.Apply(s,
//	    middleware.OpenTelemetry(middleware.S3Snapshot(client, bucket, "snapshots/")),
//	)
func OpenTelemetry(next Middleware, opts ...OTelOption) Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Resolve tracer from global provider
	config.tracer = otel.Tracer(config.TracerName)

	return func(ctx context.Context, state store.State) error {
		if config.Filter != nil && !config.Filter(state) {
			return next(ctx, state)
		}

		attrs := []attribute.KeyValue{
			attribute.Int("lumen.state_keys", len(state)),
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(state)...)
		}

		spanCtx, span := config.tracer.Start(
			ctx,
			config.SpanName,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
			trace.WithTimestamp(time.Now()),
		)
		defer span.End()

		err := next(spanCtx, state)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
