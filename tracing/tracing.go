// Package tracing installs OpenTelemetry for the coordinator and keeps span
// management behind a minimal helper so the rest of the module never imports
// the SDK directly.
package tracing

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/taskora/taskora"

// Option configures Init.
type Option func(*settings)

type settings struct {
	serviceName    string
	serviceVersion string
	writer         io.Writer
	outputPath     string
	exporter       sdktrace.SpanExporter
}

// WithService sets the service.name and service.version resource attributes.
func WithService(name, version string) Option {
	return func(s *settings) {
		s.serviceName = name
		s.serviceVersion = version
	}
}

// WithWriter directs the default stdout exporter at w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(s *settings) { s.writer = w }
}

// WithOutputPath writes spans to the named file, created during Init.
func WithOutputPath(path string) Option {
	return func(s *settings) { s.outputPath = path }
}

// WithExporter skips the stdout exporter and hands spans to the supplied
// SpanExporter (OTLP, Zipkin, or a test recorder).
func WithExporter(exporter sdktrace.SpanExporter) Option {
	return func(s *settings) { s.exporter = exporter }
}

var (
	initOnce sync.Once
	initErr  error
)

// Init installs the global tracer provider. The first call wins; repeated
// calls return the outcome of the first.
func Init(options ...Option) error {
	cfg := settings{serviceName: "taskora", writer: os.Stdout}
	for _, opt := range options {
		opt(&cfg)
	}

	initOnce.Do(func() {
		exporter := cfg.exporter
		if exporter == nil {
			w := cfg.writer
			if cfg.outputPath != "" {
				f, err := os.Create(cfg.outputPath)
				if err != nil {
					initErr = err
					return
				}
				w = f
			}
			exporter, initErr = stdouttrace.New(stdouttrace.WithWriter(w))
			if initErr != nil {
				return
			}
		}

		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", cfg.serviceName),
				attribute.String("service.version", cfg.serviceVersion),
			),
		)
		if err != nil {
			initErr = err
			return
		}

		otel.SetTracerProvider(sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		))
	})
	return initErr
}

// Kind classifies a span relative to the coordinator's message flow.
type Kind int

const (
	Internal Kind = iota
	Producer
	Consumer
)

func (k Kind) spanKind() trace.SpanKind {
	switch k {
	case Producer:
		return trace.SpanKindProducer
	case Consumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}

// Span is a live span around one unit of coordinator work.
type Span struct {
	inner trace.Span
}

// Start opens a span named name, parented to any span ctx already carries.
func Start(ctx context.Context, name string, kind Kind) (context.Context, *Span) {
	ctx, sp := otel.Tracer(tracerName).Start(ctx, name, trace.WithSpanKind(kind.spanKind()))
	return ctx, &Span{inner: sp}
}

// Annotate attaches a string attribute. Nil-safe so call sites need no guard.
func (s *Span) Annotate(key, value string) *Span {
	if s == nil {
		return s
	}
	s.inner.SetAttributes(attribute.String(key, value))
	return s
}

// End closes the span, recording err as its status. Pass nil for outcomes
// that are expected control flow, such as cooperative cancellation.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.inner.RecordError(err)
		s.inner.SetStatus(codes.Error, err.Error())
	} else {
		s.inner.SetStatus(codes.Ok, "")
	}
	s.inner.End()
}
