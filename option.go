package taskora

import (
	"log/slog"

	"github.com/taskora/taskora/coordinator"
	"github.com/taskora/taskora/dispatch"
	"github.com/taskora/taskora/event"
	"github.com/taskora/taskora/messaging"
	"github.com/taskora/taskora/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the Service façade.
type Option func(s *Service)

// WithConfig replaces the whole configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithWorkers sets the coordinator worker count.
func WithWorkers(count int) Option {
	return func(s *Service) { s.config.Coordinator.WorkerCount = count }
}

// WithDispatcher supplies an externally owned dispatcher. Implies
// WithExternalConsumer: the caller's event loop is expected to drive
// Dispatcher.Run.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(s *Service) {
		s.dispatcher = d
		s.externalConsumer = true
	}
}

// WithExternalConsumer stops Start from spawning its own consumer goroutine;
// the caller must drain Dispatcher() from exactly one goroutine.
func WithExternalConsumer() Option {
	return func(s *Service) { s.externalConsumer = true }
}

// WithQueue sets the message queue between Submit and the worker pool.
func WithQueue(queue messaging.Queue[coordinator.ItemRef]) Option {
	return func(s *Service) { s.queue = queue }
}

// WithLogger overrides the structured logger used across the subsystem.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTransitionPublisher attaches a lifecycle event publisher for
// off-consumer observers.
func WithTransitionPublisher(publisher *event.Publisher[coordinator.Transition]) Option {
	return func(s *Service) { s.transitions = publisher }
}

// WithTransitionObserver subscribes fn to item lifecycle transitions. The
// service drains them on a dedicated listener goroutine, so fn runs off the
// consumer goroutine and must not touch consumer-owned state.
func WithTransitionObserver(fn func(coordinator.Transition)) Option {
	return func(s *Service) { s.onTransition = fn }
}

// WithCoordinatorOptions passes additional options to the underlying
// coordinator service.
func WithCoordinatorOptions(opts ...coordinator.Option) Option {
	return func(s *Service) {
		s.coordinatorOptions = append(s.coordinatorOptions, opts...)
	}
}

// WithTracing configures OpenTelemetry tracing. With an empty outputFile,
// spans go to stdout. The first initialisation in the process wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		opts := []tracing.Option{tracing.WithService(serviceName, serviceVersion)}
		if outputFile != "" {
			opts = append(opts, tracing.WithOutputPath(outputFile))
		}
		_ = tracing.Init(opts...)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter (OTLP, Zipkin, a test recorder).
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.Init(
			tracing.WithService(serviceName, serviceVersion),
			tracing.WithExporter(exporter),
		)
	}
}
