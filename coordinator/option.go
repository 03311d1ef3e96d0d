package coordinator

import (
	"log/slog"
	"time"

	"github.com/taskora/taskora/dispatch"
	"github.com/taskora/taskora/event"
	"github.com/taskora/taskora/messaging"
	"github.com/taskora/taskora/progress"
)

// Config represents coordinator configuration.
type Config struct {
	// WorkerCount is the number of workers executing submitted items.
	WorkerCount int

	// ArchiveTTL is how long terminal items remain observable via Lookup.
	ArchiveTTL time.Duration
}

// DefaultConfig returns the default coordinator configuration.
func DefaultConfig() Config {
	return Config{
		WorkerCount: 5,
		ArchiveTTL:  5 * time.Minute,
	}
}

// Option customises a coordinator Service.
type Option func(*Service)

// WithConfig replaces the whole configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithWorkers sets the worker count.
func WithWorkers(count int) Option {
	return func(s *Service) { s.config.WorkerCount = count }
}

// WithDispatcher sets the consumer dispatcher terminal and progress events
// are delivered through. Required.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithQueue sets the message queue work items travel through on their way to
// the worker pool.
func WithQueue(queue messaging.Queue[ItemRef]) Option {
	return func(s *Service) { s.queue = queue }
}

// WithTracker sets the aggregate progress tracker.
func WithTracker(tracker *progress.Tracker) Option {
	return func(s *Service) { s.tracker = tracker }
}

// WithLogger overrides the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTransitionPublisher attaches a lifecycle event publisher; every state
// transition is published to it for off-consumer observers.
func WithTransitionPublisher(publisher *event.Publisher[Transition]) Option {
	return func(s *Service) { s.transitions = publisher }
}

// WithArchiveTTL sets how long terminal items remain visible to Lookup.
func WithArchiveTTL(ttl time.Duration) Option {
	return func(s *Service) { s.config.ArchiveTTL = ttl }
}
