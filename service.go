package taskora

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/taskora/taskora/cancel"
	"github.com/taskora/taskora/coordinator"
	"github.com/taskora/taskora/dispatch"
	"github.com/taskora/taskora/event"
	"github.com/taskora/taskora/messaging"
	"github.com/taskora/taskora/messaging/memory"
	"github.com/taskora/taskora/progress"
)

// Service is the high-level façade wiring the dispatcher, the submit queue
// and the coordinator together. Unless the caller supplies its own consumer
// execution context, Start spawns one goroutine that becomes the consumer
// goroutine for the lifetime of the service.
type Service struct {
	config             *Config
	dispatcher         *dispatch.Dispatcher
	queue              messaging.Queue[coordinator.ItemRef]
	logger             *slog.Logger
	transitions        *event.Publisher[coordinator.Transition]
	onTransition       func(coordinator.Transition)
	listener           *event.Listener[coordinator.Transition]
	coordinatorOptions []coordinator.Option
	coordinator        *coordinator.Service

	externalConsumer bool

	mu       sync.Mutex
	started  bool
	cancelFn context.CancelFunc
	loopDone chan struct{}
}

// New creates the service. Configuration errors surface on Start.
func New(options ...Option) *Service {
	s := &Service{config: DefaultConfig()}
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	return s
}

func (s *Service) ensureBaseSetup() {
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.dispatcher == nil {
		s.dispatcher = dispatch.New(dispatch.WithLogger(s.logger))
	}
	if s.queue == nil {
		queueConfig := memory.DefaultConfig()
		queueConfig.QueueBuffer = s.config.Queue.Buffer
		queueConfig.FullPolicy = memory.FullPolicy(s.config.Queue.FullPolicy)
		s.queue = memory.NewQueue[coordinator.ItemRef](queueConfig)
	}
}

// Dispatcher returns the consumer dispatch queue. With WithExternalConsumer
// the caller's event loop must call Run on it from exactly one goroutine.
func (s *Service) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }

// Coordinator returns the underlying coordinator service. Nil before Start.
func (s *Service) Coordinator() *coordinator.Service { return s.coordinator }

// Start validates the configuration, builds the coordinator and launches the
// worker pool (and, by default, the consumer goroutine).
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("service already started")
	}
	if err := s.config.Validate(); err != nil {
		return err
	}

	if s.onTransition != nil {
		if s.transitions == nil {
			queue := memory.NewQueue[event.Event[coordinator.Transition]](memory.DefaultConfig())
			s.transitions = event.NewPublisher(queue)
		}
		s.listener = event.NewListener(s.transitions, func(ev *event.Event[coordinator.Transition]) {
			s.onTransition(ev.Data)
		})
		s.listener.Start()
	}

	opts := []coordinator.Option{
		coordinator.WithDispatcher(s.dispatcher),
		coordinator.WithQueue(s.queue),
		coordinator.WithWorkers(s.config.Coordinator.WorkerCount),
		coordinator.WithArchiveTTL(s.config.archiveTTL()),
		coordinator.WithLogger(s.logger),
	}
	if s.transitions != nil {
		opts = append(opts, coordinator.WithTransitionPublisher(s.transitions))
	}
	opts = append(opts, s.coordinatorOptions...)

	svc, err := coordinator.New(opts...)
	if err != nil {
		s.stopListener()
		return err
	}
	s.coordinator = svc

	runCtx, cancelFn := context.WithCancel(ctx)
	s.cancelFn = cancelFn
	if err := s.coordinator.Start(runCtx); err != nil {
		cancelFn()
		s.stopListener()
		return err
	}

	if !s.externalConsumer {
		s.loopDone = make(chan struct{})
		go func() {
			defer close(s.loopDone)
			_ = s.dispatcher.Run(runCtx)
		}()
	}
	s.started = true
	return nil
}

func (s *Service) stopListener() {
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
}

// Submit hands work to the coordinator. See coordinator.Service.Submit.
func (s *Service) Submit(ctx context.Context, work coordinator.Work, token *cancel.Token, options ...coordinator.SubmitOption) (*coordinator.Handle, error) {
	s.mu.Lock()
	svc := s.coordinator
	s.mu.Unlock()
	if svc == nil {
		return nil, fmt.Errorf("service not started")
	}
	return svc.Submit(ctx, work, token, options...)
}

// Lookup returns a snapshot of a live or recently finished item.
func (s *Service) Lookup(id string) (coordinator.Snapshot, bool) {
	s.mu.Lock()
	svc := s.coordinator
	s.mu.Unlock()
	if svc == nil {
		return coordinator.Snapshot{}, false
	}
	return svc.Lookup(id)
}

// Tracker returns the aggregate item tracker. Nil before Start.
func (s *Service) Tracker() *progress.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coordinator == nil {
		return nil
	}
	return s.coordinator.Tracker()
}

// Shutdown stops the worker pool and, when the service owns it, the consumer
// goroutine. Idempotent.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	svc := s.coordinator
	cancelFn := s.cancelFn
	loopDone := s.loopDone
	listener := s.listener
	s.mu.Unlock()

	if svc != nil {
		svc.Shutdown()
	}
	if listener != nil {
		listener.Stop()
	}
	if cancelFn != nil {
		cancelFn()
	}
	if loopDone != nil {
		<-loopDone
	}
}
