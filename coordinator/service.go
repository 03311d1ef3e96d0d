package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/taskora/taskora/cancel"
	"github.com/taskora/taskora/dispatch"
	"github.com/taskora/taskora/event"
	"github.com/taskora/taskora/internal/clock"
	"github.com/taskora/taskora/internal/idgen"
	"github.com/taskora/taskora/messaging"
	"github.com/taskora/taskora/messaging/memory"
	"github.com/taskora/taskora/progress"
	"github.com/taskora/taskora/syncutil"
	"github.com/taskora/taskora/tracing"
)

// ItemRef is the queue payload; the item itself stays in the active
// registry, so queue implementations are free to copy or serialise payloads.
type ItemRef struct {
	ID string
}

// Service runs submitted work items on a pool of worker goroutines and
// delivers every consumer-facing notification through the dispatcher.
type Service struct {
	config      Config
	dispatcher  *dispatch.Dispatcher
	queue       messaging.Queue[ItemRef]
	tracker     *progress.Tracker
	logger      *slog.Logger
	transitions *event.Publisher[Transition]

	mu      sync.Mutex
	active  map[string]*Handle
	stopped bool

	archive *gocache.Cache

	workers  []*worker
	workerWg sync.WaitGroup
}

type worker struct {
	id       int
	service  *Service
	ctx      context.Context
	cancelFn context.CancelFunc
}

// New creates a coordinator service. A dispatcher is required; the queue,
// tracker and logger default to in-memory implementations.
func New(options ...Option) (*Service, error) {
	s := &Service{
		config: DefaultConfig(),
		active: make(map[string]*Handle),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if s.config.WorkerCount <= 0 {
		return nil, fmt.Errorf("worker count must be > 0")
	}
	if s.queue == nil {
		s.queue = memory.NewQueue[ItemRef](memory.DefaultConfig())
	}
	if s.tracker == nil {
		s.tracker = progress.NewTracker(clock.Now())
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.archive = gocache.New(s.config.ArchiveTTL, 2*s.config.ArchiveTTL)
	return s, nil
}

// Tracker returns the aggregate item tracker.
func (s *Service) Tracker() *progress.Tracker { return s.tracker }

// Start launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	for i := 0; i < s.config.WorkerCount; i++ {
		workerCtx, cancelFn := context.WithCancel(ctx)
		w := &worker{id: i, service: s, ctx: workerCtx, cancelFn: cancelFn}
		s.workers = append(s.workers, w)
		s.workerWg.Add(1)
		go w.run()
	}
	return nil
}

// SubmitOption customises a single submission.
type SubmitOption func(*submission)

type submission struct {
	id      string
	timeout time.Duration
}

// WithItemID pins the item identifier instead of generating one. Submitting
// an ID that is still live fails with ErrDuplicateItem.
func WithItemID(id string) SubmitOption {
	return func(sub *submission) { sub.id = id }
}

// WithTimeout schedules a cooperative cancellation of the item once d
// elapses.
func WithTimeout(d time.Duration) SubmitOption {
	return func(sub *submission) { sub.timeout = d }
}

// Submit constructs a pending work item, hands it to the worker pool and
// returns its handle immediately. It never blocks and never runs work
// synchronously. A nil token opts out of external cancellation; a supplied
// token is linked, so cancelling it cancels this item (and any sibling items
// sharing it) while Handle.Cancel stays scoped to this item alone.
func (s *Service) Submit(ctx context.Context, work Work, token *cancel.Token, options ...SubmitOption) (*Handle, error) {
	if work == nil {
		return nil, fmt.Errorf("work is nil")
	}
	sub := &submission{}
	for _, opt := range options {
		opt(sub)
	}
	if sub.id == "" {
		sub.id = idgen.New()
	}

	source := cancel.LinkedSource(token)
	item := newItem(sub.id, work, source)
	handle := newHandle(s, item)

	if err := syncutil.WithLockErr(&s.mu, func() error {
		if s.stopped {
			return ErrShutdown
		}
		if _, exists := s.active[item.ID]; exists {
			return fmt.Errorf("submit %s: %w", item.ID, ErrDuplicateItem)
		}
		s.active[item.ID] = handle
		return nil
	}); err != nil {
		source.Release()
		return nil, err
	}

	s.tracker.Update(progress.Delta{Total: 1, Pending: 1})

	if err := s.queue.Publish(ctx, &ItemRef{ID: item.ID}); err != nil {
		syncutil.WithLock(&s.mu, func() { delete(s.active, item.ID) })
		s.tracker.Update(progress.Delta{Total: -1, Pending: -1})
		source.Release()
		return nil, fmt.Errorf("failed to enqueue item %s: %w", item.ID, err)
	}

	if sub.timeout > 0 {
		source.CancelAfter(sub.timeout)
	}
	return handle, nil
}

// Lookup returns a snapshot of a live or recently finished item. Terminal
// items stay observable for the configured archive TTL.
func (s *Service) Lookup(id string) (Snapshot, bool) {
	var handle *Handle
	syncutil.WithLock(&s.mu, func() { handle = s.active[id] })
	if handle != nil {
		return handle.item.Snapshot(), true
	}
	if archived, found := s.archive.Get(id); found {
		return archived.(Snapshot), true
	}
	return Snapshot{}, false
}

// run consumes item references from the queue until the worker context ends.
func (w *worker) run() {
	defer w.service.workerWg.Done()

	for {
		msg, err := w.service.queue.Consume(w.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// Transient queue error; back off a bit.
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if msg == nil {
			continue
		}
		if pErr := w.service.processMessage(w.ctx, msg); pErr != nil {
			w.service.logger.Error("coordinator: failed to process item",
				"worker", w.id, "error", pErr)
		}
	}
}

// processMessage executes a single work item.
func (s *Service) processMessage(ctx context.Context, msg messaging.Message[ItemRef]) error {
	ref := msg.T()

	var handle *Handle
	syncutil.WithLock(&s.mu, func() { handle = s.active[ref.ID] })
	if handle == nil {
		// Unknown or already finalised item; nothing to do.
		return msg.Ack()
	}
	item := handle.item
	reporter := progress.NewReporter(item.ID, s.sinkFor(handle))

	// Cancelled while still pending: the work function is never invoked.
	if item.Token().Cancelled() {
		s.finalize(handle, reporter, StateCancelled, nil, cancel.ErrCancelled, StatePending)
		return msg.Ack()
	}

	s.execute(ctx, handle, reporter)
	return msg.Ack()
}

// execute runs the work function on the calling worker goroutine and records
// exactly one terminal transition.
func (s *Service) execute(ctx context.Context, handle *Handle, reporter *progress.Reporter) {
	item := handle.item

	execCtx, span := tracing.Start(ctx, "coordinator.execute", tracing.Internal)
	span.Annotate("item.id", item.ID)

	item.transition(StateRunning, nil, nil)
	s.tracker.Update(progress.Delta{Pending: -1, Running: 1})
	s.publishTransition(item, StatePending, StateRunning)

	var value interface{}
	var err error
	func() {
		// The worker boundary: a panic escaping the work function becomes a
		// fault on this item, never a dead worker.
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("work panicked: %v", r)
			}
		}()
		value, err = item.work(execCtx, item.Token(), reporter)
	}()

	var spanErr error
	switch {
	case err == nil:
		s.finalize(handle, reporter, StateCompleted, value, nil, StateRunning)
	case errors.Is(err, cancel.ErrCancelled) && item.Token().Cancelled():
		// Expected cancellation; not recorded as a span failure.
		s.finalize(handle, reporter, StateCancelled, nil, err, StateRunning)
	case errors.Is(err, context.Canceled):
		// The worker context ended (shutdown); the item did not fail.
		s.finalize(handle, reporter, StateCancelled, nil, err, StateRunning)
	default:
		spanErr = err
		s.finalize(handle, reporter, StateFaulted, nil, err, StateRunning)
	}
	span.End(spanErr)
}

// finalize records the item's single terminal transition, retires it from
// the active registry and emits the terminal event as the next entry of the
// item's progress stream.
func (s *Service) finalize(handle *Handle, reporter *progress.Reporter, to State, value interface{}, err error, from State) {
	item := handle.item
	if !item.transition(to, value, err) {
		// Terminal states are immutable; a second terminal attempt is a bug.
		s.logger.Error("coordinator: illegal transition suppressed",
			"item", item.ID, "from", string(item.State()), "to", string(to))
		return
	}

	delta := progress.Delta{}
	if from == StatePending {
		delta.Pending = -1
	} else {
		delta.Running = -1
	}
	switch to {
	case StateCompleted:
		delta.Completed = 1
	case StateFaulted:
		delta.Faulted = 1
	case StateCancelled:
		delta.Cancelled = 1
	}
	s.tracker.Update(delta)

	item.source.Release()

	syncutil.WithLock(&s.mu, func() { delete(s.active, item.ID) })
	s.archive.Set(item.ID, item.Snapshot(), gocache.DefaultExpiration)

	switch to {
	case StateFaulted:
		s.logger.Error("coordinator: item faulted", "item", item.ID, "error", err)
	case StateCancelled:
		// Expected, caller-initiated; not a failure.
		s.logger.Debug("coordinator: item cancelled", "item", item.ID)
	}

	s.publishTransition(item, from, to)

	// The terminal event takes the next sequence number of the same stream,
	// so it is always delivered after every progress event for this item.
	reporter.Terminal(kindOf(to), value, err)
	close(handle.done)
}

// sinkFor forwards an item's events to the consumer goroutine, preserving
// per-item order through the dispatcher's FIFO guarantee.
func (s *Service) sinkFor(handle *Handle) progress.Sink {
	return func(ev progress.Event) {
		s.dispatcher.Post(func() { handle.deliver(ev) })
	}
}

func (s *Service) publishTransition(item *Item, from, to State) {
	if s.transitions == nil {
		return
	}
	eCtx := &event.Context{ItemID: item.ID, EventType: "transition"}
	ev := event.NewEvent(eCtx, Transition{ItemID: item.ID, From: from, To: to, At: clock.Now()})
	if err := s.transitions.Publish(context.Background(), ev); err != nil {
		s.logger.Error("coordinator: failed to publish transition", "item", item.ID, "error", err)
	}
}

// Shutdown stops the worker pool. Items still queued are never executed and
// finish as cancelled, so every handle still observes exactly one terminal
// transition. Submissions after Shutdown fail with ErrShutdown.
func (s *Service) Shutdown() {
	alreadyStopped := false
	syncutil.WithLock(&s.mu, func() {
		alreadyStopped = s.stopped
		s.stopped = true
	})
	if alreadyStopped {
		return
	}

	for _, w := range s.workers {
		w.cancelFn()
	}
	s.workerWg.Wait()

	// With the workers gone nothing will drain the queue; finalize the
	// remaining pending items so their handles unblock.
	var remaining []*Handle
	syncutil.WithLock(&s.mu, func() {
		remaining = make([]*Handle, 0, len(s.active))
		for _, handle := range s.active {
			remaining = append(remaining, handle)
		}
	})
	for _, handle := range remaining {
		reporter := progress.NewReporter(handle.item.ID, s.sinkFor(handle))
		s.finalize(handle, reporter, StateCancelled, nil, cancel.ErrCancelled, StatePending)
	}
}
