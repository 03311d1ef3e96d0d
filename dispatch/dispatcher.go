package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/taskora/taskora/syncutil"
)

var (
	// ErrAlreadyRunning reports a second concurrent Run on the same dispatcher.
	ErrAlreadyRunning = errors.New("dispatcher is already running")
)

// Dispatcher is a FIFO queue of callbacks drained by a single consumer
// goroutine. Post never blocks the caller; the queue grows as needed so that
// producers are never back-pressured into a deadlock (progress callbacks are
// cheap and low-frequency by contract).
type Dispatcher struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}

	running  atomic.Bool
	consumer syncutil.Counter // goroutine id of the running consumer, 0 when idle

	logger *slog.Logger
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithLogger overrides the logger used for recovered callback panics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// New returns an idle dispatcher. Call Run from the designated consumer
// goroutine to start draining it.
func New(options ...Option) *Dispatcher {
	d := &Dispatcher{
		wake:   make(chan struct{}, 1),
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Post enqueues fn for execution on the consumer goroutine and returns
// immediately, regardless of the calling goroutine. Callbacks run strictly in
// post order. A nil fn is ignored.
func (d *Dispatcher) Post(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.pending = append(d.pending, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is done. The calling goroutine becomes the
// consumer goroutine; a second concurrent Run returns ErrAlreadyRunning.
// Callbacks posted before ctx expires but not yet executed are dropped when
// Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	d.consumer.Store(goroutineID())
	defer func() {
		d.consumer.Store(0)
		d.running.Store(false)
	}()

	for {
		batch := d.take()
		for _, fn := range batch {
			d.execute(fn)
			select {
			case <-ctx.Done():
				return nil
			default:
			}
		}
		if len(batch) > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-d.wake:
		}
	}
}

// take removes and returns every currently queued callback.
func (d *Dispatcher) take() []func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	batch := d.pending
	d.pending = nil
	return batch
}

// execute runs one callback, isolating panics so a bad callback cannot stall
// the callbacks queued behind it.
func (d *Dispatcher) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch: callback panicked", "panic", r)
		}
	}()
	fn()
}

// Len returns the number of callbacks waiting to run.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// OnConsumer reports whether the calling goroutine is the consumer goroutine
// currently draining this dispatcher.
func (d *Dispatcher) OnConsumer() bool {
	id := d.consumer.Load()
	return id != 0 && id == goroutineID()
}
