package coordinator

import (
	"context"
	"time"

	"github.com/taskora/taskora/progress"
	"github.com/taskora/taskora/syncutil"
)

// subscribers is the handle's callback registry. Registration and delivery
// observe-then-modify it, so every access goes through the guard as one
// critical section.
type subscribers struct {
	onDone     []func(Outcome)
	onProgress []func(progress.Event)
	delivered  bool
}

// Handle is the caller's view of a submitted item. Completion and progress
// callbacks always run on the consumer goroutine; Wait serves callers on any
// other goroutine that prefer future-style blocking.
type Handle struct {
	svc  *Service
	item *Item
	done chan struct{}

	subs syncutil.Guarded[subscribers]
}

func newHandle(svc *Service, item *Item) *Handle {
	return &Handle{svc: svc, item: item, done: make(chan struct{})}
}

// ID returns the item identifier.
func (h *Handle) ID() string { return h.item.ID }

// State returns the item's current lifecycle state.
func (h *Handle) State() State { return h.item.State() }

// Cancel requests cooperative cancellation of the item's token. It returns
// immediately; the work stops at its next token poll. Cancelling an item that
// already reached a terminal state is a no-op.
func (h *Handle) Cancel() { h.item.source.Cancel() }

// CancelAfter schedules a Cancel once d elapses, giving timeout semantics
// with identical cooperative behaviour.
func (h *Handle) CancelAfter(d time.Duration) { h.item.source.CancelAfter(d) }

// OnDone registers fn to run on the consumer goroutine once the item reaches
// its terminal state. Registering after delivery posts fn immediately with
// the recorded outcome; every registered callback runs exactly once.
func (h *Handle) OnDone(fn func(Outcome)) {
	if fn == nil {
		return
	}
	delivered := false
	h.subs.Update(func(subs *subscribers) {
		if subs.delivered {
			delivered = true
			return
		}
		subs.onDone = append(subs.onDone, fn)
	})
	if delivered {
		h.svc.dispatcher.Post(func() { fn(h.item.outcome()) })
	}
}

// OnProgress registers fn to receive the item's progress events on the
// consumer goroutine. Events reported before registration are not replayed.
func (h *Handle) OnProgress(fn func(progress.Event)) {
	if fn == nil {
		return
	}
	h.subs.Update(func(subs *subscribers) {
		subs.onProgress = append(subs.onProgress, fn)
	})
}

// Wait blocks the calling goroutine until the item is terminal or ctx is
// done. Calling it from the consumer goroutine is misuse – it would starve
// the very queue that delivers the completion – and fails fast with
// ErrWaitOnConsumer.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	if h.svc.dispatcher.OnConsumer() {
		return Outcome{}, ErrWaitOnConsumer
	}
	select {
	case <-h.done:
		return h.item.outcome(), nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// deliver routes one event to the handle's subscribers. Runs on the consumer
// goroutine only.
func (h *Handle) deliver(ev progress.Event) {
	var onProgress []func(progress.Event)
	var onDone []func(Outcome)
	h.subs.Update(func(subs *subscribers) {
		onProgress = append(([]func(progress.Event))(nil), subs.onProgress...)
		if ev.Kind.Terminal() {
			subs.delivered = true
			onDone = subs.onDone
			subs.onDone = nil
		}
	})

	if !ev.Kind.Terminal() {
		for _, fn := range onProgress {
			fn(ev)
		}
		return
	}
	outcome := h.item.outcome()
	for _, fn := range onDone {
		fn(outcome)
	}
}
