package cancel

import (
	"errors"
	"sync"
)

// ErrCancelled reports that the token observed cancellation. Work functions
// return it (directly or wrapped) to signal they stopped cooperatively.
var ErrCancelled = errors.New("cancelled")

// Token is the read side of a Source. It is shared by the issuing source and
// every operation that receives it; once cancelled it stays cancelled.
type Token struct {
	mu        sync.Mutex
	cancelled bool
	done      chan struct{}
	callbacks []*registration
}

type registration struct {
	fn func()
}

func newToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancelled reports whether the token has been cancelled. Non-blocking.
func (t *Token) Cancelled() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Err returns ErrCancelled when the token is cancelled and nil otherwise.
func (t *Token) Err() error {
	if t.Cancelled() {
		return ErrCancelled
	}
	return nil
}

// Done returns a channel closed when the token is cancelled, for select-based
// polling alongside other channels.
func (t *Token) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.done
}

// Register adds a callback invoked exactly once when the token transitions to
// cancelled, in registration order, on the goroutine that calls Cancel. If the
// token is already cancelled the callback runs inline before Register returns.
// The returned function removes the registration; it is a no-op once the
// callback has fired.
func (t *Token) Register(fn func()) (unregister func()) {
	if t == nil || fn == nil {
		return func() {}
	}
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		fn()
		return func() {}
	}
	reg := &registration{fn: fn}
	t.callbacks = append(t.callbacks, reg)
	t.mu.Unlock()

	// Unregister removes the entry outright so long-lived tokens do not
	// accumulate dead registrations.
	return func() {
		t.mu.Lock()
		for i, candidate := range t.callbacks {
			if candidate == reg {
				t.callbacks = append(t.callbacks[:i], t.callbacks[i+1:]...)
				break
			}
		}
		t.mu.Unlock()
	}
}

// cancel flips the flag and fires callbacks. Idempotent.
func (t *Token) cancel() {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	fire := make([]func(), 0, len(t.callbacks))
	for _, reg := range t.callbacks {
		fire = append(fire, reg.fn)
	}
	t.callbacks = nil
	close(t.done)
	t.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
}

// None is a token that is never cancelled, for callers that opt out of
// cancellation.
var None = newToken()
