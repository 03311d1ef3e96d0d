package cancel

import (
	"sync"
	"time"
)

// Source produces cancellation signals. Each source is independent; cancelling
// one never affects tokens issued by another unless they were linked.
type Source struct {
	token *Token

	mu     sync.Mutex
	timer  *time.Timer
	detach []func()
}

// NewSource returns a fresh, independent cancellation source.
func NewSource() *Source {
	return &Source{token: newToken()}
}

// Token returns the token observed by work running under this source.
func (s *Source) Token() *Token { return s.token }

// Cancel flips the token to cancelled and invokes every registered callback
// exactly once, in registration order, on the calling goroutine. Subsequent
// calls are no-ops.
func (s *Source) Cancel() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.token.cancel()
}

// CancelAfter schedules a Cancel once d elapses. The deadline semantics are
// identical to an explicit Cancel: cooperative, and a no-op when the token is
// already cancelled. A second call resets the deadline.
func (s *Source) CancelAfter(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token.Cancelled() {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, s.token.cancel)
}

// Release detaches the source from the parent tokens it was linked to and
// stops any pending CancelAfter timer. Call it once the work guarded by this
// source is finished, so long-lived parents do not accumulate registrations.
// It does not cancel the token.
func (s *Source) Release() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()

	for _, unregister := range detach {
		unregister()
	}
}

// LinkedSource derives a source whose token is cancelled when either its own
// Cancel is called or any of the parent tokens cancels. Propagation is
// strictly downward: cancelling the child leaves the parents untouched.
// Release undoes the links.
func LinkedSource(parents ...*Token) *Source {
	child := NewSource()
	for _, parent := range parents {
		if parent == nil {
			continue
		}
		child.detach = append(child.detach, parent.Register(child.Cancel))
	}
	return child
}
