package progress

import (
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the coordinator
// as items move through their lifecycle. Fields are signed so the same type
// covers increments and decrements.
type Delta struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Faulted   int
	Cancelled int
}

// Tracker keeps aggregated item counters for one coordinator instance. It is
// safe for concurrent use.
type Tracker struct {
	StartedAt time.Time

	TotalItems     int
	PendingItems   int
	RunningItems   int
	CompletedItems int
	FaultedItems   int
	CancelledItems int

	mu       sync.Mutex
	onChange func(Tracker)
}

// NewTracker returns a tracker stamped with the supplied start time.
func NewTracker(startedAt time.Time) *Tracker {
	return &Tracker{StartedAt: startedAt}
}

// OnChange registers a callback invoked with a snapshot after every update.
// The callback runs outside the critical section so it may perform slow work
// (encoding, I/O) without blocking coordinator internals.
func (t *Tracker) OnChange(fn func(Tracker)) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Update applies the supplied delta. Safe to call from multiple goroutines.
func (t *Tracker) Update(d Delta) {
	if t == nil {
		return
	}
	t.mu.Lock()

	t.TotalItems += d.Total
	t.PendingItems += d.Pending
	t.RunningItems += d.Running
	t.CompletedItems += d.Completed
	t.FaultedItems += d.Faulted
	t.CancelledItems += d.Cancelled

	// Value-copy for the callback while the lock is held so it never sees
	// partially updated counters.
	snapshot := t.snapshotLocked()
	cb := t.onChange

	t.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy suitable for read-only inspection.
func (t *Tracker) Snapshot() Tracker {
	if t == nil {
		return Tracker{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Tracker {
	return Tracker{
		StartedAt:      t.StartedAt,
		TotalItems:     t.TotalItems,
		PendingItems:   t.PendingItems,
		RunningItems:   t.RunningItems,
		CompletedItems: t.CompletedItems,
		FaultedItems:   t.FaultedItems,
		CancelledItems: t.CancelledItems,
	}
}

// Settled reports whether every submitted item has reached a terminal state.
func (t *Tracker) Settled() bool {
	s := t.Snapshot()
	return s.TotalItems == s.CompletedItems+s.FaultedItems+s.CancelledItems
}
