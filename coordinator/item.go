package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/taskora/taskora/cancel"
	"github.com/taskora/taskora/internal/clock"
	"github.com/taskora/taskora/progress"
)

// State represents the lifecycle state of a work item.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFaulted   State = "faulted"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state is final. Terminal states are immutable.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFaulted, StateCancelled:
		return true
	}
	return false
}

// Work is a unit of background work. It runs on a worker goroutine, receives
// the item's cancellation token and a progress reporter bound to the item's
// identifier, and returns either a value or a fault. Long-running work must
// poll the token and should document its polling interval.
type Work func(ctx context.Context, token *cancel.Token, reporter *progress.Reporter) (interface{}, error)

// Item is one submitted unit of work. The coordinator owns it exclusively
// until it reaches a terminal state; afterwards its result is handed to the
// consumer via the delivered terminal event.
type Item struct {
	ID string

	work   Work
	source *cancel.Source

	mu         sync.Mutex
	state      State
	value      interface{}
	err        error
	createdAt  time.Time
	startedAt  *time.Time
	finishedAt *time.Time
}

func newItem(id string, work Work, source *cancel.Source) *Item {
	return &Item{
		ID:        id,
		work:      work,
		source:    source,
		state:     StatePending,
		createdAt: clock.Now(),
	}
}

// Token returns the cancellation token observed by the item's work.
func (i *Item) Token() *cancel.Token { return i.source.Token() }

// State returns the current lifecycle state.
func (i *Item) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// transition advances the state machine. Legal moves are pending→running,
// pending→cancelled and running→{completed,faulted,cancelled}; anything else
// is rejected and the state is left untouched.
func (i *Item) transition(to State, value interface{}, err error) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	legal := false
	switch i.state {
	case StatePending:
		legal = to == StateRunning || to == StateCancelled
	case StateRunning:
		legal = to.Terminal()
	}
	if !legal {
		return false
	}

	i.state = to
	now := clock.Now()
	switch {
	case to == StateRunning:
		i.startedAt = &now
	case to.Terminal():
		i.finishedAt = &now
		i.value = value
		i.err = err
	}
	return true
}

// Outcome is the terminal result of an item, delivered exactly once.
type Outcome struct {
	ItemID string
	State  State
	Value  interface{}
	Err    error
}

// outcome builds the Outcome for a terminal item.
func (i *Item) outcome() Outcome {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Outcome{ItemID: i.ID, State: i.state, Value: i.value, Err: i.err}
}

// Snapshot is a read-only copy of an item's externally visible fields.
type Snapshot struct {
	ID         string
	State      State
	Value      interface{}
	Err        error
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// Snapshot returns a copy suitable for inspection from any goroutine.
func (i *Item) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Snapshot{
		ID:         i.ID,
		State:      i.state,
		Value:      i.value,
		Err:        i.err,
		CreatedAt:  i.createdAt,
		StartedAt:  i.startedAt,
		FinishedAt: i.finishedAt,
	}
}

// Transition is the lifecycle notification published to observers through
// the event service.
type Transition struct {
	ItemID string    `json:"itemID"`
	From   State     `json:"from"`
	To     State     `json:"to"`
	At     time.Time `json:"at"`
}

// kindOf maps a terminal state onto the progress event kind ending the
// item's stream.
func kindOf(state State) progress.Kind {
	switch state {
	case StateCompleted:
		return progress.KindCompleted
	case StateFaulted:
		return progress.KindFaulted
	default:
		return progress.KindCancelled
	}
}
