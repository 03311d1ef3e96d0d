package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taskora/taskora/cancel"
	"pgregory.net/rapid"
)

func TestStateTerminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateRunning.Terminal())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFaulted.Terminal())
	assert.True(t, StateCancelled.Terminal())
}

func TestItemLegalTransitions(t *testing.T) {
	newPending := func() *Item {
		return newItem("item", nil, cancel.NewSource())
	}

	// pending → running → completed
	item := newPending()
	assert.True(t, item.transition(StateRunning, nil, nil))
	assert.True(t, item.transition(StateCompleted, "value", nil))
	assert.Equal(t, StateCompleted, item.State())

	// pending → cancelled (short circuit)
	item = newPending()
	assert.True(t, item.transition(StateCancelled, nil, cancel.ErrCancelled))
	assert.Equal(t, StateCancelled, item.State())

	// running → faulted
	item = newPending()
	assert.True(t, item.transition(StateRunning, nil, nil))
	assert.True(t, item.transition(StateFaulted, nil, assert.AnError))
	snapshot := item.Snapshot()
	assert.Equal(t, StateFaulted, snapshot.State)
	assert.Equal(t, assert.AnError, snapshot.Err)
}

func TestItemIllegalTransitionsRejected(t *testing.T) {
	item := newItem("item", nil, cancel.NewSource())

	// pending may not jump straight to completed or faulted.
	assert.False(t, item.transition(StateCompleted, nil, nil))
	assert.False(t, item.transition(StateFaulted, nil, nil))
	assert.Equal(t, StatePending, item.State())

	// Terminal states are immutable.
	assert.True(t, item.transition(StateRunning, nil, nil))
	assert.True(t, item.transition(StateCancelled, nil, nil))
	for _, to := range []State{StatePending, StateRunning, StateCompleted, StateFaulted, StateCancelled} {
		assert.False(t, item.transition(to, nil, nil), "terminal state mutated to %s", to)
	}
	assert.Equal(t, StateCancelled, item.State())
}

// TestItemStateSequences drives the state machine with arbitrary transition
// attempts and verifies the accepted sequence is always one of the four
// legal lifecycles.
func TestItemStateSequences(t *testing.T) {
	legal := map[string]bool{
		"pending,cancelled":         true,
		"pending,running,completed": true,
		"pending,running,faulted":   true,
		"pending,running,cancelled": true,
	}
	states := []State{StatePending, StateRunning, StateCompleted, StateFaulted, StateCancelled}

	rapid.Check(t, func(t *rapid.T) {
		item := newItem("item", nil, cancel.NewSource())
		observed := []State{item.State()}

		attempts := rapid.IntRange(0, 12).Draw(t, "attempts")
		for i := 0; i < attempts; i++ {
			to := states[rapid.IntRange(0, len(states)-1).Draw(t, "to")]
			if item.transition(to, nil, nil) {
				observed = append(observed, to)
			}
		}
		// Force a terminal state so every observed run is a full lifecycle.
		if !item.State().Terminal() {
			if item.State() == StatePending {
				item.transition(StateCancelled, nil, nil)
			} else {
				item.transition(StateCompleted, nil, nil)
			}
			observed = append(observed, item.State())
		}

		key := ""
		for i, s := range observed {
			if i > 0 {
				key += ","
			}
			key += string(s)
		}
		if !legal[key] {
			t.Fatalf("illegal state sequence observed: %s", key)
		}
	})
}
