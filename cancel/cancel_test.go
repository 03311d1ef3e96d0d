package cancel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCancelIsSticky(t *testing.T) {
	source := NewSource()
	token := source.Token()

	assert.False(t, token.Cancelled())
	assert.NoError(t, token.Err())

	source.Cancel()
	assert.True(t, token.Cancelled())
	assert.ErrorIs(t, token.Err(), ErrCancelled)

	// A second cancel stays a no-op.
	source.Cancel()
	assert.True(t, token.Cancelled())
}

func TestCallbacksFireOnceInRegistrationOrder(t *testing.T) {
	source := NewSource()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		source.Token().Register(func() { order = append(order, i) })
	}

	source.Cancel()
	source.Cancel()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestRegisterAfterCancelRunsInline(t *testing.T) {
	source := NewSource()
	source.Cancel()

	ran := false
	source.Token().Register(func() { ran = true })
	assert.True(t, ran)
}

func TestUnregisterPreventsCallback(t *testing.T) {
	source := NewSource()

	fired := false
	unregister := source.Token().Register(func() { fired = true })
	unregister()

	source.Cancel()
	assert.False(t, fired)
}

func TestDoneChannelCloses(t *testing.T) {
	source := NewSource()

	select {
	case <-source.Token().Done():
		t.Fatal("done channel closed before cancel")
	default:
	}

	source.Cancel()

	select {
	case <-source.Token().Done():
	case <-time.After(time.Second):
		t.Fatal("done channel not closed after cancel")
	}
}

func TestLinkedSourcePropagatesDownOnly(t *testing.T) {
	parent := NewSource()
	child := LinkedSource(parent.Token())

	parent.Cancel()
	assert.True(t, child.Token().Cancelled())

	other := NewSource()
	grandchild := LinkedSource(other.Token())
	grandchild.Cancel()
	assert.False(t, other.Token().Cancelled())
}

func TestLinkedSourceAnyAncestor(t *testing.T) {
	a := NewSource()
	b := NewSource()
	child := LinkedSource(a.Token(), b.Token())

	b.Cancel()
	assert.True(t, child.Token().Cancelled())
	assert.False(t, a.Token().Cancelled())
}

func TestUnregisterRemovesRegistration(t *testing.T) {
	token := NewSource().Token()

	unregister := token.Register(func() {})
	unregister()

	token.mu.Lock()
	remaining := len(token.callbacks)
	token.mu.Unlock()
	assert.Zero(t, remaining, "unregistered callback still held by the token")
}

func TestLinkedSourceReleaseDetachesFromParents(t *testing.T) {
	parent := NewSource()

	child := LinkedSource(parent.Token())
	child.Release()

	parent.Cancel()
	assert.False(t, child.Token().Cancelled(), "released child still linked to parent")
}

func TestLinkedSourceChurnLeavesParentClean(t *testing.T) {
	parent := NewSource()

	// A long-lived shared token sees many short-lived linked sources; once
	// each is released the parent must hold no trace of it.
	for i := 0; i < 100; i++ {
		child := LinkedSource(parent.Token())
		child.Release()
	}

	parent.token.mu.Lock()
	remaining := len(parent.token.callbacks)
	parent.token.mu.Unlock()
	assert.Zero(t, remaining, "released links accumulated on the parent token")
}

func TestReleaseStopsPendingTimer(t *testing.T) {
	source := NewSource()
	source.CancelAfter(10 * time.Millisecond)
	source.Release()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, source.Token().Cancelled())
}

func TestCancelAfter(t *testing.T) {
	source := NewSource()
	source.CancelAfter(20 * time.Millisecond)

	assert.False(t, source.Token().Cancelled())

	select {
	case <-source.Token().Done():
	case <-time.After(time.Second):
		t.Fatal("deadline cancellation never fired")
	}
}

func TestConcurrentCancelFiresCallbacksOnce(t *testing.T) {
	source := NewSource()

	var count int
	var mu sync.Mutex
	source.Token().Register(func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			source.Cancel()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, count)
}
