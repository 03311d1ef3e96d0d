package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskora/taskora/messaging/memory"
)

type transition struct {
	From string
	To   string
}

func TestPublishConsume(t *testing.T) {
	queue := memory.NewQueue[Event[transition]](memory.DefaultConfig())
	publisher := NewPublisher(queue)

	ctx := context.Background()
	in := NewEvent(&Context{ItemID: "item-1", EventType: "transition"}, transition{From: "pending", To: "running"})
	require.NoError(t, publisher.Publish(ctx, in))

	out, err := publisher.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "item-1", out.Context.ItemID)
	assert.Equal(t, "running", out.Data.To)
	assert.False(t, out.CreatedAt.IsZero())
}

func TestListenerDeliversAllEvents(t *testing.T) {
	queue := memory.NewQueue[Event[transition]](memory.DefaultConfig())
	publisher := NewPublisher(queue)

	var mu sync.Mutex
	var got []transition
	all := make(chan struct{})

	listener := NewListener(publisher, func(ev *Event[transition]) {
		mu.Lock()
		got = append(got, ev.Data)
		if len(got) == 5 {
			close(all)
		}
		mu.Unlock()
	})
	listener.Start()
	defer listener.Stop()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{ItemID: "item"}, transition{To: "running"})))
	}

	select {
	case <-all:
	case <-time.After(5 * time.Second):
		t.Fatal("listener never delivered all events")
	}
}

func TestListenerStopTerminates(t *testing.T) {
	queue := memory.NewQueue[Event[transition]](memory.DefaultConfig())
	publisher := NewPublisher(queue)

	listener := NewListener(publisher, func(*Event[transition]) {})
	listener.Start()

	done := make(chan struct{})
	go func() {
		listener.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop never returned")
	}
}
