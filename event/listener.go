package event

import (
	"context"
	"errors"
	"log/slog"
)

// Listener drains a publisher's queue on its own goroutine and hands every
// event to the supplied handler. Handlers run off the consumer goroutine; a
// handler that needs consumer-owned state must post to the dispatcher itself.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewListener creates a stopped listener; call Start to begin draining.
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	return &Listener[T]{publisher: publisher, handler: handler}
}

// Start launches the drain goroutine.
func (l *Listener[T]) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		for {
			event, err := l.publisher.Consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				slog.Error("event: consume failed", "error", err)
				continue
			}
			if event != nil {
				l.handler(event)
			}
		}
	}()
}

// Stop terminates the drain goroutine and waits for it to exit.
func (l *Listener[T]) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}
