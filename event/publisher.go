package event

import (
	"context"

	"github.com/taskora/taskora/messaging"
)

// Publisher publishes typed events onto a messaging queue.
type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

// NewPublisher wraps the supplied queue.
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// Publish places the event on the queue.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	return p.queue.Publish(ctx, event)
}

// Consume retrieves and acknowledges the next event.
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
