// Package messaging defines the abstract queue the coordinator uses to hand
// work items to its worker pool. The interface is deliberately small so that
// alternative transports can be dropped in without touching the coordinator.
package messaging

import "context"

// Queue represents an abstract message queue for any payload type.
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue.
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message, blocking until one is available or
	// ctx is done.
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue.
type Message[T any] interface {
	// T returns the payload of this message.
	T() *T

	// Ack acknowledges successful processing of this message.
	Ack() error

	// Nack indicates failure in processing this message; implementations may
	// requeue it.
	Nack(err error) error
}
