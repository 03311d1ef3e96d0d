package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskora/taskora/messaging"
)

// FullPolicy decides what Publish does when a bounded queue is at capacity.
// The choice is an explicit configuration, never an accidental default: the
// zero value rejects, so producers that must not block get an error back
// instead of silently growing or stalling.
type FullPolicy string

const (
	// FullReject makes Publish return ErrQueueFull when the buffer is at
	// capacity. Default.
	FullReject FullPolicy = "reject"
	// FullBlock makes Publish wait for space (or ctx expiry). Callers opting
	// in accept that publishing may block.
	FullBlock FullPolicy = "block"
)

// ErrQueueFull is returned by Publish under FullReject when the queue buffer
// is at capacity.
var ErrQueueFull = fmt.Errorf("queue is full")

// Config for the in-memory queue.
type Config struct {
	// QueueBuffer bounds the number of undelivered messages.
	QueueBuffer int
	// FullPolicy selects Publish behaviour at capacity.
	FullPolicy FullPolicy
	// MaxRequeues limits how many times a Nacked message is re-published
	// before it is dropped.
	MaxRequeues int
	// RequeueDelay is the pause before a Nacked message re-enters the queue.
	RequeueDelay time.Duration
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		QueueBuffer:  100,
		FullPolicy:   FullReject,
		MaxRequeues:  1,
		RequeueDelay: 50 * time.Millisecond,
	}
}

// Message is the in-memory messaging.Message implementation.
type Message[T any] struct {
	id       string
	payload  T
	queue    *Queue[T]
	requeues int

	mu        sync.Mutex
	processed bool
}

// T returns the message payload.
func (m *Message[T]) T() *T { return &m.payload }

// Ack acknowledges the message as processed successfully.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	return nil
}

// Nack reports a processing failure. Messages under the requeue limit are
// re-published after RequeueDelay; the rest are dropped.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	m.requeues++

	if m.requeues > m.queue.config.MaxRequeues {
		return nil
	}
	go func() {
		time.Sleep(m.queue.config.RequeueDelay)
		retry := &Message[T]{
			id:       m.id,
			payload:  m.payload,
			queue:    m.queue,
			requeues: m.requeues,
		}
		select {
		case m.queue.messages <- retry:
		default:
			// Queue full on requeue; the message is dropped rather than
			// blocking an anonymous goroutine forever.
		}
	}()
	return nil
}

// Queue implements an in-memory messaging.Queue backed by a channel.
type Queue[T any] struct {
	messages chan *Message[T]
	config   Config
}

// NewQueue creates a new in-memory queue.
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	if config.FullPolicy == "" {
		config.FullPolicy = FullReject
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a new item to the queue, honouring the configured FullPolicy
// when the buffer is at capacity.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{
		id:      uuid.New().String(),
		payload: *t,
		queue:   q,
	}
	switch q.config.FullPolicy {
	case FullBlock:
		select {
		case q.messages <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	default:
		select {
		case q.messages <- msg:
			return nil
		default:
			return ErrQueueFull
		}
	}
}

// Consume retrieves a single item from the queue.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the current number of undelivered messages.
func (q *Queue[T]) Size() int { return len(q.messages) }

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
