// Package event provides a typed publish/subscribe layer over messaging
// queues. The coordinator publishes work-item lifecycle transitions through
// it so that observers which do not sit on the consumer goroutine (metrics,
// persistence bridges, log shippers) can follow item state without touching
// consumer-owned state.
package event

import (
	"time"

	"github.com/taskora/taskora/internal/clock"
)

// Context identifies the origin of an event.
type Context struct {
	ItemID    string `json:"itemID"`
	EventType string `json:"eventType"`
}

// Event carries a typed payload together with its origin.
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Data:      data,
	}
}
