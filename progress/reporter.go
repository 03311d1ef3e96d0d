package progress

import (
	"sync"

	"github.com/taskora/taskora/internal/clock"
	"github.com/taskora/taskora/syncutil"
)

// Sink receives every event emitted by a Reporter, on the emitting goroutine.
// The coordinator installs a sink that forwards events to the consumer
// dispatcher; sinks must therefore never block.
type Sink func(Event)

// Reporter emits the ordered event stream for one work item. It is handed to
// the work function at execution time and is safe to call from any goroutine;
// the stream is handed off in sequence order no matter how many goroutines
// report concurrently.
type Reporter struct {
	itemID string
	sink   Sink

	mu  sync.Mutex
	seq int64
}

// NewReporter binds a reporter to an item identifier and delivery sink.
func NewReporter(itemID string, sink Sink) *Reporter {
	return &Reporter{itemID: itemID, sink: sink}
}

// ItemID returns the identifier of the item this reporter feeds.
func (r *Reporter) ItemID() string { return r.itemID }

// Report assigns the next sequence number in the item's stream and hands the
// payload off for delivery. It never blocks the caller.
func (r *Reporter) Report(payload interface{}) {
	r.emit(Event{Kind: KindProgress, Payload: payload})
}

// Terminal emits the stream-ending event, taking the next sequence number so
// that it is delivered after every progress event already reported.
func (r *Reporter) Terminal(kind Kind, value interface{}, err error) {
	r.emit(Event{Kind: kind, Value: value, Err: err})
}

func (r *Reporter) emit(event Event) {
	if r == nil || r.sink == nil {
		return
	}
	event.ItemID = r.itemID
	event.EmittedAt = clock.Now()

	// Sequence assignment and hand-off happen under one lock: were they
	// separate steps, concurrent reporters could deliver a higher sequence
	// number before a lower one.
	syncutil.WithLock(&r.mu, func() {
		r.seq++
		event.Seq = r.seq
		r.sink(event)
	})
}
