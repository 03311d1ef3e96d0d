package progress

import "time"

// Kind discriminates the events flowing through a per-item stream. Exactly
// one terminal event (Completed, Faulted or Cancelled) ends every stream.
type Kind string

const (
	KindProgress  Kind = "progress"
	KindCompleted Kind = "completed"
	KindFaulted   Kind = "faulted"
	KindCancelled Kind = "cancelled"
)

// Terminal reports whether the kind ends an item's stream.
func (k Kind) Terminal() bool { return k != KindProgress }

// Event is one entry in a work item's ordered stream. Seq is strictly
// increasing per item with no gaps; the terminal event takes the next number
// in the same stream so it always follows every progress event.
type Event struct {
	ItemID    string
	Seq       int64
	Kind      Kind
	Payload   interface{} // progress payload, nil on terminal events
	Value     interface{} // result carried by a Completed event
	Err       error       // fault carried by a Faulted event
	EmittedAt time.Time
}
