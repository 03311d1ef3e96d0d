// Package progress defines primitives for reporting the progress of
// background work back toward the consumer goroutine. A Reporter is bound to
// a single work item and may be called from any worker goroutine; events it
// emits carry strictly increasing per-item sequence numbers, which is the
// only ordering guarantee consumers may rely on across the subsystem.
//
// The package also provides an aggregate Tracker that keeps item counters
// (total, running, completed, …) for a whole coordinator, safe for
// concurrent use.
package progress
