// Package syncutil provides the small set of synchronisation primitives the
// coordination layers build on: an atomic counter for independent scalar
// state and lock helpers for compound state.
//
// The rule of thumb for callers: reach for Counter when a single integer is
// updated independently of everything else; reach for WithLock / Guarded when
// an operation touches more than one piece of state or must observe a value
// before modifying it. Acquiring a lock already held by the same goroutine
// deadlocks – that is a caller error, not a recoverable condition.
package syncutil
