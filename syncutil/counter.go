package syncutil

import "sync/atomic"

// Counter is an int64 updated only through atomic operations. It is usable
// from any number of goroutines without a surrounding lock and provides
// sequentially consistent reads and updates. The zero value is ready to use.
type Counter struct {
	value atomic.Int64
}

// Add applies delta atomically and returns the new value.
func (c *Counter) Add(delta int64) int64 {
	return c.value.Add(delta)
}

// Inc increments the counter by one and returns the new value.
func (c *Counter) Inc() int64 { return c.value.Add(1) }

// Dec decrements the counter by one and returns the new value.
func (c *Counter) Dec() int64 { return c.value.Add(-1) }

// Load returns the current value.
func (c *Counter) Load() int64 { return c.value.Load() }

// Store overwrites the current value.
func (c *Counter) Store(v int64) { c.value.Store(v) }
