package syncutil

import "sync"

// WithLock runs fn while holding mu. The lock is released on every exit path,
// including a panic escaping fn.
func WithLock(mu sync.Locker, fn func()) {
	mu.Lock()
	defer mu.Unlock()
	fn()
}

// WithLockErr is WithLock for closures that report an error.
func WithLockErr(mu sync.Locker, fn func() error) error {
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// Guarded couples a value with the mutex that protects it so that every
// access goes through the lock. Use it for compound state where callers must
// observe-then-modify under a single critical section.
type Guarded[T any] struct {
	mu    sync.Mutex
	value T
}

// NewGuarded returns a Guarded holding the initial value.
func NewGuarded[T any](value T) *Guarded[T] {
	return &Guarded[T]{value: value}
}

// Update mutates the value under the lock.
func (g *Guarded[T]) Update(fn func(*T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.value)
}

// Read invokes fn with the value under the lock. fn must not retain pointers
// into the value beyond the call.
func (g *Guarded[T]) Read(fn func(T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.value)
}

// Get returns a copy of the value taken under the lock.
func (g *Guarded[T]) Get() T {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}
