// Package coordinator accepts units of background work, runs each on a
// worker goroutine drawn from a fixed pool (never on the consumer goroutine),
// tracks its lifecycle, and delivers per-item progress and exactly one
// terminal outcome back to the consumer through the dispatch queue.
//
// Work functions receive a cancellation token and a progress reporter. They
// must poll the token if they are long-running – cancellation is cooperative,
// bounded by how often the work checks – and must never touch consumer-owned
// state directly; anything consumer-facing goes through a completion or
// progress callback, which the coordinator always posts to the dispatcher.
package coordinator
