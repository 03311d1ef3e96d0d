// Package taskora provides a responsive task-coordination subsystem: it runs
// background work on a pool of worker goroutines without ever blocking the
// single consumer goroutine that owns consumer-visible state, supports
// cooperative cancellation at any nesting depth, and reports ordered progress
// and exactly-once terminal outcomes back through a single-consumer dispatch
// queue.
//
// End-users typically interact with the high-level Service façade exposed by
// the root package:
//
//	srv := taskora.New(taskora.WithWorkers(8))
//	_ = srv.Start(ctx)
//	defer srv.Shutdown()
//
//	handle, _ := srv.Submit(ctx, work, nil)
//	handle.OnDone(func(o coordinator.Outcome) { /* consumer goroutine */ })
//
// The sub-packages can also be used independently:
//
//   - coordinator – work-item lifecycle, worker pool, terminal delivery
//   - dispatch    – the single-consumer callback queue
//   - cancel      – cooperative cancellation sources and tokens
//   - progress    – ordered per-item event streams and aggregate counters
//   - messaging   – the queue abstraction between submit and the workers
//   - event       – typed lifecycle pub/sub for off-consumer observers
//   - syncutil    – the atomic counter and lock helpers the layers build on
package taskora
