// Package dispatch implements the single-consumer queue that owns all
// consumer-visible state.
//
// Exactly one goroutine – the consumer goroutine – drains a Dispatcher by
// calling Run. Everything that must touch consumer-owned state is funnelled
// through Post, which enqueues a callback for the consumer goroutine and
// returns immediately from any caller. Callbacks execute strictly in the
// order they were posted and never reentrantly, so code inside a callback may
// rely on thread affinity without additional locking.
//
// Callbacks must be short and non-blocking. A callback that blocks starves
// every other pending callback, including progress and completion delivery
// for unrelated work. That contract is not enforceable mechanically; it is
// the one misuse this design cannot make impossible, only easy to avoid.
package dispatch
