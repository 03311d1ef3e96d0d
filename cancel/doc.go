// Package cancel implements cooperative cancellation for background work.
//
// A Source owns the cancelled flag; the Token it hands out is shared by every
// worker and child operation that receives it. Cancellation is always
// cooperative – it takes effect only when running work polls the token – and
// propagates strictly downward: cancelling a linked child never cancels its
// parents.
package cancel
