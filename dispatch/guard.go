package dispatch

import (
	"bytes"
	"errors"
	"runtime"
	"strconv"
)

// ErrOffConsumer reports that consumer-owned state was touched from outside
// the consumer goroutine. This is a programming defect in the caller, not a
// recoverable condition.
var ErrOffConsumer = errors.New("consumer-owned state accessed off the consumer goroutine")

// Guard detects cross-goroutine access to consumer-owned state at runtime.
// Embed a check at the top of every function that mutates such state:
//
//	func (m *model) apply(ev progress.Event) {
//		m.guard.MustCheck()
//		...
//	}
type Guard struct {
	d *Dispatcher
}

// Guard returns a guard bound to this dispatcher's consumer goroutine.
func (d *Dispatcher) Guard() Guard { return Guard{d: d} }

// Check returns ErrOffConsumer when called from any goroutine other than the
// one currently running the dispatcher loop.
func (g Guard) Check() error {
	if g.d == nil || !g.d.OnConsumer() {
		return ErrOffConsumer
	}
	return nil
}

// MustCheck panics on violation. Intended for debug-style assertions where
// failing loudly beats racing silently.
func (g Guard) MustCheck() {
	if err := g.Check(); err != nil {
		panic(err)
	}
}

// goroutineID extracts the numeric id of the calling goroutine from the
// runtime stack header ("goroutine 18 [running]: ..."). The runtime offers no
// public accessor; parsing the header is the established workaround and is
// only exercised on the dispatch hot path once per Run plus on guard checks.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := buf[:n]
	header = bytes.TrimPrefix(header, []byte("goroutine "))
	if idx := bytes.IndexByte(header, ' '); idx > 0 {
		if id, err := strconv.ParseInt(string(header[:idx]), 10, 64); err == nil {
			return id
		}
	}
	return -1
}
