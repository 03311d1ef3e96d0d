// Package clock pins the subsystem's notion of "now". Tracker start times,
// progress event timestamps and transition records all go through Now, so
// tests can substitute a fixed clock instead of sleeping.
package clock

import "time"

// NowFunc supplies timestamps. Swap it in tests for deterministic output.
var NowFunc = time.Now

// Now returns the current time as reported by NowFunc.
func Now() time.Time { return NowFunc() }
