package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic
// timestamps.
var clock = clockwork.NewRealClock()

// Now returns the current UTC time from the active clock. Stores use it to
// assign reading timestamps at insert time.
func Now() time.Time { return clock.Now().UTC() }

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
