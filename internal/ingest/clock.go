package ingest

import "github.com/jonboulle/clockwork"

// clock paces the refresh loop. Tests swap in a fake to advance time
// deterministically.
var clock = clockwork.NewRealClock()

// SetClock swaps the loop's time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
