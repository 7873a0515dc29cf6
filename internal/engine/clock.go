package engine

import "time"

// Clock supplies the current time. Injected so tests can simulate
// elapsed time without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
