package utils

import "time"

// NowFunc supplies the current time. Stores and the analysis pipeline take
// one so tests can pin the clock.
type NowFunc func() time.Time

// SystemClock is the production NowFunc.
func SystemClock() time.Time {
	return time.Now()
}

// FixedClock returns a NowFunc that always reports t.
func FixedClock(t time.Time) NowFunc {
	return func() time.Time { return t }
}
