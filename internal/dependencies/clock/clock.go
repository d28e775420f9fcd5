package clock

import "time"

// Clock provides the current time to anything that compares against it:
// token expiry, creation stamps, binding and rename timestamps. Injected so
// tests can pin the date.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}
