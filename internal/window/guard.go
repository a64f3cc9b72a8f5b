// Package window gates participant actions to a fixed period after the
// process starts.
package window

import "time"

// Guard reports whether the registration window is open. It is immutable
// once constructed and safe for concurrent use.
type Guard struct {
	start    time.Time
	duration time.Duration
	now      func() time.Time
}

// NewGuard returns a Guard for a window of duration beginning at start.
// A nil now defaults to time.Now.
func NewGuard(start time.Time, duration time.Duration, now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{start: start, duration: duration, now: now}
}

// IsOpen reports whether the current time is within the window. The
// closing instant itself still counts as open.
func (g *Guard) IsOpen() bool {
	return !g.now().After(g.ClosesAt())
}

// Remaining returns the time left before the window closes, or zero once
// it has.
func (g *Guard) Remaining() time.Duration {
	left := g.ClosesAt().Sub(g.now())
	if left < 0 {
		return 0
	}
	return left
}

// ClosesAt returns the instant the window closes.
func (g *Guard) ClosesAt() time.Time {
	return g.start.Add(g.duration)
}

// StartedAt returns the instant the window opened.
func (g *Guard) StartedAt() time.Time {
	return g.start
}
