package simulation

import (
	"math"
	"time"
)

// Clock hands out monotonically increasing ticks stamped with wall-clock time.
type Clock struct {
	tick uint64
	now  func() time.Time
}

// NewClock creates a clock reading time from now; nil uses time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// FixedClock returns a clock frozen at t, for reproducible runs.
func FixedClock(t time.Time) *Clock {
	return NewClock(func() time.Time { return t })
}

// Advance increments the tick counter and returns it with the current time.
func (c *Clock) Advance() (uint64, time.Time) {
	c.tick++
	return c.tick, c.now()
}

// diurnal is the daily sine driver: zero at 06:00, peak at noon, trough at midnight.
func diurnal(t time.Time) float64 {
	return math.Sin((float64(t.Hour()) - 6) * math.Pi / 12)
}
