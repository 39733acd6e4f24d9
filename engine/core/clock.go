package core

import (
	"time"

	"github.com/loov/hrtime"
)

// TimeSource returns a monotonic timestamp.
type TimeSource func() time.Duration

type Clock struct {
	now       TimeSource
	startTime time.Duration
	elapsed   time.Duration
	running   bool
}

// NewClock returns a clock backed by the high resolution process timer.
func NewClock() *Clock {
	return NewClockWithSource(hrtime.Now)
}

func NewClockWithSource(now TimeSource) *Clock {
	return &Clock{now: now}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.running {
		c.elapsed = c.now() - c.startTime
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.now()
	c.elapsed = 0
	c.running = true
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

// Elapsed returns the time between Start and the last Update, in seconds.
func (c *Clock) Elapsed() float64 {
	return c.elapsed.Seconds()
}
