package testfixtures

import (
	"sync"
	"time"

	"cloud.google.com/go/civil"
)

// Clock is a settable time source shared by the services of one test world.
// It starts at ReferenceTime, the first weekday of the seeded session.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start.UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc is the form the service constructors take. A nil clock yields
// wall-clock time.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Advance moves the clock forward and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// MoveTo places the clock on date at the given hour, UTC.
func (c *Clock) MoveTo(date civil.Date, hour int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = date.In(time.UTC).Add(time.Duration(hour) * time.Hour)
	return c.now
}

// Today is the calendar date the clock currently reads.
func (c *Clock) Today() civil.Date {
	return civil.DateOf(c.Now())
}
