package testutil

import "time"

// Clock is a manually advanced time source. Pass Clock.Now as the cache time
// source to make expiry deterministic in tests.
type Clock struct {
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *Clock) Set(t time.Time) {
	c.now = t
}
