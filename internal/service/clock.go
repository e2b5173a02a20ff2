package service

import (
	"sync"
	"time"
)

// monotonicClock hands out strictly increasing UTC timestamps at microsecond
// precision, which every store keeps without rounding.
type monotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newMonotonicClock() *monotonicClock {
	return &monotonicClock{now: time.Now}
}

// Next returns a time later than every earlier result and later than floor.
func (c *monotonicClock) Next(floor time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if floor.After(c.last) {
		c.last = floor.UTC()
	}
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond).Truncate(time.Microsecond)
	}
	c.last = t
	return t
}
