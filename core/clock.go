package core

import (
	"sync"
	"time"
)

// Clock supplies the timestamp that gates auction phases. Timestamps are
// unix seconds and must be monotonically non-decreasing; the engine never
// reads the wall clock directly.
type Clock interface {
	Now() uint64
}

// SystemClock reads the host clock. Production use.
type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// ManualClock is a settable clock for tests and scripted runs. Advance never
// moves time backwards.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

// NewManualClock creates a ManualClock starting at the given unix time.
func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// Set jumps the clock to t. Earlier times are ignored so the clock stays
// monotone.
func (c *ManualClock) Set(t uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t > c.now {
		c.now = t
	}
}
