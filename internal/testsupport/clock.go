package testsupport

import (
	"sync"
	"time"
)

// ManualClock is a Clock port that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Duration
}

// NewManualClock returns a clock at zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}
