package markettest

import "sync"

// ManualClock is a test clock advanced explicitly by the test.
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a clock starting at the given unix time.
func NewManualClock(start int64) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current test time.
func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by the given number of seconds.
func (c *ManualClock) Advance(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
}

// Set jumps the clock to an absolute time.
func (c *ManualClock) Set(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
