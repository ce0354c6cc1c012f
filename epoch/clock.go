package epoch

import (
	"sync"
	"time"

	"github.com/polystream/vault/types"
)

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a deterministic time source for tests and simulation. It
// only moves when advanced, and never backward, so fast-forward-then-harvest
// sequences replay deterministically.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ types.Clock = (*ManualClock)(nil)

// NewManualClock creates a manual clock starting at the given time.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. Negative advances are rejected.
func (c *ManualClock) Advance(d time.Duration) error {
	if d < 0 {
		return types.ErrInvalidTimeTravel.Wrapf("cannot advance by negative duration %s", d)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return nil
}

// AdvanceDays moves the clock forward by n days.
func (c *ManualClock) AdvanceDays(n int64) error {
	return c.Advance(time.Duration(n) * 24 * time.Hour)
}
