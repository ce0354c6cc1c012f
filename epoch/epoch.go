// Package epoch translates wall-clock time into discrete accounting epochs.
// Epochs are never persisted as objects; they are derived from the schedule
// on demand.
package epoch

import (
	"fmt"
	"time"

	"github.com/polystream/vault/types"
)

const (
	// DefaultEpochDuration is the accounting window used when none is
	// configured.
	DefaultEpochDuration = 24 * time.Hour

	SecondsPerDay = 86_400
)

// Schedule derives epoch indices from a genesis time and a fixed duration.
type Schedule struct {
	genesis  time.Time
	duration time.Duration
}

// NewSchedule creates a schedule. The duration must be positive.
func NewSchedule(genesis time.Time, duration time.Duration) (Schedule, error) {
	if duration <= 0 {
		return Schedule{}, fmt.Errorf("epoch duration must be positive, got %s", duration)
	}
	return Schedule{genesis: genesis, duration: duration}, nil
}

// Genesis returns the schedule's genesis time.
func (s Schedule) Genesis() time.Time { return s.genesis }

// Duration returns the fixed epoch duration.
func (s Schedule) Duration() time.Duration { return s.duration }

// CurrentEpoch returns floor((now - genesis) / duration). A now before
// genesis is rejected as time travel.
func (s Schedule) CurrentEpoch(now time.Time) (uint64, error) {
	if now.Before(s.genesis) {
		return 0, types.ErrInvalidTimeTravel.Wrapf("time %s precedes genesis %s", now, s.genesis)
	}
	return uint64(now.Sub(s.genesis) / s.duration), nil
}

// EpochsElapsedSince returns the number of full epochs passed between last
// and now. Used to decide if a harvest is due.
func (s Schedule) EpochsElapsedSince(last, now time.Time) (uint64, error) {
	if now.Before(last) {
		return 0, types.ErrInvalidTimeTravel.Wrapf("time %s precedes last epoch time %s", now, last)
	}
	return uint64(now.Sub(last) / s.duration), nil
}
