// Package filters holds the per-symbol eligibility checks run before the decision engine.
package filters

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock reports wall time in UTC.
func SystemClock() Clock { return systemClock{} }

// FixedClock always returns the same instant. Used by tests and replays.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c).UTC() }
