package timeutil

import "time"

// Clock abstracts "now" so streak date arithmetic is testable without
// touching the system clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// FixedClock always reports the same instant. Test helper.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
