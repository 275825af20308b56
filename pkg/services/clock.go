package services

import "time"

// Clock returns the current time. Jobs read time only through a Clock so
// window boundaries can be pinned in tests.
type Clock func() time.Time

func (c Clock) orNow() Clock {
	if c == nil {
		return time.Now
	}
	return c
}
