package scan

import "time"

// clock abstracts time for the debouncer and the session timers so the state
// machine can be tested without sleeping.
type clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) stoppable
}

type stoppable interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) stoppable {
	return time.AfterFunc(d, f)
}
