package search

import "time"

// Timer is a pending debounce edge.
type Timer interface {
	Stop() bool
}

// Clock schedules debounce edges. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock schedules with the runtime timer.
type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
