package grid

import "time"

// Timer is a pending scheduled call.
type Timer interface {
	// Stop cancels the call and reports whether it was still pending.
	Stop() bool
}

// Scheduler runs functions after a delay on another goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// SystemScheduler schedules with time.AfterFunc.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// defer0 adapts a Scheduler to a zero-delay deferral.
func defer0(s Scheduler) func(func()) {
	return func(fn func()) { s.AfterFunc(0, fn) }
}
