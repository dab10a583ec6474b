// Package gridtest provides helpers for testing grids without real timers.
package gridtest

import (
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Scheduler is a manual clock. Scheduled functions run only when the test
// advances time, on the test's goroutine.
type Scheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*timer
}

type timer struct {
	s    *Scheduler
	at   time.Duration
	seq  int
	fn   func()
	done bool
}

func (t *timer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// NewScheduler returns a scheduler at time zero.
func NewScheduler() *Scheduler { return &Scheduler{} }

var _ grid.Scheduler = (*Scheduler)(nil)

// AfterFunc queues fn to run once the clock passes d from now.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) grid.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &timer{s: s, at: s.now + d, seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Now returns the elapsed virtual time.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of timers that have not fired or been stopped.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running every timer that comes due in
// order. Timers scheduled by those functions run too if they fall in range.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		t := s.next(target)
		if t == nil {
			break
		}
		t.fn()
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
}

// Flush runs every timer due now, including zero-delay timers they schedule.
func (s *Scheduler) Flush() { s.Advance(0) }

func (s *Scheduler) next(limit time.Duration) *timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	s.timers = live
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].at != s.timers[j].at {
			return s.timers[i].at < s.timers[j].at
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	if len(s.timers) == 0 || s.timers[0].at > limit {
		return nil
	}
	t := s.timers[0]
	t.done = true
	if t.at > s.now {
		s.now = t.at
	}
	return t
}
