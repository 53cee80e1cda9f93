package stage

import (
	"sort"
	"time"
)

// TimerSet is a deadline scheduler for duration-based effect stops. Every
// scheduled callback comes with an explicit cancel function, and callbacks
// only ever run inside Advance, on the driver's tick stack — there is no
// background goroutine to race with registry state.
type TimerSet struct {
	now     func() time.Time
	seq     int
	pending map[int]*timerEntry
}

type timerEntry struct {
	id int
	at time.Time
	fn func()
}

// NewTimerSet builds a timer set reading the current time from now.
// Passing nil uses the wall clock; tests pass a manual clock.
func NewTimerSet(now func() time.Time) *TimerSet {
	if now == nil {
		now = time.Now
	}
	return &TimerSet{
		now:     now,
		pending: make(map[int]*timerEntry),
	}
}

// After schedules fn to run once d from now. The returned cancel function
// is safe to call after the timer fired, and safe to call twice.
func (s *TimerSet) After(d time.Duration, fn func()) (cancel func()) {
	s.seq++
	id := s.seq
	s.pending[id] = &timerEntry{id: id, at: s.now().Add(d), fn: fn}
	return func() {
		delete(s.pending, id)
	}
}

// Advance fires every entry due at or before now, in schedule order, and
// returns how many fired. Callbacks may schedule or cancel further timers;
// entries created during Advance wait for the next call.
func (s *TimerSet) Advance(now time.Time) int {
	if len(s.pending) == 0 {
		return 0
	}

	var due []*timerEntry
	for _, e := range s.pending {
		if !e.at.After(now) {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return 0
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].id < due[j].id
		}
		return due[i].at.Before(due[j].at)
	})

	fired := 0
	for _, e := range due {
		// A callback earlier in this sweep may have canceled this one.
		if _, ok := s.pending[e.id]; !ok {
			continue
		}
		delete(s.pending, e.id)
		e.fn()
		fired++
	}
	return fired
}

// Len reports how many timers are still pending.
func (s *TimerSet) Len() int {
	return len(s.pending)
}
