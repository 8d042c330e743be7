package schedule

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable pending firing.
type Timer interface {
	// Stop cancels the timer; it reports whether the firing was prevented.
	Stop() bool
}

// Clock abstracts time so scheduling is testable without real delays.
type Clock interface {
	// Now returns the current instant.
	Now() time.Time

	// AfterFunc runs fn after d on its own goroutine.
	AfterFunc(d time.Duration, fn func()) Timer
}

// realClock delegates to the time package.
type realClock struct{}

// NewRealClock returns the wall-clock implementation.
func NewRealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// ManualClock is a deterministic Clock for tests. Time only moves when
// Advance is called; due timers fire synchronously, in deadline order, with
// Now reflecting each timer's deadline as it fires.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock    *ManualClock
	deadline time.Time
	fn       func()
	stopped  bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewManualClock creates a manual clock starting at the given instant.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	t := &manualTimer{clock: c, deadline: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward, firing every due timer. Timers created by
// firing callbacks are honored within the same advance when they fall due.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		t := c.popDue(target)
		if t == nil {
			break
		}
		t.fn()
	}

	c.mu.Lock()
	if target.After(c.now) {
		c.now = target
	}
	c.mu.Unlock()
}

// popDue removes and returns the earliest unstopped timer due at or before
// target, advancing Now to its deadline.
func (c *ManualClock) popDue(target time.Time) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	sort.SliceStable(c.timers, func(i, j int) bool {
		return c.timers[i].deadline.Before(c.timers[j].deadline)
	})

	for i, t := range c.timers {
		if t.stopped {
			continue
		}
		if t.deadline.After(target) {
			break
		}
		c.timers = append(c.timers[:i], c.timers[i+1:]...)
		if t.deadline.After(c.now) {
			c.now = t.deadline
		}
		return t
	}
	return nil
}

// PendingTimers reports how many unstopped timers are queued.
func (c *ManualClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}
