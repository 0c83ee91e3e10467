package helper

import (
	"sort"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-desk/clock"
)

// FakeClock is a clock.Clock whose time only moves when Advance is called.
// Callbacks of due timers run synchronously inside Advance, in the order of their deadlines.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*FakeTimer
}

// FakeTimer is a timer created by FakeClock.AfterFunc.
type FakeTimer struct {
	clock    *FakeClock
	deadline time.Time
	callback func()
	stopped  bool
	fired    bool
}

// NewFakeClock creates a FakeClock starting at the given time.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now implements clock.Clock.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// AfterFunc implements clock.Clock.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &FakeTimer{
		clock:    c,
		deadline: c.now.Add(d),
		callback: f,
	}
	c.timers = append(c.timers, timer)

	return timer
}

// Advance moves the clock forward and fires every timer whose deadline has been reached.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	due := make([]*FakeTimer, 0)
	pending := c.timers[:0]

	for _, timer := range c.timers {
		switch {
		case timer.stopped:
			// dropped
		case !timer.deadline.After(c.now):
			timer.fired = true
			due = append(due, timer)
		default:
			pending = append(pending, timer)
		}
	}

	c.timers = pending
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})

	for _, timer := range due {
		timer.callback()
	}
}

// PendingTimers returns the number of timers that have neither fired nor been stopped.
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			count++
		}
	}

	return count
}

// Stop implements clock.Timer.
func (t *FakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}

	t.stopped = true

	return true
}
