package mocks

import (
	"slices"
	"sync"
	"time"

	"github.com/mcoot/cardduel/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing. Timers only
// fire when Advance moves the clock past their deadline.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	timers      []*MockTimer
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

// AfterFunc registers f to run when the clock is advanced past now+d
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTimer{deadline: c.currentTime.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and synchronously runs every timer that
// became due, in deadline order
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.currentTime = c.currentTime.Add(d)
	now := c.currentTime
	var due []*MockTimer
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if !t.deadline.After(now) {
			due = append(due, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	c.mu.Unlock()

	slices.SortStableFunc(due, func(a, b *MockTimer) int {
		return a.deadline.Compare(b.deadline)
	})
	// Callbacks may schedule new timers, so they run without the lock
	for _, t := range due {
		if t.claim() {
			t.f()
		}
	}
}

// Set sets the clock to the given time without firing timers
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}

// PendingTimers returns the number of timers that have neither fired nor
// been stopped
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if t.pending() {
			n++
		}
	}
	return n
}

// MockTimer is a timer created by MockClock.AfterFunc
type MockTimer struct {
	mu       sync.Mutex
	deadline time.Time
	f        func()
	done     bool
}

// Stop cancels the timer if it has not fired
func (t *MockTimer) Stop() bool {
	return t.claim()
}

func (t *MockTimer) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (t *MockTimer) pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.done
}
