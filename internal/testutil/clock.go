// Package testutil provides shared test helpers.
package testutil

import (
	"sync"
	"time"
)

// FakeClock is a thread-safe manual clock for pacing tests.
//
// It implements engine.Clock: Now returns the current manual time and
// Sleep advances it by the requested duration instead of blocking, so
// frame pacing can be tested without real waiting.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
}

// NewFakeClock creates a fake clock starting at a fixed reference time.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current manual time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the manual time by d without blocking. Negative
// durations are ignored, matching time.Sleep.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.slept += d
}

// Advance moves the manual time forward by d, simulating work that
// takes time between Now calls.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Slept returns the total duration passed to Sleep.
func (c *FakeClock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}
