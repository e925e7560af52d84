package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_SleepAdvancesInsteadOfBlocking(t *testing.T) {
	c := NewFakeClock()
	start := c.Now()

	c.Sleep(16 * time.Millisecond)

	assert.Equal(t, start.Add(16*time.Millisecond), c.Now())
	assert.Equal(t, 16*time.Millisecond, c.Slept())
}

func TestFakeClock_NegativeSleepIgnored(t *testing.T) {
	c := NewFakeClock()
	start := c.Now()

	c.Sleep(-time.Second)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, time.Duration(0), c.Slept())
}

func TestFakeClock_AdvanceDoesNotCountAsSleep(t *testing.T) {
	c := NewFakeClock()
	start := c.Now()

	c.Advance(5 * time.Millisecond)

	assert.Equal(t, start.Add(5*time.Millisecond), c.Now())
	assert.Equal(t, time.Duration(0), c.Slept())
}
