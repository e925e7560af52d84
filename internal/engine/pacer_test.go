package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veldtgames/citadel/internal/testutil"
)

func TestFramePacer_SleepsRemainderOfBudget(t *testing.T) {
	clk := testutil.NewFakeClock()
	p := NewFramePacer(clk, 16*time.Millisecond)

	p.StartFrame()
	clk.Advance(5 * time.Millisecond) // frame body
	p.EndFrame()

	assert.Equal(t, 11*time.Millisecond, clk.Slept())
	// The recorded duration includes the pacing sleep.
	assert.Equal(t, 16*time.Millisecond, p.LastFrameDuration())
}

func TestFramePacer_OverBudgetFrameDoesNotSleep(t *testing.T) {
	clk := testutil.NewFakeClock()
	p := NewFramePacer(clk, 16*time.Millisecond)

	p.StartFrame()
	clk.Advance(20 * time.Millisecond)
	p.EndFrame()

	assert.Equal(t, time.Duration(0), clk.Slept())
	assert.Equal(t, 20*time.Millisecond, p.LastFrameDuration())
}

func TestFramePacer_ZeroBudgetDisablesCapping(t *testing.T) {
	clk := testutil.NewFakeClock()
	p := NewFramePacer(clk, 0)

	p.StartFrame()
	clk.Advance(2 * time.Millisecond)
	p.EndFrame()

	assert.Equal(t, time.Duration(0), clk.Slept())
	assert.Equal(t, 2*time.Millisecond, p.LastFrameDuration())
}

func TestFramePacer_SetBudget_NegativeTreatedAsZero(t *testing.T) {
	p := NewFramePacer(testutil.NewFakeClock(), 16*time.Millisecond)
	p.SetBudget(-1)
	assert.Equal(t, time.Duration(0), p.Budget())
}

func TestFramePacer_SetBudget_TakesEffectNextFrame(t *testing.T) {
	clk := testutil.NewFakeClock()
	p := NewFramePacer(clk, 0)

	p.SetBudget(10 * time.Millisecond)
	p.StartFrame()
	clk.Advance(1 * time.Millisecond)
	p.EndFrame()

	assert.Equal(t, 9*time.Millisecond, clk.Slept())
}

func TestFramePacer_FPS_AveragesOverWindow(t *testing.T) {
	clk := testutil.NewFakeClock()
	p := NewFramePacer(clk, 0)

	for i := 0; i < 10; i++ {
		p.StartFrame()
		clk.Advance(10 * time.Millisecond)
		p.EndFrame()
	}

	assert.InDelta(t, 100.0, p.FPS(), 0.01)
}

func TestFramePacer_FPS_ZeroBeforeFirstFrame(t *testing.T) {
	p := NewFramePacer(testutil.NewFakeClock(), 0)
	assert.Equal(t, 0.0, p.FPS())
}

func TestFramePacer_FPS_WindowEvictsOldFrames(t *testing.T) {
	clk := testutil.NewFakeClock()
	p := NewFramePacer(clk, 0)

	// Fill the window with slow frames, then overwrite it entirely with
	// fast ones; the average must reflect only the recent window.
	for i := 0; i < fpsWindow; i++ {
		p.StartFrame()
		clk.Advance(100 * time.Millisecond)
		p.EndFrame()
	}
	for i := 0; i < fpsWindow; i++ {
		p.StartFrame()
		clk.Advance(10 * time.Millisecond)
		p.EndFrame()
	}

	assert.InDelta(t, 100.0, p.FPS(), 0.01)
}

func TestBudgetFPSConversion(t *testing.T) {
	assert.Equal(t, int64(60), budgetToFPS(time.Second/60))
	assert.Equal(t, int64(0), budgetToFPS(0))
	assert.Equal(t, time.Second/144, fpsToBudget(144))
	assert.Equal(t, time.Duration(0), fpsToBudget(0))
	assert.Equal(t, time.Duration(0), fpsToBudget(-5))
}
