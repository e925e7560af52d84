package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock abstracts wall time and sleeping so pacing is testable without
// real delays. The engine uses WallClock; tests substitute a fake.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// WallClock is the production clock.
type WallClock struct{}

func (WallClock) Now() time.Time        { return time.Now() }
func (WallClock) Sleep(d time.Duration) { time.Sleep(d) }

// fpsWindow is how many recent frames the FPS measurement averages
// over. Display-only smoothing; simulation code must use the last-frame
// duration instead.
const fpsWindow = 64

// FramePacer enforces the frame budget and measures frame timing.
//
// StartFrame and EndFrame are called from the loop goroutine only.
// LastFrameDuration, FPS and the budget accessors are safe from any
// goroutine, since handlers and diagnostics read them freely.
type FramePacer struct {
	clk Clock

	// nanoseconds a frame must occupy; 0 disables capping
	budget atomic.Int64

	frameStart time.Time
	lastFrame  atomic.Int64 // ns, including the pacing sleep

	mu      sync.Mutex
	window  [fpsWindow]time.Duration
	wIdx    int
	wCount  int
	wTotal  time.Duration
}

// NewFramePacer creates a pacer on the given clock with the given
// initial frame budget.
func NewFramePacer(clk Clock, budget time.Duration) *FramePacer {
	p := &FramePacer{clk: clk}
	p.budget.Store(int64(budget))
	return p
}

// SetBudget changes the frame budget. Zero disables capping. Negative
// values are treated as zero.
func (p *FramePacer) SetBudget(budget time.Duration) {
	if budget < 0 {
		budget = 0
	}
	p.budget.Store(int64(budget))
}

// Budget returns the configured frame budget.
func (p *FramePacer) Budget() time.Duration {
	return time.Duration(p.budget.Load())
}

// StartFrame records the frame's start timestamp.
func (p *FramePacer) StartFrame() {
	p.frameStart = p.clk.Now()
}

// EndFrame finishes the frame: if a budget is configured and the frame
// body ran under it, the loop goroutine sleeps for the remainder. The
// recorded frame duration includes that sleep, so frame-rate
// independent scaling sees the real inter-frame interval.
func (p *FramePacer) EndFrame() {
	elapsed := p.clk.Now().Sub(p.frameStart)
	if budget := p.Budget(); budget > 0 && elapsed < budget {
		p.clk.Sleep(budget - elapsed)
		elapsed = p.clk.Now().Sub(p.frameStart)
	}
	p.lastFrame.Store(int64(elapsed))
	p.record(elapsed)
}

// LastFrameDuration returns the measured duration of the most recently
// completed frame. Simulation handlers use this for frame-rate
// independent scaling.
func (p *FramePacer) LastFrameDuration() time.Duration {
	return time.Duration(p.lastFrame.Load())
}

// FPS returns the frame rate averaged over the recent window. For
// display and debug only.
func (p *FramePacer) FPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.wCount == 0 || p.wTotal <= 0 {
		return 0
	}
	return float64(p.wCount) / p.wTotal.Seconds()
}

func (p *FramePacer) record(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.wCount == fpsWindow {
		p.wTotal -= p.window[p.wIdx]
	} else {
		p.wCount++
	}
	p.window[p.wIdx] = d
	p.wTotal += d
	p.wIdx = (p.wIdx + 1) % fpsWindow
}
