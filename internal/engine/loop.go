package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/veldtgames/citadel/internal/input"
	"github.com/veldtgames/citadel/internal/render"
)

// Run enters the frame loop and blocks the calling goroutine until Stop
// is observed, the context is cancelled, or a fatal error occurs.
//
// Exactly one goroutine may run the loop; a second concurrent Run is an
// error. Cancellation is cooperative: it is checked once per loop
// iteration, and in-flight frame work always completes.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("engine already running")
	}
	defer e.running.Store(false)
	e.stopReq.Store(false)

	slog.Info("engine loop starting", "mode", e.mode)
	for {
		if e.stopReq.Load() {
			slog.Info("engine loop stopping: stop requested")
			return nil
		}
		if err := ctx.Err(); err != nil {
			slog.Info("engine loop stopping: context cancelled")
			return err
		}
		if err := e.frame(); err != nil {
			slog.Error("engine loop stopping", "error", err)
			return err
		}
	}
}

// Stop requests loop termination. It takes effect at the next
// loop-boundary check, not immediately. Idempotent and safe from any
// goroutine, including handlers.
func (e *Engine) Stop() {
	e.stopReq.Store(true)
}

// Running reports whether the loop is executing.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// frame executes one loop iteration with the fixed phase order. A
// handler panic is converted into a HandlerError carrying the phase; it
// is not swallowed.
func (e *Engine) frame() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{
				Phase:     e.phase,
				Recovered: r,
				Stack:     string(debug.Stack()),
			}
		}
	}()

	// Frame boundary: fold deferred handler additions and removals.
	e.registry.applyPending()
	e.pacer.StartFrame()

	// Phase 1: input. Each polled event walks the input chain in
	// registration order until a handler claims it. Resize and quit
	// events are routed by the engine itself.
	e.phase = PhaseInput
	events, err := e.presenter.PollEvents()
	if err != nil {
		return fmt.Errorf("poll events: %w", err)
	}
	for _, ev := range events {
		switch ev.Kind {
		case input.KindQuit:
			e.Stop()
		case input.KindResize:
			e.coords.Resize(ev.DeltaW, ev.DeltaH)
			e.registry.dispatchResize(ev.DeltaW, ev.DeltaH)
		default:
			e.registry.dispatchInput(ev)
		}
	}

	// Phase 2: tick. Completed background jobs are delivered first, so
	// tick handlers observe asynchronous results exactly here and
	// never mid-draw.
	e.phase = PhaseTick
	e.jobs.Drain()
	e.registry.dispatchTick()

	// Phase 3: world-space drawing.
	e.phase = PhaseDraw
	e.presenter.SetWorldFrame(e.coords.WorldMatrix())
	e.registry.dispatchDraw()

	// Phase 4: overlay drawing. HUD handlers run by order tag unless
	// HUD drawing is disabled; the debug overlay is independent.
	e.phase = PhaseHUD
	w, h := e.coords.Size()
	e.presenter.SetHUDFrame(w, h)
	if e.drawHUD.Load() {
		e.registry.dispatchHUD()
	}
	if e.debugOverlay.Load() {
		e.text.Render(10, 20, 12, render.Yellow, "%s",
			render.OverlayLine(e.version, e.pacer.FPS()))
	}
	e.text.Flush()

	// Phase 5: present, then honor a pending screenshot request
	// against the frame that was just shown.
	e.phase = PhasePresent
	if err := e.presenter.Present(); err != nil {
		return &PresentError{Err: err}
	}
	if e.shots.TakeRequest() {
		img, err := e.presenter.CaptureFrame()
		if err != nil {
			slog.Warn("screenshot capture failed", "error", err)
		} else if _, err := e.shots.Write(img); err != nil {
			slog.Warn("screenshot write failed", "error", err)
		}
	}

	// Phase 6: pacing.
	e.pacer.EndFrame()
	return nil
}
