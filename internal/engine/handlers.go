package engine

import "github.com/veldtgames/citadel/internal/input"

// The four-plus-one handler capabilities game and presentation code
// registers with the engine. Handlers are invoked only from the loop
// goroutine; they may freely touch engine-owned state. A handler that
// panics is fatal to the run - handlers are trusted code and the loop
// does not sandbox them.

// InputHandler consumes one external event. Returning true stops
// propagation to handlers registered after it.
type InputHandler interface {
	OnInput(ev input.Event) bool
}

// TickHandler performs per-frame state updates. Tick handlers run after
// input delivery and after background job results have been drained, so
// they observe a consistent world.
type TickHandler interface {
	OnTick()
}

// DrawHandler draws against the world coordinate frame.
type DrawHandler interface {
	OnDraw()
}

// HudHandler draws against the overlay coordinate frame. HUD handlers
// carry an order tag: higher orders draw later, on top.
type HudHandler interface {
	OnDrawHUD()
}

// ResizeHandler receives viewport size deltas. Returning true stops
// propagation.
type ResizeHandler interface {
	OnResize(dw, dh int) bool
}

// Function adapters for the handler capabilities.

type InputFunc func(ev input.Event) bool

func (f InputFunc) OnInput(ev input.Event) bool { return f(ev) }

type TickFunc func()

func (f TickFunc) OnTick() { f() }

type DrawFunc func()

func (f DrawFunc) OnDraw() { f() }

type HudFunc func()

func (f HudFunc) OnDrawHUD() { f() }

type ResizeFunc func(dw, dh int) bool

func (f ResizeFunc) OnResize(dw, dh int) bool { return f(dw, dh) }
