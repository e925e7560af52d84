// Package render defines the presentation boundary the engine draws
// through, plus the small drawing services the engine itself owns (text
// queue, debug overlay formatting).
//
// The rasterization pipeline, window and context creation live outside
// this module; the engine only talks to a Presenter.
package render

import (
	"image"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/veldtgames/citadel/internal/input"
)

// Presenter is the externally-supplied window/surface boundary.
//
// All methods are called from the engine loop goroutine only. PollEvents
// may block briefly waiting for the next event batch but must return
// promptly each frame. Errors from Present are fatal to the run.
type Presenter interface {
	// PollEvents drains the pending external events.
	PollEvents() ([]input.Event, error)

	// SetWorldFrame binds the world-space coordinate frame for the
	// following draw calls.
	SetWorldFrame(worldToClip mgl32.Mat4)

	// SetHUDFrame binds the overlay coordinate frame (viewport pixels).
	SetHUDFrame(width, height int)

	// DrawText renders a text run at a viewport position. Used by the
	// engine's text renderer during the HUD pass.
	DrawText(x, y int, size int, color Color, text string)

	// Present hands the finished frame to the display.
	Present() error

	// CaptureFrame returns the current framebuffer contents, used by
	// the screenshot subsystem.
	CaptureFrame() (image.Image, error)

	// Close releases the window/surface. Called once at engine teardown.
	Close() error
}

// Headless is the presenter used in headless mode: it accepts every
// call, produces no output, and never has events pending.
//
// Tests use it directly; the text draws of the most recent frame are
// retained for inspection.
type Headless struct {
	mu     sync.Mutex
	width  int
	height int
	closed bool
	frames int

	// queued events handed out on the next PollEvents call
	pending []input.Event

	// text draws since the last Present
	texts []TextDraw

	// text draws of the most recently presented frame
	presented []TextDraw
}

// TextDraw records one DrawText call.
type TextDraw struct {
	X, Y  int
	Size  int
	Color Color
	Text  string
}

// NewHeadless creates a headless presenter with a nominal viewport.
func NewHeadless(width, height int) *Headless {
	return &Headless{width: width, height: height}
}

// Inject queues events to be returned by the next PollEvents call.
// Test hook; the real presenter gets its events from the window system.
func (h *Headless) Inject(evs ...input.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, evs...)
}

func (h *Headless) PollEvents() ([]input.Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	evs := h.pending
	h.pending = nil
	return evs, nil
}

func (h *Headless) SetWorldFrame(mgl32.Mat4) {}

func (h *Headless) SetHUDFrame(width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width = width
	h.height = height
}

func (h *Headless) DrawText(x, y int, size int, color Color, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.texts = append(h.texts, TextDraw{X: x, Y: y, Size: size, Color: color, Text: text})
}

func (h *Headless) Present() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames++
	h.presented = h.texts
	h.texts = nil
	return nil
}

func (h *Headless) CaptureFrame() (image.Image, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return image.NewRGBA(image.Rect(0, 0, h.width, h.height)), nil
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Frames returns how many frames were presented.
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

// Closed reports whether Close was called.
func (h *Headless) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Texts returns the text draws queued since the last Present.
func (h *Headless) Texts() []TextDraw {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]TextDraw, len(h.texts))
	copy(out, h.texts)
	return out
}

// PresentedTexts returns the text draws of the most recently presented
// frame.
func (h *Headless) PresentedTexts() []TextDraw {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]TextDraw, len(h.presented))
	copy(out, h.presented)
	return out
}
