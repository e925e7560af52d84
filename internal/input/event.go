package input

import "fmt"

// EventKind distinguishes the external event classes the engine polls
// each frame from the presentation boundary.
type EventKind int

const (
	// KindKeyDown is a key press.
	KindKeyDown EventKind = iota + 1
	// KindKeyUp is a key release.
	KindKeyUp
	// KindMouseDown is a mouse button press.
	KindMouseDown
	// KindMouseUp is a mouse button release.
	KindMouseUp
	// KindMouseMove is a pointer motion event.
	KindMouseMove
	// KindWheel is a scroll wheel event.
	KindWheel
	// KindResize is a window resize; Delta carries the size change.
	KindResize
	// KindQuit is a window-close request from the presentation layer.
	KindQuit
)

// Modifiers is a bitmask of modifier keys held during an event.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModShift
	ModAlt
)

// Key is a backend-neutral key or button name, e.g. "a", "f5", "space",
// "mouse_left", "mouse_right". Names are lowercase ASCII.
type Key string

// Event is one external input event.
//
// The engine polls a batch of events from the presenter once per frame
// and walks its input handler chain for each.
type Event struct {
	Kind EventKind
	Key  Key
	Mods Modifiers

	// Pointer position in viewport pixels (mouse events).
	X, Y int

	// Wheel scroll amount (wheel events).
	WheelY int

	// Viewport size change (resize events).
	DeltaW, DeltaH int
}

// String returns a short human-readable form, used in logs.
func (e Event) String() string {
	switch e.Kind {
	case KindKeyDown, KindKeyUp:
		return fmt.Sprintf("key(%s%s)", modPrefix(e.Mods), e.Key)
	case KindMouseDown, KindMouseUp, KindMouseMove:
		return fmt.Sprintf("mouse(%s@%d,%d)", e.Key, e.X, e.Y)
	case KindWheel:
		return fmt.Sprintf("wheel(%+d)", e.WheelY)
	case KindResize:
		return fmt.Sprintf("resize(%+d,%+d)", e.DeltaW, e.DeltaH)
	case KindQuit:
		return "quit"
	default:
		return fmt.Sprintf("event(kind=%d)", int(e.Kind))
	}
}

func modPrefix(m Modifiers) string {
	s := ""
	if m&ModCtrl != 0 {
		s += "ctrl+"
	}
	if m&ModShift != 0 {
		s += "shift+"
	}
	if m&ModAlt != 0 {
		s += "alt+"
	}
	return s
}
