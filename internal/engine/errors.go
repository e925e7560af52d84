package engine

import (
	"errors"
	"fmt"
)

// Phase names the loop phase in which a failure occurred.
type Phase string

const (
	PhaseInput   Phase = "input"
	PhaseTick    Phase = "tick"
	PhaseDraw    Phase = "draw"
	PhaseHUD     Phase = "hud"
	PhasePresent Phase = "present"
)

// InitError is raised when a subsystem or the presentation boundary
// fails to construct. It is fatal: the engine is not usable and New
// returns it directly.
type InitError struct {
	Subsystem string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("engine init: %s: %v", e.Subsystem, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// IsInitError reports whether err is an initialization failure.
func IsInitError(err error) bool {
	var ie *InitError
	return errors.As(err, &ie)
}

func newInitError(subsystem string, err error) *InitError {
	return &InitError{Subsystem: subsystem, Err: err}
}

// HandlerError is raised when a registered handler panics during
// dispatch. Handlers are trusted game/presentation code, so this is
// fatal to the run: the loop converts the panic into a HandlerError and
// unwinds out of Run.
type HandlerError struct {
	Phase     Phase
	Recovered any
	Stack     string
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler failure in %s phase: %v", e.Phase, e.Recovered)
}

// IsHandlerError reports whether err is a handler failure.
func IsHandlerError(err error) bool {
	var he *HandlerError
	return errors.As(err, &he)
}

// PresentError wraps a failure at the presentation boundary. I/O errors
// from presenting surface out of Run and terminate it.
type PresentError struct {
	Err error
}

func (e *PresentError) Error() string {
	return fmt.Sprintf("present frame: %v", e.Err)
}

func (e *PresentError) Unwrap() error { return e.Err }
