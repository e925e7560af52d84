package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/veldtgames/citadel/internal/input"
)

// Session is one running game. The engine owns the active session
// exclusively from StartGame until EndGame; at most one session exists
// at a time, and a new session never coexists with the old one - the
// old one is torn down first.
type Session interface {
	// Start wires the session into the engine. All handler and binding
	// registration must go through the handle so teardown can undo it.
	Start(h *Handle) error

	// Stop releases session-owned resources. Handler removal is the
	// engine's job via the handle; Stop must not block on it.
	Stop()
}

// Generator produces a fully-constructed session. Construction
// parameters are the generator's own concern.
type Generator interface {
	Generate() (Session, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func() (Session, error)

func (f GeneratorFunc) Generate() (Session, error) { return f() }

// Handle is the session-scoped registrar. Every registration made
// through it is tracked and removed when the session ends, so a session
// cannot leave handlers dangling.
type Handle struct {
	eng *Engine
	id  uuid.UUID

	mu       sync.Mutex
	regs     []*Registration
	inputCtx *input.Context
}

// ID returns the session instance's unique identifier.
func (h *Handle) ID() uuid.UUID { return h.id }

// Engine exposes the subsystem bundle to the session.
func (h *Handle) Engine() *Engine { return h.eng }

// RegisterInputAction registers a session input handler.
func (h *Handle) RegisterInputAction(hd InputHandler) *Registration {
	return h.track(h.eng.RegisterInputAction(hd))
}

// RegisterTickAction registers a session tick handler.
func (h *Handle) RegisterTickAction(hd TickHandler) *Registration {
	return h.track(h.eng.RegisterTickAction(hd))
}

// RegisterDrawAction registers a session world-space draw handler.
func (h *Handle) RegisterDrawAction(hd DrawHandler) *Registration {
	return h.track(h.eng.RegisterDrawAction(hd))
}

// RegisterDrawHUDAction registers a session HUD handler with a
// compositing order tag.
func (h *Handle) RegisterDrawHUDAction(hd HudHandler, order int) *Registration {
	return h.track(h.eng.RegisterDrawHUDAction(hd, order))
}

// RegisterResizeAction registers a session resize handler.
func (h *Handle) RegisterResizeAction(hd ResizeHandler) *Registration {
	return h.track(h.eng.RegisterResizeAction(hd))
}

// BindContext returns the session's key-binding context, creating and
// pushing it onto the input stack on first use. The context is popped
// when the session ends.
func (h *Handle) BindContext() *input.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inputCtx == nil {
		h.inputCtx = input.NewContext("session")
		h.eng.InputManager().Push(h.inputCtx)
	}
	return h.inputCtx
}

func (h *Handle) track(r *Registration) *Registration {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.regs = append(h.regs, r)
	return r
}

// release removes every registration the session made and pops its
// binding context. Handler removal is deferred to the next frame
// boundary like any other removal.
func (h *Handle) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.regs {
		r.Remove()
	}
	h.regs = nil
	if h.inputCtx != nil {
		h.eng.InputManager().Pop(h.inputCtx)
		h.inputCtx = nil
	}
}

// StartGame installs a session as the active game, tearing down the
// current one first. Ownership of the session transfers to the engine.
// Safe to call from handlers (the loop goroutine) or before Run.
func (e *Engine) StartGame(s Session) error {
	if s == nil {
		return fmt.Errorf("start game: nil session")
	}
	e.gameMu.Lock()
	defer e.gameMu.Unlock()

	if e.game != nil {
		e.teardownGameLocked()
	}

	h := &Handle{eng: e, id: uuid.Must(uuid.NewV7())}
	if err := s.Start(h); err != nil {
		h.release()
		return fmt.Errorf("start game: %w", err)
	}
	e.game = s
	e.gameHandle = h
	slog.Info("game session started", "session", h.id)
	return nil
}

// StartGameFrom generates a session with the given generator and
// installs it.
func (e *Engine) StartGameFrom(g Generator) error {
	s, err := g.Generate()
	if err != nil {
		return fmt.Errorf("generate game: %w", err)
	}
	return e.StartGame(s)
}

// EndGame tears down the active session. No-op when no session is
// active.
func (e *Engine) EndGame() {
	e.gameMu.Lock()
	defer e.gameMu.Unlock()
	if e.game == nil {
		return
	}
	e.teardownGameLocked()
}

// Game returns the active session for observation, or nil. The engine
// retains ownership.
func (e *Engine) Game() Session {
	e.gameMu.Lock()
	defer e.gameMu.Unlock()
	return e.game
}

func (e *Engine) teardownGameLocked() {
	id := e.gameHandle.id
	e.game.Stop()
	e.gameHandle.release()
	e.units.Clear()
	e.game = nil
	e.gameHandle = nil
	slog.Info("game session ended", "session", id)
}
