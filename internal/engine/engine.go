package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veldtgames/citadel/internal/audio"
	"github.com/veldtgames/citadel/internal/coord"
	"github.com/veldtgames/citadel/internal/cvar"
	"github.com/veldtgames/citadel/internal/input"
	"github.com/veldtgames/citadel/internal/job"
	"github.com/veldtgames/citadel/internal/render"
	"github.com/veldtgames/citadel/internal/screenshot"
	"github.com/veldtgames/citadel/internal/selection"
)

// Engine is the root object: sole owner of the subsystem bundle, the
// handler registry, and the active game session.
//
// Construct with New, drive with Run, release with Close. Subsystem
// accessors return engine-lifetime references; no subsystem is ever
// swapped after construction.
type Engine struct {
	mode    Mode
	rootDir string
	version string

	presenter render.Presenter
	registry  *registry
	pacer     *FramePacer
	notifier  *Notifier
	coords    *coord.Manager
	text      *render.TextRenderer

	jobs      *job.Manager
	sound     *audio.Manager
	inputs    *input.Manager
	actions   *input.ActionManager
	cvars     *cvar.Manager
	cvarStore *cvar.Store
	shots     *screenshot.Manager
	units     *selection.UnitSelection

	running atomic.Bool
	stopReq atomic.Bool
	phase   Phase

	debugOverlay atomic.Bool
	drawHUD      atomic.Bool

	gameMu     sync.Mutex
	game       Session
	gameHandle *Handle

	closeOnce sync.Once
	closeErr  error
}

// New constructs the engine and all subsystems. Any failure returns an
// InitError and releases whatever was already constructed; the engine
// is not usable after a failed New.
//
// presenter may be nil only in headless mode, where the built-in
// headless presenter is substituted.
func New(cfg Config, presenter render.Presenter) (*Engine, error) {
	c := cfg.withDefaults()

	switch c.Mode {
	case ModeFull, ModeHeadless, ModeLegacy:
	default:
		return nil, newInitError("mode", fmt.Errorf("invalid mode %v", c.Mode))
	}
	if presenter == nil {
		if c.Mode != ModeHeadless {
			return nil, newInitError("presenter", fmt.Errorf("%s mode requires a presenter", c.Mode))
		}
		presenter = render.NewHeadless(c.ViewportW, c.ViewportH)
	}

	e := &Engine{
		mode:      c.Mode,
		rootDir:   c.RootDir,
		version:   c.Version,
		presenter: presenter,
		registry:  newRegistry(),
		pacer:     NewFramePacer(c.Clock, c.FrameBudget),
		notifier:  NewNotifier(),
		coords:    coord.NewManager(c.ViewportW, c.ViewportH),
		actions:   input.NewActionManager(),
		units:     selection.New(),
	}
	e.text = render.NewTextRenderer(presenter)
	e.inputs = input.NewManager(e.actions)
	e.sound = audio.NewManager(c.AudioDevice)
	e.debugOverlay.Store(c.DebugOverlay)
	e.drawHUD.Store(!c.DisableHUD)

	shotDir := c.ScreenshotDir
	if shotDir == "" {
		shotDir = filepath.Join(c.RootDir, "screenshots")
	}
	shots, err := screenshot.NewManager(shotDir)
	if err != nil {
		e.releasePartial()
		return nil, newInitError("screenshot", err)
	}
	e.shots = shots

	e.cvars = cvar.NewManager()
	if err := e.registerCVars(c); err != nil {
		e.releasePartial()
		return nil, newInitError("cvar", err)
	}
	if c.CVarDB != "" {
		store, err := cvar.OpenStore(c.CVarDB)
		if err != nil {
			e.releasePartial()
			return nil, newInitError("cvar store", err)
		}
		e.cvarStore = store
		if err := store.Load(context.Background(), e.cvars); err != nil {
			e.releasePartial()
			return nil, newInitError("cvar store", err)
		}
	}

	e.jobs = job.NewManager(c.Workers)

	e.bindDefaults()
	if c.BindingProfile != "" {
		if err := e.inputs.Global().LoadProfile(c.BindingProfile, e.actions); err != nil {
			e.releasePartial()
			return nil, newInitError("binding profile", err)
		}
	}

	// The input manager sits first in the input chain: bound actions
	// claim their events before any game or presentation handler.
	e.RegisterInputAction(InputFunc(e.inputs.HandleEvent))

	slog.Info("engine constructed",
		"mode", e.mode,
		"root", e.rootDir,
		"version", e.version,
		"workers", e.jobs.Workers(),
	)
	e.AnnounceGlobalBinds()
	return e, nil
}

// registerCVars exposes the engine options as command variables so they
// are tunable at runtime and persist across runs.
func (e *Engine) registerCVars(c Config) error {
	regs := []func() error{
		func() error {
			_, err := e.cvars.RegisterBool("engine.debug_overlay", c.DebugOverlay,
				"draw version and FPS each frame",
				func(v bool) { e.debugOverlay.Store(v) })
			return err
		},
		func() error {
			_, err := e.cvars.RegisterBool("engine.draw_hud", !c.DisableHUD,
				"run HUD draw handlers",
				func(v bool) { e.drawHUD.Store(v) })
			return err
		},
		func() error {
			_, err := e.cvars.RegisterInt("engine.fps_cap", budgetToFPS(c.FrameBudget),
				"frame rate ceiling, 0 = uncapped",
				func(v int64) { e.pacer.SetBudget(fpsToBudget(v)) })
			return err
		},
		func() error {
			_, err := e.cvars.RegisterInt("audio.master", 100, "master volume 0-100",
				func(v int64) { e.sound.SetMaster(int(v)) })
			return err
		},
		func() error {
			_, err := e.cvars.RegisterInt("audio.music", 100, "music volume 0-100",
				func(v int64) { e.sound.SetVolume(audio.CategoryMusic, int(v)) })
			return err
		},
		func() error {
			_, err := e.cvars.RegisterInt("audio.effects", 100, "effects volume 0-100",
				func(v int64) { e.sound.SetVolume(audio.CategoryEffects, int(v)) })
			return err
		},
		func() error {
			_, err := e.cvars.RegisterInt("audio.ui", 100, "ui volume 0-100",
				func(v int64) { e.sound.SetVolume(audio.CategoryUI, int(v)) })
			return err
		},
	}
	for _, reg := range regs {
		if err := reg(); err != nil {
			return err
		}
	}
	return nil
}

// bindDefaults installs the engine's default key bindings and the
// callbacks behind the built-in actions. A binding profile may rebind
// the chords; the actions themselves are fixed.
func (e *Engine) bindDefaults() {
	g := e.inputs.Global()
	bind := func(chord, action string) {
		b, err := input.ParseChord(chord)
		if err != nil {
			panic(fmt.Sprintf("engine: bad default chord %q: %v", chord, err))
		}
		g.Bind(b, e.actions.MustGet(action))
	}
	bind("ctrl+q", "quit")
	bind("escape", "stop_game")
	bind("f1", "toggle_hud")
	bind("f2", "screenshot")
	bind("f3", "toggle_debug_overlay")
	bind("up", "camera_up")
	bind("down", "camera_down")
	bind("left", "camera_left")
	bind("right", "camera_right")

	on := func(action string, fn func(input.Event) bool) {
		e.inputs.OnAction(e.actions.MustGet(action), fn)
	}
	on("quit", func(input.Event) bool { e.Stop(); return true })
	on("stop_game", func(input.Event) bool { e.EndGame(); return true })
	on("screenshot", func(input.Event) bool { e.shots.RequestCapture(); return true })
	on("toggle_hud", func(input.Event) bool {
		e.setBoolCVar("engine.draw_hud", !e.drawHUD.Load())
		return true
	})
	on("toggle_debug_overlay", func(input.Event) bool {
		e.setBoolCVar("engine.debug_overlay", !e.debugOverlay.Load())
		return true
	})

	camera := func(dx, dy float32) func(input.Event) bool {
		return func(input.Event) bool {
			// scale by the last frame's duration for rate independence
			amount := float32(e.pacer.LastFrameDuration().Seconds()) * cameraSpeed
			e.coords.MoveCamera(dx, dy, amount)
			return true
		}
	}
	on("camera_up", camera(0, 1))
	on("camera_down", camera(0, -1))
	on("camera_left", camera(-1, 0))
	on("camera_right", camera(1, 0))
}

// cameraSpeed is in world units per second of frame time.
const cameraSpeed = 600

func (e *Engine) setBoolCVar(name string, v bool) {
	if err := e.cvars.Set(name, fmt.Sprintf("%t", v)); err != nil {
		slog.Error("cvar toggle failed", "name", name, "error", err)
	}
}

func budgetToFPS(budget time.Duration) int64 {
	if budget <= 0 {
		return 0
	}
	return int64(time.Second / budget)
}

func fpsToBudget(fps int64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Second / time.Duration(fps)
}

// Handler registration. Additions take effect at the next frame
// boundary; duplicate registration of the same handler is permitted and
// results in duplicate invocation.

// RegisterInputAction registers an input handler, run for each polled
// event until one claims it.
func (e *Engine) RegisterInputAction(h InputHandler) *Registration {
	return e.registry.registerInput(h)
}

// RegisterTickAction registers a tick handler, run once per frame.
func (e *Engine) RegisterTickAction(h TickHandler) *Registration {
	return e.registry.registerTick(h)
}

// RegisterDrawAction registers a world-space draw handler.
func (e *Engine) RegisterDrawAction(h DrawHandler) *Registration {
	return e.registry.registerDraw(h)
}

// RegisterDrawHUDAction registers a HUD handler. order controls
// compositing: higher orders draw later, on top; ties break by
// registration order.
func (e *Engine) RegisterDrawHUDAction(h HudHandler, order int) *Registration {
	return e.registry.registerHUD(h, order)
}

// RegisterResizeAction registers a resize handler.
func (e *Engine) RegisterResizeAction(h ResizeHandler) *Registration {
	return e.registry.registerResize(h)
}

// Subsystem accessors. References are valid for the engine's lifetime;
// the engine retains sole ownership.

func (e *Engine) Mode() Mode                          { return e.mode }
func (e *Engine) RootDir() string                     { return e.rootDir }
func (e *Engine) Version() string                     { return e.version }
func (e *Engine) JobManager() *job.Manager            { return e.jobs }
func (e *Engine) AudioManager() *audio.Manager        { return e.sound }
func (e *Engine) InputManager() *input.Manager        { return e.inputs }
func (e *Engine) ActionManager() *input.ActionManager { return e.actions }
func (e *Engine) CVarManager() *cvar.Manager          { return e.cvars }
func (e *Engine) ScreenshotManager() *screenshot.Manager {
	return e.shots
}
func (e *Engine) UnitSelection() *selection.UnitSelection { return e.units }
func (e *Engine) TextRenderer() *render.TextRenderer      { return e.text }
func (e *Engine) Coord() *coord.Manager                   { return e.coords }
func (e *Engine) Notifications() *Notifier                { return e.notifier }

// MovePhysCamera moves the world camera by the direction (x, y) scaled
// by amount, in world units. Exposed for presentation layers that drive
// the camera directly instead of through the bound camera actions.
func (e *Engine) MovePhysCamera(x, y, amount float32) {
	e.coords.MoveCamera(x, y, amount)
}

// LastFrameDuration returns the duration of the most recently completed
// frame, for frame-rate independent scaling.
func (e *Engine) LastFrameDuration() time.Duration {
	return e.pacer.LastFrameDuration()
}

// FPS returns the measured frame rate over the recent window.
func (e *Engine) FPS() float64 { return e.pacer.FPS() }

// AnnounceGlobalBinds publishes the current human-readable key-binding
// summary through the notification channel. Fire-and-forget.
func (e *Engine) AnnounceGlobalBinds() {
	e.notifier.Publish(e.inputs.GlobalBindsText())
}

// releasePartial tears down what a failed New already built.
func (e *Engine) releasePartial() {
	if e.jobs != nil {
		e.jobs.Close()
	}
	if e.cvarStore != nil {
		e.cvarStore.Close()
	}
	e.sound.Close()
}

// Close releases the engine: active session, workers, audio, cvar
// persistence, and finally the presentation surface, in reverse
// dependency order. Idempotent.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		var errs []error

		e.EndGame()
		e.jobs.Close()
		if err := e.sound.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audio: %w", err))
		}
		if e.cvarStore != nil {
			if err := e.cvarStore.Save(context.Background(), e.cvars); err != nil {
				errs = append(errs, fmt.Errorf("save cvars: %w", err))
			}
			if err := e.cvarStore.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close cvar store: %w", err))
			}
		}
		if err := e.presenter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close presenter: %w", err))
		}
		e.closeErr = errors.Join(errs...)
		slog.Info("engine closed")
	})
	return e.closeErr
}
