package engine

import (
	"fmt"
	"time"

	"github.com/veldtgames/citadel/internal/audio"
)

// Mode selects how the engine is constructed. It is fixed for the
// engine's lifetime.
type Mode int

const (
	// ModeFull is the interactive mode: a real window and presentation
	// boundary are required.
	ModeFull Mode = iota + 1
	// ModeHeadless runs without a window, for automated and batch use.
	ModeHeadless
	// ModeLegacy is the compatibility mode for the old presentation
	// stack. It behaves like ModeFull at this layer.
	ModeLegacy
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeHeadless:
		return "headless"
	case ModeLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode resolves a mode name from config or flags.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "full":
		return ModeFull, nil
	case "headless":
		return ModeHeadless, nil
	case "legacy":
		return ModeLegacy, nil
	default:
		return 0, fmt.Errorf("unknown engine mode %q (full|headless|legacy)", s)
	}
}

// Config carries everything New needs. Zero values are usable for
// tests: headless mode must be set explicitly, everything else has a
// sensible default.
type Config struct {
	Mode    Mode
	RootDir string
	Version string

	// FrameBudget is the minimum duration one frame occupies.
	// 0 disables frame capping.
	FrameBudget time.Duration

	// DebugOverlay draws the version string and measured FPS each
	// frame when true. Runtime-togglable via cvar and input action.
	DebugOverlay bool

	// DisableHUD skips all HUD handlers when true. The debug overlay
	// is independent of this flag.
	DisableHUD bool

	// Initial viewport size; defaults to 800x600.
	ViewportW, ViewportH int

	// Background worker count; <= 0 selects GOMAXPROCS.
	Workers int

	// ScreenshotDir defaults to <RootDir>/screenshots.
	ScreenshotDir string

	// CVarDB is the SQLite path for cvar persistence; empty disables
	// persistence.
	CVarDB string

	// BindingProfile is an optional YAML key-binding profile applied
	// over the engine defaults.
	BindingProfile string

	// AudioDevice is the external mixer; nil selects the null device.
	AudioDevice audio.Device

	// Clock overrides wall time for tests; nil selects WallClock.
	Clock Clock
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ViewportW <= 0 {
		out.ViewportW = 800
	}
	if out.ViewportH <= 0 {
		out.ViewportH = 600
	}
	if out.RootDir == "" {
		out.RootDir = "."
	}
	if out.Version == "" {
		out.Version = "dev"
	}
	if out.Clock == nil {
		out.Clock = WallClock{}
	}
	if out.AudioDevice == nil {
		out.AudioDevice = audio.NewNullDevice()
	}
	return out
}
