// Package config loads the engine configuration: defaults, then the
// YAML file, then CITADEL_* environment overrides. The merged result is
// validated against an embedded CUE schema before anything consumes it,
// so a bad mode or a negative frame cap fails at startup with a precise
// message instead of surfacing as engine misbehavior.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// File is the merged engine configuration.
type File struct {
	Mode           string `yaml:"mode" json:"mode" env:"CITADEL_MODE"`
	FPSCap         int    `yaml:"fps_cap" json:"fps_cap" env:"CITADEL_FPS_CAP"`
	DataDir        string `yaml:"data_dir" json:"data_dir" env:"CITADEL_DATA_DIR"`
	ScreenshotDir  string `yaml:"screenshot_dir" json:"screenshot_dir" env:"CITADEL_SCREENSHOT_DIR"`
	CVarDB         string `yaml:"cvar_db" json:"cvar_db" env:"CITADEL_CVAR_DB"`
	BindingProfile string `yaml:"binding_profile" json:"binding_profile" env:"CITADEL_BINDING_PROFILE"`
	DebugOverlay   bool   `yaml:"debug_overlay" json:"debug_overlay" env:"CITADEL_DEBUG_OVERLAY"`
	DisableHUD     bool   `yaml:"disable_hud" json:"disable_hud" env:"CITADEL_DISABLE_HUD"`
	Workers        int    `yaml:"workers" json:"workers" env:"CITADEL_WORKERS"`
	ViewportW      int    `yaml:"viewport_w" json:"viewport_w" env:"CITADEL_VIEWPORT_W"`
	ViewportH      int    `yaml:"viewport_h" json:"viewport_h" env:"CITADEL_VIEWPORT_H"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Mode:      "headless",
		FPSCap:    60,
		DataDir:   ".",
		ViewportW: 800,
		ViewportH: 600,
	}
}

// Load merges defaults, the optional YAML file at path, and environment
// overrides, then validates the result.
func Load(path string) (File, error) {
	f := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return File{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return File{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&f); err != nil {
		return File{}, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate unifies the configuration with the embedded CUE schema.
func (f File) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return fmt.Errorf("config schema: #Config not found")
	}

	val := ctx.Encode(f)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", errors.Details(err, nil))
	}
	return nil
}
