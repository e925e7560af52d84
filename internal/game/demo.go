// Package game contains the built-in demo session used by the headless
// run command and the integration tests. It exercises the full session
// contract: handler registration through the session handle, a session
// binding context, background work via the job manager, and the shared
// unit selection.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/veldtgames/citadel/internal/coord"
	"github.com/veldtgames/citadel/internal/engine"
	"github.com/veldtgames/citadel/internal/input"
	"github.com/veldtgames/citadel/internal/render"
	"github.com/veldtgames/citadel/internal/selection"
)

type demoUnit struct {
	id  selection.UnitID
	pos coord.Phys
	vel coord.Phys
}

// Demo is a minimal game session: a handful of units drifting through
// world space, with terrain "generated" on the job pool before the
// simulation starts moving.
type Demo struct {
	seed      int64
	unitCount int

	mu      sync.Mutex
	units   []demoUnit
	terrain []float64
	ready   bool
	ticks   int
	visible int
}

// NewDemo creates a demo session with deterministic content for the
// given seed.
func NewDemo(seed int64, unitCount int) *Demo {
	return &Demo{seed: seed, unitCount: unitCount}
}

// Generator returns a session generator producing fresh demo sessions.
func Generator(seed int64, unitCount int) engine.Generator {
	return engine.GeneratorFunc(func() (engine.Session, error) {
		if unitCount <= 0 {
			return nil, fmt.Errorf("demo: unit count must be positive")
		}
		return NewDemo(seed, unitCount), nil
	})
}

// Start implements engine.Session.
func (d *Demo) Start(h *engine.Handle) error {
	e := h.Engine()

	rng := rand.New(rand.NewSource(d.seed))
	d.units = make([]demoUnit, d.unitCount)
	for i := range d.units {
		d.units[i] = demoUnit{
			id:  selection.UnitID(i + 1),
			pos: coord.Phys{X: rng.Float32()*200 - 100, Y: rng.Float32()*200 - 100},
			vel: coord.Phys{X: rng.Float32()*20 - 10, Y: rng.Float32()*20 - 10},
		}
	}

	// Terrain generation is the demo's background workload; the tick
	// handler holds the simulation until the result arrives at a tick
	// boundary.
	seed := d.seed
	if _, err := e.JobManager().Submit("generate_terrain",
		func(ctx context.Context) (any, error) {
			return generateTerrain(ctx, seed)
		},
		func(result any, err error) {
			if err != nil {
				return
			}
			d.mu.Lock()
			defer d.mu.Unlock()
			d.terrain = result.([]float64)
			d.ready = true
		},
	); err != nil {
		return fmt.Errorf("demo: submit terrain job: %w", err)
	}

	h.RegisterTickAction(engine.TickFunc(func() { d.tick(e) }))
	h.RegisterDrawAction(engine.DrawFunc(func() { d.drawWorld(e) }))
	h.RegisterDrawHUDAction(engine.HudFunc(func() { d.drawStatus(e) }), 1)

	// ctrl+a selects everything; the bind lives in the session context
	// so it disappears with the session.
	action := e.ActionManager().Register("select_all_units")
	e.InputManager().OnAction(action, func(input.Event) bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, u := range d.units {
			e.UnitSelection().Add(u.id)
		}
		return true
	})
	chord, err := input.ParseChord("ctrl+a")
	if err != nil {
		return err
	}
	h.BindContext().Bind(chord, action)

	return nil
}

// Stop implements engine.Session.
func (d *Demo) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.units = nil
	d.terrain = nil
	d.ready = false
}

// Ticks returns how many simulation ticks have run.
func (d *Demo) Ticks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}

// Ready reports whether terrain generation has been delivered.
func (d *Demo) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

func (d *Demo) tick(e *engine.Engine) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ticks++
	if !d.ready {
		return
	}
	dt := float32(e.LastFrameDuration().Seconds())
	for i := range d.units {
		d.units[i].pos.X += d.units[i].vel.X * dt
		d.units[i].pos.Y += d.units[i].vel.Y * dt
	}
}

// drawWorld culls units against the current viewport. The count feeds
// the status line; an actual renderer would draw the visible set here.
func (d *Demo) drawWorld(e *engine.Engine) {
	w, h := e.Coord().Size()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visible = 0
	for _, u := range d.units {
		v := e.Coord().ToViewport(u.pos)
		if v.X >= 0 && v.X < w && v.Y >= 0 && v.Y < h {
			d.visible++
		}
	}
}

func (d *Demo) drawStatus(e *engine.Engine) {
	d.mu.Lock()
	ready := d.ready
	count := len(d.units)
	visible := d.visible
	d.mu.Unlock()

	status := "generating terrain"
	if ready {
		status = fmt.Sprintf("%d units (%d visible), %d selected",
			count, visible, e.UnitSelection().Len())
	}
	_, h := e.Coord().Size()
	e.TextRenderer().Render(10, h-10, 12, render.White, "%s", status)
}

// generateTerrain produces a deterministic heightmap. It checks ctx so
// engine teardown can cancel a generation in flight.
func generateTerrain(ctx context.Context, seed int64) ([]float64, error) {
	rng := rand.New(rand.NewSource(seed))
	const size = 64 * 64
	heights := make([]float64, size)
	for i := range heights {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		heights[i] = rng.Float64()
	}
	return heights, nil
}
