package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldtgames/citadel/internal/engine"
	"github.com/veldtgames/citadel/internal/input"
	"github.com/veldtgames/citadel/internal/render"
	"github.com/veldtgames/citadel/internal/testutil"
)

func newDemoEngine(t *testing.T) (*engine.Engine, *render.Headless) {
	t.Helper()
	hp := render.NewHeadless(800, 600)
	e, err := engine.New(engine.Config{
		Mode:        engine.ModeHeadless,
		RootDir:     t.TempDir(),
		Clock:       testutil.NewFakeClock(),
		FrameBudget: 10 * time.Millisecond,
		Workers:     2,
	}, hp)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, hp
}

func TestGenerator_RejectsNonPositiveUnitCount(t *testing.T) {
	_, err := Generator(1, 0).Generate()
	assert.Error(t, err)

	s, err := Generator(1, 4).Generate()
	require.NoError(t, err)
	assert.IsType(t, &Demo{}, s)
}

func TestDemo_TerrainArrivesAtTickBoundary(t *testing.T) {
	e, _ := newDemoEngine(t)
	require.NoError(t, e.StartGameFrom(Generator(42, 4)))

	demo, ok := e.Game().(*Demo)
	require.True(t, ok)
	assert.False(t, demo.Ready(), "terrain must not be visible before a tick has drained it")

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	require.Eventually(t, demo.Ready, 5*time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return demo.Ticks() > 0 }, 5*time.Second, time.Millisecond)

	e.Stop()
	require.NoError(t, <-done)
}

func TestDemo_SelectAllBindIsSessionScoped(t *testing.T) {
	e, hp := newDemoEngine(t)
	require.NoError(t, e.StartGameFrom(Generator(42, 4)))

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	hp.Inject(input.Event{Kind: input.KindKeyDown, Key: "a", Mods: input.ModCtrl})
	require.Eventually(t, func() bool {
		return e.UnitSelection().Len() == 4
	}, 5*time.Second, time.Millisecond)

	// Ending the session clears the selection and pops the bind.
	hp.Inject(input.Event{Kind: input.KindKeyDown, Key: "escape"})
	require.Eventually(t, func() bool { return e.Game() == nil }, 5*time.Second, time.Millisecond)

	e.Stop()
	require.NoError(t, <-done)

	assert.Equal(t, 0, e.UnitSelection().Len())
	_, bound := e.InputManager().Resolve(input.Event{Kind: input.KindKeyDown, Key: "a", Mods: input.ModCtrl})
	assert.False(t, bound)
}

func TestDemo_StopReleasesState(t *testing.T) {
	e, _ := newDemoEngine(t)
	require.NoError(t, e.StartGameFrom(Generator(7, 2)))

	demo := e.Game().(*Demo)
	e.EndGame()

	assert.False(t, demo.Ready())
	assert.Equal(t, 0, e.UnitSelection().Len())
	assert.Nil(t, e.Game())
}
