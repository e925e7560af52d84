package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChord(t *testing.T) {
	tests := []struct {
		in   string
		want Binding
	}{
		{"a", Binding{Key: "a"}},
		{"f5", Binding{Key: "f5"}},
		{"ctrl+q", Binding{Key: "q", Mods: ModCtrl}},
		{"ctrl+shift+s", Binding{Key: "s", Mods: ModCtrl | ModShift}},
		{"shift+ctrl+s", Binding{Key: "s", Mods: ModCtrl | ModShift}},
		{"alt+enter", Binding{Key: "enter", Mods: ModAlt}},
		{"CTRL+Q", Binding{Key: "q", Mods: ModCtrl}},
		{" ctrl+q ", Binding{Key: "q", Mods: ModCtrl}},
	}
	for _, tc := range tests {
		got, err := ParseChord(tc.in)
		require.NoError(t, err, "chord %q", tc.in)
		assert.Equal(t, tc.want, got, "chord %q", tc.in)
	}
}

func TestParseChord_Errors(t *testing.T) {
	for _, in := range []string{"", "ctrl+", "hyper+x", "ctrl+alt+"} {
		_, err := ParseChord(in)
		assert.Error(t, err, "chord %q", in)
	}
}

func TestBinding_String(t *testing.T) {
	b, err := ParseChord("ctrl+shift+s")
	require.NoError(t, err)
	assert.Equal(t, "ctrl+shift+s", b.String())
}

func TestContext_BindLookupUnbind(t *testing.T) {
	c := NewContext("test")
	b := Binding{Key: "q", Mods: ModCtrl}

	_, ok := c.Lookup(b)
	assert.False(t, ok)

	c.Bind(b, "quit")
	a, ok := c.Lookup(b)
	require.True(t, ok)
	assert.Equal(t, Action("quit"), a)

	c.Unbind(b)
	_, ok = c.Lookup(b)
	assert.False(t, ok)
}

func TestContext_Bind_ReplacesExisting(t *testing.T) {
	c := NewContext("test")
	b := Binding{Key: "f2"}

	c.Bind(b, "screenshot")
	c.Bind(b, "toggle_hud")

	a, ok := c.Lookup(b)
	require.True(t, ok)
	assert.Equal(t, Action("toggle_hud"), a)
}

func TestContext_LoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bindings:
  - key: ctrl+shift+p
    action: toggle_pause
  - key: f5
    action: screenshot
`), 0o644))

	actions := NewActionManager()
	c := NewContext("profile")
	require.NoError(t, c.LoadProfile(path, actions))

	a, ok := c.Lookup(Binding{Key: "p", Mods: ModCtrl | ModShift})
	require.True(t, ok)
	assert.Equal(t, Action("toggle_pause"), a)

	a, ok = c.Lookup(Binding{Key: "f5"})
	require.True(t, ok)
	assert.Equal(t, Action("screenshot"), a)
}

func TestContext_LoadProfile_UnknownActionFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bindings:
  - key: f5
    action: typo_action
`), 0o644))

	c := NewContext("profile")
	err := c.LoadProfile(path, NewActionManager())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typo_action")
}

func TestContext_LoadProfile_BadChordFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bindings:
  - key: hyper+x
    action: quit
`), 0o644))

	c := NewContext("profile")
	assert.Error(t, c.LoadProfile(path, NewActionManager()))
}

func TestManager_Resolve_StackShadowsGlobal(t *testing.T) {
	m := NewManager(NewActionManager())
	b := Binding{Key: "f2"}
	m.Global().Bind(b, "screenshot")

	session := NewContext("session")
	session.Bind(b, "toggle_pause")
	m.Push(session)

	ev := Event{Kind: KindKeyDown, Key: "f2"}
	a, ok := m.Resolve(ev)
	require.True(t, ok)
	assert.Equal(t, Action("toggle_pause"), a)

	m.Pop(session)
	a, ok = m.Resolve(ev)
	require.True(t, ok)
	assert.Equal(t, Action("screenshot"), a)
}

func TestManager_Resolve_WalksStackTopDown(t *testing.T) {
	m := NewManager(NewActionManager())
	b := Binding{Key: "x"}

	lower := NewContext("lower")
	lower.Bind(b, "lower_action")
	upper := NewContext("upper")
	upper.Bind(b, "upper_action")
	m.Push(lower)
	m.Push(upper)

	a, ok := m.Resolve(Event{Kind: KindKeyDown, Key: "x"})
	require.True(t, ok)
	assert.Equal(t, Action("upper_action"), a)
}

func TestManager_Resolve_IgnoresNonTriggerEvents(t *testing.T) {
	m := NewManager(NewActionManager())
	m.Global().Bind(Binding{Key: "q"}, "quit")

	for _, kind := range []EventKind{KindKeyUp, KindMouseUp, KindMouseMove} {
		_, ok := m.Resolve(Event{Kind: kind, Key: "q"})
		assert.False(t, ok, "kind %v must not trigger binds", kind)
	}
}

func TestManager_Pop_UnknownContextIsNoop(t *testing.T) {
	m := NewManager(NewActionManager())
	m.Pop(NewContext("never pushed"))
}

func TestManager_Resolve_ConcurrentWithPushPop(t *testing.T) {
	m := NewManager(NewActionManager())
	b := Binding{Key: "f9"}
	m.Global().Bind(b, "quit")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			upper := NewContext("upper")
			lower := NewContext("lower")
			m.Push(lower)
			m.Push(upper)
			m.Pop(lower)
			m.Pop(upper)
		}
	}()

	ev := Event{Kind: KindKeyDown, Key: "f9"}
	for resolving := true; resolving; {
		select {
		case <-done:
			resolving = false
		default:
		}
		a, ok := m.Resolve(ev)
		require.True(t, ok)
		assert.Equal(t, Action("quit"), a)
	}
}

func TestManager_HandleEvent_RunsCallback(t *testing.T) {
	m := NewManager(NewActionManager())
	m.Global().Bind(Binding{Key: "q", Mods: ModCtrl}, "quit")

	calls := 0
	m.OnAction("quit", func(Event) bool {
		calls++
		return true
	})

	consumed := m.HandleEvent(Event{Kind: KindKeyDown, Key: "q", Mods: ModCtrl})
	assert.True(t, consumed)
	assert.Equal(t, 1, calls)
}

func TestManager_HandleEvent_NoCallbackDoesNotConsume(t *testing.T) {
	m := NewManager(NewActionManager())
	m.Global().Bind(Binding{Key: "q"}, "quit")

	assert.False(t, m.HandleEvent(Event{Kind: KindKeyDown, Key: "q"}))
}

func TestManager_HandleEvent_UnboundKeyPassesThrough(t *testing.T) {
	m := NewManager(NewActionManager())
	assert.False(t, m.HandleEvent(Event{Kind: KindKeyDown, Key: "z"}))
}

func TestManager_GlobalBindsText_Golden(t *testing.T) {
	m := NewManager(NewActionManager())
	m.Global().Bind(Binding{Key: "q", Mods: ModCtrl}, "quit")
	m.Global().Bind(Binding{Key: "escape"}, "stop_game")
	m.Global().Bind(Binding{Key: "f1"}, "toggle_hud")
	m.Global().Bind(Binding{Key: "f2"}, "screenshot")
	m.Global().Bind(Binding{Key: "s", Mods: ModCtrl | ModShift}, "screenshot")

	lines := m.GlobalBindsText()

	g := goldie.New(t)
	g.Assert(t, "global_binds", []byte(strings.Join(lines, "\n")+"\n"))
}
