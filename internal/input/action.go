package input

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Action identifies a named input action, e.g. "screenshot" or
// "toggle_hud". Action names are NFC-normalized lowercase strings so that
// binding profiles written with different unicode forms resolve to the
// same action.
type Action string

// defaultActions are always available; game sessions register their own
// on top of these.
var defaultActions = []string{
	"quit",
	"stop_game",
	"screenshot",
	"toggle_hud",
	"toggle_debug_overlay",
	"toggle_pause",
	"camera_up",
	"camera_down",
	"camera_left",
	"camera_right",
}

// ActionManager owns the set of known action names.
//
// Actions are append-only: there is no unregistration, matching the
// engine-lifetime ownership of the subsystem bundle. Registering a name
// that already exists returns the existing action.
type ActionManager struct {
	mu      sync.RWMutex
	actions map[Action]struct{}
}

// NewActionManager creates an ActionManager pre-populated with the
// default engine actions.
func NewActionManager() *ActionManager {
	m := &ActionManager{actions: make(map[Action]struct{})}
	for _, name := range defaultActions {
		m.Register(name)
	}
	return m
}

// NormalizeAction canonicalizes an action name: NFC normalization,
// lowercase, surrounding whitespace stripped.
func NormalizeAction(name string) Action {
	return Action(strings.ToLower(strings.TrimSpace(norm.NFC.String(name))))
}

// Register adds an action name and returns its canonical form.
// Registering an existing name is a no-op returning the same action.
func (m *ActionManager) Register(name string) Action {
	a := NormalizeAction(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[a] = struct{}{}
	return a
}

// Get resolves a name to a known action.
func (m *ActionManager) Get(name string) (Action, bool) {
	a := NormalizeAction(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.actions[a]
	return a, ok
}

// MustGet resolves a name to a known action and panics if it was never
// registered. Used for engine-internal defaults where absence is a bug.
func (m *ActionManager) MustGet(name string) Action {
	a, ok := m.Get(name)
	if !ok {
		panic(fmt.Sprintf("input: action %q not registered", name))
	}
	return a
}

// All returns every registered action name, sorted.
func (m *ActionManager) All() []Action {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Action, 0, len(m.actions))
	for a := range m.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
