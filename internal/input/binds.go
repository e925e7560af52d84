package input

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Binding is a key chord: a key plus held modifiers.
type Binding struct {
	Key  Key
	Mods Modifiers
}

// String renders the chord the way the binding profile spells it,
// e.g. "ctrl+shift+s".
func (b Binding) String() string {
	return modPrefix(b.Mods) + string(b.Key)
}

// Context is one layer of key bindings. Contexts are stacked: the engine
// owns a global context at the bottom and sessions push their own above
// it, shadowing global bindings for the keys they claim.
type Context struct {
	name  string
	mu    sync.RWMutex
	binds map[Binding]Action
}

// NewContext creates an empty binding context.
func NewContext(name string) *Context {
	return &Context{name: name, binds: make(map[Binding]Action)}
}

// Name returns the context's name, used in diagnostics.
func (c *Context) Name() string { return c.name }

// Bind maps a chord to an action, replacing any previous binding for the
// same chord within this context.
func (c *Context) Bind(b Binding, a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.binds[b] = a
}

// Unbind removes a chord from this context.
func (c *Context) Unbind(b Binding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.binds, b)
}

// Lookup resolves a chord within this context only.
func (c *Context) Lookup(b Binding) (Action, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.binds[b]
	return a, ok
}

// bindings returns a copy of the context's binding table.
func (c *Context) bindings() map[Binding]Action {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[Binding]Action, len(c.binds))
	for b, a := range c.binds {
		out[b] = a
	}
	return out
}

// profileFile is the on-disk YAML shape of a binding profile.
type profileFile struct {
	Bindings []profileBinding `yaml:"bindings"`
}

type profileBinding struct {
	Key    string `yaml:"key"`
	Action string `yaml:"action"`
}

// ParseChord parses a chord spelling like "ctrl+shift+s" or "f5".
// Modifier order is irrelevant; the final component is the key name.
func ParseChord(s string) (Binding, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return Binding{}, fmt.Errorf("empty chord %q", s)
	}
	var b Binding
	for _, p := range parts[:len(parts)-1] {
		switch p {
		case "ctrl":
			b.Mods |= ModCtrl
		case "shift":
			b.Mods |= ModShift
		case "alt":
			b.Mods |= ModAlt
		default:
			return Binding{}, fmt.Errorf("unknown modifier %q in chord %q", p, s)
		}
	}
	b.Key = Key(parts[len(parts)-1])
	return b, nil
}

// LoadProfile reads a YAML binding profile and applies it to the context.
// Actions must already be registered with the action manager; unknown
// actions are an error so typos in profiles fail loudly at startup.
func (c *Context) LoadProfile(path string, actions *ActionManager) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read binding profile: %w", err)
	}
	var pf profileFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return fmt.Errorf("parse binding profile %s: %w", path, err)
	}
	for _, pb := range pf.Bindings {
		chord, err := ParseChord(pb.Key)
		if err != nil {
			return fmt.Errorf("binding profile %s: %w", path, err)
		}
		action, ok := actions.Get(pb.Action)
		if !ok {
			return fmt.Errorf("binding profile %s: unknown action %q", path, pb.Action)
		}
		c.Bind(chord, action)
	}
	return nil
}

// Manager resolves input events against the binding context stack and
// dispatches them to per-action callbacks.
//
// The stack is walked top-down so session contexts shadow the global
// one. Manager implements the engine's input handler contract at the
// bottom of the handler chain: an event that resolves to an action with
// a registered callback is consumed.
type Manager struct {
	actions *ActionManager

	mu        sync.RWMutex
	global    *Context
	stack     []*Context
	callbacks map[Action]func(Event) bool
}

// NewManager creates an input manager with an empty global context.
func NewManager(actions *ActionManager) *Manager {
	return &Manager{
		actions:   actions,
		global:    NewContext("global"),
		callbacks: make(map[Action]func(Event) bool),
	}
}

// Global returns the bottom-of-stack context holding engine-wide binds.
func (m *Manager) Global() *Context { return m.global }

// Push places a context on top of the stack.
func (m *Manager) Push(c *Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stack = append(m.stack, c)
}

// Pop removes a context from the stack wherever it sits. Popping a
// context that is not on the stack is a no-op.
func (m *Manager) Pop(c *Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sc := range m.stack {
		if sc == c {
			m.stack = append(m.stack[:i], m.stack[i+1:]...)
			return
		}
	}
}

// OnAction registers the callback invoked when a bound event resolves to
// the action. The callback returns whether it consumed the event. Only
// one callback per action; later registrations replace earlier ones.
func (m *Manager) OnAction(a Action, fn func(Event) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[a] = fn
}

// Resolve maps an event to an action by walking the context stack
// top-down, falling back to the global context.
func (m *Manager) Resolve(ev Event) (Action, bool) {
	if ev.Kind != KindKeyDown && ev.Kind != KindMouseDown && ev.Kind != KindWheel {
		return "", false
	}
	b := Binding{Key: ev.Key, Mods: ev.Mods}
	// Copy under the lock; Pop shifts elements of the same backing
	// array, so sharing the slice with a concurrent Pop is a race.
	m.mu.RLock()
	stack := make([]*Context, len(m.stack))
	copy(stack, m.stack)
	m.mu.RUnlock()
	for i := len(stack) - 1; i >= 0; i-- {
		if a, ok := stack[i].Lookup(b); ok {
			return a, true
		}
	}
	return m.global.Lookup(b)
}

// HandleEvent implements the engine input handler contract: it resolves
// the event to an action and runs the action's callback, reporting
// whether the event was consumed.
func (m *Manager) HandleEvent(ev Event) bool {
	a, ok := m.Resolve(ev)
	if !ok {
		return false
	}
	m.mu.RLock()
	fn := m.callbacks[a]
	m.mu.RUnlock()
	if fn == nil {
		return false
	}
	return fn(ev)
}

// GlobalBindsText renders the global context's bindings as sorted
// "chord: action" lines. This is the payload of the engine's
// global-binds announcement to observing presentation layers.
func (m *Manager) GlobalBindsText() []string {
	binds := m.global.bindings()
	lines := make([]string, 0, len(binds))
	for b, a := range binds {
		lines = append(lines, fmt.Sprintf("%s: %s", b, a))
	}
	sort.Strings(lines)
	return lines
}
