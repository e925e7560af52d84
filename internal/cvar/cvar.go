// Package cvar implements the engine's command variables: named, typed,
// runtime-tunable settings with optional SQLite-backed persistence.
package cvar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Type enumerates the supported variable types.
type Type int

const (
	TypeBool Type = iota + 1
	TypeInt
	TypeFloat
	TypeString
)

// String returns the lowercase type name.
func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseType resolves a persisted type name back to its Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "bool":
		return TypeBool, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "string":
		return TypeString, nil
	default:
		return 0, fmt.Errorf("unknown cvar type %q (bool|int|float|string)", s)
	}
}

// CheckRaw reports whether raw parses as a value of type t.
func CheckRaw(t Type, raw string) error {
	_, err := parseValue(t, raw)
	return err
}

// Var is one command variable. Access goes through the Manager; the
// setter hook (if any) runs under the manager lock, so hooks must not
// call back into the manager.
type Var struct {
	Name string
	Type Type
	Help string

	value    any
	onChange func(any)
}

// Manager owns the variable table. Names are NFC-normalized and
// lowercase so profiles and console input resolve consistently.
type Manager struct {
	mu   sync.RWMutex
	vars map[string]*Var
}

// NewManager creates an empty cvar manager.
func NewManager() *Manager {
	return &Manager{vars: make(map[string]*Var)}
}

// NormalizeName canonicalizes a cvar name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(name)))
}

func (m *Manager) register(name string, typ Type, help string, def any, onChange func(any)) (*Var, error) {
	n := NormalizeName(name)
	if n == "" {
		return nil, fmt.Errorf("cvar: empty name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.vars[n]; exists {
		return nil, fmt.Errorf("cvar: duplicate name %q", n)
	}
	v := &Var{Name: n, Type: typ, Help: help, value: def, onChange: onChange}
	m.vars[n] = v
	return v, nil
}

// RegisterBool adds a boolean variable. onChange may be nil.
func (m *Manager) RegisterBool(name string, def bool, help string, onChange func(bool)) (*Var, error) {
	var hook func(any)
	if onChange != nil {
		hook = func(v any) { onChange(v.(bool)) }
	}
	return m.register(name, TypeBool, help, def, hook)
}

// RegisterInt adds an integer variable. onChange may be nil.
func (m *Manager) RegisterInt(name string, def int64, help string, onChange func(int64)) (*Var, error) {
	var hook func(any)
	if onChange != nil {
		hook = func(v any) { onChange(v.(int64)) }
	}
	return m.register(name, TypeInt, help, def, hook)
}

// RegisterFloat adds a float variable. onChange may be nil.
func (m *Manager) RegisterFloat(name string, def float64, help string, onChange func(float64)) (*Var, error) {
	var hook func(any)
	if onChange != nil {
		hook = func(v any) { onChange(v.(float64)) }
	}
	return m.register(name, TypeFloat, help, def, hook)
}

// RegisterString adds a string variable. onChange may be nil.
func (m *Manager) RegisterString(name string, def string, help string, onChange func(string)) (*Var, error) {
	var hook func(any)
	if onChange != nil {
		hook = func(v any) { onChange(v.(string)) }
	}
	return m.register(name, TypeString, help, def, hook)
}

// Get returns the variable's value rendered as a string.
func (m *Manager) Get(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[NormalizeName(name)]
	if !ok {
		return "", fmt.Errorf("cvar: unknown variable %q", name)
	}
	return renderValue(v.value), nil
}

// GetBool returns a boolean variable's value.
func (m *Manager) GetBool(name string) (bool, error) {
	v, err := m.typedVar(name, TypeBool)
	if err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return v.value.(bool), nil
}

// GetInt returns an integer variable's value.
func (m *Manager) GetInt(name string) (int64, error) {
	v, err := m.typedVar(name, TypeInt)
	if err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return v.value.(int64), nil
}

// Set parses raw according to the variable's type and stores it,
// invoking the change hook on success.
func (m *Manager) Set(name, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vars[NormalizeName(name)]
	if !ok {
		return fmt.Errorf("cvar: unknown variable %q", name)
	}
	val, err := parseValue(v.Type, raw)
	if err != nil {
		return fmt.Errorf("cvar %s: %w", v.Name, err)
	}
	v.value = val
	if v.onChange != nil {
		v.onChange(val)
	}
	return nil
}

// Names returns all variable names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.vars))
	for n := range m.vars {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Info returns a variable's type and help text.
func (m *Manager) Info(name string) (Type, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[NormalizeName(name)]
	if !ok {
		return 0, "", fmt.Errorf("cvar: unknown variable %q", name)
	}
	return v.Type, v.Help, nil
}

func (m *Manager) typedVar(name string, want Type) (*Var, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("cvar: unknown variable %q", name)
	}
	if v.Type != want {
		return nil, fmt.Errorf("cvar %s: is %s, not %s", v.Name, v.Type, want)
	}
	return v, nil
}

func parseValue(t Type, raw string) (any, error) {
	switch t {
	case TypeBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", raw)
		}
		return b, nil
	case TypeInt:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q", raw)
		}
		return i, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", raw)
		}
		return f, nil
	case TypeString:
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown type %v", t)
	}
}

func renderValue(v any) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
