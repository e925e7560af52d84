// Package selection holds the engine-owned unit selection state shared
// between the running game session and presentation layers.
package selection

import (
	"sort"
	"sync"
)

// UnitID identifies a selectable simulation unit.
type UnitID uint64

// UnitSelection is the set of currently selected units.
//
// It is normally touched only from the loop goroutine (tick and input
// handlers), but takes a lock so presentation observers may read it
// safely.
type UnitSelection struct {
	mu    sync.RWMutex
	units map[UnitID]struct{}
}

// New creates an empty selection.
func New() *UnitSelection {
	return &UnitSelection{units: make(map[UnitID]struct{})}
}

// Add puts a unit into the selection.
func (s *UnitSelection) Add(id UnitID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[id] = struct{}{}
}

// Remove drops a unit from the selection. Unknown IDs are ignored.
func (s *UnitSelection) Remove(id UnitID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.units, id)
}

// Clear empties the selection. Called when a game session ends.
func (s *UnitSelection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.units)
}

// Contains reports whether a unit is selected.
func (s *UnitSelection) Contains(id UnitID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.units[id]
	return ok
}

// Len returns the selection size.
func (s *UnitSelection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.units)
}

// IDs returns the selected units in ascending order.
func (s *UnitSelection) IDs() []UnitID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UnitID, 0, len(s.units))
	for id := range s.units {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
