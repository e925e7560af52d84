// Package audio is the engine's audio manager. Decoding and mixing live
// behind the Device boundary; this package owns what the engine cares
// about: which sounds exist, what is playing, and category volumes.
package audio

import (
	"fmt"
	"sync"
)

// Category groups sounds for volume control.
type Category string

const (
	CategoryMusic   Category = "music"
	CategoryEffects Category = "effects"
	CategoryUI      Category = "ui"
)

// Device is the external mixer boundary. A nil-safe null device is used
// in headless mode.
type Device interface {
	// Play starts playback of a loaded sound and returns a playback
	// handle. gain is the effective 0..1 gain after category and
	// master volume are applied.
	Play(soundID string, gain float64, loop bool) (int, error)
	// Stop stops one playback handle.
	Stop(handle int)
	// SetGain adjusts a live playback's gain.
	SetGain(handle int, gain float64)
	// Close releases the device.
	Close() error
}

// NullDevice accepts everything and produces silence.
type NullDevice struct {
	mu   sync.Mutex
	next int
	live map[int]string
}

// NewNullDevice creates an inert device.
func NewNullDevice() *NullDevice {
	return &NullDevice{live: make(map[int]string)}
}

func (d *NullDevice) Play(soundID string, gain float64, loop bool) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.live[d.next] = soundID
	return d.next, nil
}

func (d *NullDevice) Stop(handle int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.live, handle)
}

func (d *NullDevice) SetGain(int, float64) {}

func (d *NullDevice) Close() error { return nil }

// Live returns the number of playing handles. Test hook.
func (d *NullDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Sound describes one registered sound.
type Sound struct {
	ID       string
	Category Category
	Path     string
}

// playback tracks one live sound instance.
type playback struct {
	handle   int
	category Category
}

// Manager owns the sound registry and playback state.
//
// Volumes are 0..100. The effective gain of a playback is
// master/100 * category/100.
type Manager struct {
	device Device

	mu       sync.Mutex
	sounds   map[string]Sound
	volumes  map[Category]int
	master   int
	muted    bool
	playing  map[int]playback
	nextSlot int
}

// NewManager creates an audio manager on the given device.
func NewManager(device Device) *Manager {
	return &Manager{
		device: device,
		sounds: make(map[string]Sound),
		volumes: map[Category]int{
			CategoryMusic:   100,
			CategoryEffects: 100,
			CategoryUI:      100,
		},
		master:  100,
		playing: make(map[int]playback),
	}
}

// Register adds a sound to the registry.
func (m *Manager) Register(s Sound) error {
	if s.ID == "" {
		return fmt.Errorf("audio: empty sound id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sounds[s.ID]; exists {
		return fmt.Errorf("audio: duplicate sound %q", s.ID)
	}
	m.sounds[s.ID] = s
	return nil
}

// Play starts a registered sound and returns a playback slot.
func (m *Manager) Play(soundID string, loop bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sounds[soundID]
	if !ok {
		return 0, fmt.Errorf("audio: unknown sound %q", soundID)
	}
	handle, err := m.device.Play(soundID, m.gainLocked(s.Category), loop)
	if err != nil {
		return 0, fmt.Errorf("audio: play %s: %w", soundID, err)
	}
	m.nextSlot++
	m.playing[m.nextSlot] = playback{handle: handle, category: s.Category}
	return m.nextSlot, nil
}

// Stop ends one playback slot. Unknown slots are ignored.
func (m *Manager) Stop(slot int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.playing[slot]
	if !ok {
		return
	}
	m.device.Stop(p.handle)
	delete(m.playing, slot)
}

// StopAll ends every live playback.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slot, p := range m.playing {
		m.device.Stop(p.handle)
		delete(m.playing, slot)
	}
}

// SetVolume sets a category volume (0..100, clamped) and re-applies
// gains to live playbacks of that category.
func (m *Manager) SetVolume(c Category, volume int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumes[c] = clampVolume(volume)
	m.applyGainsLocked()
}

// Volume returns a category volume.
func (m *Manager) Volume(c Category) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volumes[c]
}

// SetMaster sets the master volume (0..100, clamped).
func (m *Manager) SetMaster(volume int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.master = clampVolume(volume)
	m.applyGainsLocked()
}

// Master returns the master volume.
func (m *Manager) Master() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.master
}

// SetMuted toggles the mute flag without losing volume settings.
func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	m.applyGainsLocked()
}

// Close stops all playback and releases the device.
func (m *Manager) Close() error {
	m.StopAll()
	return m.device.Close()
}

func (m *Manager) gainLocked(c Category) float64 {
	if m.muted {
		return 0
	}
	return float64(m.master) / 100 * float64(m.volumes[c]) / 100
}

func (m *Manager) applyGainsLocked() {
	for _, p := range m.playing {
		m.device.SetGain(p.handle, m.gainLocked(p.category))
	}
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
