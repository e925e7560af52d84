// Package coord owns the engine's coordinate frames: physics/world
// space, camera position, and the viewport. Draw handlers run against
// one of two frames per frame loop iteration - the world frame (camera
// projection applied) or the HUD frame (viewport pixels).
package coord

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Phys is a position in world space.
type Phys struct {
	X, Y float32
}

// Viewport is a position in window pixels, origin top-left.
type Viewport struct {
	X, Y int
}

// Manager converts between world and viewport space and tracks the
// camera. It is mutated only from the engine loop goroutine except for
// the read accessors, which take the lock for the benefit of background
// diagnostics.
type Manager struct {
	mu sync.RWMutex

	width  int
	height int

	camera Phys
	// world units per pixel
	zoom float32
}

// NewManager creates a coordinate manager for the given initial
// viewport size.
func NewManager(width, height int) *Manager {
	return &Manager{width: width, height: height, zoom: 1}
}

// Size returns the current viewport size in pixels.
func (m *Manager) Size() (w, h int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.width, m.height
}

// Resize applies a viewport size delta. Sizes are clamped to 1x1 so a
// degenerate resize event cannot produce an invalid projection.
func (m *Manager) Resize(dw, dh int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.width = max(1, m.width+dw)
	m.height = max(1, m.height+dh)
}

// Camera returns the camera position in world space.
func (m *Manager) Camera() Phys {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.camera
}

// MoveCamera moves the camera by (x, y) scaled by amount. This backs the
// engine's camera movement actions; frame-rate independence is the
// caller's concern via the last-frame duration.
func (m *Manager) MoveCamera(x, y, amount float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.camera.X += x * amount
	m.camera.Y += y * amount
}

// WorldMatrix returns the world-to-clip transform for the current
// camera and viewport: an orthographic projection centered on the
// camera.
func (m *Manager) WorldMatrix() mgl32.Mat4 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	halfW := float32(m.width) * m.zoom / 2
	halfH := float32(m.height) * m.zoom / 2
	proj := mgl32.Ortho2D(-halfW, halfW, -halfH, halfH)
	view := mgl32.Translate3D(-m.camera.X, -m.camera.Y, 0)
	return proj.Mul4(view)
}

// ToViewport projects a world position into viewport pixels.
func (m *Manager) ToViewport(p Phys) Viewport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	px := (p.X-m.camera.X)/m.zoom + float32(m.width)/2
	py := float32(m.height)/2 - (p.Y-m.camera.Y)/m.zoom
	return Viewport{X: int(px), Y: int(py)}
}

// ToPhys unprojects a viewport pixel into world space.
func (m *Manager) ToPhys(v Viewport) Phys {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wx := (float32(v.X) - float32(m.width)/2) * m.zoom
	wy := (float32(m.height)/2 - float32(v.Y)) * m.zoom
	return Phys{X: wx + m.camera.X, Y: wy + m.camera.Y}
}
