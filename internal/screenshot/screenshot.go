// Package screenshot captures presented frames to numbered PNG files.
package screenshot

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync/atomic"
)

var fileRE = regexp.MustCompile(`^screenshot_(\d{4})\.png$`)

// Manager writes screenshots into a directory as screenshot_NNNN.png.
// The counter resumes after the highest existing number so restarts
// never overwrite earlier captures.
//
// RequestCapture is safe from any goroutine (it is bound to an input
// action); the engine checks TakeRequest at the end of each frame on
// the loop goroutine and performs the capture there.
type Manager struct {
	dir       string
	next      int
	requested atomic.Bool
}

// NewManager creates the screenshot directory if needed and scans it
// for the next free counter value.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	next := 0
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan screenshot dir: %w", err)
	}
	for _, e := range entries {
		match := fileRE.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		n, _ := strconv.Atoi(match[1])
		if n >= next {
			next = n + 1
		}
	}
	return &Manager{dir: dir, next: next}, nil
}

// Dir returns the capture directory.
func (m *Manager) Dir() string { return m.dir }

// RequestCapture flags the current frame for capture.
func (m *Manager) RequestCapture() {
	m.requested.Store(true)
}

// TakeRequest consumes a pending capture request, reporting whether one
// was set. Called once per frame by the engine.
func (m *Manager) TakeRequest() bool {
	return m.requested.Swap(false)
}

// Write encodes img to the next numbered file and returns its path.
func (m *Manager) Write(img image.Image) (string, error) {
	path := filepath.Join(m.dir, fmt.Sprintf("screenshot_%04d.png", m.next))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create screenshot file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("encode screenshot: %w", err)
	}
	m.next++
	slog.Info("screenshot written", "path", path)
	return path, nil
}
