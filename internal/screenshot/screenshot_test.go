package screenshot

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	m, err := NewManager(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, m.Dir())
	assert.DirExists(t, dir)
}

func TestManager_Write_NumbersSequentially(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	p1, err := m.Write(img)
	require.NoError(t, err)
	assert.Equal(t, "screenshot_0000.png", filepath.Base(p1))

	p2, err := m.Write(img)
	require.NoError(t, err)
	assert.Equal(t, "screenshot_0001.png", filepath.Base(p2))
}

func TestManager_CounterResumesAfterRestart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "screenshot_0007.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.png"), []byte("x"), 0o644))

	m, err := NewManager(dir)
	require.NoError(t, err)

	p, err := m.Write(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, "screenshot_0008.png", filepath.Base(p))
}

func TestManager_Write_ProducesDecodablePNG(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	src := image.NewRGBA(image.Rect(0, 0, 8, 6))
	path, err := m.Write(src)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
}

func TestManager_RequestCapture_ConsumedExactlyOnce(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	assert.False(t, m.TakeRequest())

	m.RequestCapture()
	m.RequestCapture() // coalesces with the first
	assert.True(t, m.TakeRequest())
	assert.False(t, m.TakeRequest())
}
