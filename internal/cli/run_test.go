package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_FrameLimitedHeadlessRun(t *testing.T) {
	t.Setenv("CITADEL_DATA_DIR", t.TempDir())

	out, err := execute(t, "run", "--mode", "headless", "--frames", "3", "--fps-cap", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Engine started")
}

func TestRunCommand_RejectsUnknownMode(t *testing.T) {
	t.Setenv("CITADEL_DATA_DIR", t.TempDir())

	_, err := execute(t, "run", "--mode", "windowed")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_RejectsWindowedModesWithoutPresenter(t *testing.T) {
	t.Setenv("CITADEL_DATA_DIR", t.TempDir())

	_, err := execute(t, "run", "--mode", "full")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_ConfigFileApplied(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "citadel.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
mode: headless
fps_cap: 0
data_dir: `+dir+`
`), 0o644))

	_, err := execute(t, "run", "--config", cfgPath, "--frames", "2")
	require.NoError(t, err)
}

func TestRunCommand_InvalidConfigFails(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "citadel.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("fps_cap: 99999\n"), 0o644))

	_, err := execute(t, "run", "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
