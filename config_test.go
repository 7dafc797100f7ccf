package marcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gekko3d/marcher/rt/sdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, sdf.DefaultSettings(), cfg.March.Settings())
	assert.Equal(t, 8*time.Millisecond, cfg.PhysicsPeriod())
	assert.Equal(t, float32(80), cfg.Camera.Fov)
	assert.Equal(t, [3]float32{0, 0, 5}, cfg.Camera.Position)
	assert.True(t, cfg.March.Box)
	assert.True(t, cfg.March.Orbiter)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marcher.yaml")
	data := []byte(`
window:
  width: 800
march:
  smooth_union: 5
  max_steps: 64
  orbiter: false
debug: true
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "unset keys keep defaults")
	assert.Equal(t, float32(5), cfg.March.SmoothUnion)
	assert.Equal(t, 64, cfg.March.MaxSteps)
	assert.False(t, cfg.March.Orbiter)
	assert.True(t, cfg.March.Box, "unset keys keep defaults")
	assert.Equal(t, float32(0.0001), cfg.March.HitThreshold)
	assert.True(t, cfg.Debug)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("window: [1, 2"), 0o644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	planes := filepath.Join(dir, "planes.yaml")
	require.NoError(t, os.WriteFile(planes, []byte("camera:\n  near: 10\n  far: 1\n"), 0o644))
	_, err = LoadConfig(planes)
	if err == nil {
		t.Errorf("expected an error for far < near")
	}
}
