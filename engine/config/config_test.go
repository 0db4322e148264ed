package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1600, cfg.Window.Width)
	assert.Equal(t, 900, cfg.Window.Height)
	assert.True(t, cfg.Window.VSync)
	assert.Equal(t, 3, cfg.Renderer.FramesInFlight)
	assert.True(t, cfg.Renderer.DrawToSwapchain)
	assert.Equal(t, uint32(2048), cfg.Shadows.Resolution)
	assert.Equal(t, 4, cfg.Shadows.CascadeCount)
	assert.InDelta(t, 0.95, cfg.Shadows.SplitLambda, 1e-6)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"one cascade", func(c *Config) { c.Shadows.CascadeCount = 1 }, true},
		{"zero cascades", func(c *Config) { c.Shadows.CascadeCount = 0 }, false},
		{"five cascades", func(c *Config) { c.Shadows.CascadeCount = 5 }, false},
		{"lambda zero", func(c *Config) { c.Shadows.SplitLambda = 0 }, true},
		{"lambda above one", func(c *Config) { c.Shadows.SplitLambda = 1.5 }, false},
		{"negative lambda", func(c *Config) { c.Shadows.SplitLambda = -0.1 }, false},
		{"resolution 256", func(c *Config) { c.Shadows.Resolution = 256 }, true},
		{"resolution 8192", func(c *Config) { c.Shadows.Resolution = 8192 }, true},
		{"resolution not pow2", func(c *Config) { c.Shadows.Resolution = 1000 }, false},
		{"resolution too small", func(c *Config) { c.Shadows.Resolution = 128 }, false},
		{"frames zero", func(c *Config) { c.Renderer.FramesInFlight = 0 }, false},
		{"frames four", func(c *Config) { c.Renderer.FramesInFlight = 4 }, false},
		{"zero width", func(c *Config) { c.Window.Width = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsuki.yaml")
	content := `
window:
  width: 1920
  height: 1080
  vsync: false
shadows:
  resolution: 4096
  cascade_count: 2
  split_lambda: 0.5
assets:
  paths: ["Sponza.gltf", "Fox.glb"]
  hot_reload: true
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := Default()
	require.NoError(t, loadFromFile(cfg, path))

	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, 1080, cfg.Window.Height)
	assert.False(t, cfg.Window.VSync)
	assert.Equal(t, uint32(4096), cfg.Shadows.Resolution)
	assert.Equal(t, 2, cfg.Shadows.CascadeCount)
	assert.InDelta(t, 0.5, cfg.Shadows.SplitLambda, 1e-6)
	assert.Equal(t, []string{"Sponza.gltf", "Fox.glb"}, cfg.Assets.Paths)
	assert.True(t, cfg.Assets.HotReload)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// untouched sections keep their defaults
	assert.Equal(t, 3, cfg.Renderer.FramesInFlight)
	assert.Equal(t, "Tsuki", cfg.Window.Title)
}

func TestLoadFromFileTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsuki.toml")
	content := `
[window]
width = 800
height = 600

[shadows]
resolution = 1024
cascade_count = 3

[renderer]
persistent_depth = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := Default()
	require.NoError(t, loadFromFile(cfg, path))

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, uint32(1024), cfg.Shadows.Resolution)
	assert.Equal(t, 3, cfg.Shadows.CascadeCount)
	assert.True(t, cfg.Renderer.PersistentDepth)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window:\n  width: not a number\n  bad syntax here\n"), 0644))

	assert.Error(t, loadFromFile(Default(), path))
	assert.Error(t, loadFromFile(Default(), "/nonexistent/path/config.yaml"))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsuki.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shadows:\n  cascade_count: 9\n"), 0644))

	cfg, err := Load(path)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSaveToRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Window.Width = 1024
			cfg.Shadows.CascadeCount = 2
			cfg.Assets.Paths = []string{"a.glb"}

			path := filepath.Join(dir, "nested", name)
			require.NoError(t, cfg.SaveTo(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 1024, loaded.Window.Width)
			assert.Equal(t, 2, loaded.Shadows.CascadeCount)
			assert.Equal(t, []string{"a.glb"}, loaded.Assets.Paths)
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	assert.NotEmpty(t, dir)
	assert.True(t, filepath.IsAbs(dir), "ConfigDir should return an absolute path, got %s", dir)
}
