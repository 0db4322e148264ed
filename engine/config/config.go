// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Validate when a setting is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all viewer settings.
type Config struct {
	Window   WindowConfig   `yaml:"window" toml:"window"`
	Renderer RendererConfig `yaml:"renderer" toml:"renderer"`
	Shadows  ShadowConfig   `yaml:"shadows" toml:"shadows"`
	Assets   AssetConfig    `yaml:"assets" toml:"assets"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title  string `yaml:"title" toml:"title"`
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
	VSync  bool   `yaml:"vsync" toml:"vsync"`
}

// RendererConfig holds scene renderer settings and debug toggles.
type RendererConfig struct {
	FramesInFlight    int  `yaml:"frames_in_flight" toml:"frames_in_flight"`
	DrawToSwapchain   bool `yaml:"draw_to_swapchain" toml:"draw_to_swapchain"`
	PersistentDepth   bool `yaml:"persistent_depth" toml:"persistent_depth"`
	DebugShowCascades bool `yaml:"debug_show_cascades" toml:"debug_show_cascades"`
	FreezeFrustum     bool `yaml:"freeze_frustum" toml:"freeze_frustum"`
	ShowFPS           bool `yaml:"show_fps" toml:"show_fps"`
}

// ShadowConfig holds cascaded shadow map settings.
type ShadowConfig struct {
	Resolution   uint32  `yaml:"resolution" toml:"resolution"`
	CascadeCount int     `yaml:"cascade_count" toml:"cascade_count"`
	SplitLambda  float32 `yaml:"split_lambda" toml:"split_lambda"`
	SoftShadows  bool    `yaml:"soft_shadows" toml:"soft_shadows"`
}

// AssetConfig holds the models loaded at startup.
type AssetConfig struct {
	Paths     []string `yaml:"paths" toml:"paths"`
	HotReload bool     `yaml:"hot_reload" toml:"hot_reload"`
	Ground    bool     `yaml:"ground" toml:"ground"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "Tsuki",
			Width:  1600,
			Height: 900,
			VSync:  true,
		},
		Renderer: RendererConfig{
			FramesInFlight:  3,
			DrawToSwapchain: true,
		},
		Shadows: ShadowConfig{
			Resolution:   2048,
			CascadeCount: 4,
			SplitLambda:  0.95,
			SoftShadows:  true,
		},
		Assets: AssetConfig{
			Ground: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first out-of-range setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Renderer.FramesInFlight < 1 || c.Renderer.FramesInFlight > 3:
		return fmt.Errorf("%w: frames_in_flight %d not in [1, 3]", ErrInvalidConfig, c.Renderer.FramesInFlight)
	case c.Shadows.CascadeCount < 1 || c.Shadows.CascadeCount > 4:
		return fmt.Errorf("%w: cascade_count %d not in [1, 4]", ErrInvalidConfig, c.Shadows.CascadeCount)
	case c.Shadows.SplitLambda < 0 || c.Shadows.SplitLambda > 1:
		return fmt.Errorf("%w: split_lambda %g not in [0, 1]", ErrInvalidConfig, c.Shadows.SplitLambda)
	case !validShadowResolution(c.Shadows.Resolution):
		return fmt.Errorf("%w: shadow resolution %d must be a power of two in [256, 8192]", ErrInvalidConfig, c.Shadows.Resolution)
	}
	return nil
}

func validShadowResolution(r uint32) bool {
	return r >= 256 && r <= 8192 && r&(r-1) == 0
}
