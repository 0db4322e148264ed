// Command tsuki opens a window and renders glTF assets under a shadow casting sun.
//
// Usage:
//
//	tsuki [flags] [model.gltf|model.glb ...]
//
// Hold the right mouse button to look around and fly with WASD. C tints geometry by shadow cascade,
// F freezes the culling frustum, P toggles frame statistics and F5 reloads every asset.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/tsuki-go/engine"
	"github.com/Carmen-Shannon/tsuki-go/engine/config"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/Carmen-Shannon/tsuki-go/engine/logger"
	"github.com/Carmen-Shannon/tsuki-go/engine/window"
	"go.uber.org/zap"
)

func init() {
	// GLFW must be driven from the main thread.
	runtime.LockOSThread()
}

func main() {
	config.ParseFlags()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "tsuki: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "tsuki: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("viewer stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}

	device := gpu.NewWGPUDevice(win.SurfaceDescriptor(), gpu.WithVSync(cfg.Window.VSync))
	defer device.Release()

	eng, err := engine.NewEngine(device,
		engine.WithWindow(win),
		engine.WithConfig(cfg),
	)
	if err != nil {
		return err
	}
	defer eng.Release()

	if err := eng.SetupDefaultScene(); err != nil {
		return err
	}
	for _, path := range cfg.Assets.Paths {
		if _, err := eng.Load(path); err != nil {
			logger.Warn("skipping asset", zap.String("asset", path), zap.Error(err))
		}
	}

	logger.Info("viewer started",
		zap.Int("width", win.Width()),
		zap.Int("height", win.Height()),
		zap.Int("assets", len(cfg.Assets.Paths)),
		zap.Uint32("shadow_resolution", cfg.Shadows.Resolution),
		zap.Int("cascades", cfg.Shadows.CascadeCount),
	)
	return eng.Run()
}
