package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagShadowRes  = flag.Uint("shadow-res", 0, "Shadow map resolution")
	flagCascades   = flag.Int("cascades", 0, "Shadow cascade count (1-4)")
	flagHotReload  = flag.Bool("hot-reload", false, "Reload assets when their files change")
	flagNoVSync    = flag.Bool("no-vsync", false, "Disable vertical sync")
	flagNoGround   = flag.Bool("no-ground", false, "Do not add the ground plane")
	flagShowCascad = flag.Bool("show-cascades", false, "Tint geometry by shadow cascade")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// Args returns the positional arguments, treated as asset paths.
func Args() []string {
	return flag.Args()
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Renderer.ShowFPS = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagShadowRes > 0 {
		cfg.Shadows.Resolution = uint32(*flagShadowRes)
	}
	if *flagCascades > 0 {
		cfg.Shadows.CascadeCount = *flagCascades
	}
	if *flagHotReload {
		cfg.Assets.HotReload = true
	}
	if *flagNoVSync {
		cfg.Window.VSync = false
	}
	if *flagNoGround {
		cfg.Assets.Ground = false
	}
	if *flagShowCascad {
		cfg.Renderer.DebugShowCascades = true
	}
	if args := Args(); len(args) > 0 {
		cfg.Assets.Paths = append([]string(nil), args...)
	}
}
