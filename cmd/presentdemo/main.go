// Command presentdemo composes a synthetic scene in software and presents
// it through package present.
//
// With -backend gl it opens a window and follows the settings file live:
// toggling "enabled" drives the presentation lifecycle, the other keys
// are applied as they change. With -backend wgpu it renders -frames
// frames offscreen and writes the last one to -output.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/present"
	"github.com/gogpu/present/backend"
	"github.com/gogpu/present/internal/settings"
)

type demoOptions struct {
	width, height int
	settingsPath  string
	frames        int
	output        string
}

func main() {
	var (
		width        = flag.Int("width", 800, "frame width")
		height       = flag.Int("height", 600, "frame height")
		settingsPath = flag.String("settings", "present.toml", "settings file (TOML), watched for changes")
		backendName  = flag.String("backend", backend.OpenGL, "presentation backend: gl or wgpu")
		frames       = flag.Int("frames", 0, "number of frames to present (0: until the window closes; wgpu: 60)")
		output       = flag.String("output", "frame.png", "output file for the last wgpu frame")
	)
	flag.Parse()

	cfg, err := settings.Load(*settingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	present.SetLogger(logger)

	opts := demoOptions{
		width:        *width,
		height:       *height,
		settingsPath: *settingsPath,
		frames:       *frames,
		output:       *output,
	}
	if err := run(*backendName, opts, cfg, logger); err != nil {
		log.Fatal(err)
	}
}

func run(name string, opts demoOptions, cfg settings.Settings, logger *slog.Logger) error {
	if opts.width <= 0 || opts.height <= 0 {
		return fmt.Errorf("invalid size %dx%d", opts.width, opts.height)
	}
	switch name {
	case backend.OpenGL:
		return runGL(opts, cfg, logger)
	case backend.WebGPU:
		return runHeadless(opts, cfg, logger)
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", name, backend.OpenGL, backend.WebGPU)
	}
}

// managerOptions maps host settings onto manager options.
func managerOptions(cfg settings.Settings, logger *slog.Logger) []present.Option {
	return []present.Option{
		present.WithLogger(logger),
		present.WithDebug(cfg.Debug),
		present.WithLinearFilter(cfg.LinearFilter),
		present.WithVSync(cfg.VSync),
		present.WithSkipUploadWhenUnfocused(cfg.SkipUploadWhenUnfocused),
		present.WithGLVersion(3, 3),
	}
}
