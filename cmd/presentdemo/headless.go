//go:build !nogpu

package main

import (
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/gogpu/present"
	"github.com/gogpu/present/backend"
	"github.com/gogpu/present/backend/wgpu"
	"github.com/gogpu/present/internal/settings"
)

const defaultHeadlessFrames = 60

// runHeadless presents offscreen through WebGPU and saves the last frame.
func runHeadless(opts demoOptions, cfg settings.Settings, logger *slog.Logger) error {
	factory, err := backend.Get(backend.WebGPU)
	if err != nil {
		return err
	}
	mgr := present.NewManager(factory, managerOptions(cfg, logger)...)
	defer func() {
		if err := mgr.Close(); err != nil {
			logger.Warn("presentdemo: closing presenter", "err", err)
		}
	}()

	ctl := newController(mgr, logger)
	cfg.Enabled = true
	ctl.apply(cfg)
	if !ctl.active() {
		return errors.New("presentdemo: WebGPU presentation could not be enabled")
	}

	surf, err := mgr.Surface()
	if err != nil {
		return err
	}
	ws, ok := surf.(*wgpu.Surface)
	if !ok {
		return fmt.Errorf("presentdemo: unexpected surface %T", surf)
	}

	frames := opts.frames
	if frames <= 0 {
		frames = defaultHeadlessFrames
	}
	sc := newScene(opts.width, opts.height)
	for n := 0; n < frames && ctl.active(); n++ {
		ctl.frame(sc, opts.width, opts.height, true, n)
	}

	img := ws.LastFrame()
	if img == nil {
		return errors.New("presentdemo: no frame was presented")
	}
	f, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", opts.output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("presentdemo: frame saved", "path", opts.output, "frames", frames,
		"last_frame", mgr.LastFrameTime())
	return nil
}
