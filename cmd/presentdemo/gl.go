//go:build !nogpu

package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/present"
	"github.com/gogpu/present/backend"
	"github.com/gogpu/present/backend/opengl"
	"github.com/gogpu/present/internal/settings"
)

func init() {
	// GLFW event handling must run on the main thread.
	runtime.LockOSThread()
}

func runGL(opts demoOptions, cfg settings.Settings, logger *slog.Logger) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	opengl.WindowHints(present.SurfaceConfig{MajorVersion: 3, MinorVersion: 3, Debug: cfg.Debug})
	win, err := glfw.CreateWindow(opts.width, opts.height, "presentdemo", nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer win.Destroy()

	backend.Register(backend.OpenGL, opengl.Factory(win))
	name, factory, err := backend.Default()
	if err != nil {
		return err
	}
	logger.Info("presentdemo: presenting", "backend", name, "settings", opts.settingsPath)

	mgr := present.NewManager(factory, managerOptions(cfg, logger)...)
	defer mgr.Close()

	var focused atomic.Bool
	focused.Store(true)
	win.SetFocusCallback(func(_ *glfw.Window, f bool) { focused.Store(f) })

	ctl := newController(mgr, logger)
	ctl.apply(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := settings.Watch(ctx, opts.settingsPath, ctl.apply); err != nil {
			logger.Warn("presentdemo: settings are not watched", "err", err)
		}
	}()

	sc := newScene(opts.width, opts.height)
	for n := 0; !win.ShouldClose() && (opts.frames <= 0 || n < opts.frames); n++ {
		glfw.PollEvents()
		fbw, fbh := win.GetFramebufferSize()
		ctl.frame(sc, fbw, fbh, focused.Load(), n)
		if !ctl.active() {
			// No swap interval paces the loop without the GPU path.
			time.Sleep(16 * time.Millisecond)
		}
	}
	return nil
}
