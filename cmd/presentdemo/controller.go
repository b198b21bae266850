package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/gogpu/present"
	"github.com/gogpu/present/internal/settings"
)

// controller applies settings to a manager and runs the per-frame host
// duties: polling failures and GPU info, finishing a requested disable.
type controller struct {
	mgr    *present.Manager
	logger *slog.Logger

	mu      sync.Mutex
	cur     settings.Settings
	enabled bool
}

func newController(m *present.Manager, logger *slog.Logger) *controller {
	return &controller{mgr: m, logger: logger}
}

// apply is called with every (re)loaded settings value, possibly from
// the watcher goroutine.
func (c *controller) apply(s settings.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mgr.SetDebug(s.Debug)
	c.mgr.SetLinearFilter(s.LinearFilter)
	c.mgr.SetVSync(s.VSync)
	c.mgr.SetSkipUploadWhenUnfocused(s.SkipUploadWhenUnfocused)
	c.cur = s

	switch {
	case s.Enabled && !c.enabled:
		if !c.mgr.BeginEnable() {
			return
		}
		// Attach the surface before declaring the path on.
		if _, err := c.mgr.Surface(); err != nil {
			c.logger.Warn("presentdemo: cannot create surface", "err", err)
			c.mgr.Shutdown()
			return
		}
		c.mgr.MarkEnabled()
		c.enabled = true
	case !s.Enabled && c.enabled:
		c.mgr.BeginDisable()
		c.enabled = false
	}
}

func (c *controller) params() (sharpen, saturation float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur.Sharpen, c.cur.Saturation
}

// active reports whether the GPU path is requested and has not failed.
func (c *controller) active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// frame composes and presents frame n, then polls the manager.
func (c *controller) frame(s *scene, canvasWidth, canvasHeight int, focused bool, n int) {
	s.compose(c.mgr, n)
	sharpen, saturation := c.params()
	c.mgr.PresentFrame(canvasWidth, canvasHeight, focused, sharpen, saturation)
	c.poll()
}

func (c *controller) poll() {
	if err := c.mgr.ConsumeInitFailure(); err != nil {
		c.logger.Warn("presentdemo: GPU presentation failed", "err", err)
		c.mu.Lock()
		c.enabled = false
		c.mu.Unlock()
	}
	if msg := c.mgr.ConsumeGPUInfoMessage(); msg != "" {
		for _, line := range strings.Split(msg, "\n") {
			c.logger.Info("presentdemo: " + line)
		}
	}
	if c.mgr.State() == present.StateDisabling {
		c.mgr.Shutdown()
	}
}
