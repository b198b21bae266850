// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package opengl

import (
	"errors"
	"runtime"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/present"
)

// ErrContextLost is returned when the window's context cannot be made
// current, typically because the window was destroyed.
var ErrContextLost = errors.New("opengl: context could not be made current")

// WindowHints sets the GLFW hints for a window whose context satisfies
// cfg. Call it before glfw.CreateWindow.
func WindowHints(cfg present.SurfaceConfig) {
	major, minor := cfg.MajorVersion, cfg.MinorVersion
	if major == 0 {
		major, minor = 3, 3
	}
	glfw.WindowHint(glfw.ContextVersionMajor, major)
	glfw.WindowHint(glfw.ContextVersionMinor, minor)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if cfg.Debug {
		glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	}
}

// Surface is a present.Surface over a GLFW window's context.
type Surface struct {
	win *glfw.Window

	// mu is held from MakeCurrent to ReleaseCurrent: a GL context can be
	// current on one thread only.
	mu  sync.Mutex
	dev *Device
}

// NewSurface wraps win. The swap interval from cfg is applied the first
// time the context is initialized.
func NewSurface(win *glfw.Window, cfg present.SurfaceConfig) *Surface {
	return &Surface{
		win: win,
		dev: newDevice(cfg.SwapInterval),
	}
}

// Window returns the wrapped window.
func (s *Surface) Window() *glfw.Window { return s.win }

// MakeCurrent locks the goroutine to its OS thread and makes the window's
// context current on it.
func (s *Surface) MakeCurrent() (present.Device, error) {
	s.mu.Lock()
	runtime.LockOSThread()
	s.win.MakeContextCurrent()
	if glfw.GetCurrentContext() != s.win {
		runtime.UnlockOSThread()
		s.mu.Unlock()
		return nil, ErrContextLost
	}
	return s.dev, nil
}

// ReleaseCurrent detaches the context and unlocks the thread.
func (s *Surface) ReleaseCurrent() {
	glfw.DetachCurrentContext()
	runtime.UnlockOSThread()
	s.mu.Unlock()
}

// SwapBuffers swaps the window's buffers. The context is made current
// briefly since some platforms require it for the swap.
func (s *Surface) SwapBuffers() error {
	if _, err := s.MakeCurrent(); err != nil {
		return err
	}
	defer s.ReleaseCurrent()
	s.win.SwapBuffers()
	return nil
}

// Factory returns a present.SurfaceFactory that wraps win. The window
// must have been created after WindowHints.
func Factory(win *glfw.Window) present.SurfaceFactory {
	return func(cfg present.SurfaceConfig) (present.Surface, error) {
		if win == nil {
			return nil, ErrContextLost
		}
		return NewSurface(win, cfg), nil
	}
}
