// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package opengl presents frames through an OpenGL 3.3 core context owned
// by a GLFW window.
//
// The host creates the window on the main thread (GLFW requires it) and
// wraps it with NewSurface. The surface binds the context to the calling
// OS thread for the duration of each present.Device scope and detaches it
// afterwards, so presenting and configuration may come from different
// goroutines.
//
//	opengl.WindowHints(present.SurfaceConfig{MajorVersion: 3, MinorVersion: 3})
//	win, err := glfw.CreateWindow(800, 600, "demo", nil, nil)
//	...
//	m := present.NewManager(func(cfg present.SurfaceConfig) (present.Surface, error) {
//	    return opengl.NewSurface(win, cfg), nil
//	})
package opengl
