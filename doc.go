// Package present composes software-rendered frames and presents them
// through a GPU surface.
//
// # Overview
//
// A host renders its frame in software, as one or more layers of packed
// 0xAARRGGBB pixels. A Manager collects the layers in a Compositor and,
// once per frame, hands the composed buffer to a Presenter. The presenter
// uploads it to a texture and draws a full-screen quad through a small
// filter: an unsharp mask followed by a saturation mix. All GPU work runs
// while the surface's context is current (WithContext).
//
// # Quick Start
//
//	m := present.NewManager(factory, present.WithLinearFilter(true))
//	m.BeginEnable()
//	m.MarkEnabled()
//
//	for running {
//		m.BeginFrame(w, h)
//		m.Blit(scene, w, h, 0, 0)
//		m.Blit(overlay, ow, oh, ox, oy)
//		m.PresentFrame(canvasW, canvasH, focused, 0.3, 1.1)
//		if err := m.ConsumeInitFailure(); err != nil {
//			// fall back to the host's own presentation
//		}
//	}
//	m.Close()
//
// # Lifecycle
//
// The manager moves through OFF, ENABLING, ON and DISABLING. BeginEnable
// starts accepting frames, MarkEnabled records that the host has shown
// the surface, BeginDisable stops accepting frames and Shutdown releases
// GPU resources and returns to OFF from any state, keeping the surface.
// Close also closes a surface that owns its device. A GPU error during a
// frame drops the frame, turns presentation off and is reported once by
// ConsumeInitFailure; it never reaches the render loop as a panic or
// error return.
//
// # Backends
//
// The Device and Surface interfaces abstract the graphics API. Package
// backend/opengl implements them over an OpenGL 3.3 core context owned by
// a GLFW window; package backend/wgpu implements them over the WebGPU HAL,
// offscreen or into a host-provided texture view. Package backend keeps a
// registry of surface factories by name.
//
// # Logging
//
// The package logs through log/slog. By default nothing is logged; use
// SetLogger or WithLogger to enable output.
package present
