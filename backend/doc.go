// Package backend is a registry of named surface factories.
//
// Backend packages register a present.SurfaceFactory under a name, either
// from an init function (backend/wgpu) or at runtime when the factory
// needs host state such as a window (backend/opengl):
//
//	import _ "github.com/gogpu/present/backend/wgpu"
//
//	factory, err := backend.Get(backend.WebGPU)
//	if err != nil {
//		log.Fatal(err)
//	}
//	mgr := present.NewManager(factory)
//
// Default returns the preferred registered backend: OpenGL, then WebGPU.
package backend
