// Package wgpu presents frames through the gogpu WebGPU HAL.
//
// A Surface owns (or borrows) a HAL device and exposes it as a
// present.Device. The immediate-mode calls issued by the presenter are
// translated into WebGPU objects: a linked program becomes a render
// pipeline with a fixed bind group layout, uniforms become a small
// uniform buffer, and DrawIndexed encodes a single render pass that
// clears the target and draws the quad.
//
// Two kinds of target are supported:
//
//   - Offscreen (default): the Surface renders into its own texture and
//     reads every swapped frame back into an *image.RGBA, delivered to
//     the OnFrame callback and kept as LastFrame.
//   - External: SetTarget points rendering at a texture view owned by the
//     host, typically the current swapchain image. The host presents it.
//
// # Device sharing
//
// NewFromProvider reuses the HAL device of a gpucontext.DeviceProvider
// (for example a gogpu application) instead of opening a new one:
//
//	surface, err := wgpu.NewFromProvider(app.GPUContextProvider())
//	if err != nil {
//	    return err
//	}
//	defer surface.Close()
//
// A shared device is never destroyed by Close.
//
// # Shader compilation
//
// The WGSL module is translated to SPIR-V with naga. Translation errors
// are reported as failed compile statuses and the WGSL text is handed to
// the HAL as is, matching the lenient handling of driver diagnostics in
// package present.
package wgpu
