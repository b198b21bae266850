//go:build !nogpu

package wgpu

import (
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/present"
)

const (
	// WebGPU requires BytesPerRow of buffer copies aligned to 256 bytes.
	copyPitchAlignment = 256

	fenceTimeout = 5 * time.Second
)

// renderTarget is either a host-provided view or an offscreen texture
// owned by the device and read back after every pass.
type renderTarget struct {
	dev *Device

	external   hal.TextureView
	externalW  uint32
	externalH  uint32
	tex        hal.Texture
	view       hal.TextureView
	offscreenW uint32
	offscreenH uint32
}

func (rt *renderTarget) setExternal(view hal.TextureView, w, h uint32) {
	rt.destroy()
	rt.external, rt.externalW, rt.externalH = view, w, h
}

// acquire returns the view to render into. readback is non-nil for
// offscreen targets.
func (rt *renderTarget) acquire(w, h uint32) (view hal.TextureView, readback hal.Texture, err error) {
	if rt.external != nil {
		if w > rt.externalW || h > rt.externalH {
			return nil, nil, fmt.Errorf("viewport %dx%d exceeds target %dx%d", w, h, rt.externalW, rt.externalH)
		}
		return rt.external, nil, nil
	}
	if rt.tex != nil && rt.offscreenW == w && rt.offscreenH == h {
		return rt.view, rt.tex, nil
	}
	rt.destroy()

	d := rt.dev
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "present_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        d.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create target texture: %w", err)
	}
	view, err = d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "present_target_view",
		Format:        d.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create target view: %w", err)
	}
	rt.tex, rt.view = tex, view
	rt.offscreenW, rt.offscreenH = w, h
	return view, tex, nil
}

// destroy releases the offscreen texture. An external view is forgotten,
// not destroyed.
func (rt *renderTarget) destroy() {
	d := rt.dev
	if rt.view != nil {
		d.device.DestroyTextureView(rt.view)
		rt.view = nil
	}
	if rt.tex != nil {
		d.device.DestroyTexture(rt.tex)
		rt.tex = nil
	}
	rt.offscreenW, rt.offscreenH = 0, 0
	rt.external = nil
}

// DrawIndexed encodes a render pass that clears the target and draws
// count indices with the bound program, texture and buffers, then
// submits it and waits for completion.
func (d *Device) DrawIndexed(count int) {
	if err := d.drawIndexed(count); err != nil {
		d.fail(fmt.Errorf("wgpu: draw: %w", err))
	}
}

func (d *Device) drawIndexed(count int) error {
	p := d.current
	if p == nil {
		return errNoProgram
	}
	if p.pipeline == nil {
		return errNoPipeline
	}
	t, ok := d.textures[d.texture]
	if !ok || t.tex == nil {
		return fmt.Errorf("no texture with storage bound")
	}
	vb, ok := d.buffers[d.vertexBuf]
	if !ok {
		return fmt.Errorf("no vertex buffer bound")
	}
	ib, ok := d.buffers[d.indexBuf]
	if !ok {
		return fmt.Errorf("no index buffer bound")
	}
	if count <= 0 || uint64(count)*4 > ib.size {
		return fmt.Errorf("index count %d out of range", count)
	}
	if err := d.checkAttribs(); err != nil {
		return err
	}

	d.queue.WriteBuffer(p.uniformBuf, 0, p.uniforms[:])
	bindGroup, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "present_bind",
		Layout: p.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: p.uniformBuf.NativeHandle(), Offset: 0, Size: uniformBlockSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: gputypes.TextureViewHandle(t.view().NativeHandle()),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: gputypes.SamplerHandle(d.sampler(t.filter).NativeHandle()),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bindGroup)

	return d.submitPass(func(rp hal.RenderPassEncoder) {
		rp.SetPipeline(p.pipeline)
		rp.SetBindGroup(0, bindGroup, nil)
		rp.SetVertexBuffer(0, vb.buf, 0)
		rp.SetIndexBuffer(ib.buf, gputypes.IndexFormatUint32, 0)
		rp.DrawIndexed(uint32(count), 1, 0, 0, 0) //nolint:gosec // count checked against buffer size
	})
}

// checkAttribs verifies that the enabled attributes match the fixed
// vertex layout of the pipeline.
func (d *Device) checkAttribs() error {
	want := [...]vertexAttrib{
		locPosition: {enabled: true, size: 2, stride: present.QuadStride, offset: 0},
		locTexCoord: {enabled: true, size: 2, stride: present.QuadStride, offset: present.QuadTexCoordOffset},
	}
	for loc, a := range d.attribs {
		if a != want[loc] {
			return fmt.Errorf("attribute %d layout %+v does not match pipeline", loc, a)
		}
	}
	return nil
}

// finishFrame runs a clear-only pass when no draw happened since the last
// swap and returns the offscreen frame, if any.
func (d *Device) finishFrame() (*image.RGBA, error) {
	if !d.drawn {
		if err := d.submitPass(nil); err != nil {
			d.frame = nil
			return nil, fmt.Errorf("wgpu: clear: %w", err)
		}
	}
	frame := d.frame
	d.frame = nil
	d.drawn = false
	return frame, nil
}

// submitPass clears the target to the recorded color, lets draw record
// commands and submits. Offscreen targets are copied to a staging buffer
// and read back into d.frame.
func (d *Device) submitPass(draw func(rp hal.RenderPassEncoder)) error {
	d.drawn = true
	d.frame = nil
	if d.viewportW <= 0 || d.viewportH <= 0 {
		return nil
	}
	w, h := uint32(d.viewportW), uint32(d.viewportH) //nolint:gosec // checked positive above

	view, readback, err := d.target.acquire(w, h)
	if err != nil {
		return err
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "present_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("present_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "present_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: d.clearColor,
		}},
	})
	if draw != nil {
		draw(rp)
	}
	rp.End()

	var staging hal.Buffer
	alignedBytesPerRow := (w*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)
	if readback != nil {
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: readback,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		staging, err = d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "present_staging",
			Size:  stagingSize,
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			encoder.DiscardEncoding()
			return fmt.Errorf("create staging buffer: %w", err)
		}
		defer d.device.DestroyBuffer(staging)

		encoder.CopyTextureToBuffer(readback, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: readback, MipLevel: 0},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: readback,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	if staging == nil {
		return nil
	}
	data := make([]byte, stagingSize)
	if err := d.queue.ReadBuffer(staging, 0, data); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	d.frame = d.decodeFrame(data, w, h, alignedBytesPerRow)
	return nil
}

// decodeFrame strips row padding and converts the target format to RGBA.
func (d *Device) decodeFrame(data []byte, w, h, pitch uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	swap := d.format == gputypes.TextureFormatBGRA8Unorm
	rowBytes := int(w) * 4
	for y := 0; y < int(h); y++ {
		src := data[y*int(pitch) : y*int(pitch)+rowBytes]
		dst := img.Pix[y*img.Stride : y*img.Stride+rowBytes]
		copy(dst, src)
		if swap {
			for i := 0; i < rowBytes; i += 4 {
				dst[i], dst[i+2] = dst[i+2], dst[i]
			}
		}
	}
	return img
}
