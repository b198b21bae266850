//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"math/bits"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/draw"

	"github.com/gogpu/present"
)

// Frame textures store packed 0xAARRGGBB pixels, which are B, G, R, A in
// little-endian byte order.
const frameTextureFormat = gputypes.TextureFormatBGRA8Unorm

type texture struct {
	filter present.Filter

	tex      hal.Texture
	fullView hal.TextureView // every mip level
	baseView hal.TextureView // level 0 only, for nearest sampling
	width    uint32
	height   uint32
	levels   uint32

	// base holds the level 0 bytes (BGRA in an RGBA container) for
	// mipmap generation.
	base *image.RGBA
}

func (t *texture) view() hal.TextureView {
	if t.filter == present.FilterLinear {
		return t.fullView
	}
	return t.baseView
}

// mipLevels returns the length of a full mip chain for w x h.
func mipLevels(w, h uint32) uint32 {
	return uint32(bits.Len32(max(w, h)))
}

// CreateTexture implements present.Device. Storage is allocated by
// AllocTexture.
func (d *Device) CreateTexture(filter present.Filter) (present.TextureID, error) {
	id := present.TextureID(d.newID())
	d.textures[id] = &texture{filter: filter}
	return id, nil
}

// SetTextureFilter implements present.Device.
func (d *Device) SetTextureFilter(id present.TextureID, filter present.Filter) {
	t, ok := d.textures[id]
	if !ok {
		d.fail(fmt.Errorf("wgpu: set texture filter %d: %w", id, errBadHandle))
		return
	}
	t.filter = filter
}

// AllocTexture replaces the storage of id with a width x height texture
// carrying a full mip chain.
func (d *Device) AllocTexture(id present.TextureID, width, height int) error {
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("wgpu: alloc texture %d: %w", id, errBadHandle)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu: alloc texture: invalid size %dx%d", width, height)
	}
	d.releaseStorage(t)

	w, h := uint32(width), uint32(height) //nolint:gosec // checked positive above
	levels := mipLevels(w, h)
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "present_frame",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: levels,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        frameTextureFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create frame texture: %w", err)
	}
	t.tex = tex
	t.width, t.height, t.levels = w, h, levels

	t.fullView, err = d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "present_frame_view",
		Format:        frameTextureFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: levels,
	})
	if err != nil {
		d.releaseStorage(t)
		return fmt.Errorf("wgpu: create frame texture view: %w", err)
	}
	t.baseView, err = d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "present_frame_base_view",
		Format:        frameTextureFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.releaseStorage(t)
		return fmt.Errorf("wgpu: create frame texture view: %w", err)
	}
	t.base = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// UpdateTexture uploads pixels into level 0.
func (d *Device) UpdateTexture(id present.TextureID, width, height int, pixels []uint32) error {
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("wgpu: update texture %d: %w", id, errBadHandle)
	}
	if t.tex == nil {
		return fmt.Errorf("wgpu: update texture %d: no storage", id)
	}
	if width != int(t.width) || height != int(t.height) || len(pixels) < width*height {
		return fmt.Errorf("wgpu: update texture %d: %dx%d does not match storage %dx%d",
			id, width, height, t.width, t.height)
	}

	pix := t.base.Pix
	for i, p := range pixels[:width*height] {
		binary.LittleEndian.PutUint32(pix[i*4:], p)
	}
	d.writeLevel(t, 0, t.base)
	return nil
}

// GenerateMipmap downsamples level 0 on the CPU and uploads every level.
func (d *Device) GenerateMipmap(id present.TextureID) {
	t, ok := d.textures[id]
	if !ok {
		d.fail(fmt.Errorf("wgpu: generate mipmap %d: %w", id, errBadHandle))
		return
	}
	if t.tex == nil {
		d.fail(fmt.Errorf("wgpu: generate mipmap %d: no storage", id))
		return
	}
	prev := t.base
	for level := uint32(1); level < t.levels; level++ {
		w := max(t.width>>level, 1)
		h := max(t.height>>level, 1)
		dst := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
		draw.BiLinear.Scale(dst, dst.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		d.writeLevel(t, level, dst)
		prev = dst
	}
}

func (d *Device) writeLevel(t *texture, level uint32, img *image.RGBA) {
	b := img.Bounds()
	w, h := uint32(b.Dx()), uint32(b.Dy()) //nolint:gosec // image sizes are positive
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: level,
		},
		img.Pix,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(img.Stride), //nolint:gosec // stride is 4*w
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
}

// DeleteTexture implements present.Device.
func (d *Device) DeleteTexture(id present.TextureID) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	d.releaseStorage(t)
	delete(d.textures, id)
	if d.texture == id {
		d.texture = 0
	}
}

func (d *Device) releaseStorage(t *texture) {
	if t.baseView != nil {
		d.device.DestroyTextureView(t.baseView)
		t.baseView = nil
	}
	if t.fullView != nil {
		d.device.DestroyTextureView(t.fullView)
		t.fullView = nil
	}
	if t.tex != nil {
		d.device.DestroyTexture(t.tex)
		t.tex = nil
	}
	t.width, t.height, t.levels = 0, 0, 0
	t.base = nil
}
