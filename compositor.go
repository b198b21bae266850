package present

import "sync/atomic"

// Compositor accumulates software-rendered pixel rectangles into a single
// frame buffer. Pixels are packed 0xAARRGGBB values, row-major.
//
// The buffer is owned by the render loop: BeginFrame, Blit and the read in
// Manager.PresentFrame must not run concurrently. Only the enabled flag may
// be flipped from another goroutine.
type Compositor struct {
	enabled atomic.Bool

	pixels []uint32
	width  int
	height int
}

// NewCompositor returns a disabled compositor with no buffer.
func NewCompositor() *Compositor {
	return &Compositor{}
}

// SetEnabled turns frame acceptance on or off.
func (c *Compositor) SetEnabled(enabled bool) { c.enabled.Store(enabled) }

// Enabled reports whether BeginFrame and Blit accept frames.
func (c *Compositor) Enabled() bool { return c.enabled.Load() }

// BeginFrame starts a new frame of the given size. The buffer is
// reallocated when the size changed and zeroed otherwise, so after the call
// len(Pixels()) == width*height and every pixel is zero.
//
// It is a no-op when the compositor is disabled or the size is not positive.
func (c *Compositor) BeginFrame(width, height int) {
	if !c.Enabled() || width <= 0 || height <= 0 {
		return
	}
	if c.pixels == nil || width != c.width || height != c.height {
		c.pixels = make([]uint32, width*height)
		c.width = width
		c.height = height
		return
	}
	clear(c.pixels)
}

// Blit copies a srcWidth x srcHeight block of src into the frame at (x, y),
// clipped to the frame bounds. Later blits overwrite earlier ones.
//
// It is a no-op when the compositor is disabled, no frame was begun, or src
// is empty. A src shorter than srcWidth*srcHeight is copied up to its length.
func (c *Compositor) Blit(src []uint32, srcWidth, srcHeight, x, y int) {
	if !c.Enabled() || c.pixels == nil || len(src) == 0 || srcWidth <= 0 || srcHeight <= 0 {
		return
	}

	startX := max(0, x)
	startY := max(0, y)
	endX := min(c.width, x+srcWidth)
	endY := min(c.height, y+srcHeight)
	if startX >= endX || startY >= endY {
		return
	}

	copyWidth := endX - startX
	for row := startY; row < endY; row++ {
		srcOff := (row-y)*srcWidth + (startX - x)
		if srcOff >= len(src) {
			return
		}
		n := min(copyWidth, len(src)-srcOff)
		dstOff := row*c.width + startX
		copy(c.pixels[dstOff:dstOff+n], src[srcOff:srcOff+n])
	}
}

// HasFrame reports whether a frame buffer exists.
func (c *Compositor) HasFrame() bool { return c.pixels != nil }

// Width returns the current frame width, or 0 before the first frame.
func (c *Compositor) Width() int { return c.width }

// Height returns the current frame height, or 0 before the first frame.
func (c *Compositor) Height() int { return c.height }

// Pixels returns the frame buffer. The slice is reused across frames of
// the same size and must not be retained past the next BeginFrame.
func (c *Compositor) Pixels() []uint32 { return c.pixels }

// At returns the pixel at (x, y), or 0 when out of bounds.
func (c *Compositor) At(x, y int) uint32 {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return 0
	}
	return c.pixels[y*c.width+x]
}
