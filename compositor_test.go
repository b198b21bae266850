package present

import "testing"

func newEnabledCompositor() *Compositor {
	c := NewCompositor()
	c.SetEnabled(true)
	return c
}

func fill(w, h int, v uint32) []uint32 {
	p := make([]uint32, w*h)
	for i := range p {
		p[i] = v
	}
	return p
}

func allZero(p []uint32) bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}

func TestCompositorBeginFrameSizes(t *testing.T) {
	c := newEnabledCompositor()
	sizes := [][2]int{{10, 10}, {10, 10}, {20, 5}, {1, 1}, {20, 5}, {64, 48}}
	for _, sz := range sizes {
		// Dirty the buffer so clearing is observable.
		if c.HasFrame() {
			c.Blit(fill(c.Width(), c.Height(), 0xFFFFFFFF), c.Width(), c.Height(), 0, 0)
		}
		c.BeginFrame(sz[0], sz[1])
		if got, want := len(c.Pixels()), sz[0]*sz[1]; got != want {
			t.Fatalf("BeginFrame(%d,%d): len = %d, want %d", sz[0], sz[1], got, want)
		}
		if !allZero(c.Pixels()) {
			t.Fatalf("BeginFrame(%d,%d): buffer not zeroed", sz[0], sz[1])
		}
	}
}

func TestCompositorBeginFrameReusesBuffer(t *testing.T) {
	c := newEnabledCompositor()
	c.BeginFrame(8, 8)
	first := &c.Pixels()[0]
	c.BeginFrame(8, 8)
	if &c.Pixels()[0] != first {
		t.Error("same-size BeginFrame reallocated the buffer")
	}
	c.BeginFrame(9, 8)
	if &c.Pixels()[0] == first {
		t.Error("resize did not reallocate the buffer")
	}
}

func TestCompositorNoOps(t *testing.T) {
	c := NewCompositor()
	c.BeginFrame(4, 4)
	if c.HasFrame() {
		t.Fatal("disabled compositor allocated a frame")
	}

	c.SetEnabled(true)
	c.Blit(fill(2, 2, 1), 2, 2, 0, 0) // no buffer yet
	c.BeginFrame(0, 4)
	c.BeginFrame(4, -1)
	if c.HasFrame() {
		t.Fatal("non-positive size allocated a frame")
	}

	c.BeginFrame(4, 4)
	c.Blit(nil, 2, 2, 0, 0)
	c.SetEnabled(false)
	c.Blit(fill(2, 2, 1), 2, 2, 0, 0)
	if !allZero(c.Pixels()) {
		t.Error("no-op blit modified the buffer")
	}
}

func TestCompositorBlitOutOfBounds(t *testing.T) {
	c := newEnabledCompositor()
	c.BeginFrame(10, 10)

	src := fill(5, 5, 0xFFFFFFFF)
	for _, off := range [][2]int{{-100, -100}, {10, 0}, {0, 10}, {-5, 0}, {0, -5}, {100, 100}} {
		c.Blit(src, 5, 5, off[0], off[1])
	}
	if !allZero(c.Pixels()) {
		t.Error("blit outside the buffer modified pixels")
	}
}

func TestCompositorBlitOverlapLaterWins(t *testing.T) {
	c := newEnabledCompositor()
	c.BeginFrame(8, 8)
	c.Blit(fill(4, 4, 0xFF0000), 4, 4, 2, 2)
	c.Blit(fill(4, 4, 0x00FF00), 4, 4, 4, 4)

	if got := c.At(5, 5); got != 0x00FF00 {
		t.Errorf("pixel (5,5) = %#x, want 0x00FF00", got)
	}
	if got := c.At(2, 2); got != 0xFF0000 {
		t.Errorf("pixel (2,2) = %#x, want 0xFF0000", got)
	}
	if got := c.At(1, 1); got != 0 {
		t.Errorf("pixel (1,1) = %#x, want 0", got)
	}
	if got := c.At(7, 7); got != 0x00FF00 {
		t.Errorf("pixel (7,7) = %#x, want 0x00FF00", got)
	}
}

func TestCompositorBlitClipping(t *testing.T) {
	c := newEnabledCompositor()
	c.BeginFrame(4, 4)

	// 3x3 source with distinct values, placed at (-1,-1): only its
	// bottom-right 2x2 lands in the buffer.
	src := []uint32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}
	c.Blit(src, 3, 3, -1, -1)
	want := map[[2]int]uint32{{0, 0}: 5, {1, 0}: 6, {0, 1}: 8, {1, 1}: 9, {2, 0}: 0, {0, 2}: 0}
	for p, w := range want {
		if got := c.At(p[0], p[1]); got != w {
			t.Errorf("At(%d,%d) = %d, want %d", p[0], p[1], got, w)
		}
	}

	// Same source at (3,3): only its top-left pixel lands.
	c.BeginFrame(4, 4)
	c.Blit(src, 3, 3, 3, 3)
	if got := c.At(3, 3); got != 1 {
		t.Errorf("At(3,3) = %d, want 1", got)
	}
	n := 0
	for _, v := range c.Pixels() {
		if v != 0 {
			n++
		}
	}
	if n != 1 {
		t.Errorf("%d pixels written, want 1", n)
	}
}

func TestCompositorBlitShortSource(t *testing.T) {
	c := newEnabledCompositor()
	c.BeginFrame(4, 4)
	// Claims 4x4 but holds only 6 pixels.
	c.Blit(fill(6, 1, 7), 4, 4, 0, 0)
	if c.At(3, 0) != 7 || c.At(1, 1) != 7 || c.At(2, 1) != 0 {
		t.Errorf("short source copy mismatch: %v", c.Pixels())
	}
}
