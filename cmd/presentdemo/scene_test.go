package main

import (
	"testing"

	"github.com/gogpu/present"
)

func TestBounce(t *testing.T) {
	tests := []struct {
		t, span, want int
	}{
		{0, 10, 0},
		{4, 10, 4},
		{10, 10, 10},
		{14, 10, 6},
		{20, 10, 0},
		{23, 10, 3},
		{7, 0, 0},
		{7, -5, 0},
	}
	for _, tt := range tests {
		if got := bounce(tt.t, tt.span); got != tt.want {
			t.Errorf("bounce(%d, %d) = %d, want %d", tt.t, tt.span, got, tt.want)
		}
	}
}

func TestSpriteStaysInFrame(t *testing.T) {
	s := newScene(200, 100)
	for n := 0; n < 500; n++ {
		x, y := s.spritePos(n)
		if x < 0 || y < 0 || x+spriteSize > 200 || y+spriteSize > 100 {
			t.Fatalf("frame %d: sprite at (%d, %d) leaves the 200x100 frame", n, x, y)
		}
	}
}

func TestSceneCompose(t *testing.T) {
	m := present.NewManager(nil)
	m.BeginEnable()

	s := newScene(64, 64)
	s.compose(m, 0)

	c := m.Compositor()
	if !c.HasFrame() || c.Width() != 64 || c.Height() != 64 {
		t.Fatalf("compositor frame = %dx%d (has frame: %v), want 64x64", c.Width(), c.Height(), c.HasFrame())
	}
	// Frame 0 puts the sprite at the origin with a white border.
	if got := c.At(0, 0); got != 0xFFFFFFFF {
		t.Errorf("At(0, 0) = %#08x, want sprite border", got)
	}
	if got := c.At(10, 10); got != 0xFFFFCC00 {
		t.Errorf("At(10, 10) = %#08x, want sprite fill", got)
	}
	if got := c.At(63, 63); got>>24 != 0xFF || got&0xFF != 0x80 {
		t.Errorf("At(63, 63) = %#08x, want opaque background", got)
	}
}
