package main

import "github.com/gogpu/present"

const spriteSize = 48

// scene stands in for the host rasterizer: a scrolling gradient and a
// bouncing sprite, blitted as two layers.
type scene struct {
	width, height int
	background    []uint32
	sprite        []uint32
}

func newScene(width, height int) *scene {
	s := &scene{
		width:      width,
		height:     height,
		background: make([]uint32, width*height),
		sprite:     make([]uint32, spriteSize*spriteSize),
	}
	for y := 0; y < spriteSize; y++ {
		for x := 0; x < spriteSize; x++ {
			c := uint32(0xFFFFCC00)
			if x < 3 || y < 3 || x >= spriteSize-3 || y >= spriteSize-3 {
				c = 0xFFFFFFFF
			}
			s.sprite[y*spriteSize+x] = c
		}
	}
	return s
}

func (s *scene) render(frame int) {
	for y := 0; y < s.height; y++ {
		g := uint32(y * 255 / max(s.height-1, 1))
		row := s.background[y*s.width : (y+1)*s.width]
		for x := range row {
			r := uint32((x + frame) & 0xFF)
			row[x] = 0xFF000000 | r<<16 | g<<8 | 0x80
		}
	}
}

// spritePos bounces the sprite between the frame edges.
func (s *scene) spritePos(frame int) (int, int) {
	return bounce(frame*4, s.width-spriteSize), bounce(frame*3, s.height-spriteSize)
}

func bounce(t, span int) int {
	if span <= 0 {
		return 0
	}
	p := t % (2 * span)
	if p > span {
		p = 2*span - p
	}
	return p
}

// compose renders frame n and blits both layers into the manager.
func (s *scene) compose(m *present.Manager, n int) {
	m.BeginFrame(s.width, s.height)
	s.render(n)
	m.Blit(s.background, s.width, s.height, 0, 0)
	x, y := s.spritePos(n)
	m.Blit(s.sprite, spriteSize, spriteSize, x, y)
}
