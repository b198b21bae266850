package present

import "math"

// Luma weights for the saturation stage.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// RGB is a linear color with components nominally in [0, 1].
type RGB struct {
	R, G, B float32
}

func (c RGB) add(o RGB) RGB       { return RGB{c.R + o.R, c.G + o.G, c.B + o.B} }
func (c RGB) sub(o RGB) RGB       { return RGB{c.R - o.R, c.G - o.G, c.B - o.B} }
func (c RGB) scale(s float32) RGB { return RGB{c.R * s, c.G * s, c.B * s} }

// UnpackRGB converts a packed 0xAARRGGBB pixel to RGB, ignoring alpha.
func UnpackRGB(p uint32) RGB {
	return RGB{
		R: float32((p>>16)&0xFF) / 255,
		G: float32((p>>8)&0xFF) / 255,
		B: float32(p&0xFF) / 255,
	}
}

// PackRGB converts c to an opaque packed pixel, clamping each component.
func PackRGB(c RGB) uint32 {
	return 0xFF000000 | to8(c.R)<<16 | to8(c.G)<<8 | to8(c.B)
}

func to8(v float32) uint32 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint32(math.Round(float64(v) * 255))
}

// Luma returns the weighted brightness of c.
func Luma(c RGB) float32 {
	return c.R*lumaR + c.G*lumaG + c.B*lumaB
}

// mix follows the shading-language definition x*(1-a) + y*a.
func mix(x, y, a float32) float32 {
	return x*(1-a) + y*a
}

// FilterSample evaluates the presentation filter for one texel given its
// four direct neighbors:
//
//	blur      = (n + s + e + w) / 4
//	sharpened = center + (center - blur) * sharpen
//	out       = mix(luma(sharpened), sharpened, saturation)
//
// Sharpen 0 with saturation 1 returns center unchanged.
func FilterSample(center, n, s, e, w RGB, sharpen, saturation float32) RGB {
	blur := n.add(s).add(e).add(w).scale(0.25)
	sharpened := center.add(center.sub(blur).scale(sharpen))
	l := Luma(sharpened)
	return RGB{
		R: mix(l, sharpened.R, saturation),
		G: mix(l, sharpened.G, saturation),
		B: mix(l, sharpened.B, saturation),
	}
}

// FilterImage applies the presentation filter to a w x h image on the CPU,
// sampling neighbors with clamp-to-edge like the GPU texture does. It is
// the reference the GPU path is checked against. Output pixels are opaque.
func FilterImage(dst, src []uint32, w, h int, sharpen, saturation float32) error {
	if w <= 0 || h <= 0 || len(src) < w*h || len(dst) < w*h {
		return ErrInvalidDimensions
	}
	at := func(x, y int) RGB {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return UnpackRGB(src[y*w+x])
	}
	for y := range h {
		for x := range w {
			out := FilterSample(at(x, y), at(x, y-1), at(x, y+1), at(x+1, y), at(x-1, y), sharpen, saturation)
			dst[y*w+x] = PackRGB(out)
		}
	}
	return nil
}
