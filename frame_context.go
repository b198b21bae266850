package present

// FrameContext describes one frame to present. It is built per frame and
// not retained by the presenter after Present returns.
type FrameContext struct {
	// Pixels is a read-only view of the composed frame, packed 0xAARRGGBB.
	Pixels []uint32

	BufferWidth  int
	BufferHeight int

	// CanvasWidth and CanvasHeight are the destination surface size in
	// device pixels. Zero is allowed and reduces the frame to a clear.
	CanvasWidth  int
	CanvasHeight int

	VSync                   bool
	Focused                 bool
	SkipUploadWhenUnfocused bool

	// Sharpen is the unsharp-mask amount: 0 is a no-op, negative softens.
	Sharpen float32
	// Saturation mixes between luma (0) and the sharpened color (1).
	Saturation float32
}

// NewFrameContext validates the buffer description and returns a context
// with the remaining fields zero. Canvas size may be zero but not negative.
func NewFrameContext(pixels []uint32, bufferWidth, bufferHeight, canvasWidth, canvasHeight int) (FrameContext, error) {
	if bufferWidth <= 0 || bufferHeight <= 0 || len(pixels) < bufferWidth*bufferHeight {
		return FrameContext{}, ErrInvalidDimensions
	}
	if canvasWidth < 0 || canvasHeight < 0 {
		return FrameContext{}, ErrInvalidDimensions
	}
	return FrameContext{
		Pixels:       pixels,
		BufferWidth:  bufferWidth,
		BufferHeight: bufferHeight,
		CanvasWidth:  canvasWidth,
		CanvasHeight: canvasHeight,
		Saturation:   1,
	}, nil
}

// ShouldUpload reports whether the frame's pixels must be uploaded. Upload
// is skipped only when skipping is enabled and the host is unfocused.
func (fc *FrameContext) ShouldUpload() bool {
	return !fc.SkipUploadWhenUnfocused || fc.Focused
}

// TexelSize returns the inverse buffer size used for neighbor sampling.
func (fc *FrameContext) TexelSize() (float32, float32) {
	return 1 / float32(fc.BufferWidth), 1 / float32(fc.BufferHeight)
}
