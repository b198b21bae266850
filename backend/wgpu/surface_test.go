//go:build !nogpu

package wgpu

import (
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/present"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func newTestSurface(t *testing.T) *Surface {
	t.Helper()
	device, queue := createNoopDevice(t)
	s := newWithDevice(device, queue, gputypes.TextureFormatBGRA8Unorm, present.AdapterInfo{
		Vendor: "noop", Renderer: "noop", Version: "test",
	})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testFrame(t *testing.T, bw, bh, cw, ch int) *present.FrameContext {
	t.Helper()
	pixels := make([]uint32, bw*bh)
	for i := range pixels {
		pixels[i] = 0xFF336699
	}
	fc, err := present.NewFrameContext(pixels, bw, bh, cw, ch)
	if err != nil {
		t.Fatalf("NewFrameContext: %v", err)
	}
	fc.Focused = true
	return &fc
}

func TestPresenterOnNoopDevice(t *testing.T) {
	s := newTestSurface(t)
	p := present.NewPresenter(s)

	if err := p.Present(testFrame(t, 4, 4, 8, 6)); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if !p.Initialized() {
		t.Fatal("presenter not initialized after Present")
	}
	if w, h := p.TextureSize(); w != 4 || h != 4 {
		t.Errorf("TextureSize = %dx%d, want 4x4", w, h)
	}
	if got := p.Info().Renderer; got != "noop" {
		t.Errorf("Info().Renderer = %q, want noop", got)
	}

	frame := s.LastFrame()
	if frame == nil {
		t.Fatal("LastFrame is nil after an offscreen present")
	}
	if b := frame.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Errorf("frame size = %dx%d, want 8x6", b.Dx(), b.Dy())
	}

	if err := p.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if n := s.dev.liveObjects(); n != 0 {
		t.Errorf("live objects after Shutdown = %d, want 0", n)
	}
}

func TestPresenterReinitializesAfterShutdown(t *testing.T) {
	s := newTestSurface(t)
	p := present.NewPresenter(s, present.WithPresenterLinearFilter(true))

	for i := 0; i < 2; i++ {
		if err := p.Present(testFrame(t, 16, 8, 16, 8)); err != nil {
			t.Fatalf("Present #%d: %v", i, err)
		}
		if err := p.Shutdown(); err != nil {
			t.Fatalf("Shutdown #%d: %v", i, err)
		}
	}
	if st := p.Stats(); st.MipmapGenerations != 2 {
		t.Errorf("MipmapGenerations = %d, want 2", st.MipmapGenerations)
	}
}

func TestPresenterFilterSwitch(t *testing.T) {
	s := newTestSurface(t)
	p := present.NewPresenter(s)
	if err := p.Present(testFrame(t, 4, 4, 4, 4)); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if err := p.SetLinearFilter(true); err != nil {
		t.Fatalf("SetLinearFilter: %v", err)
	}
	for _, tex := range s.dev.textures {
		if tex.filter != present.FilterLinear {
			t.Errorf("texture filter = %v, want linear", tex.filter)
		}
		if tex.view() != tex.fullView {
			t.Error("linear sampling must use the full mip chain view")
		}
	}
}

func TestSwapWithoutDrawClears(t *testing.T) {
	s := newTestSurface(t)

	err := present.WithContext(s, func(d present.Device) error {
		d.Viewport(3, 2)
		d.Clear(0, 0, 0, 1)
		return d.Err()
	})
	if err != nil {
		t.Fatalf("WithContext: %v", err)
	}
	if err := s.SwapBuffers(); err != nil {
		t.Fatalf("SwapBuffers: %v", err)
	}
	frame := s.LastFrame()
	if frame == nil {
		t.Fatal("no frame after clear-only swap")
	}
	if b := frame.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("frame size = %dx%d, want 3x2", b.Dx(), b.Dy())
	}
}

func TestZeroViewportProducesNoFrame(t *testing.T) {
	s := newTestSurface(t)
	p := present.NewPresenter(s)

	var delivered int
	s.OnFrame(func(*image.RGBA) { delivered++ })

	if err := p.Present(testFrame(t, 4, 4, 0, 0)); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if delivered != 0 {
		t.Errorf("OnFrame called %d times for an empty canvas", delivered)
	}
	if err := p.Present(testFrame(t, 4, 4, 2, 2)); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if delivered != 1 {
		t.Errorf("OnFrame called %d times, want 1", delivered)
	}
}

func TestDrawErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *Device)
		want  string
	}{
		{
			name:  "no program",
			setup: func(d *Device) {},
			want:  errNoProgram.Error(),
		},
		{
			name: "failed link",
			setup: func(d *Device) {
				d.programs[99] = &program{}
				d.UseProgram(99)
			},
			want: errNoPipeline.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSurface(t)
			err := present.WithContext(s, func(pd present.Device) error {
				d := pd.(*Device)
				d.Viewport(2, 2)
				tt.setup(d)
				d.DrawIndexed(present.QuadIndexCount)
				return d.Err()
			})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestUniformWithoutProgram(t *testing.T) {
	s := newTestSurface(t)
	err := present.WithContext(s, func(d present.Device) error {
		d.Uniform1f(locSharpen, 0.5)
		return d.Err()
	})
	if !errors.Is(err, errNoProgram) {
		t.Errorf("err = %v, want errNoProgram", err)
	}
}

func TestLocations(t *testing.T) {
	s := newTestSurface(t)
	d := s.dev
	d.programs[1] = &program{}

	attribs := map[string]int32{
		present.AttribPosition: locPosition,
		present.AttribTexCoord: locTexCoord,
		"aColor":               -1,
	}
	for name, want := range attribs {
		if got := d.AttribLocation(1, name); got != want {
			t.Errorf("AttribLocation(%q) = %d, want %d", name, got, want)
		}
	}
	uniforms := map[string]int32{
		present.UniformTexel:      locTexel,
		present.UniformSharpen:    locSharpen,
		present.UniformSaturation: locSaturation,
		present.UniformTexture:    locSampler,
		"uMissing":                -1,
	}
	for name, want := range uniforms {
		if got := d.UniformLocation(1, name); got != want {
			t.Errorf("UniformLocation(%q) = %d, want %d", name, got, want)
		}
	}
	if got := d.UniformLocation(2, present.UniformTexel); got != -1 {
		t.Errorf("UniformLocation on unknown program = %d, want -1", got)
	}
}

func TestUniformBlockLayout(t *testing.T) {
	p := &program{}
	p.setUniform(uniformOffsets[locTexel], 0.25, 0.5)
	p.setUniform(uniformOffsets[locSaturation], 1)

	want := [uniformBlockSize]byte{
		0x00, 0x00, 0x80, 0x3E, // 0.25
		0x00, 0x00, 0x00, 0x3F, // 0.5
		0x00, 0x00, 0x00, 0x00, // sharpen unset
		0x00, 0x00, 0x80, 0x3F, // 1.0
	}
	if p.uniforms != want {
		t.Errorf("uniform block = % x, want % x", p.uniforms, want)
	}
}

func TestMipLevels(t *testing.T) {
	tests := []struct {
		w, h uint32
		want uint32
	}{
		{1, 1, 1},
		{2, 1, 2},
		{4, 4, 3},
		{5, 3, 3},
		{1920, 1080, 11},
	}
	for _, tt := range tests {
		if got := mipLevels(tt.w, tt.h); got != tt.want {
			t.Errorf("mipLevels(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestUpdateTextureSizeMismatch(t *testing.T) {
	s := newTestSurface(t)
	err := present.WithContext(s, func(d present.Device) error {
		tex, err := d.CreateTexture(present.FilterNearest)
		if err != nil {
			return err
		}
		if err := d.UpdateTexture(tex, 2, 2, make([]uint32, 4)); err == nil {
			t.Error("UpdateTexture without storage succeeded")
		}
		if err := d.AllocTexture(tex, 2, 2); err != nil {
			return err
		}
		if err := d.UpdateTexture(tex, 3, 2, make([]uint32, 6)); err == nil {
			t.Error("UpdateTexture with mismatched size succeeded")
		}
		d.DeleteTexture(tex)
		return nil
	})
	if err != nil {
		t.Fatalf("WithContext: %v", err)
	}
}

func TestDecodeFrame(t *testing.T) {
	d := &Device{format: gputypes.TextureFormatBGRA8Unorm}
	// 1x2 image, pitch 8: one BGRA pixel then 4 padding bytes per row.
	data := []byte{
		0x10, 0x20, 0x30, 0xFF, 0xEE, 0xEE, 0xEE, 0xEE,
		0x01, 0x02, 0x03, 0x80, 0xEE, 0xEE, 0xEE, 0xEE,
	}
	img := d.decodeFrame(data, 1, 2, 8)
	want := []byte{0x30, 0x20, 0x10, 0xFF, 0x03, 0x02, 0x01, 0x80}
	if string(img.Pix) != string(want) {
		t.Errorf("Pix = % x, want % x", img.Pix, want)
	}

	d.format = gputypes.TextureFormatRGBA8Unorm
	img = d.decodeFrame(data, 1, 2, 8)
	if img.Pix[0] != 0x10 || img.Pix[2] != 0x30 {
		t.Errorf("RGBA target must not swap channels: % x", img.Pix)
	}
}

func TestExternalTarget(t *testing.T) {
	s := newTestSurface(t)
	d := s.dev

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "host_target",
		Size:          hal.Extent3D{Width: 8, Height: 8, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	defer d.device.DestroyTexture(tex)
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "host_target_view",
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.Fatalf("CreateTextureView: %v", err)
	}
	defer d.device.DestroyTextureView(view)

	s.SetTarget(view, 8, 8)
	p := present.NewPresenter(s)
	if err := p.Present(testFrame(t, 4, 4, 8, 8)); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if s.LastFrame() != nil {
		t.Error("external targets must not be read back")
	}
	if err := p.Present(testFrame(t, 4, 4, 16, 16)); err == nil {
		t.Error("Present larger than the external target succeeded")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := newTestSurface(t)
	p := present.NewPresenter(s)
	if err := p.Present(testFrame(t, 2, 2, 2, 2)); err != nil {
		t.Fatalf("Present: %v", err)
	}
	s.Close()
	s.Close()

	if _, err := s.MakeCurrent(); !errors.Is(err, ErrClosed) {
		t.Errorf("MakeCurrent after Close = %v, want ErrClosed", err)
	}
	if err := s.SwapBuffers(); !errors.Is(err, ErrClosed) {
		t.Errorf("SwapBuffers after Close = %v, want ErrClosed", err)
	}
	if err := p.Present(testFrame(t, 2, 2, 2, 2)); !errors.Is(err, ErrClosed) {
		t.Errorf("Present after Close = %v, want ErrClosed", err)
	}
}

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
}

type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return nil }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return nil }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }

// halProvider additionally exposes HAL objects, like a gogpu app.
type halProvider struct {
	mockProvider
}

func (h *halProvider) HalDevice() any { return h.device }
func (h *halProvider) HalQueue() any  { return h.queue }

func TestNewFromProvider(t *testing.T) {
	if _, err := NewFromProvider(nil); err == nil {
		t.Error("NewFromProvider(nil) succeeded")
	}
	if _, err := NewFromProvider(&mockProvider{}); err == nil {
		t.Error("NewFromProvider without HAL access succeeded")
	}

	device, queue := createNoopDevice(t)
	s, err := NewFromProvider(&halProvider{mockProvider{
		device: device, queue: queue, format: gputypes.TextureFormatRGBA8Unorm,
	}})
	if err != nil {
		t.Fatalf("NewFromProvider: %v", err)
	}
	if s.owned {
		t.Error("shared device marked as owned")
	}
	if s.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format = %v, want provider format", s.Format())
	}

	p := present.NewPresenter(s)
	if err := p.Present(testFrame(t, 2, 2, 2, 2)); err != nil {
		t.Fatalf("Present on shared device: %v", err)
	}
	s.Close()
}

func TestManagerCloseClosesSurface(t *testing.T) {
	s := newTestSurface(t)
	m := present.NewManager(func(present.SurfaceConfig) (present.Surface, error) { return s, nil })
	m.BeginEnable()
	m.BeginFrame(4, 4)
	m.Blit(make([]uint32, 16), 4, 4, 0, 0)
	m.PresentFrame(4, 4, true, 0, 1)
	if err := m.ConsumeInitFailure(); err != nil {
		t.Fatalf("present failed: %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Manager.Close: %v", err)
	}
	if _, err := s.MakeCurrent(); !errors.Is(err, ErrClosed) {
		t.Errorf("MakeCurrent after Manager.Close = %v, want ErrClosed", err)
	}
	if n := s.dev.liveObjects(); n != 0 {
		t.Errorf("live objects = %d, want 0", n)
	}
}

func TestSwapIntervalValidation(t *testing.T) {
	s := newTestSurface(t)
	err := present.WithContext(s, func(d present.Device) error {
		if err := d.SetSwapInterval(-1); err == nil {
			t.Error("SetSwapInterval(-1) succeeded")
		}
		return d.SetSwapInterval(0)
	})
	if err != nil {
		t.Fatalf("SetSwapInterval(0): %v", err)
	}
	if s.dev.SwapInterval() != 0 {
		t.Errorf("SwapInterval = %d, want 0", s.dev.SwapInterval())
	}
}
