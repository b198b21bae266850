//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // Register Vulkan backend

	"github.com/gogpu/present"
)

// Errors returned by the WebGPU backend.
var (
	// ErrClosed is returned by a Surface after Close.
	ErrClosed = errors.New("wgpu: surface closed")

	// ErrNoAdapter is returned by New when no GPU adapter is available.
	ErrNoAdapter = errors.New("wgpu: no GPU adapters found")
)

// Surface is a present.Surface backed by a WebGPU HAL device.
type Surface struct {
	// mu is held from MakeCurrent to ReleaseCurrent and during SwapBuffers.
	mu       sync.Mutex
	dev      *Device
	instance hal.Instance
	owned    bool
	closed   bool

	frameMu sync.Mutex
	onFrame func(*image.RGBA)
	last    *image.RGBA
}

var (
	_ present.Surface = (*Surface)(nil)
	_ io.Closer       = (*Surface)(nil)
)

// New opens a Vulkan adapter, preferring a discrete or integrated GPU,
// and returns an offscreen surface on it.
func New() (*Surface, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	s := newWithDevice(openDev.Device, openDev.Queue, gputypes.TextureFormatBGRA8Unorm, present.AdapterInfo{
		Vendor:   fmt.Sprint(selected.Info.DeviceType),
		Renderer: selected.Info.Name,
		Version:  "WebGPU (Vulkan)",
	})
	s.instance = instance
	s.owned = true
	present.Logger().Info("wgpu: device opened", "adapter", selected.Info.Name)
	return s, nil
}

// NewFromProvider returns a surface drawing with the device of p. The
// provider must expose its HAL objects through HalDevice and HalQueue.
// The pipeline targets p.SurfaceFormat().
func NewFromProvider(p gpucontext.DeviceProvider) (*Surface, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if p == nil {
		return nil, fmt.Errorf("wgpu: nil device provider")
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}
	format := p.SurfaceFormat()
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	return newWithDevice(device, queue, format, present.AdapterInfo{
		Vendor:   "shared",
		Renderer: "gpucontext provider",
		Version:  "WebGPU",
	}), nil
}

func newWithDevice(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, info present.AdapterInfo) *Surface {
	return &Surface{dev: newDevice(device, queue, format, info)}
}

// Factory returns a present.SurfaceFactory opening a new device per
// surface. The swap interval is recorded but has no effect offscreen.
func Factory() present.SurfaceFactory {
	return func(cfg present.SurfaceConfig) (present.Surface, error) {
		s, err := New()
		if err != nil {
			return nil, err
		}
		s.dev.swapInterval = cfg.SwapInterval
		return s, nil
	}
}

// MakeCurrent implements present.Surface.
func (s *Surface) MakeCurrent() (present.Device, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	return s.dev, nil
}

// ReleaseCurrent implements present.Surface.
func (s *Surface) ReleaseCurrent() {
	s.mu.Unlock()
}

// SwapBuffers finishes the frame. When nothing was drawn since the last
// swap, the recorded clear is submitted on its own. Offscreen frames are
// handed to the OnFrame callback.
func (s *Surface) SwapBuffers() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	frame, err := s.dev.finishFrame()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if frame == nil {
		return nil
	}

	s.frameMu.Lock()
	s.last = frame
	fn := s.onFrame
	s.frameMu.Unlock()
	if fn != nil {
		fn(frame)
	}
	return nil
}

// SetTarget renders into view instead of the offscreen texture. The view
// must have the surface format and be width x height. A nil view returns
// to offscreen rendering.
func (s *Surface) SetTarget(view hal.TextureView, width, height uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dev.target.setExternal(view, width, height)
}

// OnFrame registers fn to receive every swapped offscreen frame. The
// image must not be modified.
func (s *Surface) OnFrame(fn func(*image.RGBA)) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	s.onFrame = fn
}

// LastFrame returns the most recent offscreen frame, or nil.
func (s *Surface) LastFrame() *image.RGBA {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return s.last
}

// Format returns the color format of the render target.
func (s *Surface) Format() gputypes.TextureFormat {
	return s.dev.format
}

// Close destroys every object created through the surface. An owned
// device and instance are destroyed as well. Close is idempotent and
// always returns nil; present.Manager.Close calls it through io.Closer.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.dev.destroyAll()
	if s.owned {
		s.dev.device.Destroy()
		if s.instance != nil {
			s.instance.Destroy()
		}
	}
	s.instance = nil
	return nil
}
