//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/present"
)

// Fixed binding model of the presentation pipeline. Attribute names map
// to vertex locations, uniform names to byte offsets inside one 16-byte
// uniform block.
const (
	locPosition = 0
	locTexCoord = 1

	locTexel      = 0
	locSharpen    = 1
	locSaturation = 2
	locSampler    = 3

	uniformBlockSize = 16
)

var uniformOffsets = [...]int{locTexel: 0, locSharpen: 8, locSaturation: 12}

var (
	errNoProgram  = errors.New("no program in use")
	errBadHandle  = errors.New("unknown object handle")
	errNoPipeline = errors.New("program has no usable pipeline")
)

type vertexAttrib struct {
	enabled              bool
	size, stride, offset int
}

type buffer struct {
	kind present.BufferKind
	buf  hal.Buffer
	size uint64
}

// Device implements present.Device on a HAL device. It is only used
// between Surface.MakeCurrent and Surface.ReleaseCurrent.
type Device struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
	info   present.AdapterInfo

	nearest hal.Sampler
	linear  hal.Sampler

	nextID   uint32
	shaders  map[present.ShaderID]*shaderModule
	programs map[present.ProgramID]*program
	buffers  map[present.BufferID]*buffer
	textures map[present.TextureID]*texture

	target       *renderTarget
	swapInterval int

	// Bound state, consumed by DrawIndexed.
	viewportW, viewportH int
	clearColor           gputypes.Color
	current              *program
	texture              present.TextureID
	vertexBuf            present.BufferID
	indexBuf             present.BufferID
	attribs              [2]vertexAttrib

	drawn bool
	frame *image.RGBA
	err   error
}

func newDevice(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, info present.AdapterInfo) *Device {
	d := &Device{
		device:   device,
		queue:    queue,
		format:   format,
		info:     info,
		shaders:  make(map[present.ShaderID]*shaderModule),
		programs: make(map[present.ProgramID]*program),
		buffers:  make(map[present.BufferID]*buffer),
		textures: make(map[present.TextureID]*texture),
	}
	d.target = &renderTarget{dev: d}
	return d
}

func (d *Device) fail(err error) {
	if d.err == nil && err != nil {
		d.err = err
	}
}

func (d *Device) newID() uint32 {
	d.nextID++
	return d.nextID
}

// Init creates the samplers and reports the adapter.
func (d *Device) Init() (present.AdapterInfo, error) {
	if d.nearest == nil {
		s, err := d.createSampler("present_sampler_nearest", present.FilterNearest)
		if err != nil {
			return present.AdapterInfo{}, err
		}
		d.nearest = s
	}
	if d.linear == nil {
		s, err := d.createSampler("present_sampler_linear", present.FilterLinear)
		if err != nil {
			return present.AdapterInfo{}, err
		}
		d.linear = s
	}
	return d.info, nil
}

func (d *Device) createSampler(label string, f present.Filter) (hal.Sampler, error) {
	mode := gputypes.FilterModeNearest
	if f == present.FilterLinear {
		mode = gputypes.FilterModeLinear
	}
	s, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    mode,
		MinFilter:    mode,
		MipmapFilter: mode,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s: %w", label, err)
	}
	return s, nil
}

func (d *Device) sampler(f present.Filter) hal.Sampler {
	if f == present.FilterLinear {
		return d.linear
	}
	return d.nearest
}

// SetSwapInterval records the interval. Offscreen targets do not wait
// for vertical sync and external targets are presented by the host.
func (d *Device) SetSwapInterval(interval int) error {
	if interval < 0 {
		return fmt.Errorf("wgpu: invalid swap interval %d", interval)
	}
	d.swapInterval = interval
	return nil
}

// SwapInterval returns the last interval set.
func (d *Device) SwapInterval() int { return d.swapInterval }

// AttribLocation implements present.Device.
func (d *Device) AttribLocation(p present.ProgramID, name string) int32 {
	if _, ok := d.programs[p]; !ok {
		return -1
	}
	switch name {
	case present.AttribPosition:
		return locPosition
	case present.AttribTexCoord:
		return locTexCoord
	}
	return -1
}

// UniformLocation implements present.Device.
func (d *Device) UniformLocation(p present.ProgramID, name string) int32 {
	if _, ok := d.programs[p]; !ok {
		return -1
	}
	switch name {
	case present.UniformTexel:
		return locTexel
	case present.UniformSharpen:
		return locSharpen
	case present.UniformSaturation:
		return locSaturation
	case present.UniformTexture:
		return locSampler
	}
	return -1
}

// CreateBuffer implements present.Device.
func (d *Device) CreateBuffer(kind present.BufferKind, data []byte) (present.BufferID, error) {
	usage := gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	label := "present_vertices"
	if kind == present.IndexBuffer {
		usage = gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst
		label = "present_indices"
	}
	size := (uint64(len(data)) + 3) &^ 3
	if size == 0 {
		return 0, fmt.Errorf("wgpu: create %s: empty buffer", label)
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create %s: %w", label, err)
	}
	if uint64(len(data)) != size {
		data = append(append([]byte(nil), data...), make([]byte, size-uint64(len(data)))...)
	}
	d.queue.WriteBuffer(buf, 0, data)

	id := present.BufferID(d.newID())
	d.buffers[id] = &buffer{kind: kind, buf: buf, size: size}
	return id, nil
}

// DeleteBuffer implements present.Device.
func (d *Device) DeleteBuffer(id present.BufferID) {
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	d.device.DestroyBuffer(b.buf)
	delete(d.buffers, id)
	if d.vertexBuf == id {
		d.vertexBuf = 0
	}
	if d.indexBuf == id {
		d.indexBuf = 0
	}
}

// Viewport sets the size of the render target.
func (d *Device) Viewport(width, height int) {
	d.viewportW, d.viewportH = width, height
}

// Clear records the clear color. The clear is executed by the next draw
// or, when nothing is drawn, by SwapBuffers.
func (d *Device) Clear(r, g, b, a float32) {
	d.clearColor = gputypes.Color{R: float64(r), G: float64(g), B: float64(b), A: float64(a)}
}

// UseProgram implements present.Device. Program 0 unbinds.
func (d *Device) UseProgram(id present.ProgramID) {
	if id == 0 {
		d.current = nil
		return
	}
	p, ok := d.programs[id]
	if !ok {
		d.fail(fmt.Errorf("wgpu: use program %d: %w", id, errBadHandle))
		return
	}
	d.current = p
}

// Uniform1i accepts only texture unit 0 for the sampler uniform.
func (d *Device) Uniform1i(loc int32, v int32) {
	if loc < 0 {
		return
	}
	if d.current == nil {
		d.fail(fmt.Errorf("wgpu: uniform %d: %w", loc, errNoProgram))
		return
	}
	if loc != locSampler || v != 0 {
		d.fail(fmt.Errorf("wgpu: uniform %d: unsupported integer value %d", loc, v))
	}
}

// Uniform1f implements present.Device.
func (d *Device) Uniform1f(loc int32, v float32) {
	d.setUniform(loc, v)
}

// Uniform2f implements present.Device.
func (d *Device) Uniform2f(loc int32, x, y float32) {
	d.setUniform(loc, x, y)
}

func (d *Device) setUniform(loc int32, vs ...float32) {
	if loc < 0 {
		return
	}
	if d.current == nil {
		d.fail(fmt.Errorf("wgpu: uniform %d: %w", loc, errNoProgram))
		return
	}
	if int(loc) >= len(uniformOffsets) {
		d.fail(fmt.Errorf("wgpu: uniform %d: not a float uniform", loc))
		return
	}
	d.current.setUniform(uniformOffsets[loc], vs...)
}

// BindTexture implements present.Device. Only unit 0 exists.
func (d *Device) BindTexture(unit int, id present.TextureID) {
	if unit != 0 {
		d.fail(fmt.Errorf("wgpu: bind texture: unsupported unit %d", unit))
		return
	}
	if id != 0 {
		if _, ok := d.textures[id]; !ok {
			d.fail(fmt.Errorf("wgpu: bind texture %d: %w", id, errBadHandle))
			return
		}
	}
	d.texture = id
}

// BindBuffer implements present.Device.
func (d *Device) BindBuffer(kind present.BufferKind, id present.BufferID) {
	if id != 0 {
		b, ok := d.buffers[id]
		if !ok || b.kind != kind {
			d.fail(fmt.Errorf("wgpu: bind buffer %d: %w", id, errBadHandle))
			return
		}
	}
	if kind == present.IndexBuffer {
		d.indexBuf = id
	} else {
		d.vertexBuf = id
	}
}

// EnableAttrib implements present.Device.
func (d *Device) EnableAttrib(loc int32) {
	if a := d.attrib(loc); a != nil {
		a.enabled = true
	}
}

// DisableAttrib implements present.Device.
func (d *Device) DisableAttrib(loc int32) {
	if a := d.attrib(loc); a != nil {
		a.enabled = false
	}
}

// AttribPointer implements present.Device.
func (d *Device) AttribPointer(loc int32, size, stride, offset int) {
	if a := d.attrib(loc); a != nil {
		a.size, a.stride, a.offset = size, stride, offset
	}
}

func (d *Device) attrib(loc int32) *vertexAttrib {
	if loc < 0 || int(loc) >= len(d.attribs) {
		d.fail(fmt.Errorf("wgpu: attribute location %d out of range", loc))
		return nil
	}
	return &d.attribs[loc]
}

// Err implements present.Device.
func (d *Device) Err() error {
	err := d.err
	d.err = nil
	return err
}

// destroyAll releases every object still alive. Called by Surface.Close.
func (d *Device) destroyAll() {
	for id := range d.programs {
		d.DeleteProgram(id)
	}
	for id := range d.shaders {
		d.DeleteShader(id)
	}
	for id := range d.textures {
		d.DeleteTexture(id)
	}
	for id := range d.buffers {
		d.DeleteBuffer(id)
	}
	if d.nearest != nil {
		d.device.DestroySampler(d.nearest)
		d.nearest = nil
	}
	if d.linear != nil {
		d.device.DestroySampler(d.linear)
		d.linear = nil
	}
	d.target.destroy()
	d.current = nil
	d.frame = nil
}

// liveObjects counts the objects created through the device.
func (d *Device) liveObjects() int {
	return len(d.shaders) + len(d.programs) + len(d.buffers) + len(d.textures)
}
