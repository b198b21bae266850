package present

import "fmt"

// Handle types for GPU objects. The zero value means "unallocated".
type (
	ShaderID  uint32
	ProgramID uint32
	BufferID  uint32
	TextureID uint32
)

// ShaderStage selects the pipeline stage a shader is compiled for.
type ShaderStage uint8

const (
	VertexStage ShaderStage = iota
	FragmentStage
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderStage(%d)", s)
	}
}

// BufferKind selects the binding target of a GPU buffer.
type BufferKind uint8

const (
	VertexBuffer BufferKind = iota
	IndexBuffer
)

// Filter is the texture sampling filter.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

func (f Filter) String() string {
	if f == FilterLinear {
		return "linear"
	}
	return "nearest"
}

func filterFor(linear bool) Filter {
	if linear {
		return FilterLinear
	}
	return FilterNearest
}

// ShaderSource carries one stage in every language a backend may accept.
// OpenGL devices compile GLSL, WebGPU devices compile WGSL.
type ShaderSource struct {
	GLSL string
	WGSL string
}

// ShaderStatus is the outcome of a compile or link step as reported by
// the driver. A failed status is diagnostic only; see Presenter.
type ShaderStatus struct {
	OK  bool
	Log string
}

// AdapterInfo identifies the GPU behind a device.
type AdapterInfo struct {
	Vendor   string
	Renderer string
	Version  string
}

func (a AdapterInfo) String() string {
	return fmt.Sprintf("GPU: %s | %s | %s", a.Vendor, a.Renderer, a.Version)
}

// Device is the set of GPU operations the presenter issues. Its methods
// are only valid while the owning Surface is current, that is, inside
// WithContext.
//
// The shape follows an immediate-mode graphics API: state is bound, then
// consumed by DrawIndexed. Methods without an error result record failures
// for the next Err call.
type Device interface {
	// Init loads the API entry points for the current context.
	Init() (AdapterInfo, error)
	SetSwapInterval(interval int) error

	CompileShader(stage ShaderStage, src ShaderSource) (ShaderID, ShaderStatus, error)
	LinkProgram(vs, fs ShaderID) (ProgramID, ShaderStatus, error)
	AttribLocation(p ProgramID, name string) int32
	UniformLocation(p ProgramID, name string) int32
	DeleteShader(s ShaderID)
	DeleteProgram(p ProgramID)

	CreateBuffer(kind BufferKind, data []byte) (BufferID, error)
	DeleteBuffer(b BufferID)

	// CreateTexture allocates a texture object without storage. Wrapping
	// is clamp-to-edge.
	CreateTexture(filter Filter) (TextureID, error)
	SetTextureFilter(t TextureID, filter Filter)
	// AllocTexture (re)allocates storage for a width x height image.
	AllocTexture(t TextureID, width, height int) error
	// UpdateTexture writes packed 0xAARRGGBB pixels into existing storage.
	UpdateTexture(t TextureID, width, height int, pixels []uint32) error
	GenerateMipmap(t TextureID)
	DeleteTexture(t TextureID)

	Viewport(width, height int)
	Clear(r, g, b, a float32)
	UseProgram(p ProgramID)
	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
	Uniform2f(loc int32, x, y float32)
	BindTexture(unit int, t TextureID)
	BindBuffer(kind BufferKind, b BufferID)
	EnableAttrib(loc int32)
	DisableAttrib(loc int32)
	// AttribPointer describes a float attribute of size components at
	// offset bytes within a vertex of stride bytes.
	AttribPointer(loc int32, size, stride, offset int)
	DrawIndexed(count int)

	// Err returns and clears the first error recorded since the last call.
	Err() error
}

// Surface is the host-owned drawable a presenter renders to. Its graphics
// context is bound to the calling goroutine between MakeCurrent and
// ReleaseCurrent.
type Surface interface {
	MakeCurrent() (Device, error)
	ReleaseCurrent()
	// SwapBuffers presents the back buffer. It is called outside the
	// context scope and acquires whatever it needs itself.
	SwapBuffers() error
}

// SurfaceConfig is passed to a SurfaceFactory when the manager creates
// its presenter.
type SurfaceConfig struct {
	SwapInterval int
	MajorVersion int
	MinorVersion int
	Debug        bool
}

// SurfaceFactory creates the surface a Manager presents to.
type SurfaceFactory func(cfg SurfaceConfig) (Surface, error)
