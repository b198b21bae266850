package present

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// resourceSet is every GPU object a presenter owns. A presenter holds
// either a complete set or none (nil).
type resourceSet struct {
	vs, fs  ShaderID
	program ProgramID
	vbo     BufferID
	ibo     BufferID
	texture TextureID

	locPos        int32
	locUV         int32
	locTex        int32
	locTexel      int32
	locSharpen    int32
	locSaturation int32

	// Size of the last upload; zero until the texture has storage.
	texWidth  int
	texHeight int
}

// resourceState tracks GPU resource presence, independently of the
// manager's lifecycle State.
type resourceState uint8

const (
	resourcesUninitialized resourceState = iota
	resourcesReady
)

func (s resourceState) String() string {
	if s == resourcesReady {
		return "ready"
	}
	return "uninitialized"
}

// PresenterStats counts presenter work since creation.
type PresenterStats struct {
	Frames            uint64
	Uploads           uint64
	SkippedUploads    uint64
	Reallocations     uint64
	MipmapGenerations uint64
	LastUpload        time.Duration
}

// Presenter uploads composed frames to a texture and draws them to a
// Surface through the sharpen and saturation filter.
//
// GPU resources are created lazily by the first Present and released by
// Shutdown, after which the next Present creates them again. All GPU work
// runs inside WithContext. Methods are safe for concurrent use.
type Presenter struct {
	surface Surface
	logger  *slog.Logger
	debug   bool

	mu           sync.Mutex
	linearFilter bool
	res          *resourceSet
	info         AdapterInfo
	diagnostics  []string
	stats        PresenterStats
}

// NewPresenter returns an uninitialized presenter drawing to s.
func NewPresenter(s Surface, opts ...PresenterOption) *Presenter {
	var o presenterOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	return &Presenter{
		surface:      s,
		logger:       o.logger,
		debug:        o.debug,
		linearFilter: o.linearFilter,
	}
}

// Surface returns the surface the presenter draws to.
func (p *Presenter) Surface() Surface { return p.surface }

// resState reports whether a resource set is held. p.mu must be held.
func (p *Presenter) resState() resourceState {
	if p.res == nil {
		return resourcesUninitialized
	}
	return resourcesReady
}

// Present draws one frame and swaps the surface. The first call creates
// the GPU resources. Buffer swapping happens after the context scope ends.
func (p *Presenter) Present(fc *FrameContext) error {
	if fc == nil || fc.BufferWidth <= 0 || fc.BufferHeight <= 0 ||
		len(fc.Pixels) < fc.BufferWidth*fc.BufferHeight {
		return ErrInvalidDimensions
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err := WithContext(p.surface, func(d Device) error {
		if p.resState() == resourcesUninitialized {
			if err := p.initResources(d); err != nil {
				return err
			}
		}
		return p.render(d, fc)
	})
	if err != nil {
		return err
	}
	if err := p.surface.SwapBuffers(); err != nil {
		return gpuError("swap buffers", err)
	}
	p.stats.Frames++
	return nil
}

// initResources creates the full resource set or, on failure, releases
// whatever was created and leaves the presenter uninitialized.
func (p *Presenter) initResources(d Device) error {
	info, err := d.Init()
	if err != nil {
		return gpuError("load capabilities", err)
	}

	res := &resourceSet{
		locPos: -1, locUV: -1,
		locTex: -1, locTexel: -1, locSharpen: -1, locSaturation: -1,
	}
	done := false
	defer func() {
		if !done {
			p.release(d, res)
		}
	}()

	var st ShaderStatus
	if res.vs, st, err = d.CompileShader(VertexStage, VertexShader); err != nil {
		return gpuError("compile vertex shader", err)
	}
	p.noteShaderStatus("vertex shader compile", st)

	if res.fs, st, err = d.CompileShader(FragmentStage, FragmentShader); err != nil {
		return gpuError("compile fragment shader", err)
	}
	p.noteShaderStatus("fragment shader compile", st)

	// A failed link status is kept as a diagnostic; the program handle is
	// used as-is.
	if res.program, st, err = d.LinkProgram(res.vs, res.fs); err != nil {
		return gpuError("link program", err)
	}
	p.noteShaderStatus("program link", st)

	res.locPos = d.AttribLocation(res.program, AttribPosition)
	res.locUV = d.AttribLocation(res.program, AttribTexCoord)
	res.locTex = d.UniformLocation(res.program, UniformTexture)
	res.locTexel = d.UniformLocation(res.program, UniformTexel)
	res.locSharpen = d.UniformLocation(res.program, UniformSharpen)
	res.locSaturation = d.UniformLocation(res.program, UniformSaturation)

	if res.vbo, err = d.CreateBuffer(VertexBuffer, quadVertexBytes()); err != nil {
		return gpuError("create vertex buffer", err)
	}
	if res.ibo, err = d.CreateBuffer(IndexBuffer, quadIndexBytes()); err != nil {
		return gpuError("create index buffer", err)
	}
	if res.texture, err = d.CreateTexture(filterFor(p.linearFilter)); err != nil {
		return gpuError("create texture", err)
	}
	if err := d.Err(); err != nil {
		return gpuError("initialize", err)
	}

	done = true
	p.res = res
	p.info = info
	p.logger.Info("present: GPU presenter initialized",
		"vendor", info.Vendor, "renderer", info.Renderer, "version", info.Version,
		"filter", filterFor(p.linearFilter))
	return nil
}

func (p *Presenter) noteShaderStatus(step string, st ShaderStatus) {
	log := strings.TrimSpace(st.Log)
	if st.OK {
		if log != "" && p.debug {
			p.logger.Debug("present: shader log", "step", step, "log", log)
		}
		return
	}
	msg := step + " failed"
	if log != "" {
		msg += ": " + log
	}
	p.diagnostics = append(p.diagnostics, msg)
	p.logger.Warn("present: "+msg, "step", step)
}

func (p *Presenter) render(d Device, fc *FrameContext) error {
	res := p.res

	d.Viewport(fc.CanvasWidth, fc.CanvasHeight)
	d.Clear(0, 0, 0, 1)
	if fc.CanvasWidth <= 0 || fc.CanvasHeight <= 0 {
		return gpuError("clear", d.Err())
	}

	d.UseProgram(res.program)
	tx, ty := fc.TexelSize()
	d.Uniform2f(res.locTexel, tx, ty)
	d.Uniform1f(res.locSharpen, fc.Sharpen)
	d.Uniform1f(res.locSaturation, fc.Saturation)
	d.Uniform1i(res.locTex, 0)

	if fc.ShouldUpload() {
		if err := p.upload(d, fc); err != nil {
			d.UseProgram(0)
			return err
		}
	} else {
		p.stats.SkippedUploads++
	}

	// Nothing has been uploaded yet: keep the cleared frame.
	if res.texWidth == 0 {
		d.UseProgram(0)
		return gpuError("draw frame", d.Err())
	}

	d.BindTexture(0, res.texture)
	d.BindBuffer(VertexBuffer, res.vbo)
	if res.locPos >= 0 {
		d.EnableAttrib(res.locPos)
		d.AttribPointer(res.locPos, 2, QuadStride, 0)
	}
	if res.locUV >= 0 {
		d.EnableAttrib(res.locUV)
		d.AttribPointer(res.locUV, 2, QuadStride, QuadTexCoordOffset)
	}
	d.BindBuffer(IndexBuffer, res.ibo)

	d.DrawIndexed(QuadIndexCount)

	if res.locPos >= 0 {
		d.DisableAttrib(res.locPos)
	}
	if res.locUV >= 0 {
		d.DisableAttrib(res.locUV)
	}
	d.BindBuffer(IndexBuffer, 0)
	d.BindBuffer(VertexBuffer, 0)
	d.BindTexture(0, 0)
	d.UseProgram(0)

	return gpuError("draw frame", d.Err())
}

func (p *Presenter) upload(d Device, fc *FrameContext) error {
	res := p.res
	w, h := fc.BufferWidth, fc.BufferHeight
	start := time.Now()

	if w != res.texWidth || h != res.texHeight {
		if err := d.AllocTexture(res.texture, w, h); err != nil {
			return gpuError("allocate texture", err)
		}
		res.texWidth, res.texHeight = w, h
		p.stats.Reallocations++
	}
	if err := d.UpdateTexture(res.texture, w, h, fc.Pixels[:w*h]); err != nil {
		return gpuError("update texture", err)
	}
	if p.linearFilter {
		d.GenerateMipmap(res.texture)
		p.stats.MipmapGenerations++
	}

	p.stats.Uploads++
	p.stats.LastUpload = time.Since(start)
	if p.debug {
		p.logger.Debug("present: texture upload",
			"width", w, "height", h,
			"ms", fmt.Sprintf("%.3f", float64(p.stats.LastUpload.Microseconds())/1000))
	}
	return nil
}

// SetLinearFilter selects linear or nearest sampling. With live resources
// the texture is updated immediately, and switching to linear rebuilds its
// mipmaps; otherwise the choice is applied at the next initialization.
func (p *Presenter) SetLinearFilter(enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.linearFilter = enabled
	if p.resState() == resourcesUninitialized {
		return nil
	}
	res := p.res
	return WithContext(p.surface, func(d Device) error {
		d.SetTextureFilter(res.texture, filterFor(enabled))
		// Linear minification reads the mip chain, which is stale until
		// the next upload.
		if enabled && res.texWidth > 0 {
			d.GenerateMipmap(res.texture)
			p.stats.MipmapGenerations++
		}
		return gpuError("set texture filter", d.Err())
	})
}

// SetDebug toggles debug timing logs.
func (p *Presenter) SetDebug(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.debug = enabled
}

// LinearFilter reports the current sampling filter choice.
func (p *Presenter) LinearFilter() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.linearFilter
}

// SetSwapInterval sets the surface swap interval (1 = vsync, 0 = off).
func (p *Presenter) SetSwapInterval(interval int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return WithContext(p.surface, func(d Device) error {
		return gpuError("set swap interval", d.SetSwapInterval(interval))
	})
}

// Shutdown releases all GPU resources and returns the presenter to the
// uninitialized state. Handles are reset even when the context cannot be
// acquired. Calling Shutdown again is a no-op.
func (p *Presenter) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := p.res
	if res == nil {
		return nil
	}
	p.res = nil

	err := WithContext(p.surface, func(d Device) error {
		p.release(d, res)
		return gpuError("release resources", d.Err())
	})
	if err != nil {
		p.logger.Warn("present: releasing GPU resources", "err", err)
	}
	return err
}

// release unbinds the presentation state, then deletes every allocated
// object in res and zeroes its handles.
func (p *Presenter) release(d Device, res *resourceSet) {
	d.UseProgram(0)
	d.BindTexture(0, 0)
	d.BindBuffer(VertexBuffer, 0)
	d.BindBuffer(IndexBuffer, 0)
	if res.program != 0 {
		d.DeleteProgram(res.program)
		res.program = 0
	}
	if res.vs != 0 {
		d.DeleteShader(res.vs)
		res.vs = 0
	}
	if res.fs != 0 {
		d.DeleteShader(res.fs)
		res.fs = 0
	}
	if res.texture != 0 {
		d.DeleteTexture(res.texture)
		res.texture = 0
	}
	if res.vbo != 0 {
		d.DeleteBuffer(res.vbo)
		res.vbo = 0
	}
	if res.ibo != 0 {
		d.DeleteBuffer(res.ibo)
		res.ibo = 0
	}
	res.texWidth, res.texHeight = 0, 0
}

// Initialized reports whether GPU resources are allocated.
func (p *Presenter) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resState() == resourcesReady
}

// Info returns the adapter identification captured at initialization.
func (p *Presenter) Info() AdapterInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info
}

// Diagnostics returns shader compile and link failures captured so far.
func (p *Presenter) Diagnostics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.diagnostics...)
}

// TextureSize returns the size of the last upload, or zeros.
func (p *Presenter) TextureSize() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.res == nil {
		return 0, 0
	}
	return p.res.texWidth, p.res.texHeight
}

// Stats returns a snapshot of the presenter counters.
func (p *Presenter) Stats() PresenterStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
