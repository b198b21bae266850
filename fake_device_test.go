package present

import (
	"errors"
	"fmt"
	"sync"
)

// fakeDevice records the calls the presenter makes and tracks live GPU
// objects so tests can check allocation and release.
type fakeDevice struct {
	calls   []string
	details []string
	nextID  uint32

	live     map[string]int
	textures map[TextureID]*fakeTexture

	compileStatus map[ShaderStage]ShaderStatus
	linkStatus    ShaderStatus

	// failOn makes the named method return (or record) errFake.
	failOn  string
	panicOn string
	pending error

	inits        int
	swapInterval int
	lastViewport [2]int
	draws        int
	bound        map[string]uint32
	enabledAttrs map[int32]bool
}

type fakeTexture struct {
	filter  Filter
	width   int
	height  int
	allocs  int
	updates int
	mipmaps int
	pixels  []uint32
}

var errFake = errors.New("fake: injected failure")

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		live:          map[string]int{},
		textures:      map[TextureID]*fakeTexture{},
		compileStatus: map[ShaderStage]ShaderStatus{VertexStage: {OK: true}, FragmentStage: {OK: true}},
		linkStatus:    ShaderStatus{OK: true},
		bound:         map[string]uint32{},
		enabledAttrs:  map[int32]bool{},
	}
}

func (d *fakeDevice) record(name string, args ...any) {
	d.calls = append(d.calls, name)
	if len(args) > 0 {
		d.details = append(d.details, name+" "+fmt.Sprint(args...))
	}
	if d.panicOn == name {
		panic("fake: injected panic in " + name)
	}
}

func (d *fakeDevice) fails(name string) bool { return d.failOn == name }

func (d *fakeDevice) id(kind string) uint32 {
	d.nextID++
	d.live[kind]++
	return d.nextID
}

func (d *fakeDevice) liveObjects() int {
	n := 0
	for _, v := range d.live {
		n += v
	}
	return n
}

func (d *fakeDevice) count(name string) int {
	n := 0
	for _, c := range d.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (d *fakeDevice) resetCalls() {
	d.calls = nil
	d.details = nil
}

func (d *fakeDevice) Init() (AdapterInfo, error) {
	d.record("Init")
	d.inits++
	if d.fails("Init") {
		return AdapterInfo{}, errFake
	}
	return AdapterInfo{Vendor: "FakeVendor", Renderer: "FakeRenderer", Version: "1.0"}, nil
}

func (d *fakeDevice) SetSwapInterval(interval int) error {
	d.record("SetSwapInterval", interval)
	if d.fails("SetSwapInterval") {
		return errFake
	}
	d.swapInterval = interval
	return nil
}

func (d *fakeDevice) CompileShader(stage ShaderStage, src ShaderSource) (ShaderID, ShaderStatus, error) {
	d.record("CompileShader", stage)
	if d.fails("CompileShader") {
		return 0, ShaderStatus{}, errFake
	}
	return ShaderID(d.id("shader")), d.compileStatus[stage], nil
}

func (d *fakeDevice) LinkProgram(vs, fs ShaderID) (ProgramID, ShaderStatus, error) {
	d.record("LinkProgram")
	if d.fails("LinkProgram") {
		return 0, ShaderStatus{}, errFake
	}
	return ProgramID(d.id("program")), d.linkStatus, nil
}

func (d *fakeDevice) AttribLocation(p ProgramID, name string) int32 {
	d.record("AttribLocation", name)
	switch name {
	case AttribPosition:
		return 0
	case AttribTexCoord:
		return 1
	}
	return -1
}

func (d *fakeDevice) UniformLocation(p ProgramID, name string) int32 {
	d.record("UniformLocation", name)
	switch name {
	case UniformTexture:
		return 0
	case UniformTexel:
		return 1
	case UniformSharpen:
		return 2
	case UniformSaturation:
		return 3
	}
	return -1
}

func (d *fakeDevice) DeleteShader(s ShaderID)   { d.record("DeleteShader"); d.live["shader"]-- }
func (d *fakeDevice) DeleteProgram(p ProgramID) { d.record("DeleteProgram"); d.live["program"]-- }

func (d *fakeDevice) CreateBuffer(kind BufferKind, data []byte) (BufferID, error) {
	d.record("CreateBuffer", kind)
	if d.fails("CreateBuffer") {
		return 0, errFake
	}
	return BufferID(d.id("buffer")), nil
}

func (d *fakeDevice) DeleteBuffer(b BufferID) { d.record("DeleteBuffer"); d.live["buffer"]-- }

func (d *fakeDevice) CreateTexture(filter Filter) (TextureID, error) {
	d.record("CreateTexture", filter)
	if d.fails("CreateTexture") {
		return 0, errFake
	}
	id := TextureID(d.id("texture"))
	d.textures[id] = &fakeTexture{filter: filter}
	return id, nil
}

func (d *fakeDevice) SetTextureFilter(t TextureID, filter Filter) {
	d.record("SetTextureFilter", filter)
	if tex := d.textures[t]; tex != nil {
		tex.filter = filter
	}
}

func (d *fakeDevice) AllocTexture(t TextureID, width, height int) error {
	d.record("AllocTexture", width, "x", height)
	if d.fails("AllocTexture") {
		return errFake
	}
	tex := d.textures[t]
	tex.width, tex.height = width, height
	tex.allocs++
	return nil
}

func (d *fakeDevice) UpdateTexture(t TextureID, width, height int, pixels []uint32) error {
	d.record("UpdateTexture")
	if d.fails("UpdateTexture") {
		return errFake
	}
	tex := d.textures[t]
	if width != tex.width || height != tex.height {
		return fmt.Errorf("fake: update %dx%d into %dx%d storage", width, height, tex.width, tex.height)
	}
	tex.updates++
	tex.pixels = append(tex.pixels[:0], pixels...)
	return nil
}

func (d *fakeDevice) GenerateMipmap(t TextureID) {
	d.record("GenerateMipmap")
	d.textures[t].mipmaps++
}

func (d *fakeDevice) DeleteTexture(t TextureID) {
	d.record("DeleteTexture")
	d.live["texture"]--
	delete(d.textures, t)
}

func (d *fakeDevice) Viewport(width, height int) {
	d.record("Viewport")
	d.lastViewport = [2]int{width, height}
}

func (d *fakeDevice) Clear(r, g, b, a float32) { d.record("Clear") }

func (d *fakeDevice) UseProgram(p ProgramID) {
	d.record("UseProgram")
	d.bound["program"] = uint32(p)
}

func (d *fakeDevice) Uniform1i(loc int32, v int32)      { d.record("Uniform1i") }
func (d *fakeDevice) Uniform1f(loc int32, v float32)    { d.record("Uniform1f") }
func (d *fakeDevice) Uniform2f(loc int32, x, y float32) { d.record("Uniform2f") }

func (d *fakeDevice) BindTexture(unit int, t TextureID) {
	d.record("BindTexture")
	d.bound["texture"] = uint32(t)
}

func (d *fakeDevice) BindBuffer(kind BufferKind, b BufferID) {
	d.record("BindBuffer")
	d.bound[fmt.Sprint("buffer", kind)] = uint32(b)
}

func (d *fakeDevice) EnableAttrib(loc int32) {
	d.record("EnableAttrib")
	d.enabledAttrs[loc] = true
}

func (d *fakeDevice) DisableAttrib(loc int32) {
	d.record("DisableAttrib")
	delete(d.enabledAttrs, loc)
}

func (d *fakeDevice) AttribPointer(loc int32, size, stride, offset int) {
	d.record("AttribPointer")
}

func (d *fakeDevice) DrawIndexed(count int) {
	d.record("DrawIndexed", count)
	if d.fails("DrawIndexed") {
		d.pending = errFake
		return
	}
	d.draws++
}

func (d *fakeDevice) Err() error {
	err := d.pending
	d.pending = nil
	return err
}

// fakeSurface hands out a fakeDevice and checks that the context is never
// acquired twice or released without being acquired.
type fakeSurface struct {
	mu      sync.Mutex
	dev     *fakeDevice
	current bool

	acquires int
	releases int
	swaps    int

	acquireErr error
	swapErr    error
	misuse     []string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{dev: newFakeDevice()}
}

func (s *fakeSurface) MakeCurrent() (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	if s.current {
		s.misuse = append(s.misuse, "MakeCurrent while current")
	}
	s.current = true
	s.acquires++
	return s.dev, nil
}

func (s *fakeSurface) ReleaseCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current {
		s.misuse = append(s.misuse, "ReleaseCurrent while not current")
	}
	s.current = false
	s.releases++
}

func (s *fakeSurface) SwapBuffers() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current {
		s.misuse = append(s.misuse, "SwapBuffers inside context scope")
	}
	if s.swapErr != nil {
		return s.swapErr
	}
	s.swaps++
	return nil
}
