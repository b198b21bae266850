package present

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Manager is the host's entry point to frame presentation. It owns a
// Compositor, creates its Presenter lazily and runs the lifecycle state
// machine.
//
// The render loop calls BeginFrame, Blit and PresentFrame once per frame.
// BeginEnable, MarkEnabled, BeginDisable, Shutdown and the setters may be
// called from any goroutine. PresentFrame and Shutdown are serialized so a
// shutdown never frees resources a frame is using.
//
// Errors from the GPU never reach the render loop: a failed frame is
// dropped, the pipeline turns itself off and the reason is kept for
// ConsumeInitFailure.
type Manager struct {
	factory          SurfaceFactory
	logger           *slog.Logger
	glMajor, glMinor int

	// ctlMu makes each lifecycle transition and its enabled flag change
	// one step. Lock order: mu before ctlMu.
	ctlMu      sync.Mutex
	state      atomic.Int32
	debug      atomic.Bool
	linear     atomic.Bool
	vsync      atomic.Bool
	skipUpload atomic.Bool

	compositor *Compositor

	mu        sync.Mutex
	presenter *Presenter

	pendingFailure atomic.Pointer[error]
	pendingInfo    atomic.Pointer[string]
	lastFrameTime  atomic.Int64
}

// NewManager returns a manager in the OFF state. factory is called once,
// on the first frame that needs a surface (or on the first Surface call).
func NewManager(factory SurfaceFactory, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	m := &Manager{
		factory:    factory,
		logger:     o.logger,
		glMajor:    o.glMajor,
		glMinor:    o.glMinor,
		compositor: NewCompositor(),
	}
	m.state.Store(int32(StateOff))
	m.debug.Store(o.debug)
	m.linear.Store(o.linearFilter)
	m.vsync.Store(o.vsync)
	m.skipUpload.Store(o.skipUploadWhenUnfocused)
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State { return State(m.state.Load()) }

// IsEnabled reports whether frames are currently accepted.
func (m *Manager) IsEnabled() bool { return m.compositor.Enabled() }

// Compositor returns the manager's compositor.
func (m *Manager) Compositor() *Compositor { return m.compositor }

// transitionLocked moves to state to when the current state is one of
// from. ctlMu must be held.
func (m *Manager) transitionLocked(to State, from ...State) bool {
	cur := m.State()
	for _, f := range from {
		if cur == f {
			m.state.Store(int32(to))
			m.logger.Debug("present: lifecycle", "from", cur, "to", to)
			return true
		}
	}
	return false
}

// setOffLocked forces OFF and stops accepting frames. ctlMu must be held.
func (m *Manager) setOffLocked() {
	m.compositor.SetEnabled(false)
	if prev := State(m.state.Swap(int32(StateOff))); prev != StateOff {
		m.logger.Debug("present: lifecycle", "from", prev, "to", StateOff)
	}
}

// BeginEnable moves OFF or DISABLING to ENABLING, clears any pending
// failure and starts accepting frames. It reports whether it transitioned.
func (m *Manager) BeginEnable() bool {
	m.ctlMu.Lock()
	defer m.ctlMu.Unlock()
	if !m.transitionLocked(StateEnabling, StateOff, StateDisabling) {
		return false
	}
	m.pendingFailure.Store(nil)
	m.compositor.SetEnabled(true)
	return true
}

// MarkEnabled moves ENABLING to ON once the host has attached and shown
// the surface. It reports whether it transitioned.
func (m *Manager) MarkEnabled() bool {
	m.ctlMu.Lock()
	defer m.ctlMu.Unlock()
	return m.transitionLocked(StateOn, StateEnabling)
}

// BeginDisable moves ENABLING or ON to DISABLING and stops accepting
// frames. Frames are refused afterwards even when no transition happened.
func (m *Manager) BeginDisable() bool {
	m.ctlMu.Lock()
	defer m.ctlMu.Unlock()
	m.compositor.SetEnabled(false)
	return m.transitionLocked(StateDisabling, StateEnabling, StateOn)
}

// Shutdown releases the presenter's GPU resources and returns to OFF from
// any state. It is idempotent and safe on any teardown path.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownLocked()
}

func (m *Manager) shutdownLocked() {
	m.ctlMu.Lock()
	m.setOffLocked()
	m.ctlMu.Unlock()

	if m.presenter != nil {
		if err := m.presenter.Shutdown(); err != nil {
			m.logger.Warn("present: shutdown", "err", err)
		}
	}
}

// Close shuts the manager down and closes the surface when it implements
// io.Closer, releasing a device the surface owns. The presenter is
// dropped, so a later frame asks the factory for a new surface.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownLocked()

	p := m.presenter
	if p == nil {
		return nil
	}
	m.presenter = nil
	if c, ok := p.Surface().(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("present: close surface: %w", err)
		}
	}
	return nil
}

// BeginFrame starts composing a frame of the given size.
func (m *Manager) BeginFrame(width, height int) {
	m.compositor.BeginFrame(width, height)
}

// Blit copies a source rectangle into the current frame at (x, y).
func (m *Manager) Blit(src []uint32, srcWidth, srcHeight, x, y int) {
	m.compositor.Blit(src, srcWidth, srcHeight, x, y)
}

// PresentFrame presents the composed frame onto a canvas of the given
// size. It is a no-op while disabled or before the first BeginFrame.
// On a GPU error the frame is dropped and the pipeline turned off.
func (m *Manager) PresentFrame(canvasWidth, canvasHeight int, focused bool, sharpen, saturation float32) {
	c := m.compositor
	if !c.Enabled() || !c.HasFrame() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Shutdown may have run while we waited for the lock.
	if !c.Enabled() {
		return
	}

	p, err := m.ensurePresenterLocked()
	if err != nil {
		m.failLocked(err)
		return
	}

	fc := FrameContext{
		Pixels:                  c.Pixels(),
		BufferWidth:             c.Width(),
		BufferHeight:            c.Height(),
		CanvasWidth:             max(canvasWidth, 0),
		CanvasHeight:            max(canvasHeight, 0),
		VSync:                   m.vsync.Load(),
		Focused:                 focused,
		SkipUploadWhenUnfocused: m.skipUpload.Load(),
		Sharpen:                 sharpen,
		Saturation:              saturation,
	}

	wasInitialized := p.Initialized()
	start := time.Now()
	if err := p.Present(&fc); err != nil {
		m.failLocked(err)
		return
	}
	elapsed := time.Since(start)
	m.lastFrameTime.Store(int64(elapsed))

	if !wasInitialized {
		m.publishInfo(p)
	}
	if m.debug.Load() {
		m.logger.Debug("present: frame", "ms", fmt.Sprintf("%.3f", float64(elapsed.Microseconds())/1000))
	}
}

func (m *Manager) ensurePresenterLocked() (*Presenter, error) {
	if m.presenter != nil {
		return m.presenter, nil
	}
	if m.factory == nil {
		return nil, ErrNoSurfaceFactory
	}
	s, err := m.factory(SurfaceConfig{
		SwapInterval: swapInterval(m.vsync.Load()),
		MajorVersion: m.glMajor,
		MinorVersion: m.glMinor,
		Debug:        m.debug.Load(),
	})
	if err != nil {
		return nil, gpuError("create surface", err)
	}
	if s == nil {
		return nil, ErrNilSurface
	}
	m.presenter = NewPresenter(s,
		WithPresenterLogger(m.logger),
		WithPresenterDebug(m.debug.Load()),
		WithPresenterLinearFilter(m.linear.Load()),
	)
	return m.presenter, nil
}

// failLocked records err, turns the pipeline off and releases the
// presenter's resources so the next enable starts clean.
func (m *Manager) failLocked(err error) {
	m.ctlMu.Lock()
	m.pendingFailure.Store(&err)
	m.setOffLocked()
	m.ctlMu.Unlock()
	m.logger.Warn("present: frame dropped, presentation disabled", "err", err)

	if m.presenter != nil {
		if rerr := m.presenter.Shutdown(); rerr != nil {
			m.logger.Warn("present: releasing after failure", "err", rerr)
		}
	}
}

func (m *Manager) publishInfo(p *Presenter) {
	info := p.Info()
	msg := info.String()
	if diags := p.Diagnostics(); len(diags) > 0 {
		msg += "\n" + strings.Join(diags, "\n")
	}
	m.pendingInfo.Store(&msg)
	if m.debug.Load() {
		m.logger.Debug("present: "+info.String())
	}
}

// ConsumeInitFailure returns the pending failure and clears it. It
// returns nil when nothing failed since the last call.
func (m *Manager) ConsumeInitFailure() error {
	if p := m.pendingFailure.Swap(nil); p != nil {
		return *p
	}
	return nil
}

// ConsumeGPUInfoMessage returns the GPU identification captured by the
// last presenter initialization, once. Shader diagnostics follow on
// separate lines. It returns "" when nothing is pending.
func (m *Manager) ConsumeGPUInfoMessage() string {
	if p := m.pendingInfo.Swap(nil); p != nil {
		return *p
	}
	return ""
}

// Surface returns the presentation surface, creating the presenter if
// needed, so the host can embed it before the first frame. Shutdown keeps
// the surface; a surface holding its own device is released by Close.
func (m *Manager) Surface() (Surface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.ensurePresenterLocked()
	if err != nil {
		return nil, err
	}
	return p.Surface(), nil
}

// Presenter returns the presenter, or nil before it was created.
func (m *Manager) Presenter() *Presenter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.presenter
}

// SetLinearFilter selects linear or nearest sampling, applying it to a
// live presenter immediately.
func (m *Manager) SetLinearFilter(enabled bool) {
	m.linear.Store(enabled)
	if p := m.Presenter(); p != nil {
		if err := p.SetLinearFilter(enabled); err != nil {
			m.logger.Warn("present: set linear filter", "err", err)
		}
	}
}

// LinearFilter reports whether linear sampling is selected.
func (m *Manager) LinearFilter() bool { return m.linear.Load() }

// SetVSync sets the swap interval of a live presenter. Errors are logged
// and otherwise ignored; the value also applies to future surfaces.
func (m *Manager) SetVSync(enabled bool) {
	m.vsync.Store(enabled)
	if p := m.Presenter(); p != nil {
		if err := p.SetSwapInterval(swapInterval(enabled)); err != nil {
			m.logger.Debug("present: set swap interval", "err", err)
		}
	}
}

// VSync reports whether vsync is requested.
func (m *Manager) VSync() bool { return m.vsync.Load() }

// SetSkipUploadWhenUnfocused controls whether unfocused frames skip the
// texture upload and redraw the previous texture.
func (m *Manager) SetSkipUploadWhenUnfocused(enabled bool) { m.skipUpload.Store(enabled) }

// SkipUploadWhenUnfocused reports the upload-skipping setting.
func (m *Manager) SkipUploadWhenUnfocused() bool { return m.skipUpload.Load() }

// SetDebug toggles frame timing and GPU identification logs.
func (m *Manager) SetDebug(enabled bool) {
	m.debug.Store(enabled)
	if p := m.Presenter(); p != nil {
		p.SetDebug(enabled)
	}
}

// LastFrameTime returns the duration of the last successful present.
func (m *Manager) LastFrameTime() time.Duration {
	return time.Duration(m.lastFrameTime.Load())
}

func swapInterval(vsync bool) int {
	if vsync {
		return 1
	}
	return 0
}
