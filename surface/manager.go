// SPDX-License-Identifier: Unlicense OR MIT

// Package surface owns the EGL display, context and window surface
// for one rendering lifetime, and the texture frames are streamed
// into.
package surface

import (
	"errors"
	"fmt"
	"log/slog"

	"gioui.org/x/camview/gl"
	"gioui.org/x/camview/internal/egl"
)

type (
	// NativeWindow is the platform window handle passed to
	// eglCreateWindowSurface: an ANativeWindow pointer on Android, an
	// X11 Window on Linux.
	NativeWindow uintptr
	// NativeDisplay is the platform display connection passed to
	// eglGetDisplay. The zero value is EGL_DEFAULT_DISPLAY.
	NativeDisplay uintptr
)

// ErrNoConfig is returned by CreateSurface when no EGL config offers
// an RGBA8888 window surface.
var ErrNoConfig = errors.New("surface: no RGBA8888 EGL config")

// Backend is the pair of native entry point tables a Manager drives.
type Backend struct {
	EGL egl.API
	GL  gl.Functions
}

// LoadBackend loads the system EGL and OpenGL ES libraries.
func LoadBackend() (Backend, error) {
	e, err := egl.Load()
	if err != nil {
		return Backend{}, err
	}
	f, err := gl.Load()
	if err != nil {
		return Backend{}, err
	}
	return Backend{EGL: e, GL: f}, nil
}

// GraphicsContext is the display, context and surface triad of one
// rendering lifetime.
type GraphicsContext struct {
	disp    egl.Display
	cfg     egl.Config
	ctx     egl.Context
	surf    egl.Surface
	version int
}

// Version returns the negotiated OpenGL ES client version.
func (c *GraphicsContext) Version() int {
	return c.version
}

// Manager creates, binds, presents and destroys a GraphicsContext.
// All methods must be called from the same locked OS thread.
type Manager struct {
	egl     egl.API
	gl      gl.Functions
	display NativeDisplay
	target  gl.Enum
	log     *slog.Logger

	gc  GraphicsContext
	src *FrameSource
}

type Option func(m *Manager)

// WithDisplay selects the native display connection. The default is
// EGL_DEFAULT_DISPLAY.
func WithDisplay(d NativeDisplay) Option {
	return func(m *Manager) {
		m.display = d
	}
}

// WithTextureTarget selects the texture target of the frame source:
// gl.TEXTURE_EXTERNAL_OES (the default) for platform camera streams or
// gl.TEXTURE_2D for frames uploaded from memory.
func WithTextureTarget(target gl.Enum) Option {
	return func(m *Manager) {
		m.target = target
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

func NewManager(b Backend, opts ...Option) *Manager {
	m := &Manager{
		egl:    b.EGL,
		gl:     b.GL,
		target: gl.TEXTURE_EXTERNAL_OES,
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Functions returns the GL entry points bound to the context.
func (m *Manager) Functions() gl.Functions {
	return m.gl
}

// Context returns the live context, or nil if there is none.
func (m *Manager) Context() *GraphicsContext {
	if m.gc.disp == egl.NoDisplay {
		return nil
	}
	return &m.gc
}

// CreateSurface creates the GraphicsContext for win, makes it current
// and allocates the texture frames are delivered to. An OpenGL ES 3
// context is preferred; ES 2 is used when the ES 3 config or context
// cannot be created. A recordable surface can feed a video encoder.
//
// Errors are fatal to the rendering lifetime. Whatever was created
// before the failure is released.
func (m *Manager) CreateSurface(win NativeWindow, recordable bool) (*GraphicsContext, *FrameSource, error) {
	if m.gc.disp != egl.NoDisplay {
		return nil, nil, errors.New("surface: already created")
	}
	if err := m.createSurface(win, recordable); err != nil {
		m.DestroySurface()
		return nil, nil, err
	}
	return &m.gc, m.src, nil
}

func (m *Manager) createSurface(win NativeWindow, recordable bool) error {
	disp := m.egl.GetDisplay(egl.NativeDisplayType(m.display))
	if disp == egl.NoDisplay {
		return egl.NewError(m.egl, "eglGetDisplay")
	}
	m.gc.disp = disp
	if _, _, ok := m.egl.Initialize(disp); !ok {
		return egl.NewError(m.egl, "eglInitialize")
	}
	if err := m.createContext(recordable); err != nil {
		return err
	}
	if v, ok := m.egl.QueryContext(disp, m.gc.ctx, egl.CONTEXT_CLIENT_VERSION); ok {
		m.gc.version = int(v)
	}
	m.log.Debug("EGL context created", "client_version", m.gc.version)

	surf := m.egl.CreateWindowSurface(disp, m.gc.cfg, egl.NativeWindowType(win), []egl.Int{egl.NONE})
	if surf == egl.NoSurface {
		return egl.NewError(m.egl, "eglCreateWindowSurface")
	}
	m.gc.surf = surf
	if !m.egl.MakeCurrent(disp, surf, surf, m.gc.ctx) {
		return egl.NewError(m.egl, "eglMakeCurrent")
	}

	tex := m.gl.CreateTexture()
	if err := gl.CheckError(m.gl, "glGenTextures"); err != nil {
		return err
	}
	m.src = newFrameSource(m.gl, tex, m.target)
	m.gl.BindTexture(m.target, tex)
	m.gl.TexParameteri(m.target, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	m.gl.TexParameteri(m.target, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	m.gl.TexParameteri(m.target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	m.gl.TexParameteri(m.target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return gl.CheckError(m.gl, "texture setup")
}

// createContext tries ES 3 first and falls back to ES 2.
func (m *Manager) createContext(recordable bool) error {
	var err error
	for _, version := range []int{3, 2} {
		var cfg egl.Config
		cfg, err = m.chooseConfig(version, recordable)
		if err != nil {
			m.log.Warn("no EGL config", "version", version, "error", err)
			continue
		}
		attribs := []egl.Int{
			egl.CONTEXT_CLIENT_VERSION, egl.Int(version),
			egl.NONE,
		}
		ctx := m.egl.CreateContext(m.gc.disp, cfg, egl.NoContext, attribs)
		if ctx == egl.NoContext {
			err = egl.NewError(m.egl, fmt.Sprintf("eglCreateContext (ES %d)", version))
			m.log.Warn("failed to create EGL context", "version", version, "error", err)
			continue
		}
		m.gc.cfg, m.gc.ctx = cfg, ctx
		return nil
	}
	return err
}

func (m *Manager) chooseConfig(version int, recordable bool) (egl.Config, error) {
	renderType := egl.Int(egl.OPENGL_ES2_BIT)
	if version == 3 {
		renderType = egl.OPENGL_ES3_BIT_KHR
	}
	// No depth or stencil: the scene is a single quad.
	attribs := []egl.Int{
		egl.RED_SIZE, 8,
		egl.GREEN_SIZE, 8,
		egl.BLUE_SIZE, 8,
		egl.ALPHA_SIZE, 8,
		egl.SURFACE_TYPE, egl.WINDOW_BIT,
		egl.RENDERABLE_TYPE, renderType,
	}
	if recordable {
		attribs = append(attribs, egl.RECORDABLE_ANDROID, 1)
	}
	attribs = append(attribs, egl.NONE)
	cfg, ok := m.egl.ChooseConfig(m.gc.disp, attribs)
	if !ok {
		return egl.NoConfig, egl.NewError(m.egl, "eglChooseConfig")
	}
	if cfg == egl.NoConfig {
		return egl.NoConfig, fmt.Errorf("%w (ES %d, recordable=%v)", ErrNoConfig, version, recordable)
	}
	return cfg, nil
}

// MakeCurrent binds the context to the calling thread. Failure is
// logged and reported, not fatal: the caller may skip the frame.
func (m *Manager) MakeCurrent() bool {
	if m.gc.disp == egl.NoDisplay {
		m.log.Error("eglMakeCurrent without a surface")
		return false
	}
	if !m.egl.MakeCurrent(m.gc.disp, m.gc.surf, m.gc.surf, m.gc.ctx) {
		m.log.Error("eglMakeCurrent failed", "error", egl.NewError(m.egl, "eglMakeCurrent"))
		return false
	}
	return true
}

// SwapBuffers presents the back buffer, with the same failure
// contract as MakeCurrent.
func (m *Manager) SwapBuffers() bool {
	if m.gc.disp == egl.NoDisplay {
		m.log.Error("eglSwapBuffers without a surface")
		return false
	}
	if !m.egl.SwapBuffers(m.gc.disp, m.gc.surf) {
		m.log.Error("eglSwapBuffers failed", "error", egl.NewError(m.egl, "eglSwapBuffers"))
		return false
	}
	return true
}

// DestroySurface releases the frame source texture, then unbinds the
// context, destroys the surface and context, releases the thread's EGL
// state and terminates the display. It tolerates partially created
// state, and calling it again is a no-op.
func (m *Manager) DestroySurface() {
	if m.src != nil {
		m.src.release()
		m.src = nil
	}
	if gc := m.gc; gc.disp != egl.NoDisplay {
		m.log.Debug("disposing EGL resources")
		ok := m.egl.MakeCurrent(gc.disp, egl.NoSurface, egl.NoSurface, egl.NoContext)
		m.log.Debug("eglMakeCurrent none", "ok", ok)
		if gc.surf != egl.NoSurface {
			ok = m.egl.DestroySurface(gc.disp, gc.surf)
			m.log.Debug("eglDestroySurface", "ok", ok)
		}
		if gc.ctx != egl.NoContext {
			ok = m.egl.DestroyContext(gc.disp, gc.ctx)
			m.log.Debug("eglDestroyContext", "ok", ok)
		}
		ok = m.egl.ReleaseThread()
		m.log.Debug("eglReleaseThread", "ok", ok)
		ok = m.egl.Terminate(gc.disp)
		m.log.Debug("eglTerminate", "ok", ok)
	}
	m.gc = GraphicsContext{}
}
