// SPDX-License-Identifier: Unlicense OR MIT

package gltest

import (
	"sync"
	"sync/atomic"

	"gioui.org/x/camview/internal/egl"
)

// Handles returned by the fake EGL.
const (
	Display    egl.Display = 1
	ES3Config  egl.Config  = 30
	ES2Config  egl.Config  = 20
	ES3Context egl.Context = 300
	ES2Context egl.Context = 200
	Surface    egl.Surface = 1000
)

// EGL is a fake egl.API. The exported knobs must be set before the
// fake is used.
type EGL struct {
	rec *Recorder

	// NoES3Config makes ChooseConfig match no config for ES 3.
	NoES3Config bool
	// NoConfig makes ChooseConfig match no config at all.
	NoConfig bool
	// FailES3Context makes ES 3 context creation fail.
	FailES3Context bool
	// FailContext makes every context creation fail.
	FailContext bool
	// FailSurface makes window surface creation fail.
	FailSurface bool
	// Gate, if non-nil, blocks window surface creation until it is
	// closed.
	Gate chan struct{}
	// FailMakeCurrent makes binding the context fail.
	FailMakeCurrent atomic.Bool
	// FailSwap makes eglSwapBuffers fail.
	FailSwap atomic.Bool

	mu      sync.Mutex
	err     egl.Int
	current egl.Context
	swaps   int
}

func NewEGL(r *Recorder) *EGL {
	return &EGL{rec: r, err: egl.SUCCESS}
}

// Swaps returns the number of successful eglSwapBuffers calls.
func (e *EGL) Swaps() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.swaps
}

// Current returns the context bound by the last eglMakeCurrent.
func (e *EGL) Current() egl.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *EGL) setError(code egl.Int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = code
}

func (e *EGL) GetDisplay(disp egl.NativeDisplayType) egl.Display {
	e.rec.record("eglGetDisplay", disp)
	return Display
}

func (e *EGL) Initialize(disp egl.Display) (egl.Int, egl.Int, bool) {
	e.rec.record("eglInitialize", disp)
	return 1, 4, true
}

func (e *EGL) ChooseConfig(disp egl.Display, attribs []egl.Int) (egl.Config, bool) {
	e.rec.record("eglChooseConfig", append([]egl.Int(nil), attribs...))
	if e.NoConfig {
		return egl.NoConfig, true
	}
	if rt, _ := egl.Attrib(attribs, egl.RENDERABLE_TYPE); rt == egl.OPENGL_ES3_BIT_KHR {
		if e.NoES3Config {
			return egl.NoConfig, true
		}
		return ES3Config, true
	}
	return ES2Config, true
}

func (e *EGL) CreateContext(disp egl.Display, cfg egl.Config, share egl.Context, attribs []egl.Int) egl.Context {
	version, _ := egl.Attrib(attribs, egl.CONTEXT_CLIENT_VERSION)
	e.rec.record("eglCreateContext", cfg, version)
	if e.FailContext || (version == 3 && e.FailES3Context) {
		e.setError(egl.BAD_CONFIG)
		return egl.NoContext
	}
	if version == 3 {
		return ES3Context
	}
	return ES2Context
}

func (e *EGL) QueryContext(disp egl.Display, ctx egl.Context, attr egl.Int) (egl.Int, bool) {
	e.rec.record("eglQueryContext", ctx, attr)
	if attr != egl.CONTEXT_CLIENT_VERSION {
		e.setError(egl.BAD_ATTRIBUTE)
		return 0, false
	}
	switch ctx {
	case ES3Context:
		return 3, true
	case ES2Context:
		return 2, true
	}
	e.setError(egl.BAD_CONTEXT)
	return 0, false
}

func (e *EGL) CreateWindowSurface(disp egl.Display, cfg egl.Config, win egl.NativeWindowType, attribs []egl.Int) egl.Surface {
	if e.Gate != nil {
		<-e.Gate
	}
	e.rec.record("eglCreateWindowSurface", cfg, win)
	if e.FailSurface {
		e.setError(egl.BAD_NATIVE_WINDOW)
		return egl.NoSurface
	}
	return Surface
}

func (e *EGL) MakeCurrent(disp egl.Display, draw, read egl.Surface, ctx egl.Context) bool {
	e.rec.record("eglMakeCurrent", draw, ctx)
	if ctx != egl.NoContext && e.FailMakeCurrent.Load() {
		e.setError(egl.BAD_SURFACE)
		return false
	}
	e.mu.Lock()
	e.current = ctx
	e.mu.Unlock()
	return true
}

func (e *EGL) SwapBuffers(disp egl.Display, surf egl.Surface) bool {
	e.rec.record("eglSwapBuffers", surf)
	if e.FailSwap.Load() {
		e.setError(egl.BAD_SURFACE)
		return false
	}
	e.mu.Lock()
	e.swaps++
	e.mu.Unlock()
	return true
}

func (e *EGL) DestroySurface(disp egl.Display, surf egl.Surface) bool {
	e.rec.record("eglDestroySurface", surf)
	return true
}

func (e *EGL) DestroyContext(disp egl.Display, ctx egl.Context) bool {
	e.rec.record("eglDestroyContext", ctx)
	return true
}

func (e *EGL) ReleaseThread() bool {
	e.rec.record("eglReleaseThread")
	return true
}

func (e *EGL) Terminate(disp egl.Display) bool {
	e.rec.record("eglTerminate", disp)
	return true
}

func (e *EGL) GetError() egl.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.err
	e.err = egl.SUCCESS
	return err
}
