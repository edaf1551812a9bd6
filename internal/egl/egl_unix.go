// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

package egl

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

var libEGLNames = []string{"libEGL.so.1", "libEGL.so"}

type lib struct {
	eglChooseConfig        func(disp uintptr, attribs *Int, configs *uintptr, size int32, num *int32) uint32
	eglCreateContext       func(disp, cfg, share uintptr, attribs *Int) uintptr
	eglCreateWindowSurface func(disp, cfg, win uintptr, attribs *Int) uintptr
	eglDestroyContext      func(disp, ctx uintptr) uint32
	eglDestroySurface      func(disp, surf uintptr) uint32
	eglGetDisplay          func(disp uintptr) uintptr
	eglGetError            func() int32
	eglInitialize          func(disp uintptr, major, minor *int32) uint32
	eglMakeCurrent         func(disp, draw, read, ctx uintptr) uint32
	eglQueryContext        func(disp, ctx uintptr, attr int32, value *int32) uint32
	eglReleaseThread       func() uint32
	eglSwapBuffers         func(disp, surf uintptr) uint32
	eglTerminate           func(disp uintptr) uint32
}

var (
	loadOnce sync.Once
	loaded   *lib
	loadErr  error
)

// Load resolves the EGL entry points from the system library. The
// library is loaded once per process.
func Load() (API, error) {
	loadOnce.Do(func() {
		loaded, loadErr = loadEGL()
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return loaded, nil
}

func loadEGL() (*lib, error) {
	var (
		handle   uintptr
		firstErr error
	)
	for _, name := range libEGLNames {
		h, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			handle = h
			break
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if handle == 0 {
		return nil, fmt.Errorf("egl: failed to load %s: %w", libEGLNames[0], firstErr)
	}
	l := new(lib)
	procs := map[string]any{
		"eglChooseConfig":        &l.eglChooseConfig,
		"eglCreateContext":       &l.eglCreateContext,
		"eglCreateWindowSurface": &l.eglCreateWindowSurface,
		"eglDestroyContext":      &l.eglDestroyContext,
		"eglDestroySurface":      &l.eglDestroySurface,
		"eglGetDisplay":          &l.eglGetDisplay,
		"eglGetError":            &l.eglGetError,
		"eglInitialize":          &l.eglInitialize,
		"eglMakeCurrent":         &l.eglMakeCurrent,
		"eglQueryContext":        &l.eglQueryContext,
		"eglReleaseThread":       &l.eglReleaseThread,
		"eglSwapBuffers":         &l.eglSwapBuffers,
		"eglTerminate":           &l.eglTerminate,
	}
	for name, fptr := range procs {
		sym, err := purego.Dlsym(handle, name)
		if err != nil {
			return nil, fmt.Errorf("egl: failed to locate %s: %w", name, err)
		}
		purego.RegisterFunc(fptr, sym)
	}
	return l, nil
}

func (l *lib) ChooseConfig(disp Display, attribs []Int) (Config, bool) {
	var (
		cfg  uintptr
		ncfg int32
	)
	a := &attribs[0]
	r := l.eglChooseConfig(uintptr(disp), a, &cfg, 1, &ncfg)
	runtime.KeepAlive(attribs)
	if ncfg == 0 {
		cfg = 0
	}
	return Config(cfg), r != 0
}

func (l *lib) CreateContext(disp Display, cfg Config, share Context, attribs []Int) Context {
	c := l.eglCreateContext(uintptr(disp), uintptr(cfg), uintptr(share), &attribs[0])
	runtime.KeepAlive(attribs)
	return Context(c)
}

func (l *lib) CreateWindowSurface(disp Display, cfg Config, win NativeWindowType, attribs []Int) Surface {
	s := l.eglCreateWindowSurface(uintptr(disp), uintptr(cfg), uintptr(win), &attribs[0])
	runtime.KeepAlive(attribs)
	return Surface(s)
}

func (l *lib) DestroyContext(disp Display, ctx Context) bool {
	return l.eglDestroyContext(uintptr(disp), uintptr(ctx)) != 0
}

func (l *lib) DestroySurface(disp Display, surf Surface) bool {
	return l.eglDestroySurface(uintptr(disp), uintptr(surf)) != 0
}

func (l *lib) GetDisplay(disp NativeDisplayType) Display {
	return Display(l.eglGetDisplay(uintptr(disp)))
}

func (l *lib) GetError() Int {
	return Int(l.eglGetError())
}

func (l *lib) Initialize(disp Display) (Int, Int, bool) {
	var maj, min int32
	r := l.eglInitialize(uintptr(disp), &maj, &min)
	return Int(maj), Int(min), r != 0
}

func (l *lib) MakeCurrent(disp Display, draw, read Surface, ctx Context) bool {
	return l.eglMakeCurrent(uintptr(disp), uintptr(draw), uintptr(read), uintptr(ctx)) != 0
}

func (l *lib) QueryContext(disp Display, ctx Context, attr Int) (Int, bool) {
	var v int32
	r := l.eglQueryContext(uintptr(disp), uintptr(ctx), int32(attr), &v)
	return Int(v), r != 0
}

func (l *lib) ReleaseThread() bool {
	return l.eglReleaseThread() != 0
}

func (l *lib) SwapBuffers(disp Display, surf Surface) bool {
	return l.eglSwapBuffers(uintptr(disp), uintptr(surf)) != 0
}

func (l *lib) Terminate(disp Display) bool {
	return l.eglTerminate(uintptr(disp)) != 0
}
