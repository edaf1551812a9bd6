// SPDX-License-Identifier: Unlicense OR MIT

// Package egl binds the EGL 1.4 entry points needed to create a
// window surface for an OpenGL ES context.
package egl

import "fmt"

type (
	Int               int32
	Display           uintptr
	Config            uintptr
	Context           uintptr
	Surface           uintptr
	NativeDisplayType uintptr
	NativeWindowType  uintptr
)

const (
	NoDisplay Display = 0
	NoConfig  Config  = 0
	NoContext Context = 0
	NoSurface Surface = 0

	DefaultDisplay NativeDisplayType = 0
)

const (
	SUCCESS                = 0x3000
	NOT_INITIALIZED        = 0x3001
	BAD_ACCESS             = 0x3002
	BAD_ALLOC              = 0x3003
	BAD_ATTRIBUTE          = 0x3004
	BAD_CONFIG             = 0x3005
	BAD_CONTEXT            = 0x3006
	BAD_CURRENT_SURFACE    = 0x3007
	BAD_DISPLAY            = 0x3008
	BAD_MATCH              = 0x3009
	BAD_NATIVE_PIXMAP      = 0x300a
	BAD_NATIVE_WINDOW      = 0x300b
	BAD_PARAMETER          = 0x300c
	BAD_SURFACE            = 0x300d
	CONTEXT_LOST           = 0x300e
	ALPHA_SIZE             = 0x3021
	BLUE_SIZE              = 0x3022
	GREEN_SIZE             = 0x3023
	RED_SIZE               = 0x3024
	SURFACE_TYPE           = 0x3033
	NONE                   = 0x3038
	RENDERABLE_TYPE        = 0x3040
	CONTEXT_CLIENT_VERSION = 0x3098
	RECORDABLE_ANDROID     = 0x3142
	OPENGL_ES2_BIT         = 0x4
	OPENGL_ES3_BIT_KHR     = 0x40
	WINDOW_BIT             = 0x4
)

// API is the EGL entry point table. Implementations are not safe for
// concurrent use from multiple threads on the same context: EGL binds
// the current context per thread.
type API interface {
	GetDisplay(disp NativeDisplayType) Display
	Initialize(disp Display) (major, minor Int, ok bool)
	// ChooseConfig returns NoConfig and true if no config matches.
	ChooseConfig(disp Display, attribs []Int) (Config, bool)
	CreateContext(disp Display, cfg Config, share Context, attribs []Int) Context
	QueryContext(disp Display, ctx Context, attr Int) (Int, bool)
	CreateWindowSurface(disp Display, cfg Config, win NativeWindowType, attribs []Int) Surface
	MakeCurrent(disp Display, draw, read Surface, ctx Context) bool
	SwapBuffers(disp Display, surf Surface) bool
	DestroySurface(disp Display, surf Surface) bool
	DestroyContext(disp Display, ctx Context) bool
	ReleaseThread() bool
	Terminate(disp Display) bool
	GetError() Int
}

// Error is an EGL error code reported by a failed call.
type Error struct {
	Op   string
	Code Int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: EGL error 0x%x (%s)", e.Op, int32(e.Code), ErrorName(e.Code))
}

// NewError captures the calling thread's EGL error for op.
func NewError(api API, op string) *Error {
	return &Error{Op: op, Code: api.GetError()}
}

func ErrorName(code Int) string {
	switch code {
	case SUCCESS:
		return "EGL_SUCCESS"
	case NOT_INITIALIZED:
		return "EGL_NOT_INITIALIZED"
	case BAD_ACCESS:
		return "EGL_BAD_ACCESS"
	case BAD_ALLOC:
		return "EGL_BAD_ALLOC"
	case BAD_ATTRIBUTE:
		return "EGL_BAD_ATTRIBUTE"
	case BAD_CONFIG:
		return "EGL_BAD_CONFIG"
	case BAD_CONTEXT:
		return "EGL_BAD_CONTEXT"
	case BAD_CURRENT_SURFACE:
		return "EGL_BAD_CURRENT_SURFACE"
	case BAD_DISPLAY:
		return "EGL_BAD_DISPLAY"
	case BAD_MATCH:
		return "EGL_BAD_MATCH"
	case BAD_NATIVE_PIXMAP:
		return "EGL_BAD_NATIVE_PIXMAP"
	case BAD_NATIVE_WINDOW:
		return "EGL_BAD_NATIVE_WINDOW"
	case BAD_PARAMETER:
		return "EGL_BAD_PARAMETER"
	case BAD_SURFACE:
		return "EGL_BAD_SURFACE"
	case CONTEXT_LOST:
		return "EGL_CONTEXT_LOST"
	default:
		return "unknown"
	}
}

// Attrib returns the value following key in an EGL_NONE terminated
// attribute list.
func Attrib(attribs []Int, key Int) (Int, bool) {
	for i := 0; i+1 < len(attribs); i += 2 {
		if attribs[i] == NONE {
			break
		}
		if attribs[i] == key {
			return attribs[i+1], true
		}
	}
	return 0, false
}
