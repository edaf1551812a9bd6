// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

package gl

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var libGLESNames = []string{"libGLESv2.so.2", "libGLESv2.so"}

type functions struct {
	glActiveTexture            func(texture uint32)
	glAttachShader             func(program, shader uint32)
	glBindBuffer               func(target, buffer uint32)
	glBindTexture              func(target, texture uint32)
	glBufferData               func(target uint32, size int, data unsafe.Pointer, usage uint32)
	glClear                    func(mask uint32)
	glClearColor               func(red, green, blue, alpha float32)
	glCompileShader            func(shader uint32)
	glCreateProgram            func() uint32
	glCreateShader             func(ty uint32) uint32
	glDeleteBuffers            func(n int32, buffers *uint32)
	glDeleteProgram            func(program uint32)
	glDeleteShader             func(shader uint32)
	glDeleteTextures           func(n int32, textures *uint32)
	glDisableVertexAttribArray func(index uint32)
	glDrawElements             func(mode uint32, count int32, ty uint32, offset uintptr)
	glEnableVertexAttribArray  func(index uint32)
	glFinish                   func()
	glGenBuffers               func(n int32, buffers *uint32)
	glGenTextures              func(n int32, textures *uint32)
	glGetAttribLocation        func(program uint32, name string) int32
	glGetError                 func() uint32
	glGetProgramInfoLog        func(program uint32, bufSize int32, length *int32, log *byte)
	glGetProgramiv             func(program, pname uint32, params *int32)
	glGetShaderInfoLog         func(shader uint32, bufSize int32, length *int32, log *byte)
	glGetShaderiv              func(shader, pname uint32, params *int32)
	glGetString                func(name uint32) string
	glGetUniformLocation       func(program uint32, name string) int32
	glLinkProgram              func(program uint32)
	glPixelStorei              func(pname uint32, param int32)
	glShaderSource             func(shader uint32, count int32, src **byte, length *int32)
	glTexImage2D               func(target uint32, level, internalFormat, width, height, border int32, format, ty uint32, data unsafe.Pointer)
	glTexParameteri            func(target, pname uint32, param int32)
	glTexSubImage2D            func(target uint32, level, x, y, width, height int32, format, ty uint32, data unsafe.Pointer)
	glUniformMatrix4fv         func(location, count int32, transpose uint8, value *float32)
	glUseProgram               func(program uint32)
	glVertexAttribPointer      func(index uint32, size int32, ty uint32, normalized uint8, stride int32, offset uintptr)
	glViewport                 func(x, y, width, height int32)
}

var (
	loadOnce sync.Once
	loaded   *functions
	loadErr  error
)

// Load resolves the OpenGL ES entry points from the system library.
// The library is loaded once per process.
func Load() (Functions, error) {
	loadOnce.Do(func() {
		loaded, loadErr = loadFunctions()
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return loaded, nil
}

func loadFunctions() (*functions, error) {
	lib, err := dlopen(libGLESNames)
	if err != nil {
		return nil, err
	}
	f := new(functions)
	procs := map[string]any{
		"glActiveTexture":            &f.glActiveTexture,
		"glAttachShader":             &f.glAttachShader,
		"glBindBuffer":               &f.glBindBuffer,
		"glBindTexture":              &f.glBindTexture,
		"glBufferData":               &f.glBufferData,
		"glClear":                    &f.glClear,
		"glClearColor":               &f.glClearColor,
		"glCompileShader":            &f.glCompileShader,
		"glCreateProgram":            &f.glCreateProgram,
		"glCreateShader":             &f.glCreateShader,
		"glDeleteBuffers":            &f.glDeleteBuffers,
		"glDeleteProgram":            &f.glDeleteProgram,
		"glDeleteShader":             &f.glDeleteShader,
		"glDeleteTextures":           &f.glDeleteTextures,
		"glDisableVertexAttribArray": &f.glDisableVertexAttribArray,
		"glDrawElements":             &f.glDrawElements,
		"glEnableVertexAttribArray":  &f.glEnableVertexAttribArray,
		"glFinish":                   &f.glFinish,
		"glGenBuffers":               &f.glGenBuffers,
		"glGenTextures":              &f.glGenTextures,
		"glGetAttribLocation":        &f.glGetAttribLocation,
		"glGetError":                 &f.glGetError,
		"glGetProgramInfoLog":        &f.glGetProgramInfoLog,
		"glGetProgramiv":             &f.glGetProgramiv,
		"glGetShaderInfoLog":         &f.glGetShaderInfoLog,
		"glGetShaderiv":              &f.glGetShaderiv,
		"glGetString":                &f.glGetString,
		"glGetUniformLocation":       &f.glGetUniformLocation,
		"glLinkProgram":              &f.glLinkProgram,
		"glPixelStorei":              &f.glPixelStorei,
		"glShaderSource":             &f.glShaderSource,
		"glTexImage2D":               &f.glTexImage2D,
		"glTexParameteri":            &f.glTexParameteri,
		"glTexSubImage2D":            &f.glTexSubImage2D,
		"glUniformMatrix4fv":         &f.glUniformMatrix4fv,
		"glUseProgram":               &f.glUseProgram,
		"glVertexAttribPointer":      &f.glVertexAttribPointer,
		"glViewport":                 &f.glViewport,
	}
	for name, fptr := range procs {
		sym, err := purego.Dlsym(lib, name)
		if err != nil {
			return nil, fmt.Errorf("gl: failed to locate %s: %w", name, err)
		}
		purego.RegisterFunc(fptr, sym)
	}
	return f, nil
}

func dlopen(names []string) (uintptr, error) {
	var firstErr error
	for _, name := range names {
		lib, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return lib, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return 0, fmt.Errorf("gl: failed to load %s: %w", names[0], firstErr)
}

func glBool(v bool) uint8 {
	if v {
		return TRUE
	}
	return FALSE
}

func (f *functions) ActiveTexture(texture Enum) {
	f.glActiveTexture(uint32(texture))
}

func (f *functions) AttachShader(p Program, s Shader) {
	f.glAttachShader(uint32(p.V), uint32(s.V))
}

func (f *functions) BindBuffer(target Enum, b Buffer) {
	f.glBindBuffer(uint32(target), uint32(b.V))
}

func (f *functions) BindTexture(target Enum, t Texture) {
	f.glBindTexture(uint32(target), uint32(t.V))
}

func (f *functions) BufferData(target Enum, src []byte, usage Enum) {
	var p unsafe.Pointer
	if len(src) > 0 {
		p = unsafe.Pointer(&src[0])
	}
	f.glBufferData(uint32(target), len(src), p, uint32(usage))
	runtime.KeepAlive(src)
}

func (f *functions) Clear(mask Enum) {
	f.glClear(uint32(mask))
}

func (f *functions) ClearColor(red, green, blue, alpha float32) {
	f.glClearColor(red, green, blue, alpha)
}

func (f *functions) CompileShader(s Shader) {
	f.glCompileShader(uint32(s.V))
}

func (f *functions) CreateBuffer() Buffer {
	var b uint32
	f.glGenBuffers(1, &b)
	return Buffer{uint(b)}
}

func (f *functions) CreateProgram() Program {
	return Program{uint(f.glCreateProgram())}
}

func (f *functions) CreateShader(ty Enum) Shader {
	return Shader{uint(f.glCreateShader(uint32(ty)))}
}

func (f *functions) CreateTexture() Texture {
	var t uint32
	f.glGenTextures(1, &t)
	return Texture{uint(t)}
}

func (f *functions) DeleteBuffer(v Buffer) {
	b := uint32(v.V)
	f.glDeleteBuffers(1, &b)
}

func (f *functions) DeleteProgram(p Program) {
	f.glDeleteProgram(uint32(p.V))
}

func (f *functions) DeleteShader(s Shader) {
	f.glDeleteShader(uint32(s.V))
}

func (f *functions) DeleteTexture(v Texture) {
	t := uint32(v.V)
	f.glDeleteTextures(1, &t)
}

func (f *functions) DisableVertexAttribArray(a Attrib) {
	f.glDisableVertexAttribArray(uint32(a))
}

func (f *functions) DrawElements(mode Enum, count int, ty Enum, offset int) {
	f.glDrawElements(uint32(mode), int32(count), uint32(ty), uintptr(offset))
}

func (f *functions) EnableVertexAttribArray(a Attrib) {
	f.glEnableVertexAttribArray(uint32(a))
}

func (f *functions) Finish() {
	f.glFinish()
}

func (f *functions) GetAttribLocation(p Program, name string) int {
	return int(f.glGetAttribLocation(uint32(p.V), name))
}

func (f *functions) GetError() Enum {
	return Enum(f.glGetError())
}

func (f *functions) GetProgrami(p Program, pname Enum) int {
	var v int32
	f.glGetProgramiv(uint32(p.V), uint32(pname), &v)
	return int(v)
}

func (f *functions) GetProgramInfoLog(p Program) string {
	n := f.GetProgrami(p, INFO_LOG_LENGTH)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	f.glGetProgramInfoLog(uint32(p.V), int32(len(buf)), nil, &buf[0])
	return goString(buf)
}

func (f *functions) GetShaderi(s Shader, pname Enum) int {
	var v int32
	f.glGetShaderiv(uint32(s.V), uint32(pname), &v)
	return int(v)
}

func (f *functions) GetShaderInfoLog(s Shader) string {
	n := f.GetShaderi(s, INFO_LOG_LENGTH)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	f.glGetShaderInfoLog(uint32(s.V), int32(len(buf)), nil, &buf[0])
	return goString(buf)
}

func (f *functions) GetString(pname Enum) string {
	return f.glGetString(uint32(pname))
}

func (f *functions) GetUniformLocation(p Program, name string) Uniform {
	return Uniform{int(f.glGetUniformLocation(uint32(p.V), name))}
}

func (f *functions) LinkProgram(p Program) {
	f.glLinkProgram(uint32(p.V))
}

func (f *functions) PixelStorei(pname Enum, param int32) {
	f.glPixelStorei(uint32(pname), param)
}

func (f *functions) ShaderSource(s Shader, src string) {
	csrc := append([]byte(src), 0)
	p := &csrc[0]
	n := int32(len(src))
	f.glShaderSource(uint32(s.V), 1, &p, &n)
	runtime.KeepAlive(csrc)
}

func (f *functions) TexImage2D(target Enum, level int, internalFormat Enum, width, height int, format, ty Enum, data []byte) {
	var p unsafe.Pointer
	if len(data) > 0 {
		p = unsafe.Pointer(&data[0])
	}
	f.glTexImage2D(uint32(target), int32(level), int32(internalFormat), int32(width), int32(height), 0, uint32(format), uint32(ty), p)
	runtime.KeepAlive(data)
}

func (f *functions) TexSubImage2D(target Enum, level int, x, y, width, height int, format, ty Enum, data []byte) {
	var p unsafe.Pointer
	if len(data) > 0 {
		p = unsafe.Pointer(&data[0])
	}
	f.glTexSubImage2D(uint32(target), int32(level), int32(x), int32(y), int32(width), int32(height), uint32(format), uint32(ty), p)
	runtime.KeepAlive(data)
}

func (f *functions) TexParameteri(target, pname Enum, param int) {
	f.glTexParameteri(uint32(target), uint32(pname), int32(param))
}

func (f *functions) UniformMatrix4fv(dst Uniform, m *[16]float32) {
	f.glUniformMatrix4fv(int32(dst.V), 1, glBool(false), &m[0])
}

func (f *functions) UseProgram(p Program) {
	f.glUseProgram(uint32(p.V))
}

func (f *functions) VertexAttribPointer(dst Attrib, size int, ty Enum, normalized bool, stride int, offset int) {
	f.glVertexAttribPointer(uint32(dst), int32(size), uint32(ty), glBool(normalized), int32(stride), uintptr(offset))
}

func (f *functions) Viewport(x, y, width, height int) {
	f.glViewport(int32(x), int32(y), int32(width), int32(height))
}
