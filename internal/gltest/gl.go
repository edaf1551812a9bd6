// SPDX-License-Identifier: Unlicense OR MIT

package gltest

import (
	"image"
	"sync"

	"gioui.org/x/camview/gl"
)

// Uniform and attribute locations the fake GL reports for the camera
// shaders.
var (
	Uniforms = map[string]int{"camTexMatrix": 0, "mvpMatrix": 1}
	Attribs  = map[string]int{"position": 0, "texturePosition": 1}
)

// GL is a fake gl.Functions. The exported knobs must be set before
// the fake is used.
type GL struct {
	rec *Recorder

	// FailCompile makes shader compilation fail with this log.
	FailCompile string
	// FailLink makes program linking fail with this log.
	FailLink string
	// Missing names a uniform or attribute reported as inactive.
	Missing string

	mu       sync.Mutex
	next     uint
	errs     []gl.Enum
	viewport image.Rectangle
	textures map[uint]bool
	sources  map[uint]string
}

func NewGL(r *Recorder) *GL {
	return &GL{
		rec:      r,
		textures: make(map[uint]bool),
		sources:  make(map[uint]string),
	}
}

// SetError queues an error code for GetError to report.
func (f *GL) SetError(code gl.Enum) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, code)
}

// CurrentViewport returns the rectangle set by the last glViewport.
func (f *GL) CurrentViewport() image.Rectangle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewport
}

// LiveTextures returns the number of textures not deleted.
func (f *GL) LiveTextures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.textures)
}

// Source returns the source last set for shader s.
func (f *GL) Source(s gl.Shader) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sources[s.V]
}

func (f *GL) newName() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return f.next
}

func (f *GL) ActiveTexture(texture gl.Enum) {
	f.rec.record("glActiveTexture", texture)
}

func (f *GL) AttachShader(p gl.Program, s gl.Shader) {
	f.rec.record("glAttachShader", p, s)
}

func (f *GL) BindBuffer(target gl.Enum, b gl.Buffer) {
	f.rec.record("glBindBuffer", target, b)
}

func (f *GL) BindTexture(target gl.Enum, t gl.Texture) {
	f.rec.record("glBindTexture", target, t)
}

func (f *GL) BufferData(target gl.Enum, src []byte, usage gl.Enum) {
	f.rec.record("glBufferData", target, append([]byte(nil), src...), usage)
}

func (f *GL) Clear(mask gl.Enum) {
	f.rec.record("glClear", mask)
}

func (f *GL) ClearColor(red, green, blue, alpha float32) {
	f.rec.record("glClearColor", red, green, blue, alpha)
}

func (f *GL) CompileShader(s gl.Shader) {
	f.rec.record("glCompileShader", s)
}

func (f *GL) CreateBuffer() gl.Buffer {
	b := gl.Buffer{V: f.newName()}
	f.rec.record("glGenBuffers", b)
	return b
}

func (f *GL) CreateProgram() gl.Program {
	p := gl.Program{V: f.newName()}
	f.rec.record("glCreateProgram", p)
	return p
}

func (f *GL) CreateShader(ty gl.Enum) gl.Shader {
	s := gl.Shader{V: f.newName()}
	f.rec.record("glCreateShader", ty, s)
	return s
}

func (f *GL) CreateTexture() gl.Texture {
	t := gl.Texture{V: f.newName()}
	f.mu.Lock()
	f.textures[t.V] = true
	f.mu.Unlock()
	f.rec.record("glGenTextures", t)
	return t
}

func (f *GL) DeleteBuffer(v gl.Buffer) {
	f.rec.record("glDeleteBuffers", v)
}

func (f *GL) DeleteProgram(p gl.Program) {
	f.rec.record("glDeleteProgram", p)
}

func (f *GL) DeleteShader(s gl.Shader) {
	f.rec.record("glDeleteShader", s)
}

func (f *GL) DeleteTexture(v gl.Texture) {
	f.mu.Lock()
	delete(f.textures, v.V)
	f.mu.Unlock()
	f.rec.record("glDeleteTextures", v)
}

func (f *GL) DisableVertexAttribArray(a gl.Attrib) {
	f.rec.record("glDisableVertexAttribArray", a)
}

func (f *GL) DrawElements(mode gl.Enum, count int, ty gl.Enum, offset int) {
	f.mu.Lock()
	vp := f.viewport
	f.mu.Unlock()
	f.rec.record("glDrawElements", mode, count, ty, offset, vp)
}

func (f *GL) EnableVertexAttribArray(a gl.Attrib) {
	f.rec.record("glEnableVertexAttribArray", a)
}

func (f *GL) Finish() {
	f.rec.record("glFinish")
}

func (f *GL) GetAttribLocation(p gl.Program, name string) int {
	f.rec.record("glGetAttribLocation", p, name)
	if loc, ok := Attribs[name]; ok && name != f.Missing {
		return loc
	}
	return -1
}

func (f *GL) GetError() gl.Enum {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) == 0 {
		return gl.NO_ERROR
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *GL) GetProgrami(p gl.Program, pname gl.Enum) int {
	switch pname {
	case gl.LINK_STATUS:
		if f.FailLink != "" {
			return gl.FALSE
		}
		return gl.TRUE
	case gl.INFO_LOG_LENGTH:
		return len(f.FailLink) + 1
	}
	return 0
}

func (f *GL) GetProgramInfoLog(p gl.Program) string {
	return f.FailLink
}

func (f *GL) GetShaderi(s gl.Shader, pname gl.Enum) int {
	switch pname {
	case gl.COMPILE_STATUS:
		if f.FailCompile != "" {
			return gl.FALSE
		}
		return gl.TRUE
	case gl.INFO_LOG_LENGTH:
		return len(f.FailCompile) + 1
	}
	return 0
}

func (f *GL) GetShaderInfoLog(s gl.Shader) string {
	return f.FailCompile
}

func (f *GL) GetString(pname gl.Enum) string {
	if pname == gl.VERSION {
		return "OpenGL ES 3.0 gltest"
	}
	return ""
}

func (f *GL) GetUniformLocation(p gl.Program, name string) gl.Uniform {
	f.rec.record("glGetUniformLocation", p, name)
	if loc, ok := Uniforms[name]; ok && name != f.Missing {
		return gl.Uniform{V: loc}
	}
	return gl.Uniform{V: -1}
}

func (f *GL) LinkProgram(p gl.Program) {
	f.rec.record("glLinkProgram", p)
}

func (f *GL) PixelStorei(pname gl.Enum, param int32) {
	f.rec.record("glPixelStorei", pname, param)
}

func (f *GL) ShaderSource(s gl.Shader, src string) {
	f.mu.Lock()
	f.sources[s.V] = src
	f.mu.Unlock()
	f.rec.record("glShaderSource", s)
}

func (f *GL) TexImage2D(target gl.Enum, level int, internalFormat gl.Enum, width, height int, format, ty gl.Enum, data []byte) {
	f.rec.record("glTexImage2D", target, width, height, len(data))
}

func (f *GL) TexSubImage2D(target gl.Enum, level int, x, y, width, height int, format, ty gl.Enum, data []byte) {
	f.rec.record("glTexSubImage2D", target, width, height, len(data))
}

func (f *GL) TexParameteri(target, pname gl.Enum, param int) {
	f.rec.record("glTexParameteri", target, pname, param)
}

func (f *GL) UniformMatrix4fv(dst gl.Uniform, m *[16]float32) {
	f.rec.record("glUniformMatrix4fv", dst, *m)
}

func (f *GL) UseProgram(p gl.Program) {
	f.rec.record("glUseProgram", p)
}

func (f *GL) VertexAttribPointer(dst gl.Attrib, size int, ty gl.Enum, normalized bool, stride int, offset int) {
	f.rec.record("glVertexAttribPointer", dst, size, ty, normalized, stride, offset)
}

func (f *GL) Viewport(x, y, width, height int) {
	f.mu.Lock()
	f.viewport = image.Rect(x, y, x+width, y+height)
	f.mu.Unlock()
	f.rec.record("glViewport", x, y, width, height)
}
