// SPDX-License-Identifier: Unlicense OR MIT

package gl

// Functions is the set of OpenGL ES entry points used for drawing
// camera frames. Every method must be called from the goroutine
// that holds the current context.
type Functions interface {
	ActiveTexture(texture Enum)
	AttachShader(p Program, s Shader)
	BindBuffer(target Enum, b Buffer)
	BindTexture(target Enum, t Texture)
	BufferData(target Enum, src []byte, usage Enum)
	Clear(mask Enum)
	ClearColor(red, green, blue, alpha float32)
	CompileShader(s Shader)
	CreateBuffer() Buffer
	CreateProgram() Program
	CreateShader(ty Enum) Shader
	CreateTexture() Texture
	DeleteBuffer(v Buffer)
	DeleteProgram(p Program)
	DeleteShader(s Shader)
	DeleteTexture(v Texture)
	DisableVertexAttribArray(a Attrib)
	DrawElements(mode Enum, count int, ty Enum, offset int)
	EnableVertexAttribArray(a Attrib)
	Finish()
	// GetAttribLocation returns -1 if name is not an active attribute.
	GetAttribLocation(p Program, name string) int
	GetError() Enum
	GetProgrami(p Program, pname Enum) int
	GetProgramInfoLog(p Program) string
	GetShaderi(s Shader, pname Enum) int
	GetShaderInfoLog(s Shader) string
	GetString(pname Enum) string
	GetUniformLocation(p Program, name string) Uniform
	LinkProgram(p Program)
	PixelStorei(pname Enum, param int32)
	ShaderSource(s Shader, src string)
	TexImage2D(target Enum, level int, internalFormat Enum, width, height int, format, ty Enum, data []byte)
	TexSubImage2D(target Enum, level int, x, y, width, height int, format, ty Enum, data []byte)
	TexParameteri(target, pname Enum, param int)
	// UniformMatrix4fv uploads a column-major matrix.
	UniformMatrix4fv(dst Uniform, m *[16]float32)
	UseProgram(p Program)
	VertexAttribPointer(dst Attrib, size int, ty Enum, normalized bool, stride int, offset int)
	Viewport(x, y, width, height int)
}
