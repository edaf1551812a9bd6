// SPDX-License-Identifier: Unlicense OR MIT

package gl

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/image/math/f32"
)

// Error is a GL error code reported at a named checkpoint.
type Error struct {
	Op   string
	Code Enum
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: glError 0x%x (%s)", e.Op, uint(e.Code), errorName(e.Code))
}

// CheckError returns an *Error if the GL error flag is set. The flag
// is cleared by the call.
func CheckError(f Functions, op string) error {
	if code := f.GetError(); code != NO_ERROR {
		return &Error{Op: op, Code: code}
	}
	return nil
}

func errorName(code Enum) string {
	switch code {
	case INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	case INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	default:
		return "unknown"
	}
}

func CreateProgram(ctx Functions, vsSrc, fsSrc string) (Program, error) {
	vs, err := createShader(ctx, VERTEX_SHADER, vsSrc)
	if err != nil {
		return Program{}, err
	}
	defer ctx.DeleteShader(vs)
	fs, err := createShader(ctx, FRAGMENT_SHADER, fsSrc)
	if err != nil {
		return Program{}, err
	}
	defer ctx.DeleteShader(fs)
	prog := ctx.CreateProgram()
	if !prog.Valid() {
		return Program{}, errors.New("glCreateProgram failed")
	}
	ctx.AttachShader(prog, vs)
	ctx.AttachShader(prog, fs)
	if err := CheckError(ctx, "glAttachShader"); err != nil {
		ctx.DeleteProgram(prog)
		return Program{}, err
	}
	ctx.LinkProgram(prog)
	if ctx.GetProgrami(prog, LINK_STATUS) == 0 {
		log := ctx.GetProgramInfoLog(prog)
		ctx.DeleteProgram(prog)
		return Program{}, fmt.Errorf("program link failed: %s", strings.TrimSpace(log))
	}
	return prog, nil
}

func GetUniformLocation(ctx Functions, prog Program, name string) (Uniform, error) {
	loc := ctx.GetUniformLocation(prog, name)
	if !loc.Valid() {
		return loc, fmt.Errorf("uniform %s not found", name)
	}
	return loc, nil
}

func GetAttribLocation(ctx Functions, prog Program, name string) (Attrib, error) {
	loc := ctx.GetAttribLocation(prog, name)
	if loc < 0 {
		return 0, fmt.Errorf("attribute %s not found", name)
	}
	return Attrib(loc), nil
}

func createShader(ctx Functions, typ Enum, src string) (Shader, error) {
	sh := ctx.CreateShader(typ)
	if !sh.Valid() {
		return Shader{}, errors.New("glCreateShader failed")
	}
	ctx.ShaderSource(sh, src)
	ctx.CompileShader(sh)
	if ctx.GetShaderi(sh, COMPILE_STATUS) == 0 {
		log := ctx.GetShaderInfoLog(sh)
		ctx.DeleteShader(sh)
		return Shader{}, fmt.Errorf("%s compilation failed: %s", shaderName(typ), strings.TrimSpace(log))
	}
	return sh, nil
}

func shaderName(typ Enum) string {
	if typ == VERTEX_SHADER {
		return "vertex shader"
	}
	return "fragment shader"
}

// UniformMat4 uploads m, which is in row-major order, to dst.
func UniformMat4(ctx Functions, dst Uniform, m f32.Mat4) {
	var cm [16]float32
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			cm[c*4+r] = m[r*4+c]
		}
	}
	ctx.UniformMatrix4fv(dst, &cm)
}

// BytesView returns a byte slice view of a slice.
func BytesView[T float32 | uint16](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var v T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(v)))
}

// goString converts a NUL-terminated C string to a Go string.
func goString(s []byte) string {
	for i, c := range s {
		if c == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}
