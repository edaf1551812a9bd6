// SPDX-License-Identifier: Unlicense OR MIT

// Package render draws the frames of a surface.FrameSource.
package render

import (
	"embed"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log/slog"

	"golang.org/x/image/math/f32"

	"gioui.org/x/camview/gl"
	"gioui.org/x/camview/surface"
)

// Drawer is the rendering lifecycle driven by a glview.View. All
// methods are called on the rendering thread with the context current.
type Drawer interface {
	// OnSurfaceCreated allocates the GPU resources of the drawer. An
	// error aborts the rendering lifetime.
	OnSurfaceCreated(f gl.Functions, src *surface.FrameSource, width, height int) error
	// OnSurfaceChanged records a new surface size.
	OnSurfaceChanged(src *surface.FrameSource, width, height int)
	// OnFrameAvailable latches the newest frame of src and draws it. An
	// error aborts the rendering lifetime.
	OnFrameAvailable(src *surface.FrameSource) error
	// OnSurfaceDestroyed releases the GPU resources of the drawer. It
	// may be called more than once.
	OnSurfaceDestroyed(src *surface.FrameSource)
}

// State is the lifecycle state of a CameraDrawer.
type State uint8

const (
	Uninitialized State = iota
	Ready
	Destroyed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Ready:
		return "Ready"
	case Destroyed:
		return "Destroyed"
	default:
		panic("invalid State")
	}
}

//go:embed shaders/*.glsl
var shaderFS embed.FS

// Shaders names the vertex and fragment shader sources in FS.
type Shaders struct {
	FS       fs.FS
	Vertex   string
	Fragment string
}

// DefaultShaders returns the built-in shaders for sampling a texture
// bound to target.
func DefaultShaders(target gl.Enum) Shaders {
	frag := "shaders/frag.glsl"
	if target == gl.TEXTURE_2D {
		frag = "shaders/frag_2d.glsl"
	}
	return Shaders{
		FS:       shaderFS,
		Vertex:   "shaders/vert.glsl",
		Fragment: frag,
	}
}

func (s Shaders) load() (vert, frag string, err error) {
	v, err := fs.ReadFile(s.FS, s.Vertex)
	if err != nil {
		return "", "", fmt.Errorf("render: vertex shader: %w", err)
	}
	f, err := fs.ReadFile(s.FS, s.Fragment)
	if err != nil {
		return "", "", fmt.Errorf("render: fragment shader: %w", err)
	}
	return string(v), string(f), nil
}

// CameraDrawer draws the frame source texture over the whole
// surface.
type CameraDrawer struct {
	shaders Shaders
	mvp     f32.Mat4
	clear   color.NRGBA
	log     *slog.Logger

	f        gl.Functions
	state    State
	viewport image.Point
	prog     gl.Program
	vbo, ibo gl.Buffer
	// Uniform and attribute locations.
	camTexMatrix gl.Uniform
	mvpMatrix    gl.Uniform
	position     gl.Attrib
	texPosition  gl.Attrib
}

type Option func(d *CameraDrawer)

// WithShaders replaces the built-in shaders. Both sources must
// declare the uniforms camTexMatrix and mvpMatrix and the attributes
// position and texturePosition.
func WithShaders(s Shaders) Option {
	return func(d *CameraDrawer) {
		d.shaders = s
	}
}

// WithMVP sets the model-view-projection transform, in row-major
// order. The default is the identity.
func WithMVP(m f32.Mat4) Option {
	return func(d *CameraDrawer) {
		d.mvp = m
	}
}

// WithClearColor sets the color of the surface not covered by the
// frame. The default is transparent.
func WithClearColor(c color.NRGBA) Option {
	return func(d *CameraDrawer) {
		d.clear = c
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *CameraDrawer) {
		d.log = l
	}
}

func NewCameraDrawer(opts ...Option) *CameraDrawer {
	d := &CameraDrawer{
		mvp: surface.Identity,
		log: slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// State returns the lifecycle state of the drawer.
func (d *CameraDrawer) State() State {
	return d.state
}

// Viewport returns the surface size the next frame is drawn at.
func (d *CameraDrawer) Viewport() image.Point {
	return d.viewport
}

// OnSurfaceCreated uploads the quad, builds the shader program and
// resolves its locations. The built-in shaders are chosen by the
// texture target of src unless WithShaders was given. A drawer may be
// created again after it has been destroyed.
func (d *CameraDrawer) OnSurfaceCreated(f gl.Functions, src *surface.FrameSource, width, height int) error {
	if d.state == Ready {
		return errors.New("render: drawer already created")
	}
	d.f = f
	d.viewport = image.Pt(width, height)
	if err := d.init(src); err != nil {
		d.release()
		return err
	}
	d.state = Ready
	d.log.Debug("camera drawer ready", "gl_version", f.GetString(gl.VERSION), "viewport", d.viewport)
	return nil
}

func (d *CameraDrawer) init(src *surface.FrameSource) error {
	f := d.f
	d.vbo = f.CreateBuffer()
	f.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	f.BufferData(gl.ARRAY_BUFFER, gl.BytesView(quadVertices()), gl.STATIC_DRAW)
	d.ibo = f.CreateBuffer()
	f.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, d.ibo)
	f.BufferData(gl.ELEMENT_ARRAY_BUFFER, gl.BytesView(quadIndices), gl.STATIC_DRAW)
	if err := gl.CheckError(f, "uploadQuad"); err != nil {
		return err
	}

	shaders := d.shaders
	if shaders.FS == nil {
		shaders = DefaultShaders(src.Target())
	}
	vert, frag, err := shaders.load()
	if err != nil {
		return err
	}
	prog, err := gl.CreateProgram(f, vert, frag)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	d.prog = prog
	f.UseProgram(prog)
	if d.camTexMatrix, err = gl.GetUniformLocation(f, prog, "camTexMatrix"); err != nil {
		return err
	}
	if d.mvpMatrix, err = gl.GetUniformLocation(f, prog, "mvpMatrix"); err != nil {
		return err
	}
	if d.position, err = gl.GetAttribLocation(f, prog, "position"); err != nil {
		return err
	}
	if d.texPosition, err = gl.GetAttribLocation(f, prog, "texturePosition"); err != nil {
		return err
	}
	return gl.CheckError(f, "getLocations")
}

// OnSurfaceChanged records the viewport of the following frames.
func (d *CameraDrawer) OnSurfaceChanged(src *surface.FrameSource, width, height int) {
	d.viewport = image.Pt(width, height)
}

// OnFrameAvailable latches the newest frame of src and draws it over
// the viewport.
func (d *CameraDrawer) OnFrameAvailable(src *surface.FrameSource) error {
	if d.state != Ready {
		return fmt.Errorf("render: draw in state %v", d.state)
	}
	f := d.f
	f.UseProgram(d.prog)
	f.Viewport(0, 0, d.viewport.X, d.viewport.Y)
	f.ClearColor(float32(d.clear.R)/255, float32(d.clear.G)/255, float32(d.clear.B)/255, float32(d.clear.A)/255)
	f.Clear(gl.COLOR_BUFFER_BIT)

	f.ActiveTexture(gl.TEXTURE0)
	if err := src.UpdateTexImage(); err != nil {
		return fmt.Errorf("render: update frame: %w", err)
	}
	gl.UniformMat4(f, d.camTexMatrix, src.TransformMatrix())

	f.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	f.EnableVertexAttribArray(d.position)
	f.VertexAttribPointer(d.position, 2, gl.FLOAT, false, quadStride, 0)
	f.EnableVertexAttribArray(d.texPosition)
	f.VertexAttribPointer(d.texPosition, 2, gl.FLOAT, false, quadStride, texCoordOffset)

	gl.UniformMat4(f, d.mvpMatrix, d.mvp)
	f.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, d.ibo)
	f.DrawElements(gl.TRIANGLES, len(quadIndices), gl.UNSIGNED_SHORT, 0)
	return gl.CheckError(f, "draw")
}

// OnSurfaceDestroyed deletes the program and buffers.
func (d *CameraDrawer) OnSurfaceDestroyed(src *surface.FrameSource) {
	if d.state != Ready {
		return
	}
	d.release()
	d.state = Destroyed
}

func (d *CameraDrawer) release() {
	if d.prog.Valid() {
		d.f.DeleteProgram(d.prog)
		d.prog = gl.Program{}
	}
	for _, b := range []*gl.Buffer{&d.vbo, &d.ibo} {
		if b.Valid() {
			d.f.DeleteBuffer(*b)
			*b = gl.Buffer{}
		}
	}
}
