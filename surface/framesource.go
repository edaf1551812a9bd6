// SPDX-License-Identifier: Unlicense OR MIT

package surface

import (
	"sync"

	"golang.org/x/image/math/f32"

	"gioui.org/x/camview/gl"
)

// Identity is the transform of a frame source without frames.
var Identity = f32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Producer is the producer side of a FrameSource, such as a camera
// stream.
type Producer interface {
	// Latch makes the newest frame the content of tex, which is bound
	// to target on the active texture unit, and returns the transform
	// from quad texture coordinates to frame texture coordinates in
	// row-major order. It is called on the rendering thread.
	Latch(f gl.Functions, target gl.Enum, tex gl.Texture) (f32.Mat4, error)
}

// FrameSource is the texture frames are delivered to. Producers
// signal new frames with FrameAvailable from any goroutine; the
// texture and transform are only touched on the rendering thread.
type FrameSource struct {
	gl      gl.Functions
	texture gl.Texture
	target  gl.Enum
	// transform is updated by UpdateTexImage.
	transform f32.Mat4

	mu       sync.Mutex
	producer Producer
	onFrame  func()
	released bool
}

func newFrameSource(f gl.Functions, tex gl.Texture, target gl.Enum) *FrameSource {
	return &FrameSource{
		gl:        f,
		texture:   tex,
		target:    target,
		transform: Identity,
	}
}

func (s *FrameSource) Texture() gl.Texture {
	return s.texture
}

func (s *FrameSource) Target() gl.Enum {
	return s.target
}

// Attach connects the producer feeding the source, replacing any
// previous one.
func (s *FrameSource) Attach(p Producer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.producer = p
}

// SetOnFrameAvailable sets the function called by FrameAvailable. A
// nil fn disconnects the callback.
func (s *FrameSource) SetOnFrameAvailable(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.onFrame = fn
}

// FrameAvailable signals that the producer has a new frame. It is
// safe to call from any goroutine and never touches GPU state.
func (s *FrameSource) FrameAvailable() {
	s.mu.Lock()
	fn := s.onFrame
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// UpdateTexImage binds the texture and latches the newest frame into
// it, resetting the transform to match. It must be called on the
// rendering thread with the context current.
func (s *FrameSource) UpdateTexImage() error {
	s.mu.Lock()
	p, released := s.producer, s.released
	s.mu.Unlock()
	if released {
		return nil
	}
	s.gl.BindTexture(s.target, s.texture)
	if p == nil {
		return nil
	}
	m, err := p.Latch(s.gl, s.target, s.texture)
	if err != nil {
		return err
	}
	s.transform = m
	return nil
}

// TransformMatrix returns the transform latched by the last
// UpdateTexImage.
func (s *FrameSource) TransformMatrix() f32.Mat4 {
	return s.transform
}

func (s *FrameSource) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.onFrame = nil
	s.producer = nil
	s.gl.DeleteTexture(s.texture)
	s.texture = gl.Texture{}
}
