// SPDX-License-Identifier: Unlicense OR MIT

// Package producer feeds frames from memory to a surface.FrameSource,
// in place of a platform camera stream.
package producer

import (
	"errors"
	"image"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f32"

	"gioui.org/x/camview/gl"
	"gioui.org/x/camview/surface"
)

// flipY maps quad texture coordinates to images uploaded with their
// first row at texture coordinate 0.
var flipY = f32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 1,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// ImageProducer delivers images to a frame source with a
// gl.TEXTURE_2D target. Only the newest image is kept: an image not
// yet drawn when the next one arrives is dropped.
type ImageProducer struct {
	size image.Point

	mu      sync.Mutex
	src     *surface.FrameSource
	pending *image.RGBA
	spare   *image.RGBA
	dropped int
	// realloc is set when the texture storage must be allocated anew.
	realloc bool

	// texSize is the size of the texture storage, accessed only by
	// Latch on the rendering thread.
	texSize image.Point
}

// NewImageProducer returns a producer that scales images to size. A
// zero size keeps the size of each image.
func NewImageProducer(size image.Point) *ImageProducer {
	return &ImageProducer{size: size}
}

// Connect attaches the producer to src, which replaces any previous
// frame source. Images pushed after it signal src.
func (p *ImageProducer) Connect(src *surface.FrameSource) {
	p.mu.Lock()
	p.src = src
	p.realloc = true
	p.mu.Unlock()
	src.Attach(p)
}

// Push copies img as the newest frame and signals the frame source.
func (p *ImageProducer) Push(img image.Image) {
	b := img.Bounds()
	size := p.size
	if size == (image.Point{}) {
		size = b.Size()
	}
	p.mu.Lock()
	dst := p.spare
	p.spare = nil
	p.mu.Unlock()
	if dst == nil || dst.Rect.Size() != size {
		dst = image.NewRGBA(image.Rectangle{Max: size})
	}
	if b.Size() == size {
		draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	}

	p.mu.Lock()
	if p.pending != nil {
		p.dropped++
	}
	p.pending = dst
	src := p.src
	p.mu.Unlock()
	if src != nil {
		src.FrameAvailable()
	}
}

// Dropped returns the number of images replaced before they were
// drawn.
func (p *ImageProducer) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Latch uploads the newest image, if any, to tex.
func (p *ImageProducer) Latch(f gl.Functions, target gl.Enum, tex gl.Texture) (f32.Mat4, error) {
	if target != gl.TEXTURE_2D {
		return f32.Mat4{}, errors.New("producer: images need a TEXTURE_2D frame source")
	}
	p.mu.Lock()
	img := p.pending
	p.pending = nil
	if p.realloc {
		p.realloc = false
		p.texSize = image.Point{}
	}
	p.mu.Unlock()
	if img == nil {
		return flipY, nil
	}

	size := img.Rect.Size()
	f.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if size != p.texSize {
		f.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, size.X, size.Y, gl.RGBA, gl.UNSIGNED_BYTE, img.Pix)
		p.texSize = size
	} else {
		f.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, size.X, size.Y, gl.RGBA, gl.UNSIGNED_BYTE, img.Pix)
	}
	if err := gl.CheckError(f, "upload frame"); err != nil {
		// Reallocate the storage on the next frame.
		p.texSize = image.Point{}
		return f32.Mat4{}, err
	}

	p.mu.Lock()
	p.spare = img
	p.mu.Unlock()
	return flipY, nil
}
