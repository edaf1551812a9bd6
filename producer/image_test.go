// SPDX-License-Identifier: Unlicense OR MIT

package producer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gioui.org/x/camview/gl"
	"gioui.org/x/camview/glview"
	"gioui.org/x/camview/internal/gltest"
	"gioui.org/x/camview/render"
	"gioui.org/x/camview/surface"
)

func newSource(t *testing.T, target gl.Enum) (*gltest.Fake, *surface.FrameSource) {
	t.Helper()
	fake := gltest.New()
	m := surface.NewManager(surface.Backend{EGL: fake.EGL, GL: fake.GL}, surface.WithTextureTarget(target))
	_, src, err := m.CreateSurface(1, false)
	require.NoError(t, err)
	t.Cleanup(m.DestroySurface)
	fake.Reset()
	return fake, src
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

var red = color.RGBA{R: 0xff, A: 0xff}

func TestImageProducerUpload(t *testing.T) {
	fake, src := newSource(t, gl.TEXTURE_2D)
	signals := 0
	src.SetOnFrameAvailable(func() { signals++ })
	p := NewImageProducer(image.Pt(4, 2))
	p.Connect(src)

	p.Push(solid(4, 2, red))
	assert.Equal(t, 1, signals)
	require.NoError(t, src.UpdateTexImage())
	uploads := fake.Filter("glTexImage2D")
	require.Len(t, uploads, 1)
	assert.Equal(t, []any{gl.Enum(gl.TEXTURE_2D), 4, 2, 4 * 2 * 4}, uploads[0].Args)
	assert.Equal(t, flipY, src.TransformMatrix())

	// Same size: the storage is reused.
	p.Push(solid(4, 2, red))
	require.NoError(t, src.UpdateTexImage())
	assert.Equal(t, 1, fake.Count("glTexImage2D"))
	assert.Equal(t, 1, fake.Count("glTexSubImage2D"))

	// No new image: nothing is uploaded.
	require.NoError(t, src.UpdateTexImage())
	assert.Equal(t, 1, fake.Count("glTexImage2D"))
	assert.Equal(t, 1, fake.Count("glTexSubImage2D"))
	assert.Equal(t, flipY, src.TransformMatrix())
	assert.Equal(t, 2, signals)
}

func TestImageProducerScales(t *testing.T) {
	p := NewImageProducer(image.Pt(8, 6))
	p.Push(solid(2, 3, red))
	require.NotNil(t, p.pending)
	assert.Equal(t, image.Pt(8, 6), p.pending.Rect.Size())
	for _, pt := range []image.Point{{0, 0}, {4, 3}, {7, 5}} {
		assert.Equal(t, red, p.pending.RGBAAt(pt.X, pt.Y), "pixel %v", pt)
	}
}

func TestImageProducerSourceOffset(t *testing.T) {
	p := NewImageProducer(image.Point{})
	img := image.NewRGBA(image.Rect(10, 10, 12, 12))
	img.SetRGBA(10, 10, red)
	p.Push(img)
	require.NotNil(t, p.pending)
	assert.Equal(t, image.Rect(0, 0, 2, 2), p.pending.Rect)
	assert.Equal(t, red, p.pending.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, p.pending.RGBAAt(1, 1))
}

func TestImageProducerKeepsNewest(t *testing.T) {
	fake, src := newSource(t, gl.TEXTURE_2D)
	p := NewImageProducer(image.Point{})
	p.Connect(src)
	for i := 0; i < 3; i++ {
		p.Push(solid(2, 2, color.RGBA{R: uint8(i), A: 0xff}))
	}
	assert.Equal(t, 2, p.Dropped())
	assert.Equal(t, uint8(2), p.pending.RGBAAt(0, 0).R)
	require.NoError(t, src.UpdateTexImage())
	assert.Equal(t, 1, fake.Count("glTexImage2D"))
	assert.Equal(t, 0, fake.Count("glTexSubImage2D"))
}

func TestImageProducerResize(t *testing.T) {
	fake, src := newSource(t, gl.TEXTURE_2D)
	p := NewImageProducer(image.Point{})
	p.Connect(src)
	for _, sz := range []image.Point{{4, 4}, {8, 8}, {8, 8}} {
		p.Push(solid(sz.X, sz.Y, red))
		require.NoError(t, src.UpdateTexImage())
	}
	assert.Equal(t, 2, fake.Count("glTexImage2D"))
	assert.Equal(t, 1, fake.Count("glTexSubImage2D"))
}

func TestImageProducerReconnect(t *testing.T) {
	fake, src := newSource(t, gl.TEXTURE_2D)
	p := NewImageProducer(image.Pt(2, 2))
	p.Connect(src)
	p.Push(solid(2, 2, red))
	require.NoError(t, src.UpdateTexImage())

	// A new frame source has no storage yet.
	fake2, src2 := newSource(t, gl.TEXTURE_2D)
	p.Connect(src2)
	p.Push(solid(2, 2, red))
	require.NoError(t, src2.UpdateTexImage())
	assert.Equal(t, 1, fake.Count("glTexImage2D"))
	assert.Equal(t, 1, fake2.Count("glTexImage2D"))
	assert.Equal(t, 0, fake2.Count("glTexSubImage2D"))
}

func TestImageProducerUploadError(t *testing.T) {
	fake, src := newSource(t, gl.TEXTURE_2D)
	p := NewImageProducer(image.Pt(2, 2))
	p.Connect(src)
	p.Push(solid(2, 2, red))
	fake.GL.SetError(gl.OUT_OF_MEMORY)
	err := src.UpdateTexImage()
	var glErr *gl.Error
	require.True(t, errors.As(err, &glErr))
	assert.Equal(t, "upload frame", glErr.Op)

	p.Push(solid(2, 2, red))
	require.NoError(t, src.UpdateTexImage())
	assert.Equal(t, 2, fake.Count("glTexImage2D"))
}

func TestImageProducerExternalTarget(t *testing.T) {
	_, src := newSource(t, gl.TEXTURE_EXTERNAL_OES)
	p := NewImageProducer(image.Pt(2, 2))
	p.Connect(src)
	p.Push(solid(2, 2, red))
	assert.ErrorContains(t, src.UpdateTexImage(), "TEXTURE_2D")
}

func TestImageProducerUnconnected(t *testing.T) {
	p := NewImageProducer(image.Pt(2, 2))
	p.Push(solid(2, 2, red))
	assert.NotNil(t, p.pending)
}

func TestImageProducerInView(t *testing.T) {
	fake := gltest.New()
	p := NewImageProducer(image.Pt(16, 8))
	ready := make(chan struct{})
	v := glview.NewView(render.NewCameraDrawer(),
		glview.WithBackend(func() (surface.Backend, error) {
			return surface.Backend{EGL: fake.EGL, GL: fake.GL}, nil
		}),
		glview.WithTextureTarget(gl.TEXTURE_2D),
		glview.WithListener(glview.ReadyFunc(func(src *surface.FrameSource) {
			p.Connect(src)
			close(ready)
		}), nil),
	)
	v.SurfaceAvailable(1, 640, 480)
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for the surface")
	}

	p.Push(Pattern{Size: image.Pt(16, 8)}.Frame(0))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q, err := v.Queue(ctx)
	require.NoError(t, err)
	done := make(chan struct{})
	require.True(t, q.Post(func() { close(done) }))
	<-done

	assert.Equal(t, 1, fake.Count("glTexImage2D"))
	assert.Equal(t, 1, fake.Count("glDrawElements"))
	assert.Less(t, fake.Index("glTexImage2D"), fake.Index("glDrawElements"))
	camTex := fake.Filter("glUniformMatrix4fv")[0]
	assert.Equal(t, [16]float32{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 1,
	}, camTex.Args[1])
	assert.Len(t, fake.Threads(), 1)

	v.SurfaceDestroyed()
	<-v.Stopped()
}
