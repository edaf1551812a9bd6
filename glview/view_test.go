// SPDX-License-Identifier: Unlicense OR MIT

package glview

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gioui.org/x/camview/gl"
	"gioui.org/x/camview/internal/egl"
	"gioui.org/x/camview/internal/gltest"
	"gioui.org/x/camview/render"
	"gioui.org/x/camview/surface"
)

const timeout = 5 * time.Second

type testListener struct {
	ready   chan *surface.FrameSource
	errs    chan error
	readies atomic.Int32
}

func newTestListener() *testListener {
	return &testListener{
		ready: make(chan *surface.FrameSource, 8),
		errs:  make(chan error, 8),
	}
}

func (l *testListener) SurfaceReady(src *surface.FrameSource) {
	l.readies.Add(1)
	l.ready <- src
}

func (l *testListener) SurfaceError(err error) {
	l.errs <- err
}

func (l *testListener) waitReady(t *testing.T) *surface.FrameSource {
	t.Helper()
	select {
	case src := <-l.ready:
		return src
	case err := <-l.errs:
		t.Fatalf("surface failed: %v", err)
	case <-time.After(timeout):
		t.Fatal("timeout waiting for SurfaceReady")
	}
	return nil
}

func (l *testListener) waitError(t *testing.T) error {
	t.Helper()
	select {
	case err := <-l.errs:
		return err
	case <-time.After(timeout):
		t.Fatal("timeout waiting for SurfaceError")
	}
	return nil
}

func newTestView(t *testing.T, opts ...Option) (*View, *gltest.Fake, *testListener) {
	t.Helper()
	fake := gltest.New()
	l := newTestListener()
	backend := func() (surface.Backend, error) {
		return surface.Backend{EGL: fake.EGL, GL: fake.GL}, nil
	}
	opts = append([]Option{WithBackend(backend), WithListener(l, nil)}, opts...)
	v := NewView(render.NewCameraDrawer(), opts...)
	t.Cleanup(func() {
		v.SurfaceDestroyed()
		waitStopped(t, v)
	})
	return v, fake, l
}

// flush waits for the tasks posted before it to run.
func flush(t *testing.T, v *View) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	q, err := v.Queue(ctx)
	require.NoError(t, err)
	done := make(chan struct{})
	require.True(t, q.Post(func() { close(done) }))
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("timeout flushing the render queue")
	}
}

func waitStopped(t *testing.T, v *View) {
	t.Helper()
	select {
	case <-v.Stopped():
	case <-time.After(timeout):
		t.Fatal("timeout waiting for the render thread to stop")
	}
}

func lastViewport(t *testing.T, fake *gltest.Fake) image.Rectangle {
	t.Helper()
	draws := fake.Filter("glDrawElements")
	require.NotEmpty(t, draws)
	return draws[len(draws)-1].Args[4].(image.Rectangle)
}

func TestViewLifecycle(t *testing.T) {
	v, fake, l := newTestView(t)
	assert.Equal(t, Idle, v.State())

	v.SurfaceAvailable(7, 640, 480)
	src := l.waitReady(t)
	assert.Equal(t, Active, v.State())
	assert.Equal(t, []any{gltest.ES3Config, egl.NativeWindowType(7)}, fake.Filter("eglCreateWindowSurface")[0].Args)

	src.FrameAvailable()
	flush(t, v)
	assert.Equal(t, 1, fake.Count("glDrawElements"))
	assert.Equal(t, image.Rect(0, 0, 640, 480), lastViewport(t, fake))
	assert.Equal(t, 1, fake.EGL.Swaps())

	require.NoError(t, v.SurfaceSizeChanged(1280, 720))
	src.FrameAvailable()
	flush(t, v)
	assert.Equal(t, 2, fake.Count("glDrawElements"))
	assert.Equal(t, image.Rect(0, 0, 1280, 720), lastViewport(t, fake))
	assert.Equal(t, 2, fake.EGL.Swaps())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	q, err := v.Queue(ctx)
	require.NoError(t, err)

	assert.True(t, v.SurfaceDestroyed())
	waitStopped(t, v)
	assert.Equal(t, Idle, v.State())
	assert.NoError(t, v.Err())
	assert.Equal(t, int32(1), l.readies.Load())

	// Teardown runs after the last frame.
	lastSwap := fake.LastIndex("eglSwapBuffers")
	assert.Less(t, fake.LastIndex("glDrawElements"), lastSwap)
	assert.Less(t, lastSwap, fake.Index("glDeleteProgram"))
	assert.Less(t, fake.Index("glDeleteProgram"), fake.Index("eglDestroySurface"))
	assert.Less(t, fake.Index("eglDestroySurface"), fake.Index("eglDestroyContext"))
	assert.Less(t, fake.Index("eglDestroyContext"), fake.Index("eglReleaseThread"))
	assert.Less(t, fake.Index("eglReleaseThread"), fake.Index("eglTerminate"))
	names := fake.Names()
	assert.Equal(t, "eglTerminate", names[len(names)-1])
	assert.Equal(t, 0, fake.GL.LiveTextures())

	assert.Equal(t, 0, q.Len())
	assert.False(t, q.Post(func() {}))
	// Frames signalled after teardown are dropped.
	src.FrameAvailable()
	assert.Equal(t, 2, fake.Count("glDrawElements"))

	// Every GL and EGL call came from the same OS thread.
	assert.Len(t, fake.Threads(), 1)
}

func TestViewResizeBeforeReady(t *testing.T) {
	v, fake, l := newTestView(t)
	fake.EGL.Gate = make(chan struct{})
	v.SurfaceAvailable(7, 640, 480)
	assert.Equal(t, Starting, v.State())

	resized := make(chan error, 1)
	go func() {
		resized <- v.SurfaceSizeChanged(1280, 720)
	}()
	select {
	case err := <-resized:
		t.Fatalf("SurfaceSizeChanged returned before the surface was ready: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 0, fake.Count("eglCreateWindowSurface"))

	close(fake.EGL.Gate)
	select {
	case err := <-resized:
		require.NoError(t, err)
	case <-time.After(timeout):
		t.Fatal("SurfaceSizeChanged still blocked after the surface was ready")
	}
	src := l.waitReady(t)
	src.FrameAvailable()
	flush(t, v)
	assert.Equal(t, image.Rect(0, 0, 1280, 720), lastViewport(t, fake))
}

func TestViewDoubleStart(t *testing.T) {
	v, _, l := newTestView(t)
	v.SurfaceAvailable(7, 640, 480)
	assert.Panics(t, func() {
		v.SurfaceAvailable(8, 640, 480)
	})
	l.waitReady(t)
	assert.Panics(t, func() {
		v.SurfaceAvailable(8, 640, 480)
	})
}

func TestViewWithoutSurface(t *testing.T) {
	v, _, l := newTestView(t)
	assert.Panics(t, func() { v.SurfaceSizeChanged(1, 1) })
	assert.Panics(t, func() { v.Queue(context.Background()) })
	assert.False(t, v.SurfaceDestroyed())
	assert.NoError(t, v.Err())
	waitStopped(t, v)

	v.SurfaceAvailable(7, 640, 480)
	l.waitReady(t)
	require.True(t, v.SurfaceDestroyed())
	assert.Panics(t, func() { v.SurfaceSizeChanged(1, 1) })
}

func TestViewDestroyedBeforeFrames(t *testing.T) {
	v, fake, _ := newTestView(t)
	v.SurfaceAvailable(7, 640, 480)
	assert.True(t, v.SurfaceDestroyed())
	waitStopped(t, v)

	assert.Equal(t, Idle, v.State())
	assert.Equal(t, 0, fake.Count("glDrawElements"))
	assert.Equal(t, 0, fake.Count("eglSwapBuffers"))
	assert.Equal(t, 1, fake.Count("glDeleteProgram"))
	assert.Equal(t, 1, fake.Count("eglTerminate"))
}

func TestViewDestroyedWhileStarting(t *testing.T) {
	v, fake, l := newTestView(t)
	fake.EGL.Gate = make(chan struct{})
	v.SurfaceAvailable(7, 640, 480)
	require.True(t, v.SurfaceDestroyed())
	assert.Equal(t, Stopping, v.State())

	close(fake.EGL.Gate)
	waitStopped(t, v)
	assert.Equal(t, Idle, v.State())
	assert.Equal(t, 1, fake.Count("eglTerminate"))
	// The listener still learns about the surface.
	l.waitReady(t)
}

func TestViewBootFailure(t *testing.T) {
	v, fake, l := newTestView(t)
	fake.EGL.NoConfig = true
	v.SurfaceAvailable(7, 640, 480)

	err := l.waitError(t)
	assert.ErrorIs(t, err, surface.ErrNoConfig)
	waitStopped(t, v)
	assert.ErrorIs(t, v.Err(), surface.ErrNoConfig)
	assert.ErrorIs(t, v.SurfaceSizeChanged(1280, 720), surface.ErrNoConfig)
	_, err = v.Queue(context.Background())
	assert.ErrorIs(t, err, surface.ErrNoConfig)
	assert.Equal(t, int32(0), l.readies.Load())
	assert.Equal(t, 1, fake.Count("eglTerminate"))

	assert.True(t, v.SurfaceDestroyed())
	assert.Equal(t, Idle, v.State())
}

func TestViewBackendFailure(t *testing.T) {
	errNoLib := errors.New("libEGL.so.1: cannot open shared object file")
	v, fake, l := newTestView(t, WithBackend(func() (surface.Backend, error) {
		return surface.Backend{}, errNoLib
	}))
	v.SurfaceAvailable(7, 640, 480)
	assert.ErrorIs(t, l.waitError(t), errNoLib)
	waitStopped(t, v)
	assert.Empty(t, fake.Calls())
}

func TestViewDrawerFailure(t *testing.T) {
	v, fake, l := newTestView(t)
	fake.GL.FailLink = "undefined varying"
	v.SurfaceAvailable(7, 640, 480)
	err := l.waitError(t)
	assert.ErrorContains(t, err, "undefined varying")
	waitStopped(t, v)
	// The surface is released even though the drawer never started.
	assert.Equal(t, 1, fake.Count("eglTerminate"))
	assert.Equal(t, 0, fake.GL.LiveTextures())
}

func TestViewDrawErrorAborts(t *testing.T) {
	v, fake, l := newTestView(t)
	v.SurfaceAvailable(7, 640, 480)
	src := l.waitReady(t)

	fake.GL.SetError(gl.INVALID_OPERATION)
	src.FrameAvailable()
	err := l.waitError(t)
	var glErr *gl.Error
	require.True(t, errors.As(err, &glErr))
	assert.Equal(t, "draw", glErr.Op)

	// The rendering thread stops without waiting for SurfaceDestroyed.
	waitStopped(t, v)
	assert.Equal(t, 0, fake.EGL.Swaps())
	assert.Equal(t, 1, fake.Count("eglTerminate"))
	assert.ErrorIs(t, v.SurfaceSizeChanged(1, 1), err)
	assert.Equal(t, err, v.Err())
}

func TestViewSwapFailureIsSoft(t *testing.T) {
	v, fake, l := newTestView(t)
	v.SurfaceAvailable(7, 640, 480)
	src := l.waitReady(t)

	fake.EGL.FailSwap.Store(true)
	src.FrameAvailable()
	flush(t, v)
	assert.Equal(t, 1, fake.Count("glDrawElements"))
	assert.Equal(t, 0, fake.EGL.Swaps())

	fake.EGL.FailMakeCurrent.Store(true)
	src.FrameAvailable()
	flush(t, v)
	assert.Equal(t, 2, fake.Count("glDrawElements"))
	assert.Equal(t, 1, fake.Count("eglSwapBuffers"))

	fake.EGL.FailSwap.Store(false)
	fake.EGL.FailMakeCurrent.Store(false)
	src.FrameAvailable()
	flush(t, v)
	assert.Equal(t, 1, fake.EGL.Swaps())
	assert.Equal(t, Active, v.State())
	assert.NoError(t, v.Err())
}

func TestViewFramesInOrder(t *testing.T) {
	v, fake, l := newTestView(t)
	v.SurfaceAvailable(7, 640, 480)
	src := l.waitReady(t)

	sizes := []image.Point{{100, 100}, {200, 150}, {300, 200}}
	for _, sz := range sizes {
		require.NoError(t, v.SurfaceSizeChanged(sz.X, sz.Y))
		src.FrameAvailable()
	}
	flush(t, v)
	draws := fake.Filter("glDrawElements")
	require.Len(t, draws, len(sizes))
	for i, sz := range sizes {
		assert.Equal(t, image.Rectangle{Max: sz}, draws[i].Args[4])
	}
}

func TestViewConcurrentFrames(t *testing.T) {
	v, fake, l := newTestView(t)
	v.SurfaceAvailable(7, 640, 480)
	src := l.waitReady(t)

	const producers, frames = 4, 25
	done := make(chan struct{})
	for i := 0; i < producers; i++ {
		go func() {
			for j := 0; j < frames; j++ {
				src.FrameAvailable()
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < producers; i++ {
		<-done
	}
	flush(t, v)
	assert.Equal(t, producers*frames, fake.Count("glDrawElements"))
	assert.Equal(t, producers*frames, fake.EGL.Swaps())
	assert.Len(t, fake.Threads(), 1)
}

func TestViewRestart(t *testing.T) {
	v, fake, l := newTestView(t)
	v.SurfaceAvailable(7, 640, 480)
	l.waitReady(t)
	require.True(t, v.SurfaceDestroyed())

	// The second surface may arrive while the first is still stopping.
	v.SurfaceAvailable(8, 320, 240)
	src := l.waitReady(t)
	src.FrameAvailable()
	flush(t, v)
	assert.Equal(t, image.Rect(0, 0, 320, 240), lastViewport(t, fake))

	require.True(t, v.SurfaceDestroyed())
	waitStopped(t, v)
	terminates := fake.Filter("eglTerminate")
	require.Len(t, terminates, 2)
	displays := fake.Filter("eglGetDisplay")
	require.Len(t, displays, 2)
	// The first surface was released before the second was created.
	assert.Less(t, fake.Index("eglTerminate"), fake.LastIndex("eglGetDisplay"))
}

func TestViewQueueCanceled(t *testing.T) {
	v, fake, _ := newTestView(t)
	fake.EGL.Gate = make(chan struct{})
	v.SurfaceAvailable(7, 640, 480)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := v.Queue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(fake.EGL.Gate)
}

func TestViewListenerDispatch(t *testing.T) {
	fake := gltest.New()
	dispatched := make(chan func(), 1)
	var got *surface.FrameSource
	v := NewView(render.NewCameraDrawer(),
		WithBackend(func() (surface.Backend, error) {
			return surface.Backend{EGL: fake.EGL, GL: fake.GL}, nil
		}),
		WithListener(ReadyFunc(func(src *surface.FrameSource) { got = src }), func(f func()) {
			dispatched <- f
		}),
	)
	v.SurfaceAvailable(7, 640, 480)
	select {
	case f := <-dispatched:
		f()
	case <-time.After(timeout):
		t.Fatal("timeout waiting for dispatch")
	}
	require.NotNil(t, got)
	assert.True(t, got.Texture().Valid())
	v.SurfaceDestroyed()
	waitStopped(t, v)
}

func TestViewRecordable(t *testing.T) {
	v, fake, l := newTestView(t, WithRecordable(true), WithTextureTarget(gl.TEXTURE_2D))
	v.SurfaceAvailable(7, 640, 480)
	src := l.waitReady(t)
	assert.Equal(t, gl.Enum(gl.TEXTURE_2D), src.Target())
	rec, ok := egl.Attrib(fake.Filter("eglChooseConfig")[0].Args[0].([]egl.Int), egl.RECORDABLE_ANDROID)
	assert.True(t, ok)
	assert.Equal(t, egl.Int(1), rec)
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Idle:     "Idle",
		Starting: "Starting",
		Active:   "Active",
		Stopping: "Stopping",
	} {
		assert.Equal(t, want, s.String())
	}
}
