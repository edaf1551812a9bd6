// SPDX-License-Identifier: Unlicense OR MIT

/*
Package glview renders into a native window surface on a dedicated
rendering thread.

A View follows the lifetime of the window surface reported by its
host. SurfaceAvailable starts a rendering thread that creates the GPU
surface and frame source and prepares the Drawer. Once ready, the
Listener receives the frame source and connects a producer to it.
Every frame the producer signals is drawn and presented on the
rendering thread. SurfaceDestroyed stops the thread after the tasks
already posted to it have run.

All GPU state is owned by the rendering thread. Other goroutines reach
it only by posting tasks to its Queue.
*/
package glview

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"gioui.org/x/camview/gl"
	"gioui.org/x/camview/render"
	"gioui.org/x/camview/surface"
)

// State is the lifecycle state of a View.
type State uint8

const (
	// Idle means no rendering thread is running.
	Idle State = iota
	// Starting means the rendering thread is creating the surface.
	Starting
	// Active means the surface is ready, or failed to become ready.
	Active
	// Stopping means the surface was destroyed by the host and the
	// rendering thread is draining its queue.
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Starting:
		return "Starting"
	case Active:
		return "Active"
	case Stopping:
		return "Stopping"
	default:
		panic("invalid State")
	}
}

// ErrStopped is returned for requests to a surface whose rendering
// thread no longer accepts tasks.
var ErrStopped = errors.New("glview: surface stopped")

// Listener receives the outcome of starting a surface.
type Listener interface {
	// SurfaceReady is called when the frame source of a new surface
	// is ready to receive frames.
	SurfaceReady(src *surface.FrameSource)
	// SurfaceError is called when a surface failed to start, or
	// failed while drawing.
	SurfaceError(err error)
}

// ReadyFunc adapts a function to a Listener that ignores errors.
type ReadyFunc func(src *surface.FrameSource)

func (f ReadyFunc) SurfaceReady(src *surface.FrameSource) {
	f(src)
}

func (f ReadyFunc) SurfaceError(err error) {}

// View coordinates the rendering thread of a window surface with the
// lifecycle events of its host.
type View struct {
	drawer      render.Drawer
	listener    Listener
	dispatch    func(func())
	loadBackend func() (surface.Backend, error)
	recordable  bool
	display     surface.NativeDisplay
	target      gl.Enum
	log         *slog.Logger

	mu sync.Mutex
	// live is the thread of the current surface, if any.
	live *renderThread
	// last is the most recently started thread.
	last *renderThread
}

type Option func(v *View)

// WithListener sets the listener of surface events. Its methods are
// run by dispatch, which defaults to running them on a new goroutine.
func WithListener(l Listener, dispatch func(func())) Option {
	return func(v *View) {
		v.listener = l
		if dispatch != nil {
			v.dispatch = dispatch
		}
	}
}

// WithBackend replaces the loader of the native EGL and OpenGL ES
// libraries. It is called on the rendering thread.
func WithBackend(load func() (surface.Backend, error)) Option {
	return func(v *View) {
		v.loadBackend = load
	}
}

// WithRecordable requests a surface that can feed a video encoder.
func WithRecordable(recordable bool) Option {
	return func(v *View) {
		v.recordable = recordable
	}
}

func WithDisplay(d surface.NativeDisplay) Option {
	return func(v *View) {
		v.display = d
	}
}

// WithTextureTarget sets the texture target of the frame source. See
// surface.WithTextureTarget.
func WithTextureTarget(target gl.Enum) Option {
	return func(v *View) {
		v.target = target
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(v *View) {
		v.log = l
	}
}

// NewView returns an Idle view drawing with d.
func NewView(d render.Drawer, opts ...Option) *View {
	v := &View{
		drawer:      d,
		dispatch:    func(f func()) { go f() },
		loadBackend: surface.LoadBackend,
		target:      gl.TEXTURE_EXTERNAL_OES,
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// SurfaceAvailable starts rendering into win, a surface of the given
// size. It returns without waiting for the surface to be ready. It
// panics if the view already has a surface.
func (v *View) SurfaceAvailable(win surface.NativeWindow, width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.live != nil {
		panic("glview: SurfaceAvailable called twice without SurfaceDestroyed")
	}
	var prev *renderThread
	if v.last != nil && !isClosed(v.last.done) {
		prev = v.last
	}
	rt := newRenderThread(v, win, width, height, prev)
	v.live, v.last = rt, rt
	go rt.run()
}

// SurfaceSizeChanged resizes the surface. If the surface is not ready
// yet, it blocks until it is. It returns the error that stopped the
// surface, if any, and panics if the view has no surface.
func (v *View) SurfaceSizeChanged(width, height int) error {
	rt := v.liveThread("SurfaceSizeChanged")
	<-rt.ready
	if !rt.queue.Post(func() { rt.resize(width, height) }) {
		if err := rt.error(); err != nil {
			return err
		}
		return ErrStopped
	}
	return nil
}

// SurfaceDestroyed stops the rendering thread once the tasks already
// posted to it have run, and returns without waiting for it. It
// reports whether the view had a surface to stop.
func (v *View) SurfaceDestroyed() bool {
	v.mu.Lock()
	rt := v.live
	v.live = nil
	v.mu.Unlock()
	if rt == nil {
		return false
	}
	rt.stop()
	return true
}

// Queue returns the task queue of the current surface, waiting for
// the surface to be ready. Tasks posted to it run on the rendering
// thread. It panics if the view has no surface.
func (v *View) Queue(ctx context.Context) (*Queue, error) {
	rt := v.liveThread("Queue")
	select {
	case <-rt.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := rt.error(); err != nil {
		return nil, err
	}
	return rt.queue, nil
}

// State returns the lifecycle state of the view.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if rt := v.live; rt != nil {
		if isClosed(rt.ready) {
			return Active
		}
		return Starting
	}
	if v.last != nil && !isClosed(v.last.done) {
		return Stopping
	}
	return Idle
}

// Stopped returns a channel closed when the most recently started
// rendering thread has released its surface and exited.
func (v *View) Stopped() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return v.last.done
}

// Err returns the error that stopped the most recently started
// surface, or nil.
func (v *View) Err() error {
	v.mu.Lock()
	rt := v.last
	v.mu.Unlock()
	if rt == nil {
		return nil
	}
	return rt.error()
}

func (v *View) liveThread(op string) *renderThread {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.live == nil {
		panic("glview: " + op + " called without a surface")
	}
	return v.live
}

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}
