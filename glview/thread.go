// SPDX-License-Identifier: Unlicense OR MIT

package glview

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"gioui.org/x/camview/render"
	"gioui.org/x/camview/surface"
)

// renderThread is the rendering thread of one surface lifetime.
type renderThread struct {
	drawer     render.Drawer
	listener   Listener
	dispatch   func(func())
	load       func() (surface.Backend, error)
	recordable bool
	win        surface.NativeWindow
	opts       []surface.Option
	log        *slog.Logger
	// prev is the thread of the previous surface, if it has not yet
	// exited.
	prev *renderThread

	queue *Queue
	// ready is closed when the surface is ready or failed to start.
	ready chan struct{}
	// done is closed when the thread has released everything.
	done chan struct{}

	mu  sync.Mutex
	err error

	// Owned by the rendering thread.
	width, height int
	mgr           *surface.Manager
	src           *surface.FrameSource
	created       bool
}

func newRenderThread(v *View, win surface.NativeWindow, width, height int, prev *renderThread) *renderThread {
	log := v.log.With("window", uint64(win))
	return &renderThread{
		drawer:     v.drawer,
		listener:   v.listener,
		dispatch:   v.dispatch,
		load:       v.loadBackend,
		recordable: v.recordable,
		win:        win,
		opts: []surface.Option{
			surface.WithDisplay(v.display),
			surface.WithTextureTarget(v.target),
			surface.WithLogger(log),
		},
		log:    log,
		prev:   prev,
		queue:  newQueue(),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		width:  width,
		height: height,
	}
}

func (rt *renderThread) run() {
	defer close(rt.done)
	// EGL and GL calls must happen on a single OS thread.
	runtime.LockOSThread()
	// Don't UnlockOSThread; the thread exits with its EGL state.

	if rt.prev != nil {
		rt.log.Debug("waiting for the previous surface to stop")
		<-rt.prev.done
		rt.prev = nil
	}
	if err := rt.boot(); err != nil {
		rt.abort(err)
		close(rt.ready)
		rt.dispose()
		return
	}
	close(rt.ready)
	src := rt.src
	rt.notify(func(l Listener) { l.SurfaceReady(src) })
	rt.log.Debug("surface ready", "width", rt.width, "height", rt.height)

	for {
		task, ok := rt.queue.next()
		if !ok {
			break
		}
		task()
	}
	rt.dispose()
}

func (rt *renderThread) boot() error {
	b, err := rt.load()
	if err != nil {
		return fmt.Errorf("glview: load backend: %w", err)
	}
	rt.mgr = surface.NewManager(b, rt.opts...)
	_, src, err := rt.mgr.CreateSurface(rt.win, rt.recordable)
	if err != nil {
		return fmt.Errorf("glview: create surface: %w", err)
	}
	rt.src = src
	if err := rt.drawer.OnSurfaceCreated(rt.mgr.Functions(), src, rt.width, rt.height); err != nil {
		return fmt.Errorf("glview: create drawer: %w", err)
	}
	rt.created = true
	// Frames are signalled from producer goroutines and drawn here.
	src.SetOnFrameAvailable(func() {
		rt.queue.Post(rt.drawFrame)
	})
	return nil
}

func (rt *renderThread) resize(width, height int) {
	rt.width, rt.height = width, height
	rt.drawer.OnSurfaceChanged(rt.src, width, height)
}

// drawFrame draws the newest frame and presents it.
func (rt *renderThread) drawFrame() {
	if err := rt.drawer.OnFrameAvailable(rt.src); err != nil {
		rt.abort(fmt.Errorf("glview: draw: %w", err))
		return
	}
	if !rt.mgr.MakeCurrent() {
		return
	}
	rt.mgr.SwapBuffers()
}

// stop asks the thread to exit after the tasks already posted.
func (rt *renderThread) stop() {
	rt.queue.postLast(func() {
		rt.log.Debug("surface destroyed, stopping")
	})
}

// abort records a fatal error and stops the thread without running
// the pending tasks.
func (rt *renderThread) abort(err error) {
	rt.mu.Lock()
	if rt.err == nil {
		rt.err = err
	}
	rt.mu.Unlock()
	rt.log.Error("surface failed", "error", err)
	rt.queue.close()
	rt.notify(func(l Listener) { l.SurfaceError(err) })
}

func (rt *renderThread) error() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.err
}

// dispose releases the drawer and the surface.
func (rt *renderThread) dispose() {
	if rt.src != nil {
		rt.src.SetOnFrameAvailable(nil)
	}
	if rt.created {
		rt.drawer.OnSurfaceDestroyed(rt.src)
		rt.created = false
	}
	if rt.mgr != nil {
		rt.mgr.DestroySurface()
	}
	rt.log.Debug("surface released")
}

func (rt *renderThread) notify(f func(l Listener)) {
	if rt.listener == nil {
		return
	}
	l := rt.listener
	rt.dispatch(func() { f(l) })
}
