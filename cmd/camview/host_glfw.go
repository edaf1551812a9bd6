// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux && !android && cgo

package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"

	"gioui.org/x/camview/config"
	"gioui.org/x/camview/glview"
	"gioui.org/x/camview/producer"
	"gioui.org/x/camview/render"
	"gioui.org/x/camview/surface"
)

func init() {
	// GLFW must be called from the main thread.
	runtime.LockOSThread()
}

// host connects a GLFW window to a glview.View. Its Listener methods
// run on the main thread.
type host struct {
	win     *glfw.Window
	log     *slog.Logger
	pattern producer.Pattern
	prod    *producer.ImageProducer
	ctx     context.Context
	stop    context.CancelFunc
}

func (h *host) SurfaceReady(src *surface.FrameSource) {
	h.prod.Connect(src)
	if h.stop != nil {
		h.stop()
	}
	ctx, stop := context.WithCancel(h.ctx)
	h.stop = stop
	go h.pattern.Run(ctx, h.prod)
}

func (h *host) SurfaceError(err error) {
	h.log.Error("rendering failed", "error", err)
	h.win.SetShouldClose(true)
}

func run(cfg config.Config, drawer render.Drawer, log *slog.Logger) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw: %w", err)
	}
	defer glfw.Terminate()
	// The window has no client API; EGL renders into it.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("glfw: %w", err)
	}
	defer win.Destroy()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := &host{
		win: win,
		log: log,
		pattern: producer.Pattern{
			Size: image.Pt(cfg.Window.Width, cfg.Window.Height),
			FPS:  cfg.FPS,
		},
		prod: producer.NewImageProducer(image.Pt(cfg.Window.Width, cfg.Window.Height)),
		ctx:  ctx,
	}
	mainQueue := make(chan func(), 16)
	dispatch := func(f func()) {
		mainQueue <- f
		glfw.PostEmptyEvent()
	}
	v := glview.NewView(drawer,
		glview.WithListener(h, dispatch),
		glview.WithDisplay(surface.NativeDisplay(uintptr(unsafe.Pointer(glfw.GetX11Display())))),
		glview.WithRecordable(cfg.Recordable),
		glview.WithTextureTarget(cfg.TextureTarget()),
		glview.WithLogger(log),
	)

	fbw, fbh := win.GetFramebufferSize()
	v.SurfaceAvailable(surface.NativeWindow(win.GetX11Window()), fbw, fbh)
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		// Minimized.
		if w == 0 || h == 0 {
			return
		}
		if err := v.SurfaceSizeChanged(w, h); err != nil {
			log.Warn("resize failed", "error", err)
		}
	})

	for !win.ShouldClose() {
		glfw.WaitEvents()
	drain:
		for {
			select {
			case f := <-mainQueue:
				f()
			default:
				break drain
			}
		}
	}
	cancel()
	v.SurfaceDestroyed()
	// The window must outlive its surface.
	<-v.Stopped()
	return v.Err()
}
