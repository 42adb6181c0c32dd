// SPDX-License-Identifier: Unlicense OR MIT

// Package headless implements offscreen windows for rendering frames
// to an image.
package headless

import (
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"

	"gioui.org/nanovg/gpu"
	"gioui.org/nanovg/gpu/internal/driver"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window is a headless window backed by a hidden GLFW window and an
// offscreen framebuffer with a stencil attachment.
type Window struct {
	size image.Point
	ctx  *glfw.Window
	// dev is owned by r once r is created.
	dev    driver.Device
	r      *gpu.Renderer
	fboTex driver.Texture
	fbo    driver.Framebuffer

	// Background is the clear color of every frame.
	Background color.NRGBA
}

var initGLFW = sync.OnceValue(func() error {
	var err error
	do(func() {
		err = glfw.Init()
	})
	return err
})

// NewWindow creates a headless window of the given size and a
// Renderer configured by opts for it.
func NewWindow(width, height int, opts gpu.Options) (*Window, error) {
	if err := initGLFW(); err != nil {
		return nil, fmt.Errorf("headless: %w", err)
	}
	w := &Window{size: image.Pt(width, height)}
	var err error
	do(func() {
		glfw.DefaultWindowHints()
		glfw.WindowHint(glfw.Visible, glfw.False)
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
		glfw.WindowHint(glfw.StencilBits, 8)
		w.ctx, err = glfw.CreateWindow(1, 1, "nanovg headless", nil, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("headless: %w", err)
	}
	err = w.contextDo(func() error {
		api := gpu.OpenGL{Debug: opts.Debug}
		dev, err := driver.NewDevice(api)
		if err != nil {
			return err
		}
		w.dev = dev
		w.fboTex, err = dev.NewTexture(
			driver.TextureFormatRGBA8,
			width, height,
			driver.FilterNearest, driver.FilterNearest,
			driver.BufferBindingFramebuffer,
		)
		if err != nil {
			return err
		}
		w.fbo, err = dev.NewFramebuffer(w.fboTex, true)
		if err != nil {
			return err
		}
		w.r, err = gpu.NewWithDevice(dev, opts)
		return err
	})
	if err != nil {
		w.Release()
		return nil, err
	}
	return w, nil
}

// Release resources associated with the window.
func (w *Window) Release() {
	if w.ctx == nil {
		return
	}
	w.contextDo(func() error {
		if w.fbo != nil {
			w.fbo.Release()
			w.fbo = nil
		}
		if w.fboTex != nil {
			w.fboTex.Release()
			w.fboTex = nil
		}
		if w.r != nil {
			// Releases w.dev as well.
			w.r.Release()
			w.r = nil
		} else if w.dev != nil {
			w.dev.Release()
		}
		w.dev = nil
		return nil
	})
	do(w.ctx.Destroy)
	w.ctx = nil
}

// Size returns the window size.
func (w *Window) Size() image.Point {
	return w.size
}

// Renderer returns the Renderer of the window. It must only be used
// from within Frame.
func (w *Window) Renderer() *gpu.Renderer {
	return w.r
}

// Frame replaces the window content with a frame drawn by draw at a
// pixel ratio of 1. The frame is cancelled if draw fails.
func (w *Window) Frame(draw func(r *gpu.Renderer) error) error {
	return w.contextDo(func() error {
		w.r.Clear(w.Background)
		if err := w.r.BeginFrame(w.fbo, w.size, 1); err != nil {
			return err
		}
		if err := draw(w.r); err != nil {
			w.r.CancelFrame()
			return err
		}
		return w.r.EndFrame()
	})
}

// Screenshot returns the window content.
func (w *Window) Screenshot() (*image.RGBA, error) {
	var img *image.RGBA
	err := w.contextDo(func() error {
		var err error
		img, err = driver.DownloadImage(w.dev, w.fbo, image.Rectangle{Max: w.size})
		return err
	})
	return img, err
}

func (w *Window) contextDo(f func() error) error {
	var err error
	do(func() {
		w.ctx.MakeContextCurrent()
		err = f()
		glfw.DetachCurrentContext()
	})
	return err
}

// do runs f on a goroutine locked to its OS thread, as required by the
// GLFW and OpenGL threading models.
func do(f func()) {
	done := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)
		f()
	}()
	<-done
}
