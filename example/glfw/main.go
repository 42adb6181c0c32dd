// SPDX-License-Identifier: Unlicense OR MIT

//go:build !openbsd && !freebsd && !windows && !android && !ios && !js

// Command glfw draws filled, stroked and gradient paths into a GLFW
// window.
package main

import (
	"image"
	"image/color"
	"log"
	"math"
	"runtime"

	"gioui.org/nanovg/f32"
	"gioui.org/nanovg/gpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func main() {
	// Required by the OpenGL threading model.
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		log.Fatal(err)
	}
	defer glfw.Terminate()
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.StencilBits, 8)

	window, err := glfw.CreateWindow(800, 600, "nanovg + GLFW", nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	r, err := gpu.New(gpu.OpenGL{}, gpu.Options{AntiAlias: true, StencilStrokes: true})
	if err != nil {
		log.Fatal(err)
	}
	defer r.Release()

	for !window.ShouldClose() {
		glfw.PollEvents()
		width, _ := window.GetSize()
		fbw, fbh := window.GetFramebufferSize()
		ratio := float32(fbw) / float32(max(width, 1))
		r.Clear(background)
		// The zero target is the window framebuffer.
		if err := r.BeginFrame(gpu.OpenGLRenderTarget{}, image.Pt(fbw, fbh), ratio); err != nil {
			log.Fatal(err)
		}
		if err := draw(r, float32(glfw.GetTime())); err != nil {
			r.CancelFrame()
			log.Fatal(err)
		}
		if err := r.EndFrame(); err != nil {
			log.Fatal(err)
		}
		window.SwapBuffers()
	}
}

var background = color.NRGBA{R: 0x30, G: 0x30, B: 0x38, A: 0xff}

func draw(r *gpu.Renderer, t float32) error {
	view := r.ViewSize()
	const fringe = 1

	// Gradient backdrop.
	bg := f32.Rect(20, 20, view.X-20, view.Y-20)
	grad := gpu.LinearGradient(bg.Min, bg.Max, gpu.Color{R: .2, G: .3, B: .5, A: 1}, gpu.Color{R: .1, G: .1, B: .2, A: 1})
	if err := r.Fill(&grad, nil, fringe, bg, []gpu.Path{{Fill: rect(bg), Convex: true}}); err != nil {
		return err
	}

	// A rotating star is concave and filled through the stencil.
	c := view.Mul(0.5)
	star := starPath(c, 150, 60, 7, t*0.5)
	fill := gpu.RadialGradient(c, 40, 150, gpu.Color{R: 1, G: .8, B: .2, A: 1}, gpu.Color{R: .9, G: .3, B: .1, A: 1})
	bounds := f32.Rectangle{Min: c.Sub(f32.Pt(150, 150)), Max: c.Add(f32.Pt(150, 150))}
	if err := r.Fill(&fill, nil, fringe, bounds, []gpu.Path{{Fill: star, Stroke: outline(star, fringe)}}); err != nil {
		return err
	}

	// Its outline, clipped to the left half of the window.
	clip := gpu.ScissorRect(f32.Affine2D{}, f32.Rect(0, 0, view.X/2, view.Y))
	stroke := gpu.SolidPaint(gpu.Color{R: 1, G: 1, B: 1, A: 1})
	const width = 4
	return r.Stroke(&stroke, clip, fringe, width, []gpu.Path{{Stroke: outline(star, width/2+fringe)}})
}

func rect(r f32.Rectangle) []gpu.Vertex {
	return []gpu.Vertex{
		{X: r.Min.X, Y: r.Min.Y, U: .5, V: 1},
		{X: r.Max.X, Y: r.Min.Y, U: .5, V: 1},
		{X: r.Max.X, Y: r.Max.Y, U: .5, V: 1},
		{X: r.Min.X, Y: r.Max.Y, U: .5, V: 1},
	}
}

func starPath(c f32.Point, outer, inner float32, points int, angle float32) []gpu.Vertex {
	verts := make([]gpu.Vertex, 0, 2*points)
	for i := range 2 * points {
		rad := outer
		if i%2 == 1 {
			rad = inner
		}
		a := float64(angle) + float64(i)*math.Pi/float64(points)
		verts = append(verts, gpu.Vertex{
			X: c.X + rad*float32(math.Cos(a)),
			Y: c.Y + rad*float32(math.Sin(a)),
			U: .5, V: 1,
		})
	}
	return verts
}

// outline returns a closed triangle strip of half width w around the
// polygon poly, with U running across the strip.
func outline(poly []gpu.Vertex, w float32) []gpu.Vertex {
	n := len(poly)
	strip := make([]gpu.Vertex, 0, 2*n+2)
	for i := 0; i <= n; i++ {
		p0, p1, p2 := poly[(i+n-1)%n], poly[i%n], poly[(i+1)%n]
		dx0, dy0 := normal(p0, p1)
		dx1, dy1 := normal(p1, p2)
		// Miter direction.
		dx, dy := (dx0+dx1)/2, (dy0+dy1)/2
		if d := dx*dx + dy*dy; d > 1e-6 {
			s := min(1/d, 4)
			dx, dy = dx*s, dy*s
		}
		strip = append(strip,
			gpu.Vertex{X: p1.X + dx*w, Y: p1.Y + dy*w, U: 0, V: 1},
			gpu.Vertex{X: p1.X - dx*w, Y: p1.Y - dy*w, U: 1, V: 1},
		)
	}
	return strip
}

func normal(a, b gpu.Vertex) (float32, float32) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return 0, 0
	}
	return dy / l, -dx / l
}
