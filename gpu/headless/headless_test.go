// SPDX-License-Identifier: Unlicense OR MIT

package headless

import (
	"bytes"
	"flag"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"gioui.org/nanovg/f32"
	"gioui.org/nanovg/gpu"
)

var dumpImages = flag.Bool("saveimages", false, "save test images")

var (
	red  = gpu.Color{R: 1, A: 1}
	blue = gpu.Color{B: 1, A: 1}
)

func rect(r f32.Rectangle) []gpu.Vertex {
	return []gpu.Vertex{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Max.Y},
		{X: r.Min.X, Y: r.Max.Y},
	}
}

func TestHeadless(t *testing.T) {
	w := newTestWindow(t, gpu.Options{})
	w.Background = color.NRGBA{G: 0xff, A: 0xff}
	err := w.Frame(func(r *gpu.Renderer) error {
		p := gpu.SolidPaint(red)
		b := f32.Rect(0, 0, 50, 50)
		return r.Fill(&p, nil, 1, b, []gpu.Path{{Fill: rect(b), Convex: true}})
	})
	if err != nil {
		t.Fatal(err)
	}
	img := screenshot(t, w)
	if isz := img.Bounds().Size(); isz != w.Size() {
		t.Errorf("got %v screenshot, expected %v", isz, w.Size())
	}
	tests := []struct {
		x, y  int
		color color.RGBA
	}{
		{10, 10, red.RGBA8()},
		{49, 49, red.RGBA8()},
		{60, 10, color.RGBA{G: 0xff, A: 0xff}},
		{10, 60, color.RGBA{G: 0xff, A: 0xff}},
	}
	for _, test := range tests {
		if got := img.RGBAAt(test.x, test.y); got != test.color {
			t.Errorf("(%d,%d): got color %v, expected %v", test.x, test.y, got, test.color)
		}
	}
}

func TestStencilFill(t *testing.T) {
	for _, aa := range []bool{false, true} {
		w := newTestWindow(t, gpu.Options{AntiAlias: aa})
		a := f32.Rect(0, 0, 50, 50)
		b := f32.Rect(40, 40, 90, 90)
		err := w.Frame(func(r *gpu.Renderer) error {
			p := gpu.SolidPaint(blue)
			paths := []gpu.Path{{Fill: rect(a)}, {Fill: rect(b)}}
			return r.Fill(&p, nil, 1, f32.Rect(0, 0, 90, 90), paths)
		})
		if err != nil {
			t.Fatal(err)
		}
		img := screenshot(t, w)
		tests := []struct {
			x, y  int
			color color.RGBA
		}{
			{10, 10, blue.RGBA8()},
			{45, 45, blue.RGBA8()},
			{80, 80, blue.RGBA8()},
			{80, 10, color.RGBA{}},
			{10, 80, color.RGBA{}},
		}
		for _, test := range tests {
			if got := img.RGBAAt(test.x, test.y); got != test.color {
				t.Errorf("aa %v (%d,%d): got color %v, expected %v", aa, test.x, test.y, got, test.color)
			}
		}
	}
}

func TestLinearGradient(t *testing.T) {
	w := newTestWindow(t, gpu.Options{})
	b := f32.Rect(0, 0, 100, 10)
	err := w.Frame(func(r *gpu.Renderer) error {
		p := gpu.LinearGradient(b.Min, f32.Pt(100, 0), red, blue)
		return r.Fill(&p, nil, 1, b, []gpu.Path{{Fill: rect(b), Convex: true}})
	})
	if err != nil {
		t.Fatal(err)
	}
	img := screenshot(t, w)
	for _, x := range []int{10, 50, 90} {
		// Pixel centers are sampled.
		exp := red.Lerp(blue, (float32(x)+.5)/100).RGBA8()
		if got := img.RGBAAt(x, 5); !closeTo(got, exp, 2) {
			t.Errorf("(%d,5): got color %v, expected %v", x, got, exp)
		}
	}
}

func TestScissor(t *testing.T) {
	w := newTestWindow(t, gpu.Options{})
	err := w.Frame(func(r *gpu.Renderer) error {
		p := gpu.SolidPaint(red)
		b := f32.Rect(0, 0, 100, 100)
		clip := gpu.ScissorRect(f32.Affine2D{}, f32.Rect(20, 20, 60, 60))
		return r.Fill(&p, clip, 1, b, []gpu.Path{{Fill: rect(b), Convex: true}})
	})
	if err != nil {
		t.Fatal(err)
	}
	img := screenshot(t, w)
	if got := img.RGBAAt(40, 40); got != red.RGBA8() {
		t.Errorf("inside scissor: got color %v, expected %v", got, red.RGBA8())
	}
	if got := img.RGBAAt(10, 10); got != (color.RGBA{}) {
		t.Errorf("outside scissor: got color %v, expected transparent", got)
	}
}

func TestImagePatternFlipY(t *testing.T) {
	w := newTestWindow(t, gpu.Options{})
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for x := range 2 {
		img.SetNRGBA(x, 0, color.NRGBA{R: 0xff, A: 0xff})
		img.SetNRGBA(x, 1, color.NRGBA{B: 0xff, A: 0xff})
	}
	err := w.Frame(func(r *gpu.Renderer) error {
		id, err := r.CreateImage(img, gpu.ImageFlipY|gpu.ImageNearest)
		if err != nil {
			return err
		}
		// The pattern covers the top 40x40 units; below it the edge
		// row of the image repeats.
		p := gpu.ImagePattern(f32.Point{}, f32.Pt(40, 40), 0, id, 1)
		b := f32.Rect(0, 0, 40, 60)
		return r.Fill(&p, nil, 1, b, []gpu.Path{{Fill: rect(b), Convex: true}})
	})
	if err != nil {
		t.Fatal(err)
	}
	shot := screenshot(t, w)
	tests := []struct {
		x, y  int
		color color.RGBA
	}{
		{10, 10, blue.RGBA8()},
		{10, 30, red.RGBA8()},
		{10, 50, red.RGBA8()},
	}
	for _, test := range tests {
		if got := shot.RGBAAt(test.x, test.y); got != test.color {
			t.Errorf("(%d,%d): got color %v, expected %v", test.x, test.y, got, test.color)
		}
	}
}

func closeTo(a, b color.RGBA, tol int) bool {
	d := func(x, y uint8) bool {
		v := int(x) - int(y)
		return v >= -tol && v <= tol
	}
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func screenshot(t *testing.T, w *Window) *image.RGBA {
	t.Helper()
	img, err := w.Screenshot()
	if err != nil {
		t.Fatal(err)
	}
	if *dumpImages {
		if err := saveImage(t.Name()+".png", img); err != nil {
			t.Error(err)
		}
	}
	return img
}

func saveImage(file string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return os.WriteFile(file, buf.Bytes(), 0666)
}

func newTestWindow(t *testing.T, opts gpu.Options) *Window {
	t.Helper()
	w, err := NewWindow(200, 100, opts)
	if err != nil {
		t.Skipf("headless windows not supported: %v", err)
	}
	t.Cleanup(w.Release)
	return w
}
