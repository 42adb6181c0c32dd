// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/gpu/internal/uniform"
)

func TestFitSize(t *testing.T) {
	tests := []struct {
		size   image.Point
		maxDim int
		want   image.Point
	}{
		{image.Pt(100, 100), 4096, image.Pt(100, 100)},
		{image.Pt(8000, 2000), 4096, image.Pt(4096, 1024)},
		{image.Pt(2000, 8000), 4096, image.Pt(1024, 4096)},
		{image.Pt(10000, 1), 100, image.Pt(100, 1)},
		{image.Pt(5000, 5000), 0, image.Pt(5000, 5000)},
	}
	for _, test := range tests {
		if got := fitSize(test.size, test.maxDim); got != test.want {
			t.Errorf("fitSize(%v, %d) = %v, want %v", test.size, test.maxDim, got, test.want)
		}
	}
}

func filled(img interface {
	Set(x, y int, c color.Color)
	Bounds() image.Rectangle
}, c color.Color) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

func TestCreateImageFormats(t *testing.T) {
	r := newTestRenderer(t, newFakeDevice(), Options{})
	rect := image.Rect(0, 0, 2, 2)

	nrgba := image.NewNRGBA(rect)
	filled(nrgba, color.NRGBA{R: 0xff, A: 0x80})
	rgba := image.NewRGBA(rect)
	filled(rgba, color.RGBA{R: 0x80, A: 0x80})
	alpha := image.NewAlpha(rect)
	filled(alpha, color.Alpha{A: 0x40})
	gray := image.NewGray(rect)
	filled(gray, color.Gray{Y: 0x80})

	tests := []struct {
		name    string
		img     image.Image
		flags   ImageFlags
		format  driver.TextureFormat
		texType uniform.TexType
		texel   []byte
	}{
		{"nrgba", nrgba, ImagePremultiplied, driver.TextureFormatRGBA8, uniform.TexPremultiply, []byte{0xff, 0, 0, 0x80}},
		{"rgba premultiplied", rgba, ImagePremultiplied, driver.TextureFormatRGBA8, uniform.TexRGBA, []byte{0x80, 0, 0, 0x80}},
		{"rgba straight", rgba, 0, driver.TextureFormatRGBA8, uniform.TexPremultiply, []byte{0x80, 0, 0, 0x80}},
		{"alpha", alpha, 0, driver.TextureFormatR8, uniform.TexAlpha, []byte{0x40}},
		{"gray", gray, 0, driver.TextureFormatRGBA8, uniform.TexRGBA, []byte{0x80, 0x80, 0x80, 0xff}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			id, err := r.CreateImage(test.img, test.flags)
			if err != nil {
				t.Fatal(err)
			}
			tex, ok := r.images.get(id)
			if !ok {
				t.Fatal("image not registered")
			}
			if got := tex.texType(); got != test.texType {
				t.Errorf("texture type %d, want %d", got, test.texType)
			}
			ft := tex.tex.(*fakeTexture)
			if ft.format != test.format {
				t.Errorf("texture format %d, want %d", ft.format, test.format)
			}
			if ft.uploads != 1 {
				t.Errorf("%d uploads, want 1", ft.uploads)
			}
			if n := len(test.texel); !bytes.Equal(ft.pixels[:n], test.texel) {
				t.Errorf("first texel %v, want %v", ft.pixels[:n], test.texel)
			}
			if len(ft.pixels) != 4*len(test.texel) {
				t.Errorf("uploaded %d bytes, want %d", len(ft.pixels), 4*len(test.texel))
			}
		})
	}
}

func TestCreateImageScaled(t *testing.T) {
	d := newFakeDevice()
	d.caps.MaxTextureSize = 16
	r := newTestRenderer(t, d, Options{})
	img := image.NewNRGBA(image.Rect(0, 0, 32, 8))
	id, err := r.CreateImage(img, ImageNearest)
	if err != nil {
		t.Fatal(err)
	}
	size, err := r.ImageSize(id)
	if err != nil {
		t.Fatal(err)
	}
	if want := image.Pt(32, 8); size != want {
		t.Errorf("image size %v, want %v", size, want)
	}
	ft := d.textures[0]
	if want := image.Pt(16, 4); ft.size != want {
		t.Errorf("texture size %v, want %v", ft.size, want)
	}
	if ft.filter != driver.FilterNearest {
		t.Errorf("texture filter %d, want nearest", ft.filter)
	}
	if n := len(ft.pixels); n != 16*4*4 {
		t.Errorf("uploaded %d bytes, want %d", n, 16*4*4)
	}
}

func TestImageErrors(t *testing.T) {
	r := newTestRenderer(t, newFakeDevice(), Options{})
	if _, err := r.CreateImage(image.NewNRGBA(image.Rectangle{}), 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("empty image: got %v, want %v", err, ErrInvalidParameter)
	}
	id, err := r.CreateImage(image.NewNRGBA(image.Rect(0, 0, 2, 2)), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateImage(id, image.NewNRGBA(image.Rect(0, 0, 3, 2))); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("resized update: got %v, want %v", err, ErrInvalidParameter)
	}
	if err := r.UpdateImage(id+1, image.NewNRGBA(image.Rect(0, 0, 2, 2))); !errors.Is(err, ErrResourceMissing) {
		t.Errorf("unknown update: got %v, want %v", err, ErrResourceMissing)
	}
	if _, err := r.ImageSize(id + 1); !errors.Is(err, ErrResourceMissing) {
		t.Errorf("unknown size: got %v, want %v", err, ErrResourceMissing)
	}
	if err := r.DeleteImage(id); err != nil {
		t.Fatal(err)
	}
	if err := r.DeleteImage(id); !errors.Is(err, ErrResourceMissing) {
		t.Errorf("second delete: got %v, want %v", err, ErrResourceMissing)
	}
}

func TestUpdateImage(t *testing.T) {
	d := newFakeDevice()
	r := newTestRenderer(t, d, Options{})
	rect := image.Rect(0, 0, 2, 2)
	id, err := r.CreateImage(image.NewNRGBA(rect), 0)
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(rect)
	filled(img, color.NRGBA{G: 0xff, A: 0xff})
	if err := r.UpdateImage(id, img); err != nil {
		t.Fatal(err)
	}
	ft := d.textures[0]
	if ft.uploads != 2 {
		t.Errorf("%d uploads, want 2", ft.uploads)
	}
	if !bytes.Equal(ft.pixels, img.Pix) {
		t.Errorf("texture pixels %v, want %v", ft.pixels, img.Pix)
	}
}

func TestDeleteImage(t *testing.T) {
	d := newFakeDevice()
	r := newTestRenderer(t, d, Options{})
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))

	id, err := r.CreateImage(img, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.DeleteImage(id); err != nil {
		t.Fatal(err)
	}
	if !d.textures[0].released {
		t.Error("image deleted outside a frame was not released")
	}

	id, err = r.CreateImage(img, 0)
	if err != nil {
		t.Fatal(err)
	}
	openFrame(t, r)
	if err := r.DeleteImage(id); err != nil {
		t.Fatal(err)
	}
	if d.textures[1].released {
		t.Error("image released before the end of the frame")
	}
	p := SolidPaint(red)
	p.Image = id
	if err := r.Triangles(&p, nil, quad[:3]); !errors.Is(err, ErrResourceMissing) {
		t.Errorf("draw of deleted image: got %v, want %v", err, ErrResourceMissing)
	}
	endFrame(t, r)
	if !d.textures[1].released {
		t.Error("deleted image not released at the end of the frame")
	}
}

func TestReleaseImages(t *testing.T) {
	d := newFakeDevice()
	r, err := newRenderer(d, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if _, err := r.CreateImage(image.NewAlpha(image.Rect(0, 0, 1, 1)), 0); err != nil {
			t.Fatal(err)
		}
	}
	r.Release()
	for i, tex := range d.textures {
		if !tex.released {
			t.Errorf("texture %d not released", i)
		}
	}
}
