// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"
	"image"
	"log/slog"

	"gioui.org/nanovg/gpu/internal/driver"
	"golang.org/x/image/draw"
)

// CreateImage uploads img to a new texture and returns its id.
//
// An *image.Alpha becomes a single channel image. The pixels of an
// *image.NRGBA are uploaded as is and premultiplied by the shaders.
// The pixels of an *image.RGBA are uploaded as is and are assumed to
// be premultiplied only if flags has ImagePremultiplied. Other image
// types are converted to premultiplied RGBA.
//
// Images larger than the device supports are scaled down.
func (r *Renderer) CreateImage(img image.Image, flags ImageFlags) (ImageID, error) {
	size := img.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return 0, fmt.Errorf("%w: empty image", ErrInvalidParameter)
	}
	t := &texture{
		format:  imageRGBA,
		flags:   flags,
		size:    size,
		texSize: fitSize(size, r.caps.MaxTextureSize),
	}
	switch img.(type) {
	case *image.Alpha:
		t.format = imageAlpha
	case *image.NRGBA:
		t.flags &^= ImagePremultiplied
	case *image.RGBA:
	default:
		t.flags |= ImagePremultiplied
	}
	texFormat := driver.TextureFormatRGBA8
	if t.format == imageAlpha {
		texFormat = driver.TextureFormatR8
	}
	filter := driver.FilterLinear
	if flags&ImageNearest != 0 {
		filter = driver.FilterNearest
	}
	tex, err := r.shared.dev.NewTexture(texFormat, t.texSize.X, t.texSize.Y, filter, filter, driver.BufferBindingTexture)
	if err != nil {
		return 0, fmt.Errorf("gpu: image texture: %w", err)
	}
	t.tex = tex
	if t.texSize != size {
		logger().Debug("image scaled down", slog.Any("size", size), slog.Any("texture", t.texSize))
	}
	t.upload(img)
	return r.images.put(t), nil
}

// UpdateImage replaces the pixels of image id with img, which must
// have the size the image was created with.
func (r *Renderer) UpdateImage(id ImageID, img image.Image) error {
	t, ok := r.images.get(id)
	if !ok {
		return fmt.Errorf("%w: image %d", ErrResourceMissing, id)
	}
	if size := img.Bounds().Size(); size != t.size {
		return fmt.Errorf("%w: image size %v, expected %v", ErrInvalidParameter, size, t.size)
	}
	t.upload(img)
	return nil
}

// DeleteImage deletes image id. The texture is released at the end of
// the open frame, or immediately if no frame is open.
func (r *Renderer) DeleteImage(id ImageID) error {
	if !r.images.delete(id) {
		return fmt.Errorf("%w: image %d", ErrResourceMissing, id)
	}
	if r.state != frameOpen {
		r.images.frame()
	}
	return nil
}

// ImageSize returns the size image id was created with.
func (r *Renderer) ImageSize(id ImageID) (image.Point, error) {
	t, ok := r.images.get(id)
	if !ok {
		return image.Point{}, fmt.Errorf("%w: image %d", ErrResourceMissing, id)
	}
	return t.size, nil
}

// fitSize scales size down, keeping its aspect ratio, until both
// dimensions are at most maxDim.
func fitSize(size image.Point, maxDim int) image.Point {
	if maxDim <= 0 || (size.X <= maxDim && size.Y <= maxDim) {
		return size
	}
	scale := min(float64(maxDim)/float64(size.X), float64(maxDim)/float64(size.Y))
	return image.Point{
		X: max(1, min(maxDim, int(float64(size.X)*scale))),
		Y: max(1, min(maxDim, int(float64(size.Y)*scale))),
	}
}

func (t *texture) upload(src image.Image) {
	bounds := image.Rectangle{Max: t.texSize}
	switch {
	case t.format == imageAlpha:
		a, ok := src.(*image.Alpha)
		if !ok || a.Bounds().Size() != t.texSize {
			a = image.NewAlpha(bounds)
			scaleInto(a, src)
		}
		o := a.Rect.Min
		t.tex.Upload(image.Point{}, t.texSize, a.Pix[a.PixOffset(o.X, o.Y):], a.Stride)
	case t.flags&ImagePremultiplied == 0:
		// Straight alpha pixels go to the texture unchanged.
		if pix, stride, ok := rawRGBA(src, t.texSize); ok {
			t.tex.Upload(image.Point{}, t.texSize, pix, stride)
			return
		}
		if rgba, ok := src.(*image.RGBA); ok {
			// The caller declared the pixels straight.
			src = &image.NRGBA{Pix: rgba.Pix, Stride: rgba.Stride, Rect: rgba.Rect}
		}
		n := image.NewNRGBA(bounds)
		scaleInto(n, src)
		t.tex.Upload(image.Point{}, t.texSize, n.Pix, n.Stride)
	default:
		rgba, ok := src.(*image.RGBA)
		if !ok || rgba.Bounds().Size() != t.texSize {
			rgba = image.NewRGBA(bounds)
			scaleInto(rgba, src)
		}
		driver.UploadImage(t.tex, image.Point{}, rgba)
	}
}

// rawRGBA returns the pixel memory of a 4 byte per pixel image of the
// given size.
func rawRGBA(src image.Image, size image.Point) ([]byte, int, bool) {
	switch img := src.(type) {
	case *image.NRGBA:
		if img.Bounds().Size() == size {
			o := img.Rect.Min
			return img.Pix[img.PixOffset(o.X, o.Y):], img.Stride, true
		}
	case *image.RGBA:
		if img.Bounds().Size() == size {
			o := img.Rect.Min
			return img.Pix[img.PixOffset(o.X, o.Y):], img.Stride, true
		}
	}
	return nil, 0, false
}

func scaleInto(dst draw.Image, src image.Image) {
	if dst.Bounds().Size() == src.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}
