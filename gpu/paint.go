// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"
	"math"

	"gioui.org/nanovg/f32"
	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/gpu/internal/uniform"
	"github.com/go-gl/mathgl/mgl32"
)

// Paint describes the color source of a fill, stroke or image draw.
//
// Without an image, the paint is a box gradient: a rounded rectangle
// of half size Extent and corner Radius centered at the origin of
// Transform, blended from InnerColor to OuterColor over Feather
// units. With an image, the image spans Extent in paint space and is
// tinted by InnerColor.
type Paint struct {
	Transform  f32.Affine2D
	Extent     f32.Point
	Radius     float32
	Feather    float32
	InnerColor Color
	OuterColor Color
	Image      ImageID
}

// Scissor is a transformed clip rectangle of half size Extent centered
// at the origin of Transform. A negative Extent disables clipping.
type Scissor struct {
	Transform f32.Affine2D
	Extent    f32.Point
}

// SolidPaint returns a paint of a single color.
func SolidPaint(c Color) Paint {
	return Paint{
		Feather:    1,
		InnerColor: c,
		OuterColor: c,
	}
}

// LinearGradient returns a gradient from inner at start to outer at
// end.
func LinearGradient(start, end f32.Point, inner, outer Color) Paint {
	const large = 1e5
	d := end.Sub(start)
	l := float32(math.Hypot(float64(d.X), float64(d.Y)))
	if l > 0.0001 {
		d = d.Mul(1 / l)
	} else {
		d = f32.Pt(0, 1)
	}
	return Paint{
		Transform:  f32.NewAffine2D(d.Y, d.X, start.X-d.X*large, -d.X, d.Y, start.Y-d.Y*large),
		Extent:     f32.Pt(large, large+l*0.5),
		Feather:    max(1, l),
		InnerColor: inner,
		OuterColor: outer,
	}
}

// BoxGradient returns a gradient of a feathered rounded rectangle, as
// used for drop shadows.
func BoxGradient(r f32.Rectangle, radius, feather float32, inner, outer Color) Paint {
	center := r.Min.Add(r.Max).Mul(0.5)
	return Paint{
		Transform:  f32.Affine2D{}.Offset(center),
		Extent:     r.Size().Mul(0.5),
		Radius:     radius,
		Feather:    max(1, feather),
		InnerColor: inner,
		OuterColor: outer,
	}
}

// RadialGradient returns a gradient from inner at radius inr to outer
// at radius outr around center.
func RadialGradient(center f32.Point, inr, outr float32, inner, outer Color) Paint {
	r := (inr + outr) * 0.5
	return Paint{
		Transform:  f32.Affine2D{}.Offset(center),
		Extent:     f32.Pt(r, r),
		Radius:     r,
		Feather:    max(1, outr-inr),
		InnerColor: inner,
		OuterColor: outer,
	}
}

// ImagePattern returns a paint stretching img over size, rotated by
// angle around origin. Outside of size the edge texels of img are
// repeated.
func ImagePattern(origin, size f32.Point, angle float32, img ImageID, alpha float32) Paint {
	c := Color{R: 1, G: 1, B: 1, A: alpha}
	return Paint{
		Transform:  f32.Affine2D{}.Rotate(f32.Point{}, angle).Offset(origin),
		Extent:     size,
		InnerColor: c,
		OuterColor: c,
		Image:      img,
	}
}

// ScissorRect returns a scissor for the axis aligned rectangle r
// transformed by t.
func ScissorRect(t f32.Affine2D, r f32.Rectangle) *Scissor {
	center := r.Min.Add(r.Max).Mul(0.5)
	return &Scissor{
		Transform: t.Mul(f32.Affine2D{}.Offset(center)),
		Extent:    r.Size().Mul(0.5),
	}
}

// convertPaint computes the fragment block of a draw with paint p,
// clipped by clip. The texture is nil for gradients.
func (r *Renderer) convertPaint(p *Paint, clip *Scissor, width, fringe, strokeThr float32) (uniform.Fragment, driver.Texture, error) {
	if p == nil {
		return uniform.Fragment{}, nil, fmt.Errorf("%w: nil paint", ErrInvalidParameter)
	}
	frag := uniform.Fragment{
		InnerCol:   p.InnerColor.Premul(),
		OuterCol:   p.OuterColor.Premul(),
		Extent:     [2]float32{p.Extent.X, p.Extent.Y},
		StrokeMult: (width*0.5 + fringe*0.5) / fringe,
		StrokeThr:  strokeThr,
	}
	if clip == nil || clip.Extent.X < -0.5 || clip.Extent.Y < -0.5 {
		frag.ScissorExt = [2]float32{1, 1}
		frag.ScissorScale = [2]float32{1, 1}
	} else {
		frag.ScissorMat = mat3(clip.Transform.Invert())
		frag.ScissorExt = [2]float32{clip.Extent.X, clip.Extent.Y}
		sx, hx, _, hy, sy, _ := clip.Transform.Elems()
		frag.ScissorScale = [2]float32{
			float32(math.Hypot(float64(sx), float64(hx))) / fringe,
			float32(math.Hypot(float64(hy), float64(sy))) / fringe,
		}
	}
	if p.Image == 0 {
		frag.Type = uniform.KindGradient
		frag.Radius = p.Radius
		frag.Feather = p.Feather
		frag.PaintMat = mat3(p.Transform.Invert())
		return frag, nil, nil
	}
	t, ok := r.images.get(p.Image)
	if !ok {
		return frag, nil, fmt.Errorf("%w: image %d", ErrResourceMissing, p.Image)
	}
	xform := p.Transform
	if t.flags&ImageFlipY != 0 {
		// Mirror around the middle of the image.
		mid := f32.Pt(0, p.Extent.Y*0.5)
		xform = xform.Mul(f32.Affine2D{}.Scale(mid, f32.Pt(1, -1)))
	}
	frag.Type = uniform.KindImageFill
	frag.TexType = t.texType()
	frag.PaintMat = mat3(xform.Invert())
	return frag, t.tex, nil
}

// stencilPaint is the fragment block of stencil only passes. Color
// writes are disabled, so only its validity matters.
func stencilPaint() uniform.Fragment {
	return uniform.Fragment{
		ScissorExt:   [2]float32{1, 1},
		ScissorScale: [2]float32{1, 1},
		Feather:      1,
		StrokeMult:   1,
		StrokeThr:    -1,
		Type:         uniform.KindGradient,
	}
}

// mat3 converts a to a column major mat3 block member.
func mat3(a f32.Affine2D) uniform.Mat3 {
	sx, hx, ox, hy, sy, oy := a.Elems()
	return uniform.Mat3From(mgl32.Mat3{
		sx, hy, 0,
		hx, sy, 0,
		ox, oy, 1,
	})
}
