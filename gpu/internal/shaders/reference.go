// SPDX-License-Identifier: Unlicense OR MIT

package shaders

import (
	"gioui.org/nanovg/gpu/internal/uniform"
	"github.com/go-gl/mathgl/mgl32"
)

// Sampler returns the texel at normalized coordinates uv.
type Sampler func(uv mgl32.Vec2) mgl32.Vec4

// Reference evaluates the fragment body of variant v on the CPU for
// the fragment at position fpos with texture coordinate ftcoord. A nil
// tex samples transparent black.
func Reference(v Variant, u *uniform.Fragment, tex Sampler, fpos, ftcoord mgl32.Vec2) mgl32.Vec4 {
	if tex == nil {
		tex = func(mgl32.Vec2) mgl32.Vec4 { return mgl32.Vec4{} }
	}
	r := reference{u: u, tex: tex}
	if v == AntiAliasing {
		return r.antiAliased(fpos, ftcoord)
	}
	return r.aliased(fpos, ftcoord)
}

type reference struct {
	u   *uniform.Fragment
	tex Sampler
}

func (r reference) aliased(fpos, ftcoord mgl32.Vec2) mgl32.Vec4 {
	scissor := ScissorMask(r.u, fpos)
	if scissor == 0 {
		return mgl32.Vec4{}
	}
	switch r.u.Type {
	case uniform.KindGradient:
		return r.gradient(fpos).Mul(scissor)
	case uniform.KindImageFill:
		c := r.sample(r.paintCoord(fpos)).Mul(scissor)
		return mulVec4(c, r.innerCol())
	default:
		c := r.sample(ftcoord).Mul(scissor)
		return mulVec4(c, r.innerCol())
	}
}

func (r reference) antiAliased(fpos, ftcoord mgl32.Vec2) mgl32.Vec4 {
	scissor := ScissorMask(r.u, fpos)
	if scissor == 0 {
		return mgl32.Vec4{}
	}
	if r.u.Type == uniform.KindImageDraw {
		c := r.sample(ftcoord).Mul(scissor)
		return mulVec4(c, r.innerCol())
	}
	strokeAlpha := StrokeMask(r.u, ftcoord)
	if strokeAlpha < r.u.StrokeThr {
		return mgl32.Vec4{}
	}
	if r.u.Type == uniform.KindGradient {
		return r.gradient(fpos).Mul(scissor).Mul(strokeAlpha)
	}
	c := r.sample(r.paintCoord(fpos)).Mul(scissor).Mul(strokeAlpha)
	return mulVec4(c, r.innerCol())
}

func (r reference) gradient(fpos mgl32.Vec2) mgl32.Vec4 {
	pt := r.u.PaintMat.Mat3().Mul3x1(fpos.Vec3(1)).Vec2()
	d := GradientFactor(r.u, pt)
	inner, outer := mgl32.Vec4(r.u.InnerCol.Array()), mgl32.Vec4(r.u.OuterCol.Array())
	return inner.Add(outer.Sub(inner).Mul(d))
}

func (r reference) paintCoord(fpos mgl32.Vec2) mgl32.Vec2 {
	pt := r.u.PaintMat.Mat3().Mul3x1(fpos.Vec3(1)).Vec2()
	return mgl32.Vec2{pt[0] / r.u.Extent[0], pt[1] / r.u.Extent[1]}
}

func (r reference) sample(uv mgl32.Vec2) mgl32.Vec4 {
	return TexelColor(r.u.TexType, r.tex(uv))
}

func (r reference) innerCol() mgl32.Vec4 {
	return mgl32.Vec4(r.u.InnerCol.Array())
}

// ScissorMask mirrors scissorMask.
func ScissorMask(u *uniform.Fragment, p mgl32.Vec2) float32 {
	q := u.ScissorMat.Mat3().Mul3x1(p.Vec3(1))
	scx := (abs(q[0]) - u.ScissorExt[0]) * u.ScissorScale[0]
	scy := (abs(q[1]) - u.ScissorExt[1]) * u.ScissorScale[1]
	scx = mgl32.Clamp(0.5-scx, 0, 1)
	scy = mgl32.Clamp(0.5-scy, 0, 1)
	return scx * scy
}

// SDRoundRect mirrors sdroundrect.
func SDRoundRect(u *uniform.Fragment, pt mgl32.Vec2) float32 {
	ext2 := mgl32.Vec2{u.Extent[0] - u.Radius, u.Extent[1] - u.Radius}
	d := mgl32.Vec2{abs(pt[0]) - ext2[0], abs(pt[1]) - ext2[1]}
	outside := mgl32.Vec2{max(d[0], 0), max(d[1], 0)}
	return min(max(d[0], d[1]), 0) + outside.Len() - u.Radius
}

// StrokeMask mirrors strokeMask.
func StrokeMask(u *uniform.Fragment, ftcoord mgl32.Vec2) float32 {
	return min(1, (1-abs(ftcoord[0]*2-1))*u.StrokeMult) * min(1, ftcoord[1])
}

// GradientFactor returns the blend factor between the inner and the
// outer color at paint space point pt.
func GradientFactor(u *uniform.Fragment, pt mgl32.Vec2) float32 {
	return mgl32.Clamp((u.Feather*0.5+SDRoundRect(u, pt))/u.Feather, 0, 1)
}

// TexelColor applies the texture type to a sampled texel. Unknown
// types pass the texel through.
func TexelColor(t uniform.TexType, c mgl32.Vec4) mgl32.Vec4 {
	switch t {
	case uniform.TexPremultiply:
		return mgl32.Vec4{c[0] * c[3], c[1] * c[3], c[2] * c[3], c[3]}
	case uniform.TexAlpha:
		return mgl32.Vec4{c[0], c[0], c[0], c[0]}
	default:
		return c
	}
}

func mulVec4(a, b mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
