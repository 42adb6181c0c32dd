// SPDX-License-Identifier: Unlicense OR MIT

package f32color

import (
	"image/color"
	"math"
)

// RGBA is a 32 bit floating point color. Whether the components are
// premultiplied by alpha depends on where the value comes from: paint
// colors are straight, uniform block colors are premultiplied.
type RGBA struct {
	R, G, B, A float32
}

// Array returns col as a [4]float32 array.
func (col RGBA) Array() [4]float32 {
	return [4]float32{col.R, col.G, col.B, col.A}
}

// Premul returns col with the color components multiplied by alpha.
func (col RGBA) Premul() RGBA {
	return RGBA{R: col.R * col.A, G: col.G * col.A, B: col.B * col.A, A: col.A}
}

// Lerp returns the linear interpolation of col and to by t, the way
// GLSL mix does.
func (col RGBA) Lerp(to RGBA, t float32) RGBA {
	return RGBA{
		R: col.R + (to.R-col.R)*t,
		G: col.G + (to.G-col.G)*t,
		B: col.B + (to.B-col.B)*t,
		A: col.A + (to.A-col.A)*t,
	}
}

// FromNRGBA converts a non-premultiplied 8 bit color to a straight
// float color without any colorspace conversion.
func FromNRGBA(col color.NRGBA) RGBA {
	return RGBA{
		R: float32(col.R) / 0xff,
		G: float32(col.G) / 0xff,
		B: float32(col.B) / 0xff,
		A: float32(col.A) / 0xff,
	}
}

// RGBA8 converts col, which must be premultiplied, to an 8 bit color.
func (col RGBA) RGBA8() color.RGBA {
	return color.RGBA{
		R: to8(col.R),
		G: to8(col.G),
		B: to8(col.B),
		A: to8(col.A),
	}
}

// SRGB converts from linear to sRGB color space.
func (col RGBA) SRGB() color.NRGBA {
	if col.A == 0 {
		return color.NRGBA{}
	}
	return color.NRGBA{
		R: uint8(linearTosRGB(col.R/col.A)*255 + .5),
		G: uint8(linearTosRGB(col.G/col.A)*255 + .5),
		B: uint8(linearTosRGB(col.B/col.A)*255 + .5),
		A: uint8(col.A*255 + .5),
	}
}

// LinearFromSRGB converts from col in the sRGB colorspace to a
// premultiplied linear RGBA.
func LinearFromSRGB(col color.NRGBA) RGBA {
	af := float32(col.A) / 0xFF
	return RGBA{
		R: sRGBToLinear(float32(col.R)/0xff) * af,
		G: sRGBToLinear(float32(col.G)/0xff) * af,
		B: sRGBToLinear(float32(col.B)/0xff) * af,
		A: af,
	}
}

// NRGBAToLinearRGBA converts from non-premultiplied sRGB color to
// premultiplied linear RGBA color.
func NRGBAToLinearRGBA(col color.NRGBA) color.RGBA {
	if col.A == 0xFF {
		return color.RGBA(col)
	}
	c := LinearFromSRGB(col)
	return color.RGBA{
		R: uint8(c.R*255 + .5),
		G: uint8(c.G*255 + .5),
		B: uint8(c.B*255 + .5),
		A: col.A,
	}
}

// NRGBAToRGBA converts from non-premultiplied to premultiplied 8 bit
// color, without colorspace conversion.
func NRGBAToRGBA(col color.NRGBA) color.RGBA {
	if col.A == 0xFF {
		return color.RGBA(col)
	}
	r, g, b, a := col.RGBA()
	return color.RGBA{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
		A: uint8(a >> 8),
	}
}

func to8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xff
	}
	return uint8(v*255 + .5)
}

// linearTosRGB transforms color value from linear to sRGB.
func linearTosRGB(c float32) float32 {
	// Formula from EXT_sRGB.
	switch {
	case c <= 0:
		return 0
	case 0 < c && c < 0.0031308:
		return 12.92 * c
	case 0.0031308 <= c && c < 1:
		return 1.055*float32(math.Pow(float64(c), 1/2.4)) - 0.055
	}
	return 1
}

// sRGBToLinear transforms color value from sRGB to linear.
func sRGBToLinear(c float32) float32 {
	// Formula from EXT_sRGB.
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow(float64((c+0.055)/1.055), 2.4))
}
