// SPDX-License-Identifier: Unlicense OR MIT

package opengl

import (
	"testing"

	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/internal/gl"
)

func TestStencilFace(t *testing.T) {
	ops := driver.StencilOps{
		Fail:      driver.StencilZero,
		DepthFail: driver.StencilZero,
		Pass:      driver.StencilIncrWrap,
	}
	got := toStencilFace(toGLCompareFunc(driver.CompareNotEqual), ops)
	want := stencilFace{
		fn:    gl.NOTEQUAL,
		mask:  0xff,
		fail:  gl.ZERO,
		zfail: gl.ZERO,
		pass:  gl.INCR_WRAP,
	}
	if got != want {
		t.Errorf("stencil face %+v, expected %+v", got, want)
	}
}

func TestEnumMappings(t *testing.T) {
	tests := []struct {
		name      string
		got, want gl.Enum
	}{
		{"strip", toGLDrawMode(driver.DrawModeTriangleStrip), gl.TRIANGLE_STRIP},
		{"triangles", toGLDrawMode(driver.DrawModeTriangles), gl.TRIANGLES},
		{"one", toGLBlendFactor(driver.BlendFactorOne), gl.ONE},
		{"one minus src alpha", toGLBlendFactor(driver.BlendFactorOneMinusSrcAlpha), gl.ONE_MINUS_SRC_ALPHA},
		{"always", toGLCompareFunc(driver.CompareAlways), gl.ALWAYS},
		{"equal", toGLCompareFunc(driver.CompareEqual), gl.EQUAL},
		{"keep", toGLStencilOp(driver.StencilKeep), gl.KEEP},
		{"incr", toGLStencilOp(driver.StencilIncr), gl.INCR},
		{"decr wrap", toGLStencilOp(driver.StencilDecrWrap), gl.DECR_WRAP},
	}
	for _, test := range tests {
		if test.got != test.want {
			t.Errorf("%s: got %#x, expected %#x", test.name, test.got, test.want)
		}
	}
	if f := toTexFilter(driver.FilterNearest); f != gl.NEAREST {
		t.Errorf("nearest filter: got %#x", f)
	}
}
