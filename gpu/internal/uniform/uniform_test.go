// SPDX-License-Identifier: Unlicense OR MIT

package uniform

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/internal/f32color"
	"github.com/go-gl/mathgl/mgl32"
)

func TestBlockSizes(t *testing.T) {
	if VertexSize != 80 {
		t.Errorf("vertex block size %d, want 80", VertexSize)
	}
	if FragmentSize != 176 {
		t.Errorf("fragment block size %d, want 176", FragmentSize)
	}
}

func TestFragmentOffsets(t *testing.T) {
	want := map[string]int{
		"scissorMat":   0,
		"paintMat":     48,
		"innerCol":     96,
		"outerCol":     112,
		"scissorExt":   128,
		"scissorScale": 136,
		"extent":       144,
		"radius":       152,
		"feather":      156,
		"strokeMult":   160,
		"strokeThr":    164,
		"texType":      168,
		"type":         172,
	}
	if len(fragmentFields) != len(want) {
		t.Fatalf("%d fragment fields, want %d", len(fragmentFields), len(want))
	}
	prev := -1
	for _, f := range fragmentFields {
		off, ok := want[f.Name]
		if !ok {
			t.Errorf("unexpected field %q", f.Name)
			continue
		}
		if f.Offset != off {
			t.Errorf("%s at offset %d, want %d", f.Name, f.Offset, off)
		}
		if f.Offset <= prev {
			t.Errorf("%s not in declaration order", f.Name)
		}
		prev = f.Offset
	}
}

func TestVertexOffsets(t *testing.T) {
	if got := vertexFields[0].Offset; got != 0 {
		t.Errorf("matrix at %d, want 0", got)
	}
	if got := vertexFields[1].Offset; got != 64 {
		t.Errorf("viewSize at %d, want 64", got)
	}
}

func TestProfileSlots(t *testing.T) {
	tests := []struct {
		p    driver.Profile
		vert driver.Slot
		frag driver.Slot
		tex  driver.Slot
	}{
		{driver.ProfileLegacy, driver.Slot{Binding: 0}, driver.Slot{Binding: 1}, driver.Slot{Binding: 0}},
		{driver.ProfileModern, driver.Slot{Set: 1, Binding: 1}, driver.Slot{Set: 1, Binding: 2}, driver.Slot{}},
	}
	for _, tc := range tests {
		l, err := NewLayout(tc.p)
		if err != nil {
			t.Fatal(err)
		}
		if l.Vertex.Slot != tc.vert || l.Fragment.Slot != tc.frag || l.Texture.Slot != tc.tex {
			t.Errorf("%v: slots %v %v %v, want %v %v %v", tc.p,
				l.Vertex.Slot, l.Fragment.Slot, l.Texture.Slot, tc.vert, tc.frag, tc.tex)
		}
		if l.Fragment.Size != FragmentSize || l.Vertex.Size != VertexSize {
			t.Errorf("%v: block sizes %d %d", tc.p, l.Vertex.Size, l.Fragment.Size)
		}
	}
	if _, err := NewLayout(driver.Profile(7)); err == nil {
		t.Error("unknown profile accepted")
	}
}

func TestPackFragment(t *testing.T) {
	l, err := NewLayout(driver.ProfileLegacy)
	if err != nil {
		t.Fatal(err)
	}
	f := &Fragment{
		ScissorMat: Mat3From(mgl32.Translate2D(3, 4)),
		PaintMat:   Mat3From(mgl32.Ident3()),
		InnerCol:   f32color.RGBA{R: 1, A: 1},
		OuterCol:   f32color.RGBA{B: 0.5, A: 0.5},
		Extent:     [2]float32{10, 20},
		Radius:     2,
		Feather:    1,
		StrokeMult: 1,
		StrokeThr:  -1,
		TexType:    TexAlpha,
		Type:       KindImageFill,
	}
	prefix := []byte{0xaa}
	buf, err := l.PackFragment(prefix, f)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != 1+FragmentSize {
		t.Fatalf("packed %d bytes, want %d", len(buf), 1+FragmentSize)
	}
	block := buf[1:]
	f32At := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(block[off:]))
	}
	i32At := func(off int) int32 {
		return int32(binary.LittleEndian.Uint32(block[off:]))
	}
	// Translation lives in the third column.
	if got := f32At(32); got != 3 {
		t.Errorf("scissorMat[2][0] = %v, want 3", got)
	}
	if got := f32At(36); got != 4 {
		t.Errorf("scissorMat[2][1] = %v, want 4", got)
	}
	if got := f32At(96); got != 1 {
		t.Errorf("innerCol.r = %v, want 1", got)
	}
	if got := f32At(120); got != 0.5 {
		t.Errorf("outerCol.b = %v, want 0.5", got)
	}
	if got := f32At(148); got != 20 {
		t.Errorf("extent.y = %v, want 20", got)
	}
	if got := f32At(164); got != -1 {
		t.Errorf("strokeThr = %v, want -1", got)
	}
	if got := i32At(168); got != int32(TexAlpha) {
		t.Errorf("texType = %d, want %d", got, TexAlpha)
	}
	if got := i32At(172); got != int32(KindImageFill) {
		t.Errorf("type = %d, want %d", got, KindImageFill)
	}

	again, err := l.PackFragment(nil, f)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again, block) {
		t.Error("packing is not deterministic")
	}
}

func TestPackFragmentInvalid(t *testing.T) {
	l, err := NewLayout(driver.ProfileModern)
	if err != nil {
		t.Fatal(err)
	}
	dst := []byte{1, 2, 3}
	for _, f := range []*Fragment{
		{Type: 3},
		{Type: -1},
		{TexType: 3},
	} {
		out, err := l.PackFragment(dst, f)
		if !errors.Is(err, ErrInvalidPaint) {
			t.Errorf("%+v: got error %v, want ErrInvalidPaint", f, err)
		}
		if len(out) != len(dst) {
			t.Errorf("%+v: invalid paint wrote %d bytes", f, len(out)-len(dst))
		}
	}
}

func TestPackVertex(t *testing.T) {
	l, err := NewLayout(driver.ProfileLegacy)
	if err != nil {
		t.Fatal(err)
	}
	v := &Vertex{Matrix: mgl32.Ortho2D(0, 100, 50, 0), ViewSize: [2]float32{100, 50}}
	buf := l.PackVertex(nil, v)
	if len(buf) != VertexSize {
		t.Fatalf("packed %d bytes, want %d", len(buf), VertexSize)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[64:])); got != 100 {
		t.Errorf("viewSize.x = %v, want 100", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])); got != v.Matrix[0] {
		t.Errorf("matrix[0] = %v, want %v", got, v.Matrix[0])
	}
}

func TestMat3RoundTrip(t *testing.T) {
	m := mgl32.Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	p := Mat3From(m)
	if p[1][3] != 0 {
		t.Error("column padding not zero")
	}
	if got := p.Mat3(); got != m {
		t.Errorf("got %v, want %v", got, m)
	}
}
