// SPDX-License-Identifier: Unlicense OR MIT

// Package uniform packs per-draw paint state into the std140 uniform
// blocks declared by the vector shaders.
//
// The Go types mirror the GLSL declarations field by field; any change
// to the block text must be made here in the same order.
package uniform

import (
	"errors"
	"fmt"
	"structs"
	"unsafe"

	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/internal/f32color"
	"gioui.org/shader"
	"github.com/go-gl/mathgl/mgl32"
	"honnef.co/go/safeish"
)

// Kind selects the paint evaluated by the fragment shader.
type Kind int32

// TexType selects how sampled texels are interpreted.
type TexType int32

const (
	// KindGradient is a box gradient fill.
	KindGradient Kind = 0
	// KindImageFill samples an image in paint space.
	KindImageFill Kind = 1
	// KindImageDraw samples an image at the vertex texture
	// coordinates.
	KindImageDraw Kind = 2
)

const (
	// TexRGBA uses premultiplied texels as is.
	TexRGBA TexType = 0
	// TexPremultiply multiplies straight alpha texels by alpha.
	TexPremultiply TexType = 1
	// TexAlpha replicates the first channel into all four.
	TexAlpha TexType = 2
)

// ErrInvalidPaint is returned for a Kind or TexType outside the
// defined enumerations.
var ErrInvalidPaint = errors.New("uniform: invalid paint")

// Mat3 is a column-major mat3 in std140 layout: three columns, each
// padded to a vec4.
type Mat3 [3][4]float32

// Vertex mirrors VertexUniformBlock.
type Vertex struct {
	_        structs.HostLayout
	Matrix   mgl32.Mat4
	ViewSize [2]float32
	_        [2]float32
}

// Fragment mirrors FragmentUniformBlock.
type Fragment struct {
	_            structs.HostLayout
	ScissorMat   Mat3
	PaintMat     Mat3
	InnerCol     f32color.RGBA
	OuterCol     f32color.RGBA
	ScissorExt   [2]float32
	ScissorScale [2]float32
	Extent       [2]float32
	Radius       float32
	Feather      float32
	StrokeMult   float32
	StrokeThr    float32
	TexType      TexType
	Type         Kind
}

const (
	VertexSize   = int(unsafe.Sizeof(Vertex{}))
	FragmentSize = int(unsafe.Sizeof(Fragment{}))
)

// Block names and the sampler name shared by every profile.
const (
	VertexBlockName   = "VertexUniformBlock"
	FragmentBlockName = "FragmentUniformBlock"
	SamplerName       = "textureUnit"
)

// Layout is the uniform interface of the shaders for one profile.
type Layout struct {
	Profile  driver.Profile
	Vertex   driver.UniformBlock
	Fragment driver.UniformBlock
	Texture  driver.TextureBinding
}

var (
	vertexFields = []shader.UniformLocation{
		{Name: "matrix", Type: shader.DataTypeFloat, Size: 16, Offset: int(unsafe.Offsetof(Vertex{}.Matrix))},
		{Name: "viewSize", Type: shader.DataTypeFloat, Size: 2, Offset: int(unsafe.Offsetof(Vertex{}.ViewSize))},
	}
	fragmentFields = []shader.UniformLocation{
		{Name: "scissorMat", Type: shader.DataTypeFloat, Size: 9, Offset: int(unsafe.Offsetof(Fragment{}.ScissorMat))},
		{Name: "paintMat", Type: shader.DataTypeFloat, Size: 9, Offset: int(unsafe.Offsetof(Fragment{}.PaintMat))},
		{Name: "innerCol", Type: shader.DataTypeFloat, Size: 4, Offset: int(unsafe.Offsetof(Fragment{}.InnerCol))},
		{Name: "outerCol", Type: shader.DataTypeFloat, Size: 4, Offset: int(unsafe.Offsetof(Fragment{}.OuterCol))},
		{Name: "scissorExt", Type: shader.DataTypeFloat, Size: 2, Offset: int(unsafe.Offsetof(Fragment{}.ScissorExt))},
		{Name: "scissorScale", Type: shader.DataTypeFloat, Size: 2, Offset: int(unsafe.Offsetof(Fragment{}.ScissorScale))},
		{Name: "extent", Type: shader.DataTypeFloat, Size: 2, Offset: int(unsafe.Offsetof(Fragment{}.Extent))},
		{Name: "radius", Type: shader.DataTypeFloat, Size: 1, Offset: int(unsafe.Offsetof(Fragment{}.Radius))},
		{Name: "feather", Type: shader.DataTypeFloat, Size: 1, Offset: int(unsafe.Offsetof(Fragment{}.Feather))},
		{Name: "strokeMult", Type: shader.DataTypeFloat, Size: 1, Offset: int(unsafe.Offsetof(Fragment{}.StrokeMult))},
		{Name: "strokeThr", Type: shader.DataTypeFloat, Size: 1, Offset: int(unsafe.Offsetof(Fragment{}.StrokeThr))},
		{Name: "texType", Type: shader.DataTypeInt, Size: 1, Offset: int(unsafe.Offsetof(Fragment{}.TexType))},
		{Name: "type", Type: shader.DataTypeInt, Size: 1, Offset: int(unsafe.Offsetof(Fragment{}.Type))},
	}
)

// NewLayout returns the uniform layout for profile p.
//
// The packing is std140 for both profiles; they differ in where the
// blocks and the sampler are bound. The legacy profile has no binding
// qualifiers, so the device assigns vertex blocks first and fragment
// blocks after them.
func NewLayout(p driver.Profile) (*Layout, error) {
	l := &Layout{
		Profile: p,
		Vertex: driver.UniformBlock{
			Name:   VertexBlockName,
			Size:   VertexSize,
			Fields: vertexFields,
		},
		Fragment: driver.UniformBlock{
			Name:   FragmentBlockName,
			Size:   FragmentSize,
			Fields: fragmentFields,
		},
		Texture: driver.TextureBinding{Name: SamplerName},
	}
	switch p {
	case driver.ProfileLegacy:
		l.Vertex.Slot = driver.Slot{Binding: 0}
		l.Fragment.Slot = driver.Slot{Binding: 1}
		l.Texture.Slot = driver.Slot{Binding: 0}
	case driver.ProfileModern:
		l.Vertex.Slot = driver.Slot{Set: 1, Binding: 1}
		l.Fragment.Slot = driver.Slot{Set: 1, Binding: 2}
		l.Texture.Slot = driver.Slot{Set: 0, Binding: 0}
	default:
		return nil, fmt.Errorf("uniform: unknown profile %d", p)
	}
	return l, nil
}

// PackVertex appends the block image of v to dst.
func (l *Layout) PackVertex(dst []byte, v *Vertex) []byte {
	return append(dst, safeish.AsBytes(v)...)
}

// PackFragment validates f and appends its block image to dst. An
// invalid f leaves dst unchanged.
func (l *Layout) PackFragment(dst []byte, f *Fragment) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return dst, err
	}
	return append(dst, safeish.AsBytes(f)...), nil
}

// Validate reports whether the paint enumerations of f are defined.
func (f *Fragment) Validate() error {
	if !f.Type.Valid() {
		return fmt.Errorf("%w: paint kind %d", ErrInvalidPaint, f.Type)
	}
	if !f.TexType.Valid() {
		return fmt.Errorf("%w: texture type %d", ErrInvalidPaint, f.TexType)
	}
	return nil
}

func (k Kind) Valid() bool {
	return k >= KindGradient && k <= KindImageDraw
}

func (t TexType) Valid() bool {
	return t >= TexRGBA && t <= TexAlpha
}

func (k Kind) String() string {
	switch k {
	case KindGradient:
		return "gradient"
	case KindImageFill:
		return "image-fill"
	case KindImageDraw:
		return "image-draw"
	default:
		return fmt.Sprintf("Kind(%d)", int32(k))
	}
}

// Mat3From converts m to the std140 column layout.
func Mat3From(m mgl32.Mat3) Mat3 {
	return Mat3{
		{m[0], m[1], m[2], 0},
		{m[3], m[4], m[5], 0},
		{m[6], m[7], m[8], 0},
	}
}

// Mat3 returns m without column padding.
func (m Mat3) Mat3() mgl32.Mat3 {
	return mgl32.Mat3{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	}
}
