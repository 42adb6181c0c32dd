// SPDX-License-Identifier: Unlicense OR MIT

package driver

import (
	"image"

	"gioui.org/shader"
)

// Device represents the abstraction of underlying GPU
// APIs such as OpenGL or Metal useful for rendering vector
// graphics. The renderer only creates shaders, pipelines and
// scratch buffers through it; framebuffers, command queues and
// presentation belong to the caller.
type Device interface {
	Caps() Caps
	NewTexture(format TextureFormat, width, height int, minFilter, magFilter TextureFilter, bindings BufferBinding) (Texture, error)
	// NewFramebuffer creates a framebuffer rendering to tex, with a
	// stencil attachment if stencil is set.
	NewFramebuffer(tex Texture, stencil bool) (Framebuffer, error)
	NewBuffer(typ BufferBinding, size int) (Buffer, error)
	NewVertexShader(src ShaderSources) (VertexShader, error)
	NewFragmentShader(src ShaderSources) (FragmentShader, error)
	NewPipeline(desc PipelineDesc) (Pipeline, error)

	// BeginFrame starts encoding commands targeting target. The
	// returned encoder is valid until its EndEncoding.
	BeginFrame(target RenderTarget, load LoadDesc, viewport image.Point) (RenderEncoder, error)

	Release()
}

// RenderEncoder is the command encoder of a single frame. Every draw
// must be preceded by the bindings it reads; bindings persist between
// draws of the same encoder.
type RenderEncoder interface {
	BindPipeline(p Pipeline)
	// BindUniforms binds size bytes at offset in buf to the uniform
	// block at slot.
	BindUniforms(slot Slot, buf Buffer, offset, size int)
	BindTexture(slot Slot, t Texture)
	BindVertexBuffer(b Buffer, offset int)
	BindIndexBuffer(b Buffer)
	DrawArrays(mode DrawMode, off, count int)
	// DrawElements draws count 32-bit indices starting at index off.
	DrawElements(mode DrawMode, off, count int)
	EndEncoding()
}

type LoadDesc struct {
	Action     LoadAction
	ClearColor struct {
		R float32
		G float32
		B float32
		A float32
	}
}

type Pipeline interface {
	Release()
}

type PipelineDesc struct {
	VertexShader   VertexShader
	FragmentShader FragmentShader
	VertexLayout   VertexLayout
	BlendDesc      BlendDesc
	StencilDesc    StencilDesc
	// ColorWriteDisable turns off writes to the color attachment, for
	// passes that only update the stencil buffer.
	ColorWriteDisable bool
	PixelFormat       TextureFormat
}

type VertexLayout struct {
	Inputs []InputDesc
	Stride int
}

// InputDesc describes a vertex attribute as laid out in a Buffer.
type InputDesc struct {
	Type shader.DataType
	Size int

	Offset int
}

type BlendDesc struct {
	Enable               bool
	SrcFactor, DstFactor BlendFactor
}

// StencilDesc describes the stencil test and the operations applied to
// front and back facing triangles. The reference value is always 0.
type StencilDesc struct {
	Enable      bool
	Func        CompareFunc
	Front, Back StencilOps
}

type StencilOps struct {
	Fail, DepthFail, Pass StencilOp
}

// ShaderSources is the text and reflection data of one shader stage
// for a single Profile.
type ShaderSources struct {
	Name    string
	Profile Profile
	Source  string
	// Inputs is the vertex inputs, indexed by location.
	Inputs   []shader.InputLocation
	Blocks   []UniformBlock
	Textures []TextureBinding
}

// UniformBlock describes a uniform block declared by a shader.
type UniformBlock struct {
	Name string
	Slot Slot
	Size int
	// Fields lists the block members in declaration order with their
	// std140 offsets.
	Fields []shader.UniformLocation
}

// TextureBinding describes a sampler declared by a shader.
type TextureBinding struct {
	Name string
	Slot Slot
}

// Slot is a resource binding point. Set is ignored by devices without
// descriptor sets.
type Slot struct {
	Set     int
	Binding int
}

// Profile is the shading language version and binding convention
// that shader text targets.
type Profile uint8

// Profiles is a set of Profile values.
type Profiles uint8

type BlendFactor uint8

type CompareFunc uint8

type StencilOp uint8

type DrawMode uint8

type TextureFilter uint8
type TextureFormat uint8

type BufferBinding uint8

type LoadAction uint8

type Caps struct {
	// BottomLeftOrigin is true if the driver has the origin in the lower left
	// corner. The OpenGL driver returns true.
	BottomLeftOrigin bool
	Profiles         Profiles
	MaxTextureSize   int
	// UniformBufferAlignment is the required alignment of uniform
	// buffer offsets passed to BindUniforms.
	UniformBufferAlignment int
}

type VertexShader interface {
	Release()
}

type FragmentShader interface {
	Release()
}

type Buffer interface {
	Release()
	// Upload data at byte offset off.
	Upload(off int, data []byte)
}

type Framebuffer interface {
	RenderTarget
	Release()
	ReadPixels(src image.Rectangle, pixels []byte, stride int) error
}

type Texture interface {
	Upload(offset, size image.Point, pixels []byte, stride int)
	Release()
}

const (
	// ProfileLegacy is GLSL 4.10 with std140 blocks bound by name.
	ProfileLegacy Profile = iota
	// ProfileModern is GLSL 4.60 with explicit set and binding
	// qualifiers.
	ProfileModern
)

const (
	BufferBindingIndices BufferBinding = 1 << iota
	BufferBindingVertices
	BufferBindingUniforms
	BufferBindingTexture
	BufferBindingFramebuffer
)

const (
	TextureFormatRGBA8 TextureFormat = iota
	// TextureFormatR8 is a single channel texture.
	TextureFormatR8
	// TextureFormatOutput denotes the format used by the output framebuffer.
	TextureFormatOutput
)

const (
	FilterNearest TextureFilter = iota
	FilterLinear
)

const (
	DrawModeTriangleStrip DrawMode = iota
	DrawModeTriangles
)

const (
	BlendFactorOne BlendFactor = iota
	BlendFactorOneMinusSrcAlpha
)

const (
	CompareAlways CompareFunc = iota
	CompareEqual
	CompareNotEqual
)

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilIncr
	StencilIncrWrap
	StencilDecrWrap
)

const (
	LoadActionKeep LoadAction = iota
	LoadActionClear
)

func (p Profile) String() string {
	switch p {
	case ProfileLegacy:
		return "legacy"
	case ProfileModern:
		return "modern"
	default:
		return "unknown"
	}
}

// ProfileSet returns the set containing profiles.
func ProfileSet(profiles ...Profile) Profiles {
	var s Profiles
	for _, p := range profiles {
		s |= 1 << p
	}
	return s
}

func (s Profiles) Has(p Profile) bool {
	return s&(1<<p) != 0
}

func DownloadImage(d Device, f Framebuffer, r image.Rectangle) (*image.RGBA, error) {
	img := image.NewRGBA(r)
	if err := f.ReadPixels(r, img.Pix, img.Stride); err != nil {
		return nil, err
	}
	if d.Caps().BottomLeftOrigin {
		// OpenGL origin is in the lower-left corner. Flip the image to
		// match.
		flipImageY(r.Dx()*4, r.Dy(), img.Pix)
	}
	return img, nil
}

func flipImageY(stride, height int, pixels []byte) {
	// Flip image in y-direction. OpenGL's origin is in the lower
	// left corner.
	row := make([]uint8, stride)
	for y := 0; y < height/2; y++ {
		y1 := height - y - 1
		dest := y1 * stride
		src := y * stride
		copy(row, pixels[dest:])
		copy(pixels[dest:], pixels[src:src+len(row)])
		copy(pixels[src:], row)
	}
}

func UploadImage(t Texture, offset image.Point, img *image.RGBA) {
	var pixels []byte
	size := img.Bounds().Size()
	min := img.Rect.Min
	start := img.PixOffset(min.X, min.Y)
	end := img.PixOffset(min.X+size.X, min.Y+size.Y-1)
	pixels = img.Pix[start:end]
	t.Upload(offset, size, pixels, img.Stride)
}
