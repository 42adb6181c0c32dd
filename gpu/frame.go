// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"gioui.org/nanovg/f32"
	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/gpu/internal/uniform"
	"github.com/go-gl/mathgl/mgl32"
	"honnef.co/go/safeish"
)

// Vertex is a path vertex in logical coordinates with its texture or
// stroke coordinate.
type Vertex struct {
	X, Y float32
	U, V float32
}

// DrawMode is the primitive topology of a Geometry.
type DrawMode uint8

const (
	Triangles DrawMode = iota
	TriangleStrip
	// TriangleFan is converted to indexed triangles.
	TriangleFan
)

// Geometry is the vertex data of a draw. Indices, if any, refer to
// Vertices.
type Geometry struct {
	Mode     DrawMode
	Vertices []Vertex
	Indices  []uint32
}

// Path is a tessellated path. Fill is a triangle fan covering the
// path; Stroke is a triangle strip of its stroke or of its
// anti-aliasing fringe.
type Path struct {
	Fill   []Vertex
	Stroke []Vertex
	Convex bool
}

// pass is a validated draw call.
type pass struct {
	state   renderState
	frag    *uniform.Fragment
	tex     driver.Texture
	mode    driver.DrawMode
	verts   []Vertex
	indices []uint32
}

// BeginFrame starts a frame drawing into target. The logical size of
// the frame is viewport divided by pixelRatio.
func (r *Renderer) BeginFrame(target RenderTarget, viewport image.Point, pixelRatio float32) error {
	if r.state != frameIdle {
		return r.invalidState("BeginFrame")
	}
	if !(pixelRatio > 0) || math.IsInf(float64(pixelRatio), 0) {
		return fmt.Errorf("%w: pixel ratio %v", ErrInvalidParameter, pixelRatio)
	}
	if viewport.X < 0 || viewport.Y < 0 {
		return fmt.Errorf("%w: viewport %v", ErrInvalidParameter, viewport)
	}
	load := driver.LoadDesc{Action: driver.LoadActionKeep}
	if r.clear {
		load.Action = driver.LoadActionClear
		c := r.clearColor
		load.ClearColor.R, load.ClearColor.G, load.ClearColor.B, load.ClearColor.A = c.R, c.G, c.B, c.A
	}
	enc, err := r.shared.dev.BeginFrame(target, load, viewport)
	if err != nil {
		return fmt.Errorf("gpu: begin frame: %w", err)
	}
	r.clear = false
	r.enc = enc
	r.pipeline = nil
	r.transform = mgl32.Ident4()
	r.view = f32.Pt(float32(viewport.X)/pixelRatio, float32(viewport.Y)/pixelRatio)
	r.scratch.next()
	r.state = frameOpen
	logger().Debug("frame begin", slog.Any("viewport", viewport), slog.Float64("pixelRatio", float64(pixelRatio)))
	return nil
}

// ViewSize returns the logical size of the current or last frame.
func (r *Renderer) ViewSize() f32.Point {
	return r.view
}

// SetTransform sets the matrix applied to the clip space position of
// every following vertex of the frame, such as a display pre-rotation.
// BeginFrame resets it to the identity.
func (r *Renderer) SetTransform(m mgl32.Mat4) error {
	if r.state != frameOpen {
		return r.invalidState("SetTransform")
	}
	r.transform = m
	return nil
}

// EndFrame ends the frame. The target is ready to present when
// EndFrame returns. Images deleted during the frame are released.
func (r *Renderer) EndFrame() error {
	if r.state != frameOpen {
		return r.invalidState("EndFrame")
	}
	r.enc.EndEncoding()
	r.state = frameClosed
	r.finishFrame()
	logger().Debug("frame end")
	return nil
}

// CancelFrame abandons the open frame, if any. The caller must discard
// the target contents. Draws already encoded are not undone.
func (r *Renderer) CancelFrame() {
	if r.state != frameOpen {
		return
	}
	r.enc.EndEncoding()
	r.finishFrame()
	logger().Debug("frame canceled")
}

func (r *Renderer) finishFrame() {
	r.enc = nil
	r.pipeline = nil
	r.images.frame()
	r.state = frameIdle
}

// EncodeDraw draws g with a paint of the given kind, clipped by clip.
// Image kinds sample the image of p; PaintImageDraw samples it at the
// vertex texture coordinates.
func (r *Renderer) EncodeDraw(kind PaintKind, p *Paint, g Geometry, clip *Scissor) error {
	if r.state != frameOpen {
		return r.invalidState("EncodeDraw")
	}
	if !kind.Valid() {
		return r.reject("EncodeDraw", fmt.Errorf("%w: %w: kind %d", ErrInvalidParameter, uniform.ErrInvalidPaint, kind))
	}
	if p == nil {
		return r.reject("EncodeDraw", fmt.Errorf("%w: nil paint", ErrInvalidParameter))
	}
	if (kind == PaintGradient) != (p.Image == 0) {
		return r.reject("EncodeDraw", fmt.Errorf("%w: %v paint with image %d", ErrInvalidParameter, kind, p.Image))
	}
	frag, tex, err := r.convertPaint(p, clip, 1, 1, -1)
	if err != nil {
		return r.reject("EncodeDraw", err)
	}
	frag.Type = kind
	ps, err := r.passes(nil, stateBlend, &frag, tex, g)
	if err != nil {
		return r.reject("EncodeDraw", err)
	}
	return r.encode(ps)
}

// Fill fills paths. Fringe is the width of the anti-aliasing fringe
// in logical units and bounds covers every path.
//
// A single convex path is drawn directly. Otherwise the path winding
// is accumulated in the stencil buffer and the non-zero area is
// covered with the paint.
func (r *Renderer) Fill(p *Paint, clip *Scissor, fringe float32, bounds f32.Rectangle, paths []Path) error {
	if r.state != frameOpen {
		return r.invalidState("Fill")
	}
	if !(fringe > 0) {
		return r.reject("Fill", fmt.Errorf("%w: fringe %v", ErrInvalidParameter, fringe))
	}
	frag, tex, err := r.convertPaint(p, clip, fringe, fringe, -1)
	if err != nil {
		return r.reject("Fill", err)
	}
	var ps []pass
	if len(paths) == 1 && paths[0].Convex {
		path := paths[0]
		ps, err = r.passes(ps, stateBlend, &frag, tex, Geometry{Mode: TriangleFan, Vertices: path.Fill})
		if err == nil && len(path.Stroke) > 0 {
			ps, err = r.passes(ps, stateBlend, &frag, tex, Geometry{Mode: TriangleStrip, Vertices: path.Stroke})
		}
	} else {
		stencil := stencilPaint()
		for _, path := range paths {
			if ps, err = r.passes(ps, stateFillStencil, &stencil, nil, Geometry{Mode: TriangleFan, Vertices: path.Fill}); err != nil {
				break
			}
		}
		if err == nil && r.opts.AntiAlias {
			for _, path := range paths {
				if ps, err = r.passes(ps, stateFillAA, &frag, tex, Geometry{Mode: TriangleStrip, Vertices: path.Stroke}); err != nil {
					break
				}
			}
		}
		if err == nil && len(ps) > 0 {
			ps, err = r.passes(ps, stateFillCover, &frag, tex, Geometry{Mode: TriangleStrip, Vertices: coverQuad(bounds)})
		}
	}
	if err != nil {
		return r.reject("Fill", err)
	}
	return r.encode(ps)
}

// Stroke draws the stroke strips of paths with the given stroke width.
//
// With Options.StencilStrokes the stroke is drawn in three passes: the
// stroke body where coverage is full, the anti-aliased edges outside
// the body, and a pass clearing the stencil.
func (r *Renderer) Stroke(p *Paint, clip *Scissor, fringe, strokeWidth float32, paths []Path) error {
	if r.state != frameOpen {
		return r.invalidState("Stroke")
	}
	if !(fringe > 0) || strokeWidth < 0 {
		return r.reject("Stroke", fmt.Errorf("%w: fringe %v, width %v", ErrInvalidParameter, fringe, strokeWidth))
	}
	frag, tex, err := r.convertPaint(p, clip, strokeWidth, fringe, -1)
	if err != nil {
		return r.reject("Stroke", err)
	}
	var ps []pass
	if r.opts.StencilStrokes {
		base := frag
		base.StrokeThr = 1.0 - 0.5/255.0
		states := []struct {
			state renderState
			frag  *uniform.Fragment
		}{
			{stateStrokeBase, &base},
			{stateStrokeAA, &frag},
			{stateStrokeClear, &frag},
		}
		for _, s := range states {
			for _, path := range paths {
				if ps, err = r.passes(ps, s.state, s.frag, tex, Geometry{Mode: TriangleStrip, Vertices: path.Stroke}); err != nil {
					return r.reject("Stroke", err)
				}
			}
		}
	} else {
		for _, path := range paths {
			if ps, err = r.passes(ps, stateBlend, &frag, tex, Geometry{Mode: TriangleStrip, Vertices: path.Stroke}); err != nil {
				return r.reject("Stroke", err)
			}
		}
	}
	return r.encode(ps)
}

// Triangles draws verts as a triangle list sampling the image of p at
// the vertex texture coordinates, as used for text.
func (r *Renderer) Triangles(p *Paint, clip *Scissor, verts []Vertex) error {
	return r.EncodeDraw(PaintImageDraw, p, Geometry{Mode: Triangles, Vertices: verts}, clip)
}

// passes validates g and appends the resulting pass to ps. Empty
// geometry adds nothing.
func (r *Renderer) passes(ps []pass, state renderState, frag *uniform.Fragment, tex driver.Texture, g Geometry) ([]pass, error) {
	if err := frag.Validate(); err != nil {
		return ps, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	n := len(g.Vertices)
	for _, idx := range g.Indices {
		if int(idx) >= n {
			return ps, fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidParameter, idx, n)
		}
	}
	p := pass{state: state, frag: frag, tex: tex, verts: g.Vertices, indices: g.Indices}
	switch g.Mode {
	case Triangles:
		p.mode = driver.DrawModeTriangles
	case TriangleStrip:
		p.mode = driver.DrawModeTriangleStrip
	case TriangleFan:
		p.mode = driver.DrawModeTriangles
		p.indices = fanIndices(g.Indices, n)
	default:
		return ps, fmt.Errorf("%w: draw mode %d", ErrInvalidParameter, g.Mode)
	}
	if n == 0 || (g.Mode == TriangleFan && len(p.indices) == 0) {
		return ps, nil
	}
	return append(ps, p), nil
}

// encode issues the draw calls of ps.
func (r *Renderer) encode(ps []pass) error {
	fs := r.scratch.frame()
	align := r.caps.UniformBufferAlignment
	vert := uniform.Vertex{
		Matrix:   r.transform,
		ViewSize: [2]float32{r.view.X, r.view.Y},
	}
	for _, p := range ps {
		r.ubuf = r.layout.PackVertex(r.ubuf[:0], &vert)
		vbuf, voff, err := fs.uniforms.alloc(r.ubuf, align)
		if err != nil {
			return err
		}
		r.ubuf, err = r.layout.PackFragment(r.ubuf[:0], p.frag)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
		}
		fbuf, foff, err := fs.uniforms.alloc(r.ubuf, align)
		if err != nil {
			return err
		}
		verts, vertOff, err := fs.vertices.alloc(safeish.SliceCast[[]byte](p.verts), vertexLayout.Stride)
		if err != nil {
			return err
		}
		var (
			indices driver.Buffer
			idxOff  int
		)
		if len(p.indices) > 0 {
			indices, idxOff, err = fs.indices.alloc(safeish.SliceCast[[]byte](p.indices), 4)
			if err != nil {
				return err
			}
		}

		if pipe := r.prog.pipelines[p.state]; pipe != r.pipeline {
			r.enc.BindPipeline(pipe)
			r.pipeline = pipe
		}
		r.enc.BindUniforms(r.layout.Vertex.Slot, vbuf, voff, uniform.VertexSize)
		r.enc.BindUniforms(r.layout.Fragment.Slot, fbuf, foff, uniform.FragmentSize)
		r.enc.BindVertexBuffer(verts, vertOff)
		if p.tex != nil {
			r.enc.BindTexture(r.layout.Texture.Slot, p.tex)
		}
		if indices != nil {
			r.enc.BindIndexBuffer(indices)
			r.enc.DrawElements(p.mode, idxOff/4, len(p.indices))
		} else {
			r.enc.DrawArrays(p.mode, 0, len(p.verts))
		}
	}
	return nil
}

// fanIndices returns the triangle list indices of a fan over indices,
// or over the first n vertices if indices is nil.
func fanIndices(indices []uint32, n int) []uint32 {
	at := func(i int) uint32 { return uint32(i) }
	if indices != nil {
		n = len(indices)
		at = func(i int) uint32 { return indices[i] }
	}
	if n < 3 {
		return nil
	}
	out := make([]uint32, 0, (n-2)*3)
	for i := 1; i < n-1; i++ {
		out = append(out, at(0), at(i), at(i+1))
	}
	return out
}

// coverQuad returns a triangle strip covering b. The texture
// coordinate gives full stroke coverage.
func coverQuad(b f32.Rectangle) []Vertex {
	return []Vertex{
		{X: b.Max.X, Y: b.Max.Y, U: 0.5, V: 1},
		{X: b.Max.X, Y: b.Min.Y, U: 0.5, V: 1},
		{X: b.Min.X, Y: b.Max.Y, U: 0.5, V: 1},
		{X: b.Min.X, Y: b.Min.Y, U: 0.5, V: 1},
	}
}

// invalidState reports a frame method called in the wrong state. It
// panics in debug mode.
func (r *Renderer) invalidState(op string) error {
	err := fmt.Errorf("%w: %s in %v frame state", ErrInvalidState, op, r.state)
	logger().Warn("invalid frame state", slog.String("op", op), slog.Any("err", err))
	if r.opts.Debug {
		panic(err)
	}
	return err
}

func (r *Renderer) reject(op string, err error) error {
	logger().Warn("draw rejected", slog.String("op", op), slog.Any("err", err))
	return err
}

func (s frameState) String() string {
	switch s {
	case frameIdle:
		return "idle"
	case frameOpen:
		return "open"
	case frameClosed:
		return "closed"
	default:
		return fmt.Sprintf("frameState(%d)", uint8(s))
	}
}
