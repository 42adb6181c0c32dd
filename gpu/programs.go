// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/gpu/internal/shaders"
	"gioui.org/shader"
	"golang.org/x/sync/singleflight"
)

// renderState is the fixed function state of a draw: blending, stencil
// test and color writes.
type renderState uint8

const (
	// stateBlend draws with premultiplied blending and no stencil
	// test.
	stateBlend renderState = iota
	// stateFillStencil accumulates path winding in the stencil buffer.
	stateFillStencil
	// stateFillAA draws fill fringes outside the stencilled area.
	stateFillAA
	// stateFillCover covers the stencilled area and clears it.
	stateFillCover
	// stateStrokeBase draws each stroke pixel once.
	stateStrokeBase
	// stateStrokeAA draws stroke fringes not covered by the base.
	stateStrokeAA
	// stateStrokeClear resets the stencil under a stroke.
	stateStrokeClear

	nstates
)

// Program is the pipelines of one shader variant, one per render
// state. A Program is immutable and shared by every Renderer using its
// ProgramCache.
type Program struct {
	variant   shaders.Variant
	pipelines [nstates]driver.Pipeline
}

// ProgramCache builds Programs on first use. It is safe for concurrent
// use if the device is.
type ProgramCache struct {
	dev     driver.Device
	profile driver.Profile

	group singleflight.Group

	mu      sync.RWMutex
	entries [2]*programEntry
}

type programEntry struct {
	prog *Program
	err  error
}

var vertexLayout = driver.VertexLayout{
	Inputs: []driver.InputDesc{
		{Type: shader.DataTypeFloat, Size: 2, Offset: 0},
		{Type: shader.DataTypeFloat, Size: 2, Offset: 4 * 2},
	},
	Stride: 4 * 4,
}

func newProgramCache(dev driver.Device, profile driver.Profile) *ProgramCache {
	return &ProgramCache{dev: dev, profile: profile}
}

// Program returns the program of the anti-aliased or the aliased
// variant. Concurrent first calls build the program once; failures are
// returned as *ConstructionError and never retried.
func (c *ProgramCache) Program(antiAlias bool) (*Program, error) {
	v := shaders.NoAntiAliasing
	if antiAlias {
		v = shaders.AntiAliasing
	}
	if e := c.lookup(v); e != nil {
		return e.prog, e.err
	}
	res, _, _ := c.group.Do(v.String(), func() (any, error) {
		if e := c.lookup(v); e != nil {
			return e, nil
		}
		e := new(programEntry)
		e.prog, e.err = c.build(v)
		if e.err != nil {
			e.err = &ConstructionError{Program: v.String(), Err: e.err}
			logger().Warn("program build failed", slog.String("variant", v.String()), slog.Any("err", e.err))
		}
		c.mu.Lock()
		c.entries[v] = e
		c.mu.Unlock()
		return e, nil
	})
	e := res.(*programEntry)
	return e.prog, e.err
}

func (c *ProgramCache) lookup(v shaders.Variant) *programEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[v]
}

func (c *ProgramCache) build(v shaders.Variant) (*Program, error) {
	vsh, err := c.dev.NewVertexShader(shaders.Vertex(c.profile))
	if err != nil {
		return nil, err
	}
	defer vsh.Release()
	fsh, err := c.dev.NewFragmentShader(shaders.Fragment(v, c.profile))
	if err != nil {
		return nil, err
	}
	defer fsh.Release()
	p := &Program{variant: v}
	for s := range nstates {
		desc := s.pipelineDesc()
		desc.VertexShader = vsh
		desc.FragmentShader = fsh
		pipe, err := c.dev.NewPipeline(desc)
		if err != nil {
			p.release()
			return nil, fmt.Errorf("%v pipeline: %w", s, err)
		}
		p.pipelines[s] = pipe
	}
	logger().Debug("program built", slog.String("variant", v.String()), slog.String("profile", c.profile.String()))
	return p, nil
}

func (c *ProgramCache) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e != nil && e.prog != nil {
			e.prog.release()
		}
		c.entries[i] = nil
	}
}

func (p *Program) release() {
	for i, pipe := range p.pipelines {
		if pipe != nil {
			pipe.Release()
		}
		p.pipelines[i] = nil
	}
}

// AntiAlias reports whether p is the anti-aliased variant.
func (p *Program) AntiAlias() bool {
	return p.variant == shaders.AntiAliasing
}

func (s renderState) pipelineDesc() driver.PipelineDesc {
	desc := driver.PipelineDesc{
		VertexLayout: vertexLayout,
		BlendDesc: driver.BlendDesc{
			Enable:    true,
			SrcFactor: driver.BlendFactorOne,
			DstFactor: driver.BlendFactorOneMinusSrcAlpha,
		},
		PixelFormat: driver.TextureFormatOutput,
	}
	keep := driver.StencilOps{Fail: driver.StencilKeep, DepthFail: driver.StencilKeep, Pass: driver.StencilKeep}
	zero := driver.StencilOps{Fail: driver.StencilZero, DepthFail: driver.StencilZero, Pass: driver.StencilZero}
	switch s {
	case stateFillStencil:
		desc.ColorWriteDisable = true
		desc.StencilDesc = driver.StencilDesc{
			Enable: true,
			Func:   driver.CompareAlways,
			Front:  driver.StencilOps{Fail: driver.StencilKeep, DepthFail: driver.StencilKeep, Pass: driver.StencilIncrWrap},
			Back:   driver.StencilOps{Fail: driver.StencilKeep, DepthFail: driver.StencilKeep, Pass: driver.StencilDecrWrap},
		}
	case stateFillAA, stateStrokeAA:
		desc.StencilDesc = driver.StencilDesc{Enable: true, Func: driver.CompareEqual, Front: keep, Back: keep}
	case stateFillCover:
		desc.StencilDesc = driver.StencilDesc{Enable: true, Func: driver.CompareNotEqual, Front: zero, Back: zero}
	case stateStrokeBase:
		incr := driver.StencilOps{Fail: driver.StencilKeep, DepthFail: driver.StencilKeep, Pass: driver.StencilIncr}
		desc.StencilDesc = driver.StencilDesc{Enable: true, Func: driver.CompareEqual, Front: incr, Back: incr}
	case stateStrokeClear:
		desc.ColorWriteDisable = true
		desc.StencilDesc = driver.StencilDesc{Enable: true, Func: driver.CompareAlways, Front: zero, Back: zero}
	}
	return desc
}

func (s renderState) String() string {
	switch s {
	case stateBlend:
		return "blend"
	case stateFillStencil:
		return "fill-stencil"
	case stateFillAA:
		return "fill-aa"
	case stateFillCover:
		return "fill-cover"
	case stateStrokeBase:
		return "stroke-base"
	case stateStrokeAA:
		return "stroke-aa"
	case stateStrokeClear:
		return "stroke-clear"
	default:
		return fmt.Sprintf("renderState(%d)", uint8(s))
	}
}
