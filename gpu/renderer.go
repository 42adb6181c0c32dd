// SPDX-License-Identifier: Unlicense OR MIT

/*
Package gpu renders nanovg style vector graphics: filled and stroked
paths, gradients and images.

Path tessellation happens elsewhere. A Renderer receives the
resulting vertices for each draw, packs the paint into uniform blocks
and encodes the draw calls into a frame of a render target.
*/
package gpu

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"

	"gioui.org/nanovg/f32"
	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/gpu/internal/uniform"
	"gioui.org/nanovg/internal/f32color"
	"github.com/go-gl/mathgl/mgl32"

	// Register backends.
	_ "gioui.org/nanovg/gpu/internal/opengl"
)

// Renderer encodes frames of vector graphics draws. A Renderer is not
// safe for concurrent use; Renderers created by Fork may be used
// concurrently if the device allows it.
type Renderer struct {
	shared *shared
	opts   Options
	caps   driver.Caps
	layout *uniform.Layout
	prog   *Program

	images  *imageCache
	scratch *scratchRing

	state     frameState
	enc       driver.RenderEncoder
	pipeline  driver.Pipeline
	transform mgl32.Mat4
	view      f32.Point

	clear      bool
	clearColor Color

	// ubuf is the packing buffer of uniform blocks.
	ubuf []byte
}

// shared is the device and programs of a Renderer and its forks.
type shared struct {
	dev      driver.Device
	programs *ProgramCache

	mu   sync.Mutex
	refs int
}

type frameState uint8

const (
	frameIdle frameState = iota
	frameOpen
	frameClosed
)

// New creates a Renderer for api. The anti-aliasing variant selected
// by opts is built immediately and a build failure is returned as a
// *ConstructionError.
func New(api API, opts Options) (*Renderer, error) {
	d, err := driver.NewDevice(api)
	if err != nil {
		return nil, err
	}
	r, err := newRenderer(d, opts)
	if err != nil {
		d.Release()
		return nil, err
	}
	return r, nil
}

// NewWithDevice creates a Renderer drawing with d. The Renderer takes
// ownership of d if NewWithDevice succeeds.
func NewWithDevice(d driver.Device, opts Options) (*Renderer, error) {
	return newRenderer(d, opts)
}

func newRenderer(d driver.Device, opts Options) (*Renderer, error) {
	opts, err := opts.withEnv()
	if err != nil {
		return nil, err
	}
	if err := opts.validate(d.Caps()); err != nil {
		return nil, err
	}
	sh := &shared{
		dev:      d,
		programs: newProgramCache(d, opts.Profile),
		refs:     1,
	}
	r, err := sh.newRenderer(opts)
	if err != nil {
		sh.programs.release()
		return nil, err
	}
	return r, nil
}

func (sh *shared) newRenderer(opts Options) (*Renderer, error) {
	layout, err := uniform.NewLayout(sh.programs.profile)
	if err != nil {
		return nil, err
	}
	prog, err := sh.programs.Program(opts.AntiAlias)
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		shared:    sh,
		opts:      opts,
		caps:      sh.dev.Caps(),
		layout:    layout,
		prog:      prog,
		images:    newImageCache(),
		scratch:   newScratchRing(sh.dev, opts.FramesInFlight),
		transform: mgl32.Ident4(),
	}
	logger().Debug("renderer created",
		slog.Bool("antialias", opts.AntiAlias),
		slog.Bool("stencilStrokes", opts.StencilStrokes),
		slog.String("profile", opts.Profile.String()))
	return r, nil
}

// Fork returns a Renderer sharing the device and programs of r, for
// example to draw to a second window. The profile of opts is ignored.
// The device is released when r and all its forks are released.
func (r *Renderer) Fork(opts Options) (*Renderer, error) {
	opts, err := opts.withEnv()
	if err != nil {
		return nil, err
	}
	opts.Profile = r.shared.programs.profile
	r.shared.acquire()
	f, err := r.shared.newRenderer(opts)
	if err != nil {
		r.shared.release()
		return nil, err
	}
	return f, nil
}

// Programs returns the program cache of r.
func (r *Renderer) Programs() *ProgramCache {
	return r.shared.programs
}

// Clear sets the clear color for the next frame.
func (r *Renderer) Clear(col color.NRGBA) {
	r.clear = true
	r.clearColor = f32color.FromNRGBA(col).Premul()
}

// Release frees the resources of r. An open frame is canceled. The
// Renderer is no longer valid after Release.
func (r *Renderer) Release() {
	if r.shared == nil {
		return
	}
	if r.state == frameOpen {
		r.CancelFrame()
	}
	r.images.release()
	r.scratch.release()
	r.shared.release()
	*r = Renderer{}
}

func (sh *shared) acquire() {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.refs == 0 {
		panic(fmt.Errorf("gpu: fork of released renderer"))
	}
	sh.refs++
}

func (sh *shared) release() {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.refs--
	if sh.refs > 0 {
		return
	}
	sh.programs.release()
	sh.dev.Release()
}
