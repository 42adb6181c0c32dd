// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"

	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/gpu/internal/uniform"
	"honnef.co/go/safeish"
)

// fakeDevice is a driver.Device that records the commands it receives
// and keeps buffer contents in memory.
type fakeDevice struct {
	caps driver.Caps

	mu        sync.Mutex
	calls     []string
	buffers   []*fakeBuffer
	textures  []*fakeTexture
	shaders   []driver.ShaderSources
	pipelines []*fakePipeline
	released  bool

	// failFragment fails fragment shader creation.
	failFragment     error
	fragmentAttempts int
}

type fakeBuffer struct {
	typ      driver.BufferBinding
	data     []byte
	released bool
}

type fakeTexture struct {
	format   driver.TextureFormat
	size     image.Point
	filter   driver.TextureFilter
	uploads  int
	pixels   []byte
	released bool
}

type fakeShader struct {
	src driver.ShaderSources
}

type fakePipeline struct {
	desc     driver.PipelineDesc
	released bool
}

type fakeTarget struct{}

type fakeEncoder struct {
	d     *fakeDevice
	ended bool
}

func (fakeTarget) ImplementsRenderTarget() {}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		caps: driver.Caps{
			Profiles:               driver.ProfileSet(driver.ProfileLegacy, driver.ProfileModern),
			MaxTextureSize:         4096,
			UniformBufferAlignment: 256,
		},
	}
}

func newTestRenderer(t *testing.T, d *fakeDevice, opts Options) *Renderer {
	t.Helper()
	r, err := newRenderer(d, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Release)
	return r
}

func (d *fakeDevice) record(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

// reset forgets the recorded calls.
func (d *fakeDevice) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

func (d *fakeDevice) recorded() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDevice) Caps() driver.Caps {
	return d.caps
}

func (d *fakeDevice) NewTexture(format driver.TextureFormat, width, height int, minFilter, magFilter driver.TextureFilter, bindings driver.BufferBinding) (driver.Texture, error) {
	t := &fakeTexture{format: format, size: image.Pt(width, height), filter: minFilter}
	d.mu.Lock()
	d.textures = append(d.textures, t)
	d.mu.Unlock()
	return t, nil
}

func (d *fakeDevice) NewFramebuffer(tex driver.Texture, stencil bool) (driver.Framebuffer, error) {
	return nil, errors.New("fake: framebuffers not supported")
}

func (d *fakeDevice) NewBuffer(typ driver.BufferBinding, size int) (driver.Buffer, error) {
	b := &fakeBuffer{typ: typ, data: make([]byte, size)}
	d.mu.Lock()
	d.buffers = append(d.buffers, b)
	d.mu.Unlock()
	return b, nil
}

func (d *fakeDevice) NewVertexShader(src driver.ShaderSources) (driver.VertexShader, error) {
	d.mu.Lock()
	d.shaders = append(d.shaders, src)
	d.mu.Unlock()
	return &fakeShader{src: src}, nil
}

func (d *fakeDevice) NewFragmentShader(src driver.ShaderSources) (driver.FragmentShader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fragmentAttempts++
	if d.failFragment != nil {
		return nil, d.failFragment
	}
	d.shaders = append(d.shaders, src)
	return &fakeShader{src: src}, nil
}

func (d *fakeDevice) NewPipeline(desc driver.PipelineDesc) (driver.Pipeline, error) {
	p := &fakePipeline{desc: desc}
	d.mu.Lock()
	d.pipelines = append(d.pipelines, p)
	d.mu.Unlock()
	return p, nil
}

func (d *fakeDevice) BeginFrame(target driver.RenderTarget, load driver.LoadDesc, viewport image.Point) (driver.RenderEncoder, error) {
	d.record("BeginFrame %v %d", viewport, load.Action)
	return &fakeEncoder{d: d}, nil
}

func (d *fakeDevice) Release() {
	d.released = true
}

// pipelineIndex returns the creation index of p.
func (d *fakeDevice) pipelineIndex(p driver.Pipeline) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, fp := range d.pipelines {
		if fp == p {
			return i
		}
	}
	return -1
}

func (d *fakeDevice) bufferIndex(b driver.Buffer) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, fb := range d.buffers {
		if fb == b {
			return i
		}
	}
	return -1
}

func (e *fakeEncoder) BindPipeline(p driver.Pipeline) {
	e.d.record("BindPipeline %d", e.d.pipelineIndex(p))
}

func (e *fakeEncoder) BindUniforms(slot driver.Slot, buf driver.Buffer, offset, size int) {
	e.d.record("BindUniforms %d.%d buf%d+%d %d", slot.Set, slot.Binding, e.d.bufferIndex(buf), offset, size)
}

func (e *fakeEncoder) BindTexture(slot driver.Slot, t driver.Texture) {
	e.d.record("BindTexture %d.%d", slot.Set, slot.Binding)
}

func (e *fakeEncoder) BindVertexBuffer(b driver.Buffer, offset int) {
	e.d.record("BindVertexBuffer buf%d+%d", e.d.bufferIndex(b), offset)
}

func (e *fakeEncoder) BindIndexBuffer(b driver.Buffer) {
	e.d.record("BindIndexBuffer buf%d", e.d.bufferIndex(b))
}

func (e *fakeEncoder) DrawArrays(mode driver.DrawMode, off, count int) {
	e.d.record("DrawArrays %d %d %d", mode, off, count)
}

func (e *fakeEncoder) DrawElements(mode driver.DrawMode, off, count int) {
	e.d.record("DrawElements %d %d %d", mode, off, count)
}

func (e *fakeEncoder) EndEncoding() {
	e.ended = true
	e.d.record("EndEncoding")
}

func (b *fakeBuffer) Upload(off int, data []byte) {
	copy(b.data[off:], data)
}

func (b *fakeBuffer) Release() {
	b.released = true
}

func (t *fakeTexture) Upload(offset, size image.Point, pixels []byte, stride int) {
	t.uploads++
	bpp := 4
	if t.format == driver.TextureFormatR8 {
		bpp = 1
	}
	t.pixels = t.pixels[:0]
	for y := 0; y < size.Y; y++ {
		row := pixels[y*stride:]
		t.pixels = append(t.pixels, row[:size.X*bpp]...)
	}
}

func (t *fakeTexture) Release() {
	t.released = true
}

func (s *fakeShader) Release() {}

func (p *fakePipeline) Release() {
	p.released = true
}

// fragmentBlocks decodes the fragment blocks bound by the recorded
// calls, in order.
func (d *fakeDevice) fragmentBlocks(t *testing.T, slot driver.Slot) []*uniform.Fragment {
	t.Helper()
	var blocks []*uniform.Fragment
	for _, c := range d.recorded() {
		var set, binding, buf, off, size int
		if _, err := fmt.Sscanf(c, "BindUniforms %d.%d buf%d+%d %d", &set, &binding, &buf, &off, &size); err != nil {
			continue
		}
		if (driver.Slot{Set: set, Binding: binding}) != slot {
			continue
		}
		data := d.buffers[buf].data[off : off+size]
		f := new(uniform.Fragment)
		copy(safeish.AsBytes(f), data)
		blocks = append(blocks, f)
	}
	return blocks
}

// vertexBlocks decodes the vertex blocks bound by the recorded calls.
func (d *fakeDevice) vertexBlocks(t *testing.T, slot driver.Slot) []*uniform.Vertex {
	t.Helper()
	var blocks []*uniform.Vertex
	for _, c := range d.recorded() {
		var set, binding, buf, off, size int
		if _, err := fmt.Sscanf(c, "BindUniforms %d.%d buf%d+%d %d", &set, &binding, &buf, &off, &size); err != nil {
			continue
		}
		if (driver.Slot{Set: set, Binding: binding}) != slot || size != uniform.VertexSize {
			continue
		}
		data := d.buffers[buf].data[off : off+size]
		v := new(uniform.Vertex)
		copy(safeish.AsBytes(v), data)
		blocks = append(blocks, v)
	}
	return blocks
}
