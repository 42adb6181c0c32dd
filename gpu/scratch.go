// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"

	"gioui.org/nanovg/gpu/internal/driver"
	"golang.org/x/exp/constraints"
)

// scratchRing holds the transient buffers of the frames in flight. A
// frame's buffers are reused only after every other slot has been
// used by a later frame.
type scratchRing struct {
	slots []*frameScratch
	cur   int
}

// frameScratch is the buffer memory of one frame.
type frameScratch struct {
	uniforms arena
	vertices arena
	indices  arena
}

// arena sub-allocates regions from a list of device buffers. Regions
// are never freed individually.
type arena struct {
	dev       driver.Device
	typ       driver.BufferBinding
	chunkSize int
	chunks    []*chunk
	cur       int
}

type chunk struct {
	buf  driver.Buffer
	size int
	used int
}

const (
	uniformChunkSize = 64 << 10
	vertexChunkSize  = 256 << 10
	indexChunkSize   = 64 << 10
)

func newScratchRing(dev driver.Device, frames int) *scratchRing {
	r := &scratchRing{slots: make([]*frameScratch, frames)}
	for i := range r.slots {
		r.slots[i] = &frameScratch{
			uniforms: arena{dev: dev, typ: driver.BufferBindingUniforms, chunkSize: uniformChunkSize},
			vertices: arena{dev: dev, typ: driver.BufferBindingVertices, chunkSize: vertexChunkSize},
			indices:  arena{dev: dev, typ: driver.BufferBindingIndices, chunkSize: indexChunkSize},
		}
	}
	// The first next selects slot 0.
	r.cur = len(r.slots) - 1
	return r
}

// next advances to the scratch memory of a new frame.
func (r *scratchRing) next() *frameScratch {
	r.cur = (r.cur + 1) % len(r.slots)
	s := r.slots[r.cur]
	s.uniforms.reset()
	s.vertices.reset()
	s.indices.reset()
	return s
}

func (r *scratchRing) frame() *frameScratch {
	return r.slots[r.cur]
}

func (r *scratchRing) release() {
	for _, s := range r.slots {
		s.uniforms.release()
		s.vertices.release()
		s.indices.release()
	}
	r.slots = nil
}

// alloc uploads data to a region aligned to align and returns its
// buffer and offset.
func (a *arena) alloc(data []byte, align int) (driver.Buffer, int, error) {
	for ; a.cur < len(a.chunks); a.cur++ {
		c := a.chunks[a.cur]
		off := nextMultipleOf(c.used, align)
		if off+len(data) <= c.size {
			c.buf.Upload(off, data)
			c.used = off + len(data)
			return c.buf, off, nil
		}
	}
	size := max(a.chunkSize, nextMultipleOf(len(data), align))
	buf, err := a.dev.NewBuffer(a.typ, size)
	if err != nil {
		return nil, 0, fmt.Errorf("gpu: scratch buffer: %w", err)
	}
	c := &chunk{buf: buf, size: size, used: len(data)}
	a.chunks = append(a.chunks, c)
	buf.Upload(0, data)
	return buf, 0, nil
}

func (a *arena) reset() {
	for _, c := range a.chunks {
		c.used = 0
	}
	a.cur = 0
}

func (a *arena) release() {
	for _, c := range a.chunks {
		c.buf.Release()
	}
	a.chunks = nil
	a.cur = 0
}

func nextMultipleOf[T constraints.Integer](x, y T) T {
	if y <= 1 {
		return x
	}
	return (x + y - 1) / y * y
}
