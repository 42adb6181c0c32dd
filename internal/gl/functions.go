// SPDX-License-Identifier: Unlicense OR MIT

package gl

import (
	"bytes"
	"sync"
	"unsafe"

	gogl "github.com/go-gl/gl/v4.1-core/gl"
)

// Functions calls the desktop OpenGL 4.1 core entry points. The
// methods mirror the GL functions with typed object handles; an
// OpenGL context must be current on the calling thread.
type Functions struct{}

var (
	initOnce sync.Once
	initErr  error
)

// NewFunctions loads the OpenGL entry points of the current context.
func NewFunctions() (*Functions, error) {
	initOnce.Do(func() {
		initErr = gogl.Init()
	})
	if initErr != nil {
		return nil, initErr
	}
	return new(Functions), nil
}

func (f *Functions) ActiveTexture(texture Enum) {
	gogl.ActiveTexture(uint32(texture))
}

func (f *Functions) AttachShader(p Program, s Shader) {
	gogl.AttachShader(uint32(p.V), uint32(s.V))
}

func (f *Functions) BindAttribLocation(p Program, a Attrib, name string) {
	cname := gogl.Str(name + "\x00")
	gogl.BindAttribLocation(uint32(p.V), uint32(a), cname)
}

func (f *Functions) BindBuffer(target Enum, b Buffer) {
	gogl.BindBuffer(uint32(target), uint32(b.V))
}

func (f *Functions) BindBufferRange(target Enum, index int, b Buffer, offset, size int) {
	gogl.BindBufferRange(uint32(target), uint32(index), uint32(b.V), offset, size)
}

func (f *Functions) BindFramebuffer(target Enum, fb Framebuffer) {
	gogl.BindFramebuffer(uint32(target), uint32(fb.V))
}

func (f *Functions) BindRenderbuffer(target Enum, rb Renderbuffer) {
	gogl.BindRenderbuffer(uint32(target), uint32(rb.V))
}

func (f *Functions) BindBufferBase(target Enum, index int, b Buffer) {
	gogl.BindBufferBase(uint32(target), uint32(index), uint32(b.V))
}

func (f *Functions) BindTexture(target Enum, t Texture) {
	gogl.BindTexture(uint32(target), uint32(t.V))
}

func (f *Functions) BindVertexArray(a VertexArray) {
	gogl.BindVertexArray(uint32(a.V))
}

func (f *Functions) BlendFuncSeparate(srcRGB, dstRGB, srcA, dstA Enum) {
	gogl.BlendFuncSeparate(uint32(srcRGB), uint32(dstRGB), uint32(srcA), uint32(dstA))
}

func (f *Functions) BufferData(target Enum, size int, usage Enum) {
	gogl.BufferData(uint32(target), size, nil, uint32(usage))
}

func (f *Functions) BufferSubData(target Enum, offset int, src []byte) {
	if len(src) == 0 {
		return
	}
	gogl.BufferSubData(uint32(target), offset, len(src), unsafe.Pointer(&src[0]))
}

func (f *Functions) CheckFramebufferStatus(target Enum) Enum {
	return Enum(gogl.CheckFramebufferStatus(uint32(target)))
}

func (f *Functions) Clear(mask Enum) {
	gogl.Clear(uint32(mask))
}

func (f *Functions) ClearColor(red, green, blue, alpha float32) {
	gogl.ClearColor(red, green, blue, alpha)
}

func (f *Functions) ClearStencil(s int) {
	gogl.ClearStencil(int32(s))
}

func (f *Functions) ColorMask(r, g, b, a bool) {
	gogl.ColorMask(r, g, b, a)
}

func (f *Functions) CompileShader(s Shader) {
	gogl.CompileShader(uint32(s.V))
}

func (f *Functions) CreateBuffer() Buffer {
	var b uint32
	gogl.GenBuffers(1, &b)
	return Buffer{uint(b)}
}

func (f *Functions) CreateFramebuffer() Framebuffer {
	var fb uint32
	gogl.GenFramebuffers(1, &fb)
	return Framebuffer{uint(fb)}
}

func (f *Functions) CreateProgram() Program {
	return Program{uint(gogl.CreateProgram())}
}

func (f *Functions) CreateRenderbuffer() Renderbuffer {
	var rb uint32
	gogl.GenRenderbuffers(1, &rb)
	return Renderbuffer{uint(rb)}
}

func (f *Functions) CreateShader(ty Enum) Shader {
	return Shader{uint(gogl.CreateShader(uint32(ty)))}
}

func (f *Functions) CreateTexture() Texture {
	var t uint32
	gogl.GenTextures(1, &t)
	return Texture{uint(t)}
}

func (f *Functions) CreateVertexArray() VertexArray {
	var a uint32
	gogl.GenVertexArrays(1, &a)
	return VertexArray{uint(a)}
}

func (f *Functions) DeleteBuffer(v Buffer) {
	b := uint32(v.V)
	gogl.DeleteBuffers(1, &b)
}

func (f *Functions) DeleteFramebuffer(v Framebuffer) {
	fb := uint32(v.V)
	gogl.DeleteFramebuffers(1, &fb)
}

func (f *Functions) DeleteProgram(p Program) {
	gogl.DeleteProgram(uint32(p.V))
}

func (f *Functions) DeleteRenderbuffer(v Renderbuffer) {
	rb := uint32(v.V)
	gogl.DeleteRenderbuffers(1, &rb)
}

func (f *Functions) DeleteShader(s Shader) {
	gogl.DeleteShader(uint32(s.V))
}

func (f *Functions) DeleteTexture(v Texture) {
	t := uint32(v.V)
	gogl.DeleteTextures(1, &t)
}

func (f *Functions) DeleteVertexArray(v VertexArray) {
	a := uint32(v.V)
	gogl.DeleteVertexArrays(1, &a)
}

func (f *Functions) Disable(c Enum) {
	gogl.Disable(uint32(c))
}

func (f *Functions) DisableVertexAttribArray(a Attrib) {
	gogl.DisableVertexAttribArray(uint32(a))
}

func (f *Functions) DrawArrays(mode Enum, first, count int) {
	gogl.DrawArrays(uint32(mode), int32(first), int32(count))
}

func (f *Functions) DrawElements(mode Enum, count int, ty Enum, offset int) {
	gogl.DrawElementsWithOffset(uint32(mode), int32(count), uint32(ty), uintptr(offset))
}

func (f *Functions) Enable(c Enum) {
	gogl.Enable(uint32(c))
}

func (f *Functions) EnableVertexAttribArray(a Attrib) {
	gogl.EnableVertexAttribArray(uint32(a))
}

func (f *Functions) Flush() {
	gogl.Flush()
}

func (f *Functions) FramebufferRenderbuffer(target, attachment, renderbuffertarget Enum, renderbuffer Renderbuffer) {
	gogl.FramebufferRenderbuffer(uint32(target), uint32(attachment), uint32(renderbuffertarget), uint32(renderbuffer.V))
}

func (f *Functions) FramebufferTexture2D(target, attachment, texTarget Enum, t Texture, level int) {
	gogl.FramebufferTexture2D(uint32(target), uint32(attachment), uint32(texTarget), uint32(t.V), int32(level))
}

func (f *Functions) GetError() Enum {
	return Enum(gogl.GetError())
}

func (f *Functions) GetActiveUniformBlocki(p Program, uniformBlockIndex uint, pname Enum) int {
	var v int32
	gogl.GetActiveUniformBlockiv(uint32(p.V), uint32(uniformBlockIndex), uint32(pname), &v)
	return int(v)
}

func (f *Functions) GetFloat4(pname Enum) [4]float32 {
	var v [4]float32
	gogl.GetFloatv(uint32(pname), &v[0])
	return v
}

func (f *Functions) GetInteger(pname Enum) int {
	var v int32
	gogl.GetIntegerv(uint32(pname), &v)
	return int(v)
}

func (f *Functions) GetInteger4(pname Enum) [4]int {
	var v [4]int32
	gogl.GetIntegerv(uint32(pname), &v[0])
	return [4]int{int(v[0]), int(v[1]), int(v[2]), int(v[3])}
}

// GetIntegeri returns the value of the indexed state pname at idx.
func (f *Functions) GetIntegeri(pname Enum, idx int) int {
	var v int32
	gogl.GetIntegeri_v(uint32(pname), uint32(idx), &v)
	return int(v)
}

func (f *Functions) GetProgrami(p Program, pname Enum) int {
	var v int32
	gogl.GetProgramiv(uint32(p.V), uint32(pname), &v)
	return int(v)
}

func (f *Functions) GetProgramInfoLog(p Program) string {
	n := f.GetProgrami(p, INFO_LOG_LENGTH)
	if n == 0 {
		return ""
	}
	buf := make([]byte, n+1)
	gogl.GetProgramInfoLog(uint32(p.V), int32(n), nil, &buf[0])
	return goString(buf)
}

func (f *Functions) GetShaderi(s Shader, pname Enum) int {
	var v int32
	gogl.GetShaderiv(uint32(s.V), uint32(pname), &v)
	return int(v)
}

func (f *Functions) GetShaderInfoLog(s Shader) string {
	n := f.GetShaderi(s, INFO_LOG_LENGTH)
	if n == 0 {
		return ""
	}
	buf := make([]byte, n+1)
	gogl.GetShaderInfoLog(uint32(s.V), int32(n), nil, &buf[0])
	return goString(buf)
}

func (f *Functions) GetString(pname Enum) string {
	s := gogl.GetString(uint32(pname))
	if s == nil {
		return ""
	}
	return gogl.GoStr(s)
}

func (f *Functions) GetUniformBlockIndex(p Program, name string) uint {
	return uint(gogl.GetUniformBlockIndex(uint32(p.V), gogl.Str(name+"\x00")))
}

func (f *Functions) GetUniformLocation(p Program, name string) Uniform {
	return Uniform{int(gogl.GetUniformLocation(uint32(p.V), gogl.Str(name+"\x00")))}
}

// GetUniformOffsets returns the byte offsets of the named block members
// within their uniform block, or -1 for names that are not active.
func (f *Functions) GetUniformOffsets(p Program, names []string) []int {
	if len(names) == 0 {
		return nil
	}
	cnames, free := gogl.Strs(nulTerminated(names)...)
	defer free()
	indices := make([]uint32, len(names))
	gogl.GetUniformIndices(uint32(p.V), int32(len(names)), cnames, &indices[0])
	offsets := make([]int, len(names))
	for i, idx := range indices {
		if idx == INVALID_INDEX {
			offsets[i] = -1
			continue
		}
		var off int32
		gogl.GetActiveUniformsiv(uint32(p.V), 1, &indices[i], UNIFORM_OFFSET, &off)
		offsets[i] = int(off)
	}
	return offsets
}

func (f *Functions) IsEnabled(c Enum) bool {
	return gogl.IsEnabled(uint32(c))
}

func (f *Functions) LinkProgram(p Program) {
	gogl.LinkProgram(uint32(p.V))
}

func (f *Functions) PixelStorei(pname Enum, param int) {
	gogl.PixelStorei(uint32(pname), int32(param))
}

func (f *Functions) ReadPixels(x, y, width, height int, format, ty Enum, data []byte) {
	gogl.ReadPixels(int32(x), int32(y), int32(width), int32(height), uint32(format), uint32(ty), unsafe.Pointer(&data[0]))
}

func (f *Functions) RenderbufferStorage(target, internalformat Enum, width, height int) {
	gogl.RenderbufferStorage(uint32(target), uint32(internalformat), int32(width), int32(height))
}

func (f *Functions) ShaderSource(s Shader, src string) {
	csrc, free := gogl.Strs(src + "\x00")
	defer free()
	gogl.ShaderSource(uint32(s.V), 1, csrc, nil)
}

func (f *Functions) StencilFunc(fn Enum, ref int, mask uint) {
	gogl.StencilFunc(uint32(fn), int32(ref), uint32(mask))
}

func (f *Functions) StencilFuncSeparate(face, fn Enum, ref int, mask uint) {
	gogl.StencilFuncSeparate(uint32(face), uint32(fn), int32(ref), uint32(mask))
}

func (f *Functions) StencilMask(mask uint) {
	gogl.StencilMask(uint32(mask))
}

func (f *Functions) StencilOpSeparate(face, sfail, dpfail, dppass Enum) {
	gogl.StencilOpSeparate(uint32(face), uint32(sfail), uint32(dpfail), uint32(dppass))
}

func (f *Functions) TexImage2D(target Enum, level int, internalFormat Enum, width, height int, format, ty Enum) {
	gogl.TexImage2D(uint32(target), int32(level), int32(internalFormat), int32(width), int32(height), 0, uint32(format), uint32(ty), nil)
}

func (f *Functions) TexParameteri(target, pname Enum, param int) {
	gogl.TexParameteri(uint32(target), uint32(pname), int32(param))
}

func (f *Functions) TexSubImage2D(target Enum, level int, x, y, width, height int, format, ty Enum, data []byte) {
	gogl.TexSubImage2D(uint32(target), int32(level), int32(x), int32(y), int32(width), int32(height), uint32(format), uint32(ty), unsafe.Pointer(&data[0]))
}

func (f *Functions) Uniform1i(dst Uniform, v int) {
	gogl.Uniform1i(int32(dst.V), int32(v))
}

func (f *Functions) UniformBlockBinding(p Program, uniformBlockIndex uint, uniformBlockBinding uint) {
	gogl.UniformBlockBinding(uint32(p.V), uint32(uniformBlockIndex), uint32(uniformBlockBinding))
}

func (f *Functions) UseProgram(p Program) {
	gogl.UseProgram(uint32(p.V))
}

func (f *Functions) VertexAttribPointer(dst Attrib, size int, ty Enum, normalized bool, stride, offset int) {
	gogl.VertexAttribPointerWithOffset(uint32(dst), int32(size), uint32(ty), normalized, int32(stride), uintptr(offset))
}

func (f *Functions) Viewport(x, y, width, height int) {
	gogl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func nulTerminated(names []string) []string {
	res := make([]string, len(names))
	for i, n := range names {
		res[i] = n + "\x00"
	}
	return res
}

// goString converts a NUL-terminated C string to a Go string.
func goString(s []byte) string {
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}
