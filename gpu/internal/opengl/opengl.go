// SPDX-License-Identifier: Unlicense OR MIT

package opengl

import (
	"errors"
	"fmt"
	"image"

	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/internal/gl"
	"gioui.org/shader"
)

// Backend implements driver.Device and driver.RenderEncoder over a
// desktop OpenGL 4.1 core context.
type Backend struct {
	funcs *gl.Functions
	debug bool

	glstate    glState
	savedState glState
	inFrame    bool

	feats driver.Caps

	// vertArray is bound during a frame and holds the vertex attribute
	// and index buffer state of the renderer.
	vertArray gl.VertexArray
	attribs   [maxAttribs]attribState

	// programs holds the linked programs by shader pair.
	programs map[programKey]*gpuProgram

	state state
}

const maxAttribs = 4

// glState tracks the GL state touched by the backend, to elide
// redundant calls and to restore the caller's state after a frame.
type glState struct {
	drawFBO   gl.Framebuffer
	readFBO   gl.Framebuffer
	renderBuf gl.Renderbuffer
	prog      gl.Program
	texUnits  struct {
		active gl.Enum
		binds  [1]gl.Texture
	}
	arrayBuf  gl.Buffer
	copyBuf   gl.Buffer
	uniBuf    gl.Buffer
	uniBufs   [2]bufferRange
	vertArray gl.VertexArray
	blend     struct {
		enable         bool
		srcRGB, dstRGB gl.Enum
		srcA, dstA     gl.Enum
	}
	stencil struct {
		enable      bool
		front, back stencilFace
		writeMask   uint
	}
	colorMask   [4]bool
	cullFace    bool
	depthTest   bool
	scissorTest bool
	clearColor  [4]float32
	viewport    [4]int
}

type stencilFace struct {
	fn                gl.Enum
	ref               int
	mask              uint
	fail, zfail, pass gl.Enum
}

type bufferRange struct {
	obj          gl.Buffer
	offset, size int
}

type attribState struct {
	enabled bool
	obj     gl.Buffer
	size    int
	stride  int
	offset  int
}

// state is the encoder state of the open frame.
type state struct {
	pipeline *pipeline
	buffer   bufferBinding
}

type bufferBinding struct {
	obj    gl.Buffer
	offset int
}

type gpuTexture struct {
	backend *Backend
	obj     gl.Texture
	triple  textureTriple
	width   int
	height  int
}

type gpuFramebuffer struct {
	backend    *Backend
	obj        gl.Framebuffer
	stencilBuf gl.Renderbuffer
	width      int
	height     int
}

type gpuBuffer struct {
	backend *Backend
	obj     gl.Buffer
	typ     driver.BufferBinding
	size    int
}

type gpuShader struct {
	backend *Backend
	obj     gl.Shader
	src     driver.ShaderSources
}

type programKey struct {
	vert, frag *gpuShader
}

type gpuProgram struct {
	backend *Backend
	key     programKey
	obj     gl.Program
	refs    int
}

type pipeline struct {
	backend    *Backend
	prog       *gpuProgram
	layout     driver.VertexLayout
	locations  []int
	blend      driver.BlendDesc
	stencil    driver.StencilDesc
	colorWrite bool
	released   bool
}

// textureTriple holds the type settings for
// a TexImage2D call.
type textureTriple struct {
	internalFormat gl.Enum
	format         gl.Enum
	typ            gl.Enum
	bytesPerPixel  int
}

func init() {
	driver.NewOpenGLDevice = newOpenGLDevice
}

func newOpenGLDevice(api driver.OpenGL) (driver.Device, error) {
	f, err := gl.NewFunctions()
	if err != nil {
		return nil, fmt.Errorf("opengl: %w", err)
	}
	glVer := f.GetString(gl.VERSION)
	ver, gles, err := gl.ParseGLVersion(glVer)
	if err != nil {
		return nil, err
	}
	if gles || ver[0] < 4 || (ver[0] == 4 && ver[1] < 1) {
		return nil, fmt.Errorf("opengl: OpenGL 4.1 core required, got %q", glVer)
	}
	b := &Backend{
		funcs:    f,
		debug:    api.Debug,
		programs: make(map[programKey]*gpuProgram),
	}
	b.feats.BottomLeftOrigin = true
	b.feats.Profiles = driver.ProfileSet(driver.ProfileLegacy)
	b.feats.MaxTextureSize = f.GetInteger(gl.MAX_TEXTURE_SIZE)
	b.feats.UniformBufferAlignment = f.GetInteger(gl.UNIFORM_BUFFER_OFFSET_ALIGNMENT)
	return b, nil
}

func (b *Backend) Caps() driver.Caps {
	return b.feats
}

func (b *Backend) BeginFrame(target driver.RenderTarget, load driver.LoadDesc, viewport image.Point) (driver.RenderEncoder, error) {
	if b.inFrame {
		return nil, errors.New("opengl: frame already in progress")
	}
	var fbo gl.Framebuffer
	switch t := target.(type) {
	case driver.OpenGLRenderTarget:
		fbo = gl.Framebuffer(t)
	case *gpuFramebuffer:
		fbo = t.obj
	default:
		return nil, fmt.Errorf("opengl: unsupported render target %T", target)
	}
	glErr(b.funcs)
	b.glstate = b.queryState()
	b.savedState = b.glstate
	b.inFrame = true
	b.state = state{}
	f := b.funcs
	if !b.vertArray.Valid() {
		b.vertArray = f.CreateVertexArray()
	}
	b.glstate.bindVertexArray(f, b.vertArray)
	b.glstate.bindFramebuffer(f, gl.FRAMEBUFFER, fbo)
	b.glstate.setViewport(f, 0, 0, viewport.X, viewport.Y)
	b.glstate.set(f, gl.CULL_FACE, false)
	b.glstate.set(f, gl.DEPTH_TEST, false)
	b.glstate.set(f, gl.SCISSOR_TEST, false)
	b.glstate.setColorMask(f, [4]bool{true, true, true, true})
	b.glstate.setStencilMask(f, 0xff)
	mask := gl.Enum(gl.STENCIL_BUFFER_BIT)
	if load.Action == driver.LoadActionClear {
		c := load.ClearColor
		b.glstate.setClearColor(f, c.R, c.G, c.B, c.A)
		mask |= gl.COLOR_BUFFER_BIT
	}
	// Passes leave the stencil buffer zeroed; start from zero as well.
	f.ClearStencil(0)
	f.Clear(mask)
	if err := glErr(f); err != nil {
		b.EndEncoding()
		return nil, fmt.Errorf("opengl: begin frame: %w", err)
	}
	return b, nil
}

// EndEncoding restores the GL state found by BeginFrame.
func (b *Backend) EndEncoding() {
	if !b.inFrame {
		return
	}
	if b.debug {
		if err := glErr(b.funcs); err != nil {
			panic(fmt.Errorf("opengl: frame: %w", err))
		}
	}
	b.restoreState(b.savedState)
	b.state = state{}
	b.inFrame = false
	// For single-buffered framebuffers such as on macOS.
	b.funcs.Flush()
}

// scoped runs fn with the caller's GL state saved and restored if no
// frame is open.
func (b *Backend) scoped(fn func()) {
	if b.inFrame {
		fn()
		return
	}
	b.glstate = b.queryState()
	saved := b.glstate
	fn()
	b.restoreState(saved)
}

func (b *Backend) queryState() glState {
	f := b.funcs
	s := glState{
		prog:      gl.Program{V: uint(f.GetInteger(gl.CURRENT_PROGRAM))},
		arrayBuf:  gl.Buffer{V: uint(f.GetInteger(gl.ARRAY_BUFFER_BINDING))},
		copyBuf:   gl.Buffer{V: uint(f.GetInteger(gl.COPY_WRITE_BUFFER_BINDING))},
		uniBuf:    gl.Buffer{V: uint(f.GetInteger(gl.UNIFORM_BUFFER_BINDING))},
		drawFBO:   gl.Framebuffer{V: uint(f.GetInteger(gl.FRAMEBUFFER_BINDING))},
		readFBO:   gl.Framebuffer{V: uint(f.GetInteger(gl.READ_FRAMEBUFFER_BINDING))},
		vertArray: gl.VertexArray{V: uint(f.GetInteger(gl.VERTEX_ARRAY_BINDING))},
		cullFace:  f.IsEnabled(gl.CULL_FACE),
		depthTest: f.IsEnabled(gl.DEPTH_TEST),

		scissorTest: f.IsEnabled(gl.SCISSOR_TEST),
		clearColor:  f.GetFloat4(gl.COLOR_CLEAR_VALUE),
		viewport:    f.GetInteger4(gl.VIEWPORT),
	}
	for i := range s.uniBufs {
		s.uniBufs[i] = bufferRange{
			obj:    gl.Buffer{V: uint(f.GetIntegeri(gl.UNIFORM_BUFFER_BINDING, i))},
			offset: f.GetIntegeri(gl.UNIFORM_BUFFER_START, i),
			size:   f.GetIntegeri(gl.UNIFORM_BUFFER_SIZE, i),
		}
	}
	s.blend.enable = f.IsEnabled(gl.BLEND)
	s.blend.srcRGB = gl.Enum(f.GetInteger(gl.BLEND_SRC_RGB))
	s.blend.dstRGB = gl.Enum(f.GetInteger(gl.BLEND_DST_RGB))
	s.blend.srcA = gl.Enum(f.GetInteger(gl.BLEND_SRC_ALPHA))
	s.blend.dstA = gl.Enum(f.GetInteger(gl.BLEND_DST_ALPHA))
	s.stencil.enable = f.IsEnabled(gl.STENCIL_TEST)
	s.stencil.writeMask = uint(f.GetInteger(gl.STENCIL_WRITEMASK))
	s.stencil.front = stencilFace{
		fn:    gl.Enum(f.GetInteger(gl.STENCIL_FUNC)),
		ref:   f.GetInteger(gl.STENCIL_REF),
		mask:  uint(f.GetInteger(gl.STENCIL_VALUE_MASK)),
		fail:  gl.Enum(f.GetInteger(gl.STENCIL_FAIL)),
		zfail: gl.Enum(f.GetInteger(gl.STENCIL_PASS_DEPTH_FAIL)),
		pass:  gl.Enum(f.GetInteger(gl.STENCIL_PASS_DEPTH_PASS)),
	}
	s.stencil.back = stencilFace{
		fn:    gl.Enum(f.GetInteger(gl.STENCIL_BACK_FUNC)),
		ref:   f.GetInteger(gl.STENCIL_BACK_REF),
		mask:  uint(f.GetInteger(gl.STENCIL_BACK_VALUE_MASK)),
		fail:  gl.Enum(f.GetInteger(gl.STENCIL_BACK_FAIL)),
		zfail: gl.Enum(f.GetInteger(gl.STENCIL_BACK_PASS_DEPTH_FAIL)),
		pass:  gl.Enum(f.GetInteger(gl.STENCIL_BACK_PASS_DEPTH_PASS)),
	}
	cm := f.GetInteger4(gl.COLOR_WRITEMASK)
	for i, v := range cm {
		s.colorMask[i] = v != gl.FALSE
	}
	active := gl.Enum(f.GetInteger(gl.ACTIVE_TEXTURE))
	s.texUnits.active = active
	for i := range s.texUnits.binds {
		s.activeTexture(f, gl.TEXTURE0+gl.Enum(i))
		s.texUnits.binds[i] = gl.Texture{V: uint(f.GetInteger(gl.TEXTURE_BINDING_2D))}
	}
	s.activeTexture(f, active)
	return s
}

func (b *Backend) restoreState(dst glState) {
	src := &b.glstate
	f := b.funcs
	for i, unit := range dst.texUnits.binds {
		src.bindTexture(f, i, unit)
	}
	src.activeTexture(f, dst.texUnits.active)
	src.bindFramebuffer(f, gl.DRAW_FRAMEBUFFER, dst.drawFBO)
	src.bindFramebuffer(f, gl.READ_FRAMEBUFFER, dst.readFBO)
	src.set(f, gl.BLEND, dst.blend.enable)
	bf := dst.blend
	src.setBlendFuncSeparate(f, bf.srcRGB, bf.dstRGB, bf.srcA, bf.dstA)
	src.set(f, gl.STENCIL_TEST, dst.stencil.enable)
	src.setStencilFace(f, gl.FRONT, dst.stencil.front)
	src.setStencilFace(f, gl.BACK, dst.stencil.back)
	src.setStencilMask(f, dst.stencil.writeMask)
	src.setColorMask(f, dst.colorMask)
	src.set(f, gl.CULL_FACE, dst.cullFace)
	src.set(f, gl.DEPTH_TEST, dst.depthTest)
	src.set(f, gl.SCISSOR_TEST, dst.scissorTest)
	src.bindVertexArray(f, dst.vertArray)
	src.useProgram(f, dst.prog)
	for i, r := range dst.uniBufs {
		src.bindBufferRange(f, i, r)
	}
	src.bindBuffer(f, gl.UNIFORM_BUFFER, dst.uniBuf)
	src.bindBuffer(f, gl.COPY_WRITE_BUFFER, dst.copyBuf)
	src.bindBuffer(f, gl.ARRAY_BUFFER, dst.arrayBuf)
	col := dst.clearColor
	src.setClearColor(f, col[0], col[1], col[2], col[3])
	v := dst.viewport
	src.setViewport(f, v[0], v[1], v[2], v[3])
}

func (s *glState) activeTexture(f *gl.Functions, unit gl.Enum) {
	if unit != s.texUnits.active {
		f.ActiveTexture(unit)
		s.texUnits.active = unit
	}
}

func (s *glState) bindRenderbuffer(f *gl.Functions, r gl.Renderbuffer) {
	if r != s.renderBuf {
		f.BindRenderbuffer(gl.RENDERBUFFER, r)
		s.renderBuf = r
	}
}

func (s *glState) bindTexture(f *gl.Functions, unit int, t gl.Texture) {
	s.activeTexture(f, gl.TEXTURE0+gl.Enum(unit))
	if !t.Equal(s.texUnits.binds[unit]) {
		f.BindTexture(gl.TEXTURE_2D, t)
		s.texUnits.binds[unit] = t
	}
}

func (s *glState) bindVertexArray(f *gl.Functions, a gl.VertexArray) {
	if !a.Equal(s.vertArray) {
		f.BindVertexArray(a)
		s.vertArray = a
	}
}

func (s *glState) deleteRenderbuffer(f *gl.Functions, r gl.Renderbuffer) {
	f.DeleteRenderbuffer(r)
	if r == s.renderBuf {
		s.renderBuf = gl.Renderbuffer{}
	}
}

func (s *glState) deleteFramebuffer(f *gl.Functions, fbo gl.Framebuffer) {
	f.DeleteFramebuffer(fbo)
	if fbo.Equal(s.drawFBO) {
		s.drawFBO = gl.Framebuffer{}
	}
	if fbo.Equal(s.readFBO) {
		s.readFBO = gl.Framebuffer{}
	}
}

func (s *glState) deleteBuffer(f *gl.Functions, b gl.Buffer) {
	f.DeleteBuffer(b)
	if b.Equal(s.arrayBuf) {
		s.arrayBuf = gl.Buffer{}
	}
	if b.Equal(s.copyBuf) {
		s.copyBuf = gl.Buffer{}
	}
	if b.Equal(s.uniBuf) {
		s.uniBuf = gl.Buffer{}
	}
	for i, r := range s.uniBufs {
		if b.Equal(r.obj) {
			s.uniBufs[i] = bufferRange{}
		}
	}
}

func (s *glState) deleteProgram(f *gl.Functions, p gl.Program) {
	f.DeleteProgram(p)
	if p.Equal(s.prog) {
		s.prog = gl.Program{}
	}
}

func (s *glState) deleteVertexArray(f *gl.Functions, a gl.VertexArray) {
	f.DeleteVertexArray(a)
	if a.Equal(s.vertArray) {
		s.vertArray = gl.VertexArray{}
	}
}

func (s *glState) deleteTexture(f *gl.Functions, t gl.Texture) {
	f.DeleteTexture(t)
	binds := &s.texUnits.binds
	for i, obj := range binds {
		if t.Equal(obj) {
			binds[i] = gl.Texture{}
		}
	}
}

func (s *glState) useProgram(f *gl.Functions, p gl.Program) {
	if !p.Equal(s.prog) {
		f.UseProgram(p)
		s.prog = p
	}
}

func (s *glState) bindFramebuffer(f *gl.Functions, target gl.Enum, fbo gl.Framebuffer) {
	switch target {
	case gl.FRAMEBUFFER:
		if fbo.Equal(s.drawFBO) && fbo.Equal(s.readFBO) {
			return
		}
		s.drawFBO = fbo
		s.readFBO = fbo
	case gl.READ_FRAMEBUFFER:
		if fbo.Equal(s.readFBO) {
			return
		}
		s.readFBO = fbo
	case gl.DRAW_FRAMEBUFFER:
		if fbo.Equal(s.drawFBO) {
			return
		}
		s.drawFBO = fbo
	default:
		panic("unknown target")
	}
	f.BindFramebuffer(target, fbo)
}

// bindBufferRange binds r to the uniform buffer binding point idx. An
// empty range binds the whole buffer.
func (s *glState) bindBufferRange(f *gl.Functions, idx int, r bufferRange) {
	if r == s.uniBufs[idx] {
		return
	}
	if r.size == 0 {
		f.BindBufferBase(gl.UNIFORM_BUFFER, idx, r.obj)
	} else {
		f.BindBufferRange(gl.UNIFORM_BUFFER, idx, r.obj, r.offset, r.size)
	}
	s.uniBufs[idx] = r
	// Indexed binds also bind the generic binding point.
	s.uniBuf = r.obj
}

func (s *glState) bindBuffer(f *gl.Functions, target gl.Enum, buf gl.Buffer) {
	switch target {
	case gl.ARRAY_BUFFER:
		if buf.Equal(s.arrayBuf) {
			return
		}
		s.arrayBuf = buf
	case gl.COPY_WRITE_BUFFER:
		if buf.Equal(s.copyBuf) {
			return
		}
		s.copyBuf = buf
	case gl.UNIFORM_BUFFER:
		if buf.Equal(s.uniBuf) {
			return
		}
		s.uniBuf = buf
	default:
		panic("unknown buffer target")
	}
	f.BindBuffer(target, buf)
}

func (s *glState) setClearColor(f *gl.Functions, r, g, b, a float32) {
	col := [4]float32{r, g, b, a}
	if col != s.clearColor {
		f.ClearColor(r, g, b, a)
		s.clearColor = col
	}
}

func (s *glState) setViewport(f *gl.Functions, x, y, width, height int) {
	view := [4]int{x, y, width, height}
	if view != s.viewport {
		f.Viewport(x, y, width, height)
		s.viewport = view
	}
}

func (s *glState) setBlendFuncSeparate(f *gl.Functions, srcRGB, dstRGB, srcA, dstA gl.Enum) {
	if srcRGB != s.blend.srcRGB || dstRGB != s.blend.dstRGB || srcA != s.blend.srcA || dstA != s.blend.dstA {
		s.blend.srcRGB = srcRGB
		s.blend.dstRGB = dstRGB
		s.blend.srcA = srcA
		s.blend.dstA = dstA
		f.BlendFuncSeparate(srcRGB, dstRGB, srcA, dstA)
	}
}

func (s *glState) setStencilFace(f *gl.Functions, face gl.Enum, st stencilFace) {
	cur := &s.stencil.front
	if face == gl.BACK {
		cur = &s.stencil.back
	}
	if st.fn != cur.fn || st.ref != cur.ref || st.mask != cur.mask {
		f.StencilFuncSeparate(face, st.fn, st.ref, st.mask)
	}
	if st.fail != cur.fail || st.zfail != cur.zfail || st.pass != cur.pass {
		f.StencilOpSeparate(face, st.fail, st.zfail, st.pass)
	}
	*cur = st
}

func (s *glState) setStencilMask(f *gl.Functions, mask uint) {
	if mask != s.stencil.writeMask {
		f.StencilMask(mask)
		s.stencil.writeMask = mask
	}
}

func (s *glState) setColorMask(f *gl.Functions, mask [4]bool) {
	if mask != s.colorMask {
		f.ColorMask(mask[0], mask[1], mask[2], mask[3])
		s.colorMask = mask
	}
}

func (s *glState) set(f *gl.Functions, target gl.Enum, enable bool) {
	var cur *bool
	switch target {
	case gl.BLEND:
		cur = &s.blend.enable
	case gl.STENCIL_TEST:
		cur = &s.stencil.enable
	case gl.CULL_FACE:
		cur = &s.cullFace
	case gl.DEPTH_TEST:
		cur = &s.depthTest
	case gl.SCISSOR_TEST:
		cur = &s.scissorTest
	default:
		panic("unknown enable")
	}
	if *cur == enable {
		return
	}
	*cur = enable
	if enable {
		f.Enable(target)
	} else {
		f.Disable(target)
	}
}

func (b *Backend) NewFramebuffer(tex driver.Texture, stencil bool) (driver.Framebuffer, error) {
	gltex := tex.(*gpuTexture)
	var (
		fbo *gpuFramebuffer
		err error
	)
	b.scoped(func() {
		f := b.funcs
		glErr(f)
		fbo = &gpuFramebuffer{backend: b, obj: f.CreateFramebuffer(), width: gltex.width, height: gltex.height}
		b.glstate.bindFramebuffer(f, gl.FRAMEBUFFER, fbo.obj)
		f.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, gltex.obj, 0)
		if stencil {
			fbo.stencilBuf = f.CreateRenderbuffer()
			b.glstate.bindRenderbuffer(f, fbo.stencilBuf)
			f.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, gltex.width, gltex.height)
			f.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, fbo.stencilBuf)
		}
		if err = glErr(f); err != nil {
			return
		}
		if st := f.CheckFramebufferStatus(gl.FRAMEBUFFER); st != gl.FRAMEBUFFER_COMPLETE {
			err = fmt.Errorf("incomplete framebuffer, status = 0x%x, err = %d", st, f.GetError())
		}
	})
	if err != nil {
		fbo.Release()
		return nil, fmt.Errorf("opengl: framebuffer: %w", err)
	}
	return fbo, nil
}

func (b *Backend) NewTexture(format driver.TextureFormat, width, height int, minFilter, magFilter driver.TextureFilter, binding driver.BufferBinding) (driver.Texture, error) {
	tex := &gpuTexture{backend: b, width: width, height: height}
	switch format {
	case driver.TextureFormatRGBA8:
		tex.triple = textureTriple{gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, 4}
	case driver.TextureFormatR8:
		tex.triple = textureTriple{gl.R8, gl.RED, gl.UNSIGNED_BYTE, 1}
	default:
		return nil, fmt.Errorf("opengl: unsupported texture format %d", format)
	}
	var err error
	b.scoped(func() {
		f := b.funcs
		glErr(f)
		tex.obj = f.CreateTexture()
		b.glstate.bindTexture(f, 0, tex.obj)
		f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, toTexFilter(magFilter))
		f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, toTexFilter(minFilter))
		f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		f.TexImage2D(gl.TEXTURE_2D, 0, tex.triple.internalFormat, width, height, tex.triple.format, tex.triple.typ)
		err = glErr(f)
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("opengl: texture: %w", err)
	}
	return tex, nil
}

func (b *Backend) NewBuffer(typ driver.BufferBinding, size int) (driver.Buffer, error) {
	if typ&driver.BufferBindingUniforms != 0 && typ != driver.BufferBindingUniforms {
		return nil, errors.New("opengl: uniform buffers cannot be bound as anything else")
	}
	buf := &gpuBuffer{backend: b, typ: typ, size: size}
	var err error
	b.scoped(func() {
		f := b.funcs
		glErr(f)
		buf.obj = f.CreateBuffer()
		b.glstate.bindBuffer(f, gl.COPY_WRITE_BUFFER, buf.obj)
		f.BufferData(gl.COPY_WRITE_BUFFER, size, gl.DYNAMIC_DRAW)
		err = glErr(f)
	})
	if err != nil {
		buf.Release()
		return nil, fmt.Errorf("opengl: buffer: %w", err)
	}
	return buf, nil
}

func (b *Backend) NewVertexShader(src driver.ShaderSources) (driver.VertexShader, error) {
	sh, err := b.newShader(gl.VERTEX_SHADER, src)
	if err != nil {
		return nil, err
	}
	return sh, nil
}

func (b *Backend) NewFragmentShader(src driver.ShaderSources) (driver.FragmentShader, error) {
	sh, err := b.newShader(gl.FRAGMENT_SHADER, src)
	if err != nil {
		return nil, err
	}
	return sh, nil
}

func (b *Backend) newShader(typ gl.Enum, src driver.ShaderSources) (*gpuShader, error) {
	if src.Profile != driver.ProfileLegacy {
		return nil, fmt.Errorf("opengl: %s: unsupported profile %v", src.Name, src.Profile)
	}
	sh, err := gl.CreateShader(b.funcs, typ, src.Source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name, err)
	}
	return &gpuShader{backend: b, obj: sh, src: src}, nil
}

func (s *gpuShader) Release() {
	if s.obj.Valid() {
		s.backend.funcs.DeleteShader(s.obj)
		s.obj = gl.Shader{}
	}
}

func (b *Backend) NewPipeline(desc driver.PipelineDesc) (driver.Pipeline, error) {
	vs := desc.VertexShader.(*gpuShader)
	fs := desc.FragmentShader.(*gpuShader)
	inputs := vs.src.Inputs
	if len(inputs) != len(desc.VertexLayout.Inputs) {
		return nil, fmt.Errorf("opengl: %s: got %d vertex inputs, expected %d", vs.src.Name, len(desc.VertexLayout.Inputs), len(inputs))
	}
	locs := make([]int, len(inputs))
	for i, inp := range inputs {
		l := desc.VertexLayout.Inputs[i]
		if l.Type != shader.DataTypeFloat {
			return nil, fmt.Errorf("opengl: %s: unsupported data type for %q", vs.src.Name, inp.Name)
		}
		if exp, got := inp.Size, l.Size; exp != got {
			return nil, fmt.Errorf("opengl: %s: data size mismatch for %q: got %d expected %d", vs.src.Name, inp.Name, got, exp)
		}
		if inp.Location >= maxAttribs {
			return nil, fmt.Errorf("opengl: %s: input location %d out of range", vs.src.Name, inp.Location)
		}
		locs[i] = inp.Location
	}
	prog, err := b.program(vs, fs)
	if err != nil {
		return nil, err
	}
	return &pipeline{
		backend:    b,
		prog:       prog,
		layout:     desc.VertexLayout,
		locations:  locs,
		blend:      desc.BlendDesc,
		stencil:    desc.StencilDesc,
		colorWrite: !desc.ColorWriteDisable,
	}, nil
}

// program returns the linked program of a shader pair, linking it on
// first use.
func (b *Backend) program(vs, fs *gpuShader) (*gpuProgram, error) {
	key := programKey{vert: vs, frag: fs}
	if p, ok := b.programs[key]; ok {
		p.refs++
		return p, nil
	}
	attr := make([]string, maxAttribs)
	for _, inp := range vs.src.Inputs {
		attr[inp.Location] = inp.Name
	}
	obj, err := gl.LinkProgram(b.funcs, vs.obj, fs.obj, attr)
	if err != nil {
		return nil, fmt.Errorf("%s+%s: %w", vs.src.Name, fs.src.Name, err)
	}
	p := &gpuProgram{backend: b, key: key, obj: obj, refs: 1}
	b.scoped(func() {
		b.glstate.useProgram(b.funcs, obj)
		err = b.bindResources(obj, vs.src, fs.src)
	})
	if err != nil {
		b.glstate.deleteProgram(b.funcs, obj)
		return nil, fmt.Errorf("%s+%s: %w", vs.src.Name, fs.src.Name, err)
	}
	b.programs[key] = p
	return p, nil
}

// bindResources assigns the sampler units and uniform block bindings of
// the program prog, which must be current, and verifies the block
// layouts reported by GL against the reflection data.
func (b *Backend) bindResources(prog gl.Program, srcs ...driver.ShaderSources) error {
	f := b.funcs
	for _, src := range srcs {
		for _, tex := range src.Textures {
			u := f.GetUniformLocation(prog, tex.Name)
			if u.Valid() {
				f.Uniform1i(u, tex.Slot.Binding)
			}
		}
		for _, block := range src.Blocks {
			idx := f.GetUniformBlockIndex(prog, block.Name)
			if idx == gl.INVALID_INDEX {
				return fmt.Errorf("uniform block %q not found", block.Name)
			}
			f.UniformBlockBinding(prog, idx, uint(block.Slot.Binding))
			if size := f.GetActiveUniformBlocki(prog, idx, gl.UNIFORM_BLOCK_DATA_SIZE); size != block.Size {
				return fmt.Errorf("uniform block %q: size %d, expected %d", block.Name, size, block.Size)
			}
			names := make([]string, len(block.Fields))
			for i, field := range block.Fields {
				names[i] = block.Name + "." + field.Name
			}
			offsets := f.GetUniformOffsets(prog, names)
			for i, field := range block.Fields {
				if offsets[i] != field.Offset {
					return fmt.Errorf("uniform %s: offset %d, expected %d", names[i], offsets[i], field.Offset)
				}
			}
		}
	}
	return glErr(f)
}

func (p *gpuProgram) release() {
	p.refs--
	if p.refs > 0 {
		return
	}
	b := p.backend
	delete(b.programs, p.key)
	b.glstate.deleteProgram(b.funcs, p.obj)
}

func (p *pipeline) Release() {
	if p.released {
		return
	}
	p.released = true
	if p.backend.state.pipeline == p {
		p.backend.state.pipeline = nil
	}
	p.prog.release()
}

func (b *Backend) BindPipeline(pipe driver.Pipeline) {
	p := pipe.(*pipeline)
	f := b.funcs
	b.state.pipeline = p
	b.glstate.useProgram(f, p.prog.obj)
	b.glstate.set(f, gl.BLEND, p.blend.Enable)
	if p.blend.Enable {
		src, dst := toGLBlendFactor(p.blend.SrcFactor), toGLBlendFactor(p.blend.DstFactor)
		b.glstate.setBlendFuncSeparate(f, src, dst, src, dst)
	}
	b.glstate.set(f, gl.STENCIL_TEST, p.stencil.Enable)
	if p.stencil.Enable {
		fn := toGLCompareFunc(p.stencil.Func)
		b.glstate.setStencilFace(f, gl.FRONT, toStencilFace(fn, p.stencil.Front))
		b.glstate.setStencilFace(f, gl.BACK, toStencilFace(fn, p.stencil.Back))
		b.glstate.setStencilMask(f, 0xff)
	}
	b.glstate.setColorMask(f, [4]bool{p.colorWrite, p.colorWrite, p.colorWrite, p.colorWrite})
}

func toStencilFace(fn gl.Enum, ops driver.StencilOps) stencilFace {
	return stencilFace{
		fn:    fn,
		ref:   0,
		mask:  0xff,
		fail:  toGLStencilOp(ops.Fail),
		zfail: toGLStencilOp(ops.DepthFail),
		pass:  toGLStencilOp(ops.Pass),
	}
}

func (b *Backend) BindUniforms(slot driver.Slot, buf driver.Buffer, offset, size int) {
	gbuf := buf.(*gpuBuffer)
	if gbuf.typ&driver.BufferBindingUniforms == 0 {
		panic("not a uniform buffer")
	}
	if slot.Binding >= len(b.glstate.uniBufs) {
		panic(fmt.Errorf("uniform binding %d out of range", slot.Binding))
	}
	b.glstate.bindBufferRange(b.funcs, slot.Binding, bufferRange{obj: gbuf.obj, offset: offset, size: size})
}

func (b *Backend) BindTexture(slot driver.Slot, t driver.Texture) {
	b.glstate.bindTexture(b.funcs, slot.Binding, t.(*gpuTexture).obj)
}

func (b *Backend) BindVertexBuffer(buf driver.Buffer, offset int) {
	gbuf := buf.(*gpuBuffer)
	if gbuf.typ&driver.BufferBindingVertices == 0 {
		panic("not a vertex buffer")
	}
	b.state.buffer = bufferBinding{obj: gbuf.obj, offset: offset}
}

func (b *Backend) BindIndexBuffer(buf driver.Buffer) {
	gbuf := buf.(*gpuBuffer)
	if gbuf.typ&driver.BufferBindingIndices == 0 {
		panic("not an index buffer")
	}
	// The element array binding is state of the vertex array object,
	// which only the backend uses.
	b.funcs.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gbuf.obj)
}

func (b *Backend) DrawArrays(mode driver.DrawMode, off, count int) {
	b.prepareDraw()
	b.funcs.DrawArrays(toGLDrawMode(mode), off, count)
}

func (b *Backend) DrawElements(mode driver.DrawMode, off, count int) {
	b.prepareDraw()
	// off is in 32-bit indices, but DrawElements take a byte offset.
	b.funcs.DrawElements(toGLDrawMode(mode), count, gl.UNSIGNED_INT, off*4)
}

func (b *Backend) prepareDraw() {
	p := b.state.pipeline
	if p == nil {
		panic("no pipeline bound")
	}
	var enabled [maxAttribs]bool
	buf := b.state.buffer
	for i, l := range p.layout.Inputs {
		loc := p.locations[i]
		enabled[loc] = true
		b.vertexAttribPointer(buf.obj, loc, l.Size, p.layout.Stride, buf.offset+l.Offset)
	}
	for i := range b.attribs {
		b.setVertexAttribArray(i, enabled[i])
	}
}

func (b *Backend) vertexAttribPointer(buf gl.Buffer, idx, size, stride, offset int) {
	a := &b.attribs[idx]
	if a.obj.Equal(buf) && a.size == size && a.stride == stride && a.offset == offset {
		return
	}
	b.glstate.bindBuffer(b.funcs, gl.ARRAY_BUFFER, buf)
	a.obj = buf
	a.size = size
	a.stride = stride
	a.offset = offset
	b.funcs.VertexAttribPointer(gl.Attrib(idx), size, gl.FLOAT, false, stride, offset)
}

func (b *Backend) setVertexAttribArray(idx int, enabled bool) {
	a := &b.attribs[idx]
	if enabled == a.enabled {
		return
	}
	if enabled {
		b.funcs.EnableVertexAttribArray(gl.Attrib(idx))
	} else {
		b.funcs.DisableVertexAttribArray(gl.Attrib(idx))
	}
	a.enabled = enabled
}

func (b *Backend) Release() {
	if b.inFrame {
		b.EndEncoding()
	}
	if b.vertArray.Valid() {
		b.funcs.DeleteVertexArray(b.vertArray)
	}
	for _, p := range b.programs {
		b.funcs.DeleteProgram(p.obj)
	}
	*b = Backend{}
}

func (b *gpuBuffer) Upload(off int, data []byte) {
	if off < 0 || off+len(data) > b.size {
		panic("buffer size overflow")
	}
	if len(data) == 0 {
		return
	}
	bk := b.backend
	bk.scoped(func() {
		bk.glstate.bindBuffer(bk.funcs, gl.COPY_WRITE_BUFFER, b.obj)
		bk.funcs.BufferSubData(gl.COPY_WRITE_BUFFER, off, data)
	})
}

func (b *gpuBuffer) Release() {
	if !b.obj.Valid() {
		return
	}
	bk := b.backend
	bk.scoped(func() {
		bk.glstate.deleteBuffer(bk.funcs, b.obj)
	})
	// Names of deleted buffers may be reused.
	for i := range bk.attribs {
		if bk.attribs[i].obj.Equal(b.obj) {
			bk.attribs[i] = attribState{enabled: bk.attribs[i].enabled}
		}
	}
	if bk.state.buffer.obj.Equal(b.obj) {
		bk.state.buffer = bufferBinding{}
	}
	b.obj = gl.Buffer{}
}

func (t *gpuTexture) Upload(offset, size image.Point, pixels []byte, stride int) {
	bpp := t.triple.bytesPerPixel
	if stride == 0 {
		stride = size.X * bpp
	}
	if need := (size.Y-1)*stride + size.X*bpp; size.Y > 0 && need > len(pixels) {
		panic(fmt.Errorf("size %d larger than data %d", need, len(pixels)))
	}
	b := t.backend
	f := b.funcs
	b.scoped(func() {
		b.glstate.bindTexture(f, 0, t.obj)
		align := f.GetInteger(gl.UNPACK_ALIGNMENT)
		rowLen := f.GetInteger(gl.UNPACK_ROW_LENGTH)
		f.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
		f.PixelStorei(gl.UNPACK_ROW_LENGTH, stride/bpp)
		f.TexSubImage2D(gl.TEXTURE_2D, 0, offset.X, offset.Y, size.X, size.Y, t.triple.format, t.triple.typ, pixels)
		f.PixelStorei(gl.UNPACK_ALIGNMENT, align)
		f.PixelStorei(gl.UNPACK_ROW_LENGTH, rowLen)
	})
}

func (t *gpuTexture) Release() {
	if t.obj.Valid() {
		t.backend.scoped(func() {
			t.backend.glstate.deleteTexture(t.backend.funcs, t.obj)
		})
		t.obj = gl.Texture{}
	}
}

func (f *gpuFramebuffer) ImplementsRenderTarget() {}

func (f *gpuFramebuffer) ReadPixels(src image.Rectangle, pixels []byte, stride int) error {
	if len(pixels) < (src.Dy()-1)*stride+src.Dx()*4 {
		return errors.New("unexpected RGBA size")
	}
	b := f.backend
	fn := b.funcs
	var err error
	b.scoped(func() {
		glErr(fn)
		b.glstate.bindFramebuffer(fn, gl.READ_FRAMEBUFFER, f.obj)
		align := fn.GetInteger(gl.PACK_ALIGNMENT)
		rowLen := fn.GetInteger(gl.PACK_ROW_LENGTH)
		fn.PixelStorei(gl.PACK_ALIGNMENT, 1)
		fn.PixelStorei(gl.PACK_ROW_LENGTH, stride/4)
		fn.ReadPixels(src.Min.X, src.Min.Y, src.Dx(), src.Dy(), gl.RGBA, gl.UNSIGNED_BYTE, pixels)
		fn.PixelStorei(gl.PACK_ALIGNMENT, align)
		fn.PixelStorei(gl.PACK_ROW_LENGTH, rowLen)
		err = glErr(fn)
	})
	return err
}

func (f *gpuFramebuffer) Release() {
	b := f.backend
	b.scoped(func() {
		if f.obj.Valid() {
			b.glstate.deleteFramebuffer(b.funcs, f.obj)
		}
		if f.stencilBuf.Valid() {
			b.glstate.deleteRenderbuffer(b.funcs, f.stencilBuf)
		}
	})
	f.obj = gl.Framebuffer{}
	f.stencilBuf = gl.Renderbuffer{}
}

func glErr(f *gl.Functions) error {
	if st := f.GetError(); st != gl.NO_ERROR {
		return fmt.Errorf("glGetError: %#x", st)
	}
	return nil
}

func toTexFilter(f driver.TextureFilter) int {
	switch f {
	case driver.FilterNearest:
		return gl.NEAREST
	case driver.FilterLinear:
		return gl.LINEAR
	default:
		panic("unsupported texture filter")
	}
}

func toGLBlendFactor(f driver.BlendFactor) gl.Enum {
	switch f {
	case driver.BlendFactorOne:
		return gl.ONE
	case driver.BlendFactorOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	default:
		panic("unsupported blend factor")
	}
}

func toGLCompareFunc(f driver.CompareFunc) gl.Enum {
	switch f {
	case driver.CompareAlways:
		return gl.ALWAYS
	case driver.CompareEqual:
		return gl.EQUAL
	case driver.CompareNotEqual:
		return gl.NOTEQUAL
	default:
		panic("unsupported compare func")
	}
}

func toGLStencilOp(op driver.StencilOp) gl.Enum {
	switch op {
	case driver.StencilKeep:
		return gl.KEEP
	case driver.StencilZero:
		return gl.ZERO
	case driver.StencilIncr:
		return gl.INCR
	case driver.StencilIncrWrap:
		return gl.INCR_WRAP
	case driver.StencilDecrWrap:
		return gl.DECR_WRAP
	default:
		panic("unsupported stencil op")
	}
}

func toGLDrawMode(mode driver.DrawMode) gl.Enum {
	switch mode {
	case driver.DrawModeTriangleStrip:
		return gl.TRIANGLE_STRIP
	case driver.DrawModeTriangles:
		return gl.TRIANGLES
	default:
		panic("unsupported draw mode")
	}
}
