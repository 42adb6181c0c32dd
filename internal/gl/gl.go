// SPDX-License-Identifier: Unlicense OR MIT

package gl

type (
	Attrib uint
	Enum   uint
)

const (
	ACTIVE_TEXTURE                  = 0x84e0
	ALWAYS                          = 0x207
	ARRAY_BUFFER                    = 0x8892
	ARRAY_BUFFER_BINDING            = 0x8894
	BACK                            = 0x0405
	BLEND                           = 0xbe2
	BLEND_DST_ALPHA                 = 0x80ca
	BLEND_DST_RGB                   = 0x80c8
	BLEND_SRC_ALPHA                 = 0x80cb
	BLEND_SRC_RGB                   = 0x80c9
	CLAMP_TO_EDGE                   = 0x812f
	COLOR_ATTACHMENT0               = 0x8ce0
	COLOR_BUFFER_BIT                = 0x4000
	COLOR_CLEAR_VALUE               = 0xc22
	COLOR_WRITEMASK                 = 0xc23
	COMPILE_STATUS                  = 0x8b81
	COPY_WRITE_BUFFER               = 0x8f37
	COPY_WRITE_BUFFER_BINDING       = 0x8f37
	CULL_FACE                       = 0xb44
	CURRENT_PROGRAM                 = 0x8b8d
	DECR                            = 0x1e03
	DECR_WRAP                       = 0x8508
	DEPTH24_STENCIL8                = 0x88f0
	DEPTH_BUFFER_BIT                = 0x100
	DEPTH_STENCIL_ATTACHMENT        = 0x821a
	DEPTH_TEST                      = 0xb71
	DRAW_FRAMEBUFFER                = 0x8ca9
	DYNAMIC_DRAW                    = 0x88e8
	ELEMENT_ARRAY_BUFFER            = 0x8893
	ELEMENT_ARRAY_BUFFER_BINDING    = 0x8895
	EQUAL                           = 0x202
	EXTENSIONS                      = 0x1f03
	FALSE                           = 0
	FLOAT                           = 0x1406
	FRAGMENT_SHADER                 = 0x8b30
	FRAMEBUFFER                     = 0x8d40
	FRAMEBUFFER_BINDING             = 0x8ca6
	FRAMEBUFFER_COMPLETE            = 0x8cd5
	FRONT                           = 0x0404
	FRONT_AND_BACK                  = 0x408
	INCR                            = 0x1e02
	INCR_WRAP                       = 0x8507
	INFO_LOG_LENGTH                 = 0x8b84
	INVALID_INDEX                   = 0xffffffff
	INVALID_OPERATION               = 0x502
	KEEP                            = 0x1e00
	LINEAR                          = 0x2601
	LINK_STATUS                     = 0x8b82
	MAX_TEXTURE_SIZE                = 0xd33
	NEAREST                         = 0x2600
	NOTEQUAL                        = 0x205
	NO_ERROR                        = 0x0
	ONE                             = 0x1
	ONE_MINUS_SRC_ALPHA             = 0x303
	PACK_ALIGNMENT                  = 0xd05
	PACK_ROW_LENGTH                 = 0xd02
	R8                              = 0x8229
	READ_FRAMEBUFFER                = 0x8ca8
	READ_FRAMEBUFFER_BINDING        = 0x8caa
	RED                             = 0x1903
	RENDERBUFFER                    = 0x8d41
	RENDERER                        = 0x1f01
	RGBA                            = 0x1908
	RGBA8                           = 0x8058
	SCISSOR_TEST                    = 0xc11
	SHADING_LANGUAGE_VERSION        = 0x8b8c
	SRC_ALPHA                       = 0x302
	STATIC_DRAW                     = 0x88e4
	STENCIL_BACK_FAIL               = 0x8801
	STENCIL_BACK_FUNC               = 0x8800
	STENCIL_BACK_PASS_DEPTH_FAIL    = 0x8802
	STENCIL_BACK_PASS_DEPTH_PASS    = 0x8803
	STENCIL_BACK_REF                = 0x8ca3
	STENCIL_BACK_VALUE_MASK         = 0x8ca4
	STENCIL_BUFFER_BIT              = 0x400
	STENCIL_CLEAR_VALUE             = 0xb91
	STENCIL_FAIL                    = 0xb94
	STENCIL_FUNC                    = 0xb92
	STENCIL_PASS_DEPTH_FAIL         = 0xb95
	STENCIL_PASS_DEPTH_PASS         = 0xb96
	STENCIL_REF                     = 0xb97
	STENCIL_TEST                    = 0xb90
	STENCIL_VALUE_MASK              = 0xb93
	STENCIL_WRITEMASK               = 0xb98
	TEXTURE0                        = 0x84c0
	TEXTURE_2D                      = 0xde1
	TEXTURE_BINDING_2D              = 0x8069
	TEXTURE_MAG_FILTER              = 0x2800
	TEXTURE_MIN_FILTER              = 0x2801
	TEXTURE_WRAP_S                  = 0x2802
	TEXTURE_WRAP_T                  = 0x2803
	TRIANGLES                       = 0x4
	TRIANGLE_STRIP                  = 0x5
	TRUE                            = 1
	UNIFORM_BLOCK_DATA_SIZE         = 0x8a40
	UNIFORM_BUFFER                  = 0x8a11
	UNIFORM_BUFFER_BINDING          = 0x8a28
	UNIFORM_BUFFER_OFFSET_ALIGNMENT = 0x8a34
	UNIFORM_BUFFER_SIZE             = 0x8a2a
	UNIFORM_BUFFER_START            = 0x8a29
	UNIFORM_OFFSET                  = 0x8a3b
	UNPACK_ALIGNMENT                = 0xcf5
	UNPACK_ROW_LENGTH               = 0xcf2
	UNSIGNED_BYTE                   = 0x1401
	UNSIGNED_INT                    = 0x1405
	VERSION                         = 0x1f02
	VERTEX_ARRAY_BINDING            = 0x85b5
	VERTEX_SHADER                   = 0x8b31
	VIEWPORT                        = 0xba2
	ZERO                            = 0x0
)
