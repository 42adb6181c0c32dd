// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/gpu/internal/uniform"
	"gioui.org/nanovg/internal/f32color"
)

// An API carries the necessary GPU API specific resources to create a
// Renderer. There is an API type for each supported GPU API such as
// OpenGL.
type API = driver.API

// A RenderTarget denotes the destination framebuffer for a frame.
type RenderTarget = driver.RenderTarget

// OpenGLRenderTarget is a render target suitable for the OpenGL
// backend. It must have a stencil attachment.
type OpenGLRenderTarget = driver.OpenGLRenderTarget

// OpenGL denotes the OpenGL API. The current context must be valid
// for every Renderer method.
type OpenGL = driver.OpenGL

// Profile is the shading language version and resource binding
// convention of the shaders.
type Profile = driver.Profile

const (
	// ProfileLegacy targets GLSL 4.10 with uniform blocks bound by
	// name.
	ProfileLegacy = driver.ProfileLegacy
	// ProfileModern targets GLSL 4.60 with explicit set and binding
	// qualifiers.
	ProfileModern = driver.ProfileModern
)

// PaintKind selects how the fragment shader computes color.
type PaintKind = uniform.Kind

const (
	PaintGradient  = uniform.KindGradient
	PaintImageFill = uniform.KindImageFill
	PaintImageDraw = uniform.KindImageDraw
)

// Color is a straight alpha color with float components in [0, 1].
type Color = f32color.RGBA
