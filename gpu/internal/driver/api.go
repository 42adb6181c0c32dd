// SPDX-License-Identifier: Unlicense OR MIT

package driver

import (
	"fmt"

	"gioui.org/nanovg/internal/gl"
)

// See gpu/api.go for documentation for the API types.

type API interface {
	implementsAPI()
}

type RenderTarget interface {
	ImplementsRenderTarget()
}

type OpenGLRenderTarget gl.Framebuffer

type OpenGL struct {
	// Debug enables extra validation of shader programs and GL errors.
	Debug bool
}

// API specific device constructors.
var (
	NewOpenGLDevice func(api OpenGL) (Device, error)
)

// NewDevice creates a new Device given the api.
//
// Note that the device does not assume ownership of the resources contained in
// api; the caller must ensure the resources are valid until the device is
// released.
func NewDevice(api API) (Device, error) {
	switch api := api.(type) {
	case OpenGL:
		if NewOpenGLDevice != nil {
			return NewOpenGLDevice(api)
		}
	}
	return nil, fmt.Errorf("driver: no driver available for the API %T", api)
}

func (OpenGL) implementsAPI()                      {}
func (OpenGLRenderTarget) ImplementsRenderTarget() {}
