// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"
	"os"
	"strconv"

	"gioui.org/nanovg/gpu/internal/driver"
)

// Options configure a Renderer. They are fixed for its lifetime.
type Options struct {
	// AntiAlias selects the anti-aliased shader variant and enables
	// fringe passes for filled paths.
	AntiAlias bool
	// StencilStrokes draws strokes in three passes so overlapping
	// stroke segments are covered once.
	StencilStrokes bool
	// Profile selects the shader profile. It must be supported by the
	// device.
	Profile Profile
	// FramesInFlight is the number of frames whose scratch memory is
	// kept alive. Zero means 3.
	FramesInFlight int
	// Debug turns state errors into panics.
	Debug bool
}

const defaultFramesInFlight = 3

// withEnv applies the NANOVG_DEBUG and NANOVG_PROFILE environment
// overrides and fills in defaults.
func (o Options) withEnv() (Options, error) {
	if v, ok := os.LookupEnv("NANOVG_DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return o, fmt.Errorf("gpu: NANOVG_DEBUG: %w", err)
		}
		o.Debug = debug
	}
	switch v := os.Getenv("NANOVG_PROFILE"); v {
	case "":
	case "legacy":
		o.Profile = ProfileLegacy
	case "modern":
		o.Profile = ProfileModern
	default:
		return o, fmt.Errorf("gpu: NANOVG_PROFILE: unknown profile %q", v)
	}
	if o.FramesInFlight == 0 {
		o.FramesInFlight = defaultFramesInFlight
	}
	if o.FramesInFlight < 0 {
		return o, fmt.Errorf("%w: %d frames in flight", ErrInvalidParameter, o.FramesInFlight)
	}
	return o, nil
}

func (o Options) validate(caps driver.Caps) error {
	if !caps.Profiles.Has(o.Profile) {
		return fmt.Errorf("%w: profile %v not supported by device", ErrInvalidParameter, o.Profile)
	}
	return nil
}
