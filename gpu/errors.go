// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned for malformed draw or frame
	// parameters. Nothing is sent to the GPU.
	ErrInvalidParameter = errors.New("gpu: invalid parameter")
	// ErrInvalidState is returned when a frame method is called in the
	// wrong frame state.
	ErrInvalidState = errors.New("gpu: invalid state")
	// ErrResourceMissing is returned for draws referring to an unknown
	// or deleted image. The draw is skipped.
	ErrResourceMissing = errors.New("gpu: resource missing")
)

// ConstructionError reports a shader program that failed to compile or
// link. It is cached and returned for every later request of the same
// program.
type ConstructionError struct {
	Program string
	Err     error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("gpu: %s program: %v", e.Program, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}
