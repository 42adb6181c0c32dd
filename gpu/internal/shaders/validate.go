// SPDX-License-Identifier: Unlicense OR MIT

package shaders

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gioui.org/nanovg/gpu/internal/driver"
)

// GLSLValidator runs the Khronos reference compiler over shader
// sources.
type GLSLValidator struct {
	Bin     string
	WorkDir WorkDir
}

// WorkDir is a directory for compiler output.
type WorkDir string

func NewGLSLValidator(dir WorkDir) *GLSLValidator {
	return &GLSLValidator{Bin: "glslangValidator", WorkDir: dir}
}

// Available reports whether the validator binary can be found.
func (glsl *GLSLValidator) Available() bool {
	_, err := exec.LookPath(glsl.Bin)
	return err == nil
}

// Validate compiles src. Modern sources use Vulkan binding qualifiers
// and are compiled to SPIR-V; legacy sources are checked as OpenGL
// GLSL.
func (glsl *GLSLValidator) Validate(src driver.ShaderSources) error {
	stage := strings.TrimPrefix(filepath.Ext(src.Name), ".")
	cmd := exec.Command(glsl.Bin,
		"--stdin",
		"-S", stage,
	)
	if src.Profile == driver.ProfileModern {
		out := glsl.WorkDir.Path(src.Name, src.Profile.String(), "spv")
		cmd.Args = append(cmd.Args, "-V", "-o", out)
	}
	cmd.Stdin = bytes.NewBufferString(src.Source)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s\nfailed to run %v: %w", out, cmd.Args, err)
	}
	return nil
}

func (wd WorkDir) Dir(path string) WorkDir {
	dirname := filepath.Join(string(wd), path)
	if err := os.Mkdir(dirname, 0755); err != nil {
		if !os.IsExist(err) {
			fmt.Fprintf(os.Stderr, "failed to create %q: %v\n", dirname, err)
		}
	}
	return WorkDir(dirname)
}

func (wd WorkDir) Path(path ...string) (fullpath string) {
	return filepath.Join(string(wd), strings.Join(path, "."))
}
