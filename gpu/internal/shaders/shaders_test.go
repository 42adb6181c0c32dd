// SPDX-License-Identifier: Unlicense OR MIT

package shaders

import (
	"regexp"
	"strings"
	"testing"

	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/shader"
)

var profiles = []driver.Profile{driver.ProfileLegacy, driver.ProfileModern}

// blockFields parses the members of the uniform block name declared in
// src.
func blockFields(t *testing.T, src, name string) []shader.UniformLocation {
	t.Helper()
	start := strings.Index(src, "uniform "+name+" {")
	if start == -1 {
		t.Fatalf("block %s not declared", name)
	}
	body := src[start:]
	body = body[strings.Index(body, "{")+1 : strings.Index(body, "}")]
	sizes := map[string]int{"mat4": 16, "mat3": 9, "vec4": 4, "vec2": 2, "float": 1, "int": 1}
	var fields []shader.UniformLocation
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ";"))
		if line == "" {
			continue
		}
		typ, name, ok := strings.Cut(line, " ")
		if !ok {
			t.Fatalf("malformed member %q", line)
		}
		size, ok := sizes[typ]
		if !ok {
			t.Fatalf("unknown member type %q", typ)
		}
		dt := shader.DataTypeFloat
		if typ == "int" {
			dt = shader.DataTypeInt
		}
		fields = append(fields, shader.UniformLocation{Name: name, Type: dt, Size: size})
	}
	return fields
}

func TestBlocksMatchLayout(t *testing.T) {
	for _, p := range profiles {
		check := func(src driver.ShaderSources) {
			for _, b := range src.Blocks {
				decl := blockFields(t, src.Source, b.Name)
				if len(decl) != len(b.Fields) {
					t.Fatalf("%s/%v: %d declared members, %d packed", b.Name, p, len(decl), len(b.Fields))
				}
				for i, f := range b.Fields {
					d := decl[i]
					if d.Name != f.Name || d.Type != f.Type || d.Size != f.Size {
						t.Errorf("%s/%v: member %d is %+v, packed as %+v", b.Name, p, i, d, f)
					}
				}
			}
		}
		check(Vertex(p))
		check(Fragment(NoAntiAliasing, p))
		check(Fragment(AntiAliasing, p))
	}
}

// helper extracts the GLSL function name from src.
func helper(t *testing.T, src, name string) string {
	t.Helper()
	re := regexp.MustCompile(`(?s)float ` + name + `\(.*?\n}\n`)
	m := re.FindString(src)
	if m == "" {
		t.Fatalf("helper %s not found", name)
	}
	return m
}

func TestVariantsShareHelpers(t *testing.T) {
	aa, noaa := Body(AntiAliasing), Body(NoAntiAliasing)
	if aa == noaa {
		t.Fatal("variants have identical bodies")
	}
	for _, name := range []string{"scissorMask", "sdroundrect", "strokeMask"} {
		if a, n := helper(t, aa, name), helper(t, noaa, name); a != n {
			t.Errorf("%s differs between variants:\n%s\n%s", name, a, n)
		}
	}
	if !strings.Contains(aa, "strokeAlpha < uniforms.strokeThr") {
		t.Error("anti-aliased body does not discard below the stroke threshold")
	}
	if strings.Contains(noaa, "strokeMask(ftcoord)") {
		t.Error("aliased body applies the stroke mask")
	}
}

func TestSourcesAreCached(t *testing.T) {
	for _, p := range profiles {
		a, b := Fragment(AntiAliasing, p), Fragment(AntiAliasing, p)
		if a.Source != b.Source || &a.Blocks[0] != &b.Blocks[0] {
			t.Errorf("%v: fragment sources composed twice", p)
		}
		if Fragment(NoAntiAliasing, p).Source == a.Source {
			t.Errorf("%v: variants share source", p)
		}
	}
}

func TestProfileHeaders(t *testing.T) {
	tests := []struct {
		p       driver.Profile
		version string
	}{
		{driver.ProfileLegacy, "#version 410\n"},
		{driver.ProfileModern, "#version 460\n"},
	}
	for _, tc := range tests {
		for _, src := range []driver.ShaderSources{Vertex(tc.p), Fragment(AntiAliasing, tc.p)} {
			if !strings.HasPrefix(src.Source, tc.version) {
				t.Errorf("%s/%v: got header %q", src.Name, tc.p, strings.SplitN(src.Source, "\n", 2)[0])
			}
			if src.Profile != tc.p {
				t.Errorf("%s: profile %v, expected %v", src.Name, src.Profile, tc.p)
			}
		}
	}
	frag := Fragment(NoAntiAliasing, driver.ProfileModern)
	if !strings.Contains(frag.Source, "layout(set = 1, binding = 2, std140) uniform FragmentUniformBlock") {
		t.Error("modern fragment block not bound at set 1 binding 2")
	}
	if got := frag.Blocks[0].Slot; got != (driver.Slot{Set: 1, Binding: 2}) {
		t.Errorf("modern fragment slot %v", got)
	}
	if got := Vertex(driver.ProfileLegacy).Inputs; len(got) != 2 || got[1].Name != "tcoord" || got[1].Location != 1 {
		t.Errorf("vertex inputs %+v", got)
	}
}

func TestGLSLValidator(t *testing.T) {
	v := NewGLSLValidator(WorkDir(t.TempDir()).Dir("spirv"))
	if !v.Available() {
		t.Skipf("%s not installed", v.Bin)
	}
	for _, p := range profiles {
		srcs := []driver.ShaderSources{
			Vertex(p),
			Fragment(NoAntiAliasing, p),
			Fragment(AntiAliasing, p),
		}
		for _, src := range srcs {
			if err := v.Validate(src); err != nil {
				t.Errorf("%s/%v: %v", src.Name, p, err)
			}
		}
	}
}
