// SPDX-License-Identifier: Unlicense OR MIT

// Package shaders holds the GLSL text of the vector renderer and the
// reflection data describing its inputs, uniform blocks and samplers.
//
// Sources are composed from a profile header and a variant body on
// first use and are immutable afterwards.
package shaders

import (
	"fmt"
	"sync"

	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/gpu/internal/uniform"
	"gioui.org/shader"
)

// Variant selects a fragment body.
type Variant uint8

const (
	NoAntiAliasing Variant = iota
	// AntiAliasing adds stroke coverage masking and discards fragments
	// below the stroke threshold.
	AntiAliasing
)

const nprofiles = 2

var inputs = []shader.InputLocation{
	{Name: "pos", Location: 0, Semantic: "POSITION", SemanticIndex: 0, Type: shader.DataTypeFloat, Size: 2},
	{Name: "tcoord", Location: 1, Semantic: "TEXCOORD", SemanticIndex: 0, Type: shader.DataTypeFloat, Size: 2},
}

var (
	vertexSources   [nprofiles]func() driver.ShaderSources
	fragmentSources [2][nprofiles]func() driver.ShaderSources
)

func init() {
	for p := range driver.Profile(nprofiles) {
		vertexSources[p] = sync.OnceValue(func() driver.ShaderSources {
			return composeVertex(p)
		})
		for _, v := range []Variant{NoAntiAliasing, AntiAliasing} {
			fragmentSources[v][p] = sync.OnceValue(func() driver.ShaderSources {
				return composeFragment(v, p)
			})
		}
	}
}

// Vertex returns the vertex shader for profile p.
func Vertex(p driver.Profile) driver.ShaderSources {
	checkProfile(p)
	return vertexSources[p]()
}

// Fragment returns the fragment shader of variant v for profile p.
func Fragment(v Variant, p driver.Profile) driver.ShaderSources {
	checkProfile(p)
	if v > AntiAliasing {
		panic(fmt.Errorf("shaders: unknown variant %d", v))
	}
	return fragmentSources[v][p]()
}

// Body returns the profile independent text of variant v.
func Body(v Variant) string {
	if v == AntiAliasing {
		return fragmentBodyAA
	}
	return fragmentBodyNoAA
}

func checkProfile(p driver.Profile) {
	if int(p) >= nprofiles {
		panic(fmt.Errorf("shaders: unknown profile %v", p))
	}
}

func composeVertex(p driver.Profile) driver.ShaderSources {
	l := layout(p)
	header := vertexHeaderLegacy
	if p == driver.ProfileModern {
		header = vertexHeaderModern
	}
	return driver.ShaderSources{
		Name:    "nanovg.vert",
		Profile: p,
		Source:  header + vertexBody,
		Inputs:  inputs,
		Blocks:  []driver.UniformBlock{l.Vertex},
	}
}

func composeFragment(v Variant, p driver.Profile) driver.ShaderSources {
	l := layout(p)
	header := fragmentHeaderLegacy
	if p == driver.ProfileModern {
		header = fragmentHeaderModern
	}
	return driver.ShaderSources{
		Name:     "nanovg." + v.String() + ".frag",
		Profile:  p,
		Source:   header + Body(v),
		Blocks:   []driver.UniformBlock{l.Fragment},
		Textures: []driver.TextureBinding{l.Texture},
	}
}

func layout(p driver.Profile) *uniform.Layout {
	l, err := uniform.NewLayout(p)
	if err != nil {
		panic(err)
	}
	return l
}

func (v Variant) String() string {
	switch v {
	case NoAntiAliasing:
		return "noaa"
	case AntiAliasing:
		return "aa"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}
