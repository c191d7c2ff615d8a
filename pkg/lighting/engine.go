// Package lighting evaluates Phong lighting for directional, point and spot
// lights.
//
// An Engine owns the light list and is read-only while a frame renders. Each
// rendering job obtains its own Shader, which carries the per-point scratch
// terms, so no mutable state is shared between goroutines.
package lighting

import (
	"maps"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
)

// Default engine parameters.
const (
	DefaultAmbientOcclusion = 0.7
	DefaultShininess        = 64
)

// Engine holds the named light sources of a scene.
type Engine struct {
	lights []models.Light
	index  map[string]int

	// AmbientOcclusion scales the ambient term of every material.
	AmbientOcclusion float64
	// Shininess is used for materials whose Ns is not positive.
	Shininess float64
}

// NewEngine creates an engine holding the given lights.
func NewEngine(lights ...models.Light) *Engine {
	e := &Engine{
		index:            make(map[string]int),
		AmbientOcclusion: DefaultAmbientOcclusion,
		Shininess:        DefaultShininess,
	}
	for _, l := range lights {
		e.Add(l)
	}
	return e
}

// Add appends a light. A light with the same name replaces the old one.
func (e *Engine) Add(l models.Light) {
	if i, ok := e.index[l.Name]; ok && l.Name != "" {
		e.lights[i] = l
		return
	}
	e.lights = append(e.lights, l)
	if l.Name != "" {
		e.index[l.Name] = len(e.lights) - 1
	}
}

// Len returns the number of lights.
func (e *Engine) Len() int {
	return len(e.lights)
}

// Lights returns a copy of the light list in insertion order.
func (e *Engine) Lights() []models.Light {
	out := make([]models.Light, len(e.lights))
	copy(out, e.lights)
	return out
}

// Light looks up a light by name.
func (e *Engine) Light(name string) (models.Light, bool) {
	i, ok := e.index[name]
	if !ok {
		return models.Light{}, false
	}
	return e.lights[i], true
}

// SetAttenuation replaces the falloff of the named light.
// It reports false, leaving the engine unchanged, when no such light exists.
func (e *Engine) SetAttenuation(name string, a models.Attenuation) bool {
	i, ok := e.index[name]
	if !ok {
		return false
	}
	e.lights[i].Attenuation = a
	return true
}

// SetCone replaces the cone of the named light.
// It reports false, leaving the engine unchanged, when no such light exists.
func (e *Engine) SetCone(name string, c models.Cone) bool {
	i, ok := e.index[name]
	if !ok {
		return false
	}
	e.lights[i].Cone = c
	return true
}

// NewShader returns job-local shading state over a snapshot of the lights.
func (e *Engine) NewShader() *Shader {
	return &Shader{
		lights:    e.Lights(),
		index:     maps.Clone(e.index),
		terms:     make([]Terms, len(e.lights)),
		ao:        e.AmbientOcclusion,
		shininess: e.Shininess,
	}
}

// Attenuation returns the distance falloff of a light at distance d.
// Beyond radius the light contributes nothing. Between 0.55*radius and
// radius the quadratic falloff is further ramped down to zero.
// A non-positive radius disables attenuation.
func Attenuation(d, c1, c2, radius float64) float64 {
	if radius <= 0 {
		return 1
	}
	if d > radius {
		return 0
	}
	a := 1 / (1 + c1*d + c2*d*d)
	if start := 0.55 * radius; d > start {
		a *= math3d.Clamp01(1 - (d-start)/(radius-start))
	}
	return a
}

// SpotFactor remaps the cosine between the light axis and the direction to
// the shading point from [outer, inner] onto [0, 1].
func SpotFactor(cosTheta, inner, outer float64) float64 {
	if inner <= outer {
		if cosTheta >= inner {
			return 1
		}
		return 0
	}
	return math3d.Clamp01((cosTheta - outer) / (inner - outer))
}
