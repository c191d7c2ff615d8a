package models

import "github.com/taigrr/lumen/pkg/math3d"

// Material is a Phong material with optional texture layers.
type Material struct {
	Name string

	Ka math3d.Vec3 // ambient
	Kd math3d.Vec3 // diffuse
	Ks math3d.Vec3 // specular
	Ke math3d.Vec3 // emissive
	Ns float64     // shininess exponent

	// Texture file paths. Empty means the layer is absent.
	ColorMap  string
	NormalMap string
	HeightMap string
}

// DefaultMaterial is bound to faces that reference no material.
func DefaultMaterial() Material {
	return Material{
		Name: "default",
		Ka:   math3d.V3(0.2, 0.2, 0.2),
		Kd:   math3d.V3(0.8, 0.8, 0.8),
		Ns:   64,
	}
}

// HasTangentMaps reports whether the material needs a tangent basis.
func (m *Material) HasTangentMaps() bool {
	return m.NormalMap != "" || m.HeightMap != ""
}
