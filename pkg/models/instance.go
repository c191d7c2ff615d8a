package models

import "github.com/taigrr/lumen/pkg/math3d"

// Instance is a named subset of the mesh faces placed in the world.
type Instance struct {
	Name      string
	Faces     []int      // Indices into Mesh.Faces
	Materials []Material // Bound materials, indexed by Face.Material

	Position math3d.Vec3
	Rotation math3d.Vec3 // Euler angles in radians, applied X, Y, Z
}

// World returns the instance's model-to-world matrix.
func (in *Instance) World() math3d.Mat4 {
	return math3d.World(in.Position, in.Rotation)
}

// Material returns the material bound at index i, or nil when i does not
// refer to a bound material.
func (in *Instance) Material(i int) *Material {
	if i < 0 || i >= len(in.Materials) {
		return nil
	}
	return &in.Materials[i]
}

// bindMaterial returns the index of the named material in the instance's
// list, appending it on first use.
func (in *Instance) bindMaterial(m Material) int {
	for i := range in.Materials {
		if in.Materials[i].Name == m.Name {
			return i
		}
	}
	in.Materials = append(in.Materials, m)
	return len(in.Materials) - 1
}
