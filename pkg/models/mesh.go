// Package models provides the scene description consumed by the lumen
// renderer, together with OBJ/MTL and glTF loaders that produce it.
package models

import (
	"fmt"
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Mesh holds the shared vertex pools of a scene and every face that
// references them. Face corner indices are 1-based; 0 means "absent".
type Mesh struct {
	Name      string
	Positions []math3d.Vec3
	Normals   []math3d.Vec3
	UVs       []math3d.Vec2
	Faces     []Face

	// Materials is the material library the mesh was loaded with.
	// Instances bind their own ordered subsets of it.
	Materials []Material
}

// Corner is one vertex of a face.
type Corner struct {
	V, VT, VN int // 1-based pool indices

	// Tangent and Bitangent are derived from the face UVs when the bound
	// material carries a normal or height map.
	Tangent   math3d.Vec3
	Bitangent math3d.Vec3
}

// Face is a triangle with a reference into its instance's material list.
type Face struct {
	Corners  [3]Corner
	Material int // Index into Instance.Materials (-1 for no material)
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// TriangleCount returns the number of faces.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// Vertex returns the position at 1-based index i.
func (m *Mesh) Vertex(i int) math3d.Vec3 {
	if i < 1 || i > len(m.Positions) {
		panic(fmt.Sprintf("models: vertex index %d out of range [1,%d]", i, len(m.Positions)))
	}
	return m.Positions[i-1]
}

// Normal returns the normal at 1-based index i, or the zero vector when i is 0.
func (m *Mesh) Normal(i int) math3d.Vec3 {
	if i == 0 {
		return math3d.Vec3{}
	}
	if i < 0 || i > len(m.Normals) {
		panic(fmt.Sprintf("models: normal index %d out of range [1,%d]", i, len(m.Normals)))
	}
	return m.Normals[i-1]
}

// UV returns the texture coordinate at 1-based index i, or (0,0) when i is 0.
func (m *Mesh) UV(i int) math3d.Vec2 {
	if i == 0 {
		return math3d.Vec2{}
	}
	if i < 0 || i > len(m.UVs) {
		panic(fmt.Sprintf("models: uv index %d out of range [1,%d]", i, len(m.UVs)))
	}
	return m.UVs[i-1]
}

// FacePositions returns the three corner positions of f.
func (m *Mesh) FacePositions(f *Face) (a, b, c math3d.Vec3) {
	return m.Vertex(f.Corners[0].V), m.Vertex(f.Corners[1].V), m.Vertex(f.Corners[2].V)
}

// FaceUVs returns the three corner texture coordinates of f.
func (m *Mesh) FaceUVs(f *Face) (a, b, c math3d.Vec2) {
	return m.UV(f.Corners[0].VT), m.UV(f.Corners[1].VT), m.UV(f.Corners[2].VT)
}

// CalculateNormals assigns a flat face normal to every corner that has no
// normal index. The normal is appended to the pool.
func (m *Mesh) CalculateNormals() {
	for i := range m.Faces {
		f := &m.Faces[i]
		if f.Corners[0].VN != 0 && f.Corners[1].VN != 0 && f.Corners[2].VN != 0 {
			continue
		}
		a, b, c := m.FacePositions(f)
		n := math3d.Normalize(b.Sub(a).Cross(c.Sub(a)))
		m.Normals = append(m.Normals, n)
		idx := len(m.Normals)
		for j := range f.Corners {
			if f.Corners[j].VN == 0 {
				f.Corners[j].VN = idx
			}
		}
	}
}

// CalculateTangents fills the per-corner tangent basis for the given faces.
func (m *Mesh) CalculateTangents(faces []int) {
	for _, fi := range faces {
		f := &m.Faces[fi]
		a, b, c := m.FacePositions(f)
		ua, ub, uc := m.FaceUVs(f)
		t, bt := TangentBasis(a, b, c, ua, ub, uc)
		for j := range f.Corners {
			f.Corners[j].Tangent = t
			f.Corners[j].Bitangent = bt
		}
	}
}

// Bounds returns the axis-aligned bounding box of the given faces in
// object space.
func (m *Mesh) Bounds(faces []int) (lo, hi math3d.Vec3) {
	lo = math3d.V3(math.Inf(1), math.Inf(1), math.Inf(1))
	hi = math3d.V3(math.Inf(-1), math.Inf(-1), math.Inf(-1))
	for _, fi := range faces {
		for _, c := range m.Faces[fi].Corners {
			p := m.Vertex(c.V)
			for k := range 3 {
				lo[k] = math.Min(lo[k], p[k])
				hi[k] = math.Max(hi[k], p[k])
			}
		}
	}
	return lo, hi
}

// Validate checks that every face index resolves within the pools.
func (m *Mesh) Validate() error {
	for i, f := range m.Faces {
		for j, c := range f.Corners {
			if c.V < 1 || c.V > len(m.Positions) {
				return fmt.Errorf("face %d corner %d: vertex index %d out of range", i, j, c.V)
			}
			if c.VT < 0 || c.VT > len(m.UVs) {
				return fmt.Errorf("face %d corner %d: uv index %d out of range", i, j, c.VT)
			}
			if c.VN < 0 || c.VN > len(m.Normals) {
				return fmt.Errorf("face %d corner %d: normal index %d out of range", i, j, c.VN)
			}
		}
	}
	return nil
}
