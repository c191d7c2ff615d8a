package render

import (
	"github.com/taigrr/lumen/pkg/math3d"
)

// CullEpsilon is how far outside a plane all three vertices of a triangle
// must lie before the triangle is culled.
const CullEpsilon = 0.1

// Plane represents a plane in 3D space using the equation: Ax + By + Cz + D = 0
// where (A, B, C) is the normal and D is the distance from origin.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize scales the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Mul(1 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = inside (same side as normal), negative = outside.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum represents the 6 planes of a view frustum.
// Each plane's normal points inward.
type Frustum struct {
	Planes [6]Plane
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustum extracts world-space frustum planes from a projection*view
// matrix using the Gribb/Hartmann method.
func NewFrustum(m math3d.Mat4) Frustum {
	var f Frustum

	// For the column-major matrix m, row i element j is m[i + j*4].
	row := func(i int) math3d.Vec4 {
		return math3d.V4(m[i], m[i+4], m[i+8], m[i+12])
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes := [6]math3d.Vec4{
		FrustumLeft:   r3.Add(r0),
		FrustumRight:  r3.Sub(r0),
		FrustumBottom: r3.Add(r1),
		FrustumTop:    r3.Sub(r1),
		FrustumNear:   r3.Add(r2),
		FrustumFar:    r3.Sub(r2),
	}
	for i, p := range planes {
		f.Planes[i] = Plane{Normal: p.Vec3(), D: p[3]}
		f.Planes[i].Normalize()
	}
	return f
}

// IsTriangleOutside reports whether all three vertices lie more than
// CullEpsilon outside a single plane. Triangles straddling a plane are kept.
func (f *Frustum) IsTriangleOutside(a, b, c math3d.Vec3) bool {
	for i := range f.Planes {
		p := &f.Planes[i]
		if p.DistanceToPoint(a) < -CullEpsilon &&
			p.DistanceToPoint(b) < -CullEpsilon &&
			p.DistanceToPoint(c) < -CullEpsilon {
			return true
		}
	}
	return false
}

// ContainsPoint tests if a point is inside the frustum.
func (f *Frustum) ContainsPoint(p math3d.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere tests if a sphere intersects the frustum.
func (f *Frustum) IntersectsSphere(center math3d.Vec3, radius float64) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(center) < -radius {
			return false
		}
	}
	return true
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// Transform returns an AABB bounding the eight transformed corners of b.
func (b AABB) Transform(m math3d.Mat4) AABB {
	var out AABB
	for i := range 8 {
		corner := math3d.V3(
			selectComponent(i&1 != 0, b.Max[0], b.Min[0]),
			selectComponent(i&2 != 0, b.Max[1], b.Min[1]),
			selectComponent(i&4 != 0, b.Max[2], b.Min[2]),
		)
		p := math3d.TransformPoint(m, corner)
		if i == 0 {
			out = AABB{Min: p, Max: p}
			continue
		}
		for k := range 3 {
			out.Min[k] = min(out.Min[k], p[k])
			out.Max[k] = max(out.Max[k], p[k])
		}
	}
	return out
}

// IntersectAABB reports whether any part of the box may be visible, using
// the "positive vertex" test per plane.
func (f *Frustum) IntersectAABB(box AABB) bool {
	for i := range f.Planes {
		plane := &f.Planes[i]

		// The corner furthest along the plane normal.
		pVertex := math3d.V3(
			selectComponent(plane.Normal[0] >= 0, box.Max[0], box.Min[0]),
			selectComponent(plane.Normal[1] >= 0, box.Max[1], box.Min[1]),
			selectComponent(plane.Normal[2] >= 0, box.Max[2], box.Min[2]),
		)
		if plane.DistanceToPoint(pVertex) < -CullEpsilon {
			return false
		}
	}
	return true
}

func selectComponent(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// IsBackface reports whether the world-space triangle a, b, c faces away
// from the camera. Degenerate triangles are treated as front-facing.
func IsBackface(a, b, c, camera math3d.Vec3) bool {
	normal := math3d.Normalize(b.Sub(a).Cross(c.Sub(a)))
	centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)
	view := math3d.Normalize(camera.Sub(centroid))
	return normal.Dot(view) < 0
}
