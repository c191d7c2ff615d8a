// Package math3d provides the vector and matrix helpers the lumen renderer
// layers on top of mgl64.
package math3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector and matrix types are the mgl64 ones. Mat3 and Mat4 are column-major.
type (
	Vec2 = mgl64.Vec2
	Vec3 = mgl64.Vec3
	Vec4 = mgl64.Vec4
	Mat3 = mgl64.Mat3
	Mat4 = mgl64.Mat4
)

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

// V3 creates a new Vec3.
func V3(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// V4 creates a new Vec4.
func V4(x, y, z, w float64) Vec4 {
	return Vec4{x, y, z, w}
}

// Up returns the world up vector (0, 1, 0).
func Up() Vec3 {
	return Vec3{0, 1, 0}
}

// Normalize returns v scaled to unit length.
// A zero-length vector is returned unchanged.
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

// Reflect returns v reflected about the normal n.
func Reflect(v, n Vec3) Vec3 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// MulElem returns the component-wise product of a and b.
func MulElem(a, b Vec3) Vec3 {
	return Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Clamp restricts v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if !(v > lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 restricts v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Saturate clamps every component of v to [0, 1].
func Saturate(v Vec3) Vec3 {
	return Vec3{Clamp01(v[0]), Clamp01(v[1]), Clamp01(v[2])}
}

// IsZero reports whether every component of v is exactly zero.
func IsZero(v Vec3) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// ApproxEqual reports whether a and b differ by at most eps.
func ApproxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
