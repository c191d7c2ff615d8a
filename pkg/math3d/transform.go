package math3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LookAt builds a right-handed view matrix looking from eye at target.
// When up is parallel to the viewing direction a different world axis is used.
func LookAt(eye, target, up Vec3) Mat4 {
	forward := Normalize(target.Sub(eye))
	if IsZero(up) || math.Abs(forward.Dot(Normalize(up))) > 0.999 {
		up = Vec3{0, 0, -1}
		if math.Abs(forward[2]) > 0.999 {
			up = Vec3{0, 1, 0}
		}
	}
	return mgl64.LookAtV(eye, target, up)
}

// Perspective builds an OpenGL-style projection matrix.
// fovDeg is the vertical field of view in degrees.
func Perspective(fovDeg, aspect, near, far float64) Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(fovDeg), aspect, near, far)
}

// EulerRotation returns Rz * Ry * Rx: X is applied first, then Y, then Z.
func EulerRotation(rotation Vec3) Mat4 {
	rx := mgl64.HomogRotate3DX(rotation[0])
	ry := mgl64.HomogRotate3DY(rotation[1])
	rz := mgl64.HomogRotate3DZ(rotation[2])
	return rz.Mul4(ry).Mul4(rx)
}

// World returns the model-to-world matrix T * R for an object placed at
// position with Euler rotation.
func World(position, rotation Vec3) Mat4 {
	t := mgl64.Translate3D(position[0], position[1], position[2])
	return t.Mul4(EulerRotation(rotation))
}

// NormalMatrix returns transpose(inverse(mat3(world))).
// A singular world matrix yields the identity.
func NormalMatrix(world Mat4) Mat3 {
	m := world.Mat3()
	if m.Det() == 0 {
		return mgl64.Ident3()
	}
	return m.Inv().Transpose()
}

// TransformPoint applies m to the point p (w = 1) and divides by w.
func TransformPoint(m Mat4, p Vec3) Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	if v[3] == 0 {
		return v.Vec3()
	}
	return v.Vec3().Mul(1 / v[3])
}

// Project transforms p by the clip matrix m and returns the NDC position
// together with the clip-space w. The NDC value is meaningless when w <= 0.
func Project(m Mat4, p Vec3) (ndc Vec3, w float64) {
	v := m.Mul4x1(p.Vec4(1))
	w = v[3]
	if w == 0 {
		return v.Vec3(), 0
	}
	return v.Vec3().Mul(1 / w), w
}

// ToScreen maps an NDC position to continuous pixel coordinates with the
// origin at the top-left corner.
func ToScreen(ndc Vec3, width, height int) (x, y float64) {
	x = float64(width) * (ndc[0] + 1) * 0.5
	y = float64(height) * (1 - ndc[1]) * 0.5
	return x, y
}

// WindowDepth maps an NDC z in [-1, 1] to [0, 1].
func WindowDepth(ndcZ float64) float64 {
	return ndcZ*0.5 + 0.5
}

// LinearizeDepth converts a window depth in [0, 1] back to a positive
// view-space distance for a perspective projection with the given planes.
func LinearizeDepth(d, near, far float64) float64 {
	z := d*2 - 1
	return 2 * near * far / (far + near - z*(far-near))
}

// Mat3FromCols builds a 3x3 matrix from its column vectors.
func Mat3FromCols(c0, c1, c2 Vec3) Mat3 {
	return mgl64.Mat3FromCols(c0, c1, c2)
}
