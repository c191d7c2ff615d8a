package models

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// TangentBasis derives the tangent and bitangent of a triangle from its
// positions and texture coordinates. When the UV mapping is degenerate the
// basis is built from the first edge and the face normal instead.
func TangentBasis(a, b, c math3d.Vec3, uva, uvb, uvc math3d.Vec2) (tangent, bitangent math3d.Vec3) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	d1 := uvb.Sub(uva)
	d2 := uvc.Sub(uva)

	det := d1[0]*d2[1] - d2[0]*d1[1]
	if math.Abs(det) < 1e-12 {
		n := math3d.Normalize(e1.Cross(e2))
		tangent = math3d.Normalize(e1)
		return tangent, n.Cross(tangent)
	}

	r := 1 / det
	tangent = e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(r)
	bitangent = e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(r)
	return tangent, bitangent
}
