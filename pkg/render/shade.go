package render

import (
	"github.com/taigrr/lumen/pkg/lighting"
	"github.com/taigrr/lumen/pkg/math3d"
)

// DefaultHeightScale is the parallax depth of a full-white height texel.
const DefaultHeightScale = 0.15

// ShadingConfig tunes per-pixel shading.
type ShadingConfig struct {
	HeightScale float64
}

// DefaultShadingConfig returns the default shading parameters.
func DefaultShadingConfig() ShadingConfig {
	return ShadingConfig{HeightScale: DefaultHeightScale}
}

// shadeRow shades every pixel of row y won by a triangle. It is the only
// writer of that row's color and normal bytes.
func shadeRow(fb *Framebuffer, tris []triangle, y int, s *lighting.Shader, camera math3d.Vec3, cfg ShadingConfig) {
	row := y * fb.Width
	for x := range fb.Width {
		id, ok := fb.winner(row + x)
		if !ok {
			continue
		}
		shadePixel(fb, &tris[id], x, y, s, camera, cfg)
	}
}

// shadePixel computes and stores the color and normal of (x, y) for its
// winning triangle t.
func shadePixel(fb *Framebuffer, t *triangle, x, y int, s *lighting.Shader, camera math3d.Vec3, cfg ShadingConfig) {
	w0, w1, w2 := t.weights(float64(x)+0.5, float64(y)+0.5)

	// Perspective-correct interpolation via 1/w
	p0, p1, p2 := w0*t.invW[0], w1*t.invW[1], w2*t.invW[2]
	invW := p0 + p1 + p2
	if invW == 0 {
		return
	}
	k := 1 / invW
	uv := t.uv[0].Mul(p0).Add(t.uv[1].Mul(p1)).Add(t.uv[2].Mul(p2)).Mul(k)
	pos := t.world[0].Mul(p0).Add(t.world[1].Mul(p1)).Add(t.world[2].Mul(p2)).Mul(k)
	uv = math3d.V2(math3d.Clamp01(uv[0]), math3d.Clamp01(uv[1]))

	parallax := t.heightMap != nil
	if parallax {
		viewTS := math3d.Normalize(t.tbn.Transpose().Mul3x1(camera.Sub(pos)))
		uv = ParallaxOffset(t.heightMap, uv, viewTS, cfg.HeightScale)
		uv = math3d.V2(math3d.Clamp01(uv[0]), math3d.Clamp01(uv[1]))
	}

	var normal, worldNormal math3d.Vec3
	switch {
	case t.normalMap != nil:
		worldNormal = math3d.Normalize(t.normalMatrix.Mul3x1(SampleNormal(t.normalMap, uv[0], uv[1])))
		normal = worldNormal
		if parallax {
			normal = math3d.Normalize(t.tbn.Transpose().Mul3x1(worldNormal))
		}
	default:
		worldNormal = math3d.Normalize(t.normals[0].Mul(w0).Add(t.normals[1].Mul(w1)).Add(t.normals[2].Mul(w2)))
		if math3d.IsZero(worldNormal) {
			worldNormal = t.faceNormal
		}
		normal = worldNormal
		if parallax {
			normal = t.tbn.Transpose().Mul3x1(worldNormal)
		}
	}

	if parallax {
		s.SetFrame(&t.tbn)
	} else {
		s.SetFrame(nil)
	}
	s.PreCompute(pos, normal, camera)
	radiance := s.Shade(t.material)

	var base math3d.Vec3
	switch {
	case t.colorMap != nil:
		c := Sample(t.colorMap, uv[0], uv[1])
		base = math3d.V3(float64(c[0]), float64(c[1]), float64(c[2]))
	case math3d.IsZero(t.material.Kd):
		base = math3d.V3(127, 127, 127)
	default:
		base = t.material.Kd.Mul(255)
	}

	fb.SetColor(x, y, toBytes(math3d.MulElem(radiance, base)))
	fb.SetNormal(x, y, worldNormal)
}

// toBytes truncates a color in [0, 255] to bytes.
func toBytes(c math3d.Vec3) [3]uint8 {
	return [3]uint8{
		uint8(math3d.Clamp(c[0], 0, 255)),
		uint8(math3d.Clamp(c[1], 0, 255)),
		uint8(math3d.Clamp(c[2], 0, 255)),
	}
}
