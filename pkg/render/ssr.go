package render

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// SSRConfig tunes the screen-space reflection ray march.
type SSRConfig struct {
	F0           float64 // Base reflectance for the Schlick term
	MaxSteps     int
	NormalOffset float64 // Start offset along the surface normal
	HitTolerance float64 // Maximum linear depth gap accepted as a hit

	// Adaptive stepping: StepNear below NearThreshold, StepMid below
	// FarThreshold, StepFar otherwise. Thresholds are linear depth gaps.
	NearThreshold float64
	FarThreshold  float64
	StepNear      float64
	StepMid       float64
	StepFar       float64
}

// DefaultSSRConfig returns the default reflection parameters.
func DefaultSSRConfig() SSRConfig {
	return SSRConfig{
		F0:            0.5,
		MaxSteps:      1000,
		NormalOffset:  0.01,
		HitTolerance:  0.5,
		NearThreshold: 1,
		FarThreshold:  5,
		StepNear:      0.005,
		StepMid:       0.02,
		StepFar:       0.05,
	}
}

// stepSize picks the march step for the current gap to the nearest surface.
func (c *SSRConfig) stepSize(gap float64) float64 {
	switch {
	case gap < c.NearThreshold:
		return c.StepNear
	case gap < c.FarThreshold:
		return c.StepMid
	default:
		return c.StepFar
	}
}

// FresnelSchlick approximates reflectance at the given cosine between the
// normal and the direction to the viewer.
func FresnelSchlick(cosTheta, f0 float64) float64 {
	return f0 + (1-f0)*math.Pow(1-math3d.Clamp01(cosTheta), 5)
}

// ssrPass reads a resolved framebuffer and writes reflections into out.
type ssrPass struct {
	fb     *Framebuffer
	out    *Image
	pv     math3d.Mat4
	invPV  math3d.Mat4
	camera math3d.Vec3
	near   float64
	far    float64
	cfg    SSRConfig
}

// row composites every pixel of row y.
func (p *ssrPass) row(y int) {
	for x := range p.fb.Width {
		p.out.Set(x, y, p.pixel(x, y))
	}
}

// pixel returns the composite color of (x, y).
func (p *ssrPass) pixel(x, y int) [3]uint8 {
	base := p.fb.ColorAt(x, y)
	d, ok := p.fb.Depth(x, y)
	if !ok || d <= 0 || d > 1 {
		return base
	}

	w, h := float64(p.fb.Width), float64(p.fb.Height)
	ndc := math3d.V3((float64(x)+0.5)/w*2-1, 1-(float64(y)+0.5)/h*2, d*2-1)
	pos := math3d.TransformPoint(p.invPV, ndc)

	n := p.fb.NormalAt(x, y)
	view := math3d.Normalize(pos.Sub(p.camera))
	dir := math3d.Normalize(math3d.Reflect(view, n))
	fresnel := FresnelSchlick(math.Max(n.Dot(view.Mul(-1)), 0), p.cfg.F0)

	hit, found := p.march(pos.Add(n.Mul(p.cfg.NormalOffset)), dir)
	if !found {
		return base
	}

	var out [3]uint8
	for k := range 3 {
		out[k] = uint8(math3d.Clamp(float64(base[k])*(1-fresnel)+float64(hit[k])*fresnel, 0, 255))
	}
	return out
}

// march walks from origin along dir until the ray crosses the stored depth
// surface within tolerance, leaves the view volume, or runs out of steps.
func (p *ssrPass) march(origin, dir math3d.Vec3) ([3]uint8, bool) {
	ray := origin
	ndc, _ := math3d.Project(p.pv, ray)
	prev := math3d.LinearizeDepth(math3d.WindowDepth(ndc[2]), p.near, p.far)

	for range p.cfg.MaxSteps {
		ndc, w := math3d.Project(p.pv, ray)
		if w <= 0 || math.Abs(ndc[0]) > 1 || math.Abs(ndc[1]) > 1 || math.Abs(ndc[2]) > 1 {
			return [3]uint8{}, false
		}
		sx, sy := math3d.ToScreen(ndc, p.fb.Width, p.fb.Height)
		ix, iy := int(sx), int(sy)
		if ix < 0 || ix >= p.fb.Width || iy < 0 || iy >= p.fb.Height {
			return [3]uint8{}, false
		}

		cur := math3d.LinearizeDepth(math3d.WindowDepth(ndc[2]), p.near, p.far)
		stored, ok := p.fb.Depth(ix, iy)
		if !ok {
			// Nothing was drawn here to reflect.
			prev = cur
			ray = ray.Add(dir.Mul(p.cfg.StepFar))
			continue
		}
		surface := math3d.LinearizeDepth(stored, p.near, p.far)

		gap := math.Abs(cur - surface)
		crossed := (prev < surface && cur >= surface) || (prev > surface && cur <= surface)
		if crossed && gap < p.cfg.HitTolerance {
			return p.fb.ColorAt(ix, iy), true
		}

		prev = cur
		ray = ray.Add(dir.Mul(p.cfg.stepSize(gap)))
	}
	return [3]uint8{}, false
}
