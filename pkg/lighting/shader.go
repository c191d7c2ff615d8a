package lighting

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
)

// Terms are the scalars of one light at the current shading point.
type Terms struct {
	Diffuse     float64
	Specular    float64
	Attenuation float64
	Spot        float64
}

// defaultTerms is the state every light starts from at a new point.
var defaultTerms = Terms{Attenuation: 1, Spot: 1}

// Shader evaluates the lights of an Engine at one shading point at a time.
// A Shader must not be used from more than one goroutine.
type Shader struct {
	lights    []models.Light
	index     map[string]int
	terms     []Terms
	ao        float64
	shininess float64

	position math3d.Vec3
	normal   math3d.Vec3
	viewer   math3d.Vec3

	// frame rotates tangent space into world space. When set, normal is
	// given in tangent space and light vectors are rotated to match.
	frame   math3d.Mat3
	inFrame bool
}

// SetFrame selects the tangent-space frame for subsequent points.
// A nil frame means the normal is in world space.
func (s *Shader) SetFrame(tbn *math3d.Mat3) {
	if tbn == nil {
		s.inFrame = false
		return
	}
	s.frame = tbn.Transpose()
	s.inFrame = true
}

// PreCompute starts a new shading point and resets every light's terms.
func (s *Shader) PreCompute(position, normal, viewer math3d.Vec3) {
	s.position = position
	s.normal = math3d.Normalize(normal)
	s.viewer = viewer
	for i := range s.terms {
		s.terms[i] = defaultTerms
	}
}

// toFrame expresses a world-space direction in the shading frame.
func (s *Shader) toFrame(v math3d.Vec3) math3d.Vec3 {
	if !s.inFrame {
		return v
	}
	return s.frame.Mul3x1(v)
}

// lightDir returns the unit vector from the shading point toward light l.
func (s *Shader) lightDir(l *models.Light) math3d.Vec3 {
	if l.Type == models.Directional {
		return math3d.Normalize(l.Direction).Mul(-1)
	}
	return math3d.Normalize(l.Position.Sub(s.position))
}

// ComputeDiffuse evaluates the Lambert term of every light.
func (s *Shader) ComputeDiffuse() {
	for i := range s.lights {
		l := s.toFrame(s.lightDir(&s.lights[i]))
		s.terms[i].Diffuse = math.Max(0, s.normal.Dot(l))
	}
}

// ComputeSpecular evaluates the Phong specular term of every light.
func (s *Shader) ComputeSpecular(shininess float64) {
	if shininess <= 0 {
		shininess = s.shininess
	}
	view := s.toFrame(math3d.Normalize(s.viewer.Sub(s.position)))
	for i := range s.lights {
		l := s.toFrame(s.lightDir(&s.lights[i]))
		ndotl := s.normal.Dot(l)
		r := s.normal.Mul(2 * ndotl).Sub(l)
		s.terms[i].Specular = math.Pow(math.Max(0, view.Dot(r)), shininess)
	}
}

// ComputeAttenuation evaluates the falloff of every point and spot light.
func (s *Shader) ComputeAttenuation() {
	for i := range s.lights {
		l := &s.lights[i]
		if l.Type == models.Directional {
			continue
		}
		d := l.Position.Sub(s.position).Len()
		s.terms[i].Attenuation = Attenuation(d, l.Attenuation.C1, l.Attenuation.C2, l.Attenuation.Radius)
	}
}

// ComputeSpot evaluates the cone factor of every spot light.
func (s *Shader) ComputeSpot() {
	for i := range s.lights {
		l := &s.lights[i]
		if l.Type != models.Spot {
			continue
		}
		toPoint := math3d.Normalize(s.position.Sub(l.Position))
		cosTheta := toPoint.Dot(math3d.Normalize(l.Direction))
		s.terms[i].Spot = SpotFactor(cosTheta, l.Cone.Inner, l.Cone.Outer)
	}
}

// Terms returns the current terms of the named light.
func (s *Shader) Terms(name string) (Terms, bool) {
	i, ok := s.index[name]
	if !ok || i >= len(s.terms) {
		return Terms{}, false
	}
	return s.terms[i], true
}

// Radiance combines the current terms with material m into a clamped
// intensity per channel.
func (s *Shader) Radiance(m *models.Material) math3d.Vec3 {
	sum := m.Ka.Mul(s.ao).Add(m.Ke)
	for i := range s.lights {
		t := s.terms[i]
		k := t.Attenuation * t.Spot
		if k == 0 {
			continue
		}
		c := m.Kd.Mul(t.Diffuse).Add(m.Ks.Mul(t.Specular))
		sum = sum.Add(math3d.MulElem(c, s.lights[i].Color).Mul(k))
	}
	return math3d.Saturate(sum)
}

// Shade runs every term for the current point and returns the radiance.
func (s *Shader) Shade(m *models.Material) math3d.Vec3 {
	s.ComputeDiffuse()
	s.ComputeSpecular(m.Ns)
	s.ComputeAttenuation()
	s.ComputeSpot()
	return s.Radiance(m)
}
