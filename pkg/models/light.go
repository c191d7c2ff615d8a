package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/taigrr/lumen/pkg/math3d"
)

// LightType selects how a light's direction and falloff are evaluated.
type LightType int

const (
	Directional LightType = iota
	Point
	Spot
)

func (t LightType) String() string {
	switch t {
	case Directional:
		return "directional"
	case Point:
		return "point"
	case Spot:
		return "spot"
	default:
		return fmt.Sprintf("LightType(%d)", int(t))
	}
}

// ParseLightType converts a configuration name into a LightType.
func ParseLightType(s string) (LightType, error) {
	switch strings.ToLower(s) {
	case "directional", "sun":
		return Directional, nil
	case "point":
		return Point, nil
	case "spot":
		return Spot, nil
	default:
		return 0, fmt.Errorf("unknown light type %q", s)
	}
}

// Attenuation describes the distance falloff of point and spot lights.
// A non-positive Radius disables attenuation.
type Attenuation struct {
	C1, C2 float64 // linear and quadratic coefficients
	Radius float64 // sphere of influence
}

// Cone bounds a spot light. Inner and Outer are cosines of the half angles,
// so Inner > Outer.
type Cone struct {
	Inner, Outer float64
}

// DefaultCone returns the 12.5/17.5 degree spot cone.
func DefaultCone() Cone {
	return ConeDegrees(12.5, 17.5)
}

// ConeDegrees builds a Cone from half angles in degrees.
func ConeDegrees(inner, outer float64) Cone {
	return Cone{
		Inner: math.Cos(inner * math.Pi / 180),
		Outer: math.Cos(outer * math.Pi / 180),
	}
}

// Light is a light source of the scene.
type Light struct {
	Name      string
	Type      LightType
	Position  math3d.Vec3
	Direction math3d.Vec3 // Points from the light into the scene
	Color     math3d.Vec3

	Attenuation Attenuation
	Cone        Cone
}
