// Package config handles lumen configuration loading and management.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
	"github.com/taigrr/lumen/pkg/render"
)

// Config holds all renderer settings.
type Config struct {
	Scene   string        `yaml:"scene"`
	Render  RenderConfig  `yaml:"render"`
	Camera  CameraConfig  `yaml:"camera"`
	Shading ShadingConfig `yaml:"shading"`
	SSR     SSRConfig     `yaml:"ssr"`
	Lights  []LightConfig `yaml:"lights"`
	// Overrides retune lights by name after -l has selected them.
	Overrides []LightOverride `yaml:"light_overrides"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RenderConfig holds output settings.
type RenderConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Workers   int    `yaml:"workers"` // 0 selects one per CPU
	OutputDir string `yaml:"output_dir"`
	PNG       bool   `yaml:"png"`
	Preview   bool   `yaml:"preview"`
	Orbit     int    `yaml:"orbit"` // Number of orbit frames, 0 disables
	OrbitFPS  int    `yaml:"orbit_fps"`
}

// CameraConfig holds the viewpoint. It replaces the camera of the scene.
type CameraConfig struct {
	Position Vector  `yaml:"position"`
	Target   Vector  `yaml:"target"`
	FOV      float64 `yaml:"fov"` // degrees
	Near     float64 `yaml:"near"`
	Far      float64 `yaml:"far"`
}

// ShadingConfig holds material and lighting parameters.
type ShadingConfig struct {
	HeightScale      float64 `yaml:"height_scale"`
	Shininess        float64 `yaml:"shininess"`
	AmbientOcclusion float64 `yaml:"ambient_occlusion"`
}

// SSRConfig holds the screen-space reflection parameters.
type SSRConfig struct {
	F0            float64 `yaml:"f0"`
	MaxSteps      int     `yaml:"max_steps"`
	NormalOffset  float64 `yaml:"normal_offset"`
	HitTolerance  float64 `yaml:"hit_tolerance"`
	NearThreshold float64 `yaml:"near_threshold"`
	FarThreshold  float64 `yaml:"far_threshold"`
	StepNear      float64 `yaml:"step_near"`
	StepMid       float64 `yaml:"step_mid"`
	StepFar       float64 `yaml:"step_far"`
}

// LightConfig describes one named light. Cone angles are in degrees; zero
// selects the default cone.
type LightConfig struct {
	Name      string  `yaml:"name"`
	Type      string  `yaml:"type"`
	Position  Vector  `yaml:"position"`
	Direction Vector  `yaml:"direction"`
	Color     Vector  `yaml:"color"`
	C1        float64 `yaml:"c1"`
	C2        float64 `yaml:"c2"`
	Radius    float64 `yaml:"radius"`
	Inner     float64 `yaml:"inner"`
	Outer     float64 `yaml:"outer"`
}

// LightOverride changes the falloff or cone of a named light. Zero fields
// leave the light as configured.
type LightOverride struct {
	Light  string  `yaml:"light"`
	C1     float64 `yaml:"c1"`
	C2     float64 `yaml:"c2"`
	Radius float64 `yaml:"radius"`
	Inner  float64 `yaml:"inner"`
	Outer  float64 `yaml:"outer"`
}

// Attenuation returns the override falloff and whether one is set.
func (o LightOverride) Attenuation() (models.Attenuation, bool) {
	a := models.Attenuation{C1: o.C1, C2: o.C2, Radius: o.Radius}
	return a, o.C1 != 0 || o.C2 != 0 || o.Radius != 0
}

// Cone returns the override cone and whether one is set.
func (o LightOverride) Cone() (models.Cone, bool) {
	if o.Inner == 0 && o.Outer == 0 {
		return models.Cone{}, false
	}
	return models.ConeDegrees(o.Inner, o.Outer), true
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock scene setup: a 1000x563 frame,
// the camera 8 units down +Z and three lights.
func Default() *Config {
	cam := models.DefaultCamera()
	ssr := render.DefaultSSRConfig()
	return &Config{
		Render: RenderConfig{
			Width:     1000,
			Height:    563,
			OutputDir: "RenderedImages",
			OrbitFPS:  30,
		},
		Camera: CameraConfig{
			Position: Vector(cam.Position),
			Target:   Vector(cam.Target),
			FOV:      cam.FOV,
			Near:     cam.Near,
			Far:      cam.Far,
		},
		Shading: ShadingConfig{
			HeightScale:      render.DefaultHeightScale,
			Shininess:        64,
			AmbientOcclusion: 0.7,
		},
		SSR: SSRConfig{
			F0:            ssr.F0,
			MaxSteps:      ssr.MaxSteps,
			NormalOffset:  ssr.NormalOffset,
			HitTolerance:  ssr.HitTolerance,
			NearThreshold: ssr.NearThreshold,
			FarThreshold:  ssr.FarThreshold,
			StepNear:      ssr.StepNear,
			StepMid:       ssr.StepMid,
			StepFar:       ssr.StepFar,
		},
		Lights: []LightConfig{
			{Name: "sun", Type: "directional", Direction: Vector{1, 1, -1}, Color: Vector{1, 1, 1}},
			{Name: "pointlight", Type: "point", Position: Vector{0, 3, 0}, Color: Vector{0, 0, 1}},
			{Name: "spot", Type: "spot", Position: Vector{0, 0, 1}, Direction: Vector{0, 0, -1}, Color: Vector{1, 1, 1}},
		},
		Overrides: []LightOverride{
			{Light: "spot", Inner: 12.5, Outer: 17.5},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ModelCamera converts the camera section to a scene camera.
func (c CameraConfig) ModelCamera() models.Camera {
	return models.Camera{
		Position: c.Position.Vec3(),
		Target:   c.Target.Vec3(),
		Up:       math3d.Up(),
		FOV:      c.FOV,
		Near:     c.Near,
		Far:      c.Far,
	}
}

// Options converts the section to renderer shading options.
func (s ShadingConfig) Options() render.ShadingConfig {
	return render.ShadingConfig{HeightScale: s.HeightScale}
}

// Options converts the section to renderer reflection options.
func (s SSRConfig) Options() render.SSRConfig {
	return render.SSRConfig{
		F0:            s.F0,
		MaxSteps:      s.MaxSteps,
		NormalOffset:  s.NormalOffset,
		HitTolerance:  s.HitTolerance,
		NearThreshold: s.NearThreshold,
		FarThreshold:  s.FarThreshold,
		StepNear:      s.StepNear,
		StepMid:       s.StepMid,
		StepFar:       s.StepFar,
	}
}

// Light converts the entry to a scene light.
func (l LightConfig) Light() (models.Light, error) {
	typ, err := models.ParseLightType(l.Type)
	if err != nil {
		return models.Light{}, fmt.Errorf("light %q: %w", l.Name, err)
	}
	cone := models.DefaultCone()
	if l.Inner != 0 || l.Outer != 0 {
		cone = models.ConeDegrees(l.Inner, l.Outer)
	}
	return models.Light{
		Name:      l.Name,
		Type:      typ,
		Position:  l.Position.Vec3(),
		Direction: l.Direction.Vec3(),
		Color:     l.Color.Vec3(),
		Attenuation: models.Attenuation{
			C1:     l.C1,
			C2:     l.C2,
			Radius: l.Radius,
		},
		Cone: cone,
	}, nil
}

// SceneLights converts every configured light.
func (c *Config) SceneLights() ([]models.Light, error) {
	lights := make([]models.Light, 0, len(c.Lights))
	for _, lc := range c.Lights {
		l, err := lc.Light()
		if err != nil {
			return nil, err
		}
		lights = append(lights, l)
	}
	return lights, nil
}

// Vector is a 3-component value written as [x, y, z] in YAML and as
// "x,y,z" on the command line.
type Vector [3]float64

// Vec3 returns v as a math vector.
func (v Vector) Vec3() math3d.Vec3 {
	return math3d.Vec3(v)
}

// ParseVector parses "x,y,z".
func ParseVector(s string) (Vector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Vector{}, fmt.Errorf("vector %q: want x,y,z", s)
	}
	var v Vector
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Vector{}, fmt.Errorf("vector %q: %w", s, err)
		}
		v[i] = f
	}
	return v, nil
}

// String implements flag.Value.
func (v *Vector) String() string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", v[0], v[1], v[2])
}

// Set implements flag.Value.
func (v *Vector) Set(s string) error {
	parsed, err := ParseVector(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// UnmarshalYAML accepts either a 3-element sequence or an "x,y,z" string.
func (v *Vector) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseVector(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*v = parsed
		return nil
	}
	var xs []float64
	if err := node.Decode(&xs); err != nil {
		return err
	}
	if len(xs) != 3 {
		return fmt.Errorf("line %d: vector has %d components, want 3", node.Line, len(xs))
	}
	copy(v[:], xs)
	return nil
}

// MarshalYAML writes the vector as a flow sequence.
func (v Vector) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, f := range v {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: strconv.FormatFloat(f, 'g', -1, 64),
		})
	}
	return node, nil
}
