package models

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Camera is the scene's perspective viewpoint.
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3
	Up       math3d.Vec3
	FOV      float64 // Vertical field of view in degrees
	Near     float64
	Far      float64
}

// DefaultCamera returns a camera 8 units down +Z looking at the origin.
func DefaultCamera() Camera {
	return Camera{
		Position: math3d.V3(0, 0, 8),
		Target:   math3d.V3(0, 0, 0),
		Up:       math3d.Up(),
		FOV:      45,
		Near:     1,
		Far:      100,
	}
}

// Scene is a fully resolved description ready for rendering.
type Scene struct {
	Mesh      *Mesh
	Instances []Instance
	Lights    []Light
	Camera    Camera
}

// Load reads a scene file, choosing the loader from the file extension.
func Load(path string) (*Scene, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return LoadOBJ(path)
	case ".gltf", ".glb":
		return LoadGLTF(path)
	default:
		return nil, fmt.Errorf("unsupported scene format %q", ext)
	}
}

// Validate checks the structural contract the renderer relies on.
func (s *Scene) Validate() error {
	if s.Mesh == nil {
		return fmt.Errorf("scene has no mesh")
	}
	if err := s.Mesh.Validate(); err != nil {
		return err
	}
	for _, in := range s.Instances {
		for _, fi := range in.Faces {
			if fi < 0 || fi >= len(s.Mesh.Faces) {
				return fmt.Errorf("instance %q: face %d out of range", in.Name, fi)
			}
			if m := s.Mesh.Faces[fi].Material; m >= len(in.Materials) {
				return fmt.Errorf("instance %q: face %d material %d not bound", in.Name, fi, m)
			}
		}
	}
	if s.Camera.Near <= 0 || s.Camera.Far <= s.Camera.Near {
		return fmt.Errorf("invalid camera clip planes near=%v far=%v", s.Camera.Near, s.Camera.Far)
	}
	return nil
}

// TriangleCount returns the number of faces referenced by all instances.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, in := range s.Instances {
		n += len(in.Faces)
	}
	return n
}
