package render

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
)

// Camera wraps a scene camera with cached view and projection matrices.
type Camera struct {
	// Position in world space
	Position math3d.Vec3
	Target   math3d.Vec3
	Up       math3d.Vec3

	// Projection parameters
	FOV         float64 // Vertical field of view in degrees
	AspectRatio float64 // Width / Height
	Near        float64
	Far         float64

	// Cached matrices (computed on demand)
	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	invViewProj    math3d.Mat4
	viewDirty      bool
	projDirty      bool
}

// NewCamera creates a camera from the scene description and aspect ratio.
func NewCamera(c models.Camera, aspect float64) *Camera {
	return &Camera{
		Position:    c.Position,
		Target:      c.Target,
		Up:          c.Up,
		FOV:         c.FOV,
		AspectRatio: aspect,
		Near:        c.Near,
		Far:         c.Far,
		viewDirty:   true,
		projDirty:   true,
	}
}

// SetPosition moves the camera, keeping its target.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// LookAt points the camera at target.
func (c *Camera) LookAt(target math3d.Vec3) {
	c.Target = target
	c.viewDirty = true
}

// SetAspectRatio updates the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.projDirty = true
}

// Orbit places the camera on a horizontal circle around its target at the
// given yaw (radians), keeping the current distance and height.
func (c *Camera) Orbit(yaw float64) {
	offset := c.Position.Sub(c.Target)
	radius := math.Hypot(offset[0], offset[2])
	c.Position = math3d.V3(
		c.Target[0]+radius*math.Sin(yaw),
		c.Position[1],
		c.Target[2]+radius*math.Cos(yaw),
	)
	c.viewDirty = true
}

// ViewMatrix returns the world-to-view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	proj := c.ProjectionMatrix()
	if c.viewDirty {
		c.viewMatrix = math3d.LookAt(c.Position, c.Target, c.Up)
		c.viewDirty = false
		c.viewProjMatrix = proj.Mul4(c.viewMatrix)
		c.invViewProj = c.viewProjMatrix.Inv()
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the perspective projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
		c.viewDirty = true
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns projection * view.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	c.ViewMatrix()
	return c.viewProjMatrix
}

// InverseViewProjection returns the inverse of projection * view.
func (c *Camera) InverseViewProjection() math3d.Mat4 {
	c.ViewProjectionMatrix()
	return c.invViewProj
}

// Frustum returns the current world-space view frustum.
func (c *Camera) Frustum() Frustum {
	return NewFrustum(c.ViewProjectionMatrix())
}
