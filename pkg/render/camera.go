package render

import (
	"math"

	"github.com/taigrr/stage/pkg/math3d"
)

// Camera is a perspective camera oriented by Euler angles.
type Camera struct {
	// Position in world space
	Position math3d.Vec3

	// Orientation in radians
	Pitch float64 // around X, look up/down
	Yaw   float64 // around Y, look left/right
	Roll  float64 // around Z

	// Projection parameters
	FOV         float64 // vertical field of view in radians
	AspectRatio float64 // width / height
	Near        float64
	Far         float64

	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
	viewProjDirty  bool
}

// NewCamera creates a camera at (0, 2, 6) with a 60 degree field of view.
func NewCamera() *Camera {
	return &Camera{
		Position:      math3d.V3(0, 2, 6),
		FOV:           math.Pi / 3,
		AspectRatio:   16.0 / 9.0,
		Near:          0.1,
		Far:           1000,
		viewDirty:     true,
		projDirty:     true,
		viewProjDirty: true,
	}
}

func (c *Camera) invalidateView() {
	c.viewDirty = true
	c.viewProjDirty = true
}

func (c *Camera) invalidateProjection() {
	c.projDirty = true
	c.viewProjDirty = true
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.invalidateView()
}

// Translate moves the camera by delta in world space.
func (c *Camera) Translate(delta math3d.Vec3) {
	c.SetPosition(c.Position.Add(delta))
}

// SetRotation sets pitch, yaw and roll in radians.
func (c *Camera) SetRotation(pitch, yaw, roll float64) {
	c.Pitch, c.Yaw, c.Roll = pitch, yaw, roll
	c.invalidateView()
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.invalidateProjection()
}

// SetAspectRatio sets width / height.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.invalidateProjection()
}

// SetClipPlanes sets the near and far clipping distances.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near, c.Far = near, far
	c.invalidateProjection()
}

// CopyLens copies the projection parameters of other.
func (c *Camera) CopyLens(other *Camera) {
	c.FOV = other.FOV
	c.AspectRatio = other.AspectRatio
	c.Near = other.Near
	c.Far = other.Far
	c.invalidateProjection()
}

// Forward returns the unit view direction.
func (c *Camera) Forward() math3d.Vec3 {
	return math3d.V3(
		-math.Sin(c.Yaw)*math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		-math.Cos(c.Yaw)*math.Cos(c.Pitch),
	)
}

// Right returns the horizontal right vector.
func (c *Camera) Right() math3d.Vec3 {
	return math3d.V3(math.Cos(c.Yaw), 0, -math.Sin(c.Yaw))
}

// Up returns the camera up vector.
func (c *Camera) Up() math3d.Vec3 {
	return c.Right().Cross(c.Forward())
}

// ViewMatrix returns the world-to-camera matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		// View = R(-roll) * R(-pitch) * R(-yaw) * T(-position)
		rot := math3d.RotateZ(-c.Roll).
			Mul(math3d.RotateX(-c.Pitch)).
			Mul(math3d.RotateY(-c.Yaw))
		c.viewMatrix = rot.Mul(math3d.Translate(c.Position.Negate()))
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the perspective projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns projection * view.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	if c.viewProjDirty {
		c.viewProjMatrix = c.ProjectionMatrix().Mul(c.ViewMatrix())
		c.viewProjDirty = false
	}
	return c.viewProjMatrix
}

// LookAt turns the camera toward target and clears roll. A target equal to
// the camera position leaves the orientation unchanged.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position)
	if dir.LenSq() == 0 {
		return
	}
	dir = dir.Normalize()

	c.Pitch = math.Asin(math.Max(-1, math.Min(1, dir.Y)))
	c.Yaw = math.Atan2(-dir.X, -dir.Z)
	c.Roll = 0
	c.invalidateView()
}

// Ray returns the world ray under pixel (x, y) of vp.
func (c *Camera) Ray(vp math3d.Viewport, x, y float64) math3d.Ray {
	return math3d.RayFromScreenPoint(c, vp, x, y)
}

// Unproject maps pixel (x, y) of vp at NDC depth z (-1 near, 1 far) back
// into world space.
func (c *Camera) Unproject(vp math3d.Viewport, x, y, z float64) math3d.Vec3 {
	nx, ny := vp.NDC(x, y)
	inv := c.ViewProjectionMatrix().Inverse()
	return inv.MulVec4(math3d.V4(nx, ny, z, 1)).PerspectiveDivide()
}

// Project maps a world point into vp pixel coordinates. visible is false
// for points behind the camera or outside the view volume.
func (c *Camera) Project(world math3d.Vec3, vp math3d.Viewport) (x, y, depth float64, visible bool) {
	clip := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(world, 1))
	if clip.W <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.PerspectiveDivide()
	x = vp.X + (ndc.X+1)*0.5*vp.Width
	y = vp.Y + (1-ndc.Y)*0.5*vp.Height
	visible = ndc.X >= -1 && ndc.X <= 1 && ndc.Y >= -1 && ndc.Y <= 1 && ndc.Z >= -1 && ndc.Z <= 1
	return x, y, ndc.Z, visible
}

// Frustum returns the current view frustum.
func (c *Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}
