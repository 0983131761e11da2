package render

import (
	"github.com/taigrr/stage/pkg/math3d"
)

// DrawAxes draws the world X, Y and Z axes from the origin.
func (r *Rasterizer) DrawAxes(length float64) {
	origin := math3d.Zero3()
	r.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)
	r.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen)
	r.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)
}

// DrawGrid draws a square grid on the y=0 plane centered at the origin.
func (r *Rasterizer) DrawGrid(size, step float64, color Color) {
	if step <= 0 {
		return
	}
	half := size / 2
	for x := -half; x <= half+1e-9; x += step {
		r.DrawLine3D(math3d.V3(x, 0, -half), math3d.V3(x, 0, half), color)
	}
	for z := -half; z <= half+1e-9; z += step {
		r.DrawLine3D(math3d.V3(-half, 0, z), math3d.V3(half, 0, z), color)
	}
}

// boxEdges indexes the corners produced by boxCorners.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// DrawBox outlines a local-space box placed by transform.
func (r *Rasterizer) DrawBox(box math3d.AABB, transform math3d.Mat4, color Color) {
	var corners [8]math3d.Vec3
	for i := range corners {
		c := box.Min
		if i&1 != 0 {
			c.X = box.Max.X
		}
		if i&2 != 0 {
			c.Y = box.Max.Y
		}
		if i&4 != 0 {
			c.Z = box.Max.Z
		}
		corners[i] = transform.MulVec3(c)
	}
	for _, e := range boxEdges {
		r.DrawLine3D(corners[e[0]], corners[e[1]], color)
	}
}
