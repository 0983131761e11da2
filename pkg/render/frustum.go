// Package render provides the software rasterizer, camera and terminal
// output used to draw the editor viewport.
package render

import (
	"github.com/taigrr/stage/pkg/math3d"
)

// Frustum holds the six inward-facing planes of a view volume, ordered
// Left, Right, Bottom, Top, Near, Far.
type Frustum struct {
	Planes [6]math3d.Plane
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustumFromMatrix extracts normalized planes from a view-projection
// matrix (Gribb/Hartmann).
func NewFrustumFromMatrix(m math3d.Mat4) Frustum {
	row := func(i int) math3d.Vec4 {
		return math3d.V4(m[i], m[i+4], m[i+8], m[i+12])
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	add := func(a, b math3d.Vec4) math3d.Vec4 {
		return math3d.V4(a.X+b.X, a.Y+b.Y, a.Z+b.Z, a.W+b.W)
	}
	sub := func(a, b math3d.Vec4) math3d.Vec4 {
		return math3d.V4(a.X-b.X, a.Y-b.Y, a.Z-b.Z, a.W-b.W)
	}

	var f Frustum
	for i, v := range [6]math3d.Vec4{
		add(r3, r0), sub(r3, r0),
		add(r3, r1), sub(r3, r1),
		add(r3, r2), sub(r3, r2),
	} {
		f.Planes[i] = math3d.PlaneFromVec4(v)
		f.Planes[i].Normalize()
	}
	return f
}

// IntersectAABB reports whether any part of box is inside the frustum,
// testing the corner furthest along each plane normal.
func (f Frustum) IntersectAABB(box math3d.AABB) bool {
	for _, p := range f.Planes {
		corner := math3d.V3(
			pick(p.Normal.X >= 0, box.Max.X, box.Min.X),
			pick(p.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			pick(p.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)
		if p.DistanceToPoint(corner) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p is inside all six planes.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
