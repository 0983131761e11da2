package picking

import (
	"math"

	"github.com/taigrr/stage/pkg/math3d"
	"github.com/taigrr/stage/pkg/models"
)

// Placement supplies the world transform of a proxy. Scene nodes satisfy it.
type Placement interface {
	WorldMatrix() math3d.Mat4
}

// MeshCollider tests rays against the triangles of a mesh placed in the
// world. The transformed bounding box rejects misses before any triangle
// is touched.
type MeshCollider struct {
	Mesh  *models.Mesh
	Place Placement
}

// NewMeshCollider creates a triangle-level collider for mesh at place.
func NewMeshCollider(mesh *models.Mesh, place Placement) *MeshCollider {
	return &MeshCollider{Mesh: mesh, Place: place}
}

// IntersectRay implements Collider.
func (c *MeshCollider) IntersectRay(r math3d.Ray) (float64, bool) {
	if c.Mesh == nil || c.Mesh.TriangleCount() == 0 {
		return 0, false
	}
	world := c.Place.WorldMatrix()
	if _, ok := c.Mesh.Bounds().Transform(world).IntersectRay(r); !ok {
		return 0, false
	}

	best := math.Inf(1)
	for i := range c.Mesh.TriangleCount() {
		a, b, cc := c.Mesh.Triangle(i)
		t, ok := math3d.IntersectTriangle(r, world.MulVec3(a), world.MulVec3(b), world.MulVec3(cc))
		if ok && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// BoxCollider tests rays against a box given in the proxy's local frame.
// The ray is carried into that frame, so rotated proxies stay tight.
type BoxCollider struct {
	Box   math3d.AABB
	Place Placement
}

// NewBoxCollider creates a local-space box collider.
func NewBoxCollider(box math3d.AABB, place Placement) *BoxCollider {
	return &BoxCollider{Box: box, Place: place}
}

// IntersectRay implements Collider. The returned distance is measured in
// world units along the original ray.
func (c *BoxCollider) IntersectRay(r math3d.Ray) (float64, bool) {
	world := c.Place.WorldMatrix()
	inv := world.Inverse()
	local := math3d.Ray{Origin: inv.MulVec3(r.Origin), Dir: inv.MulVec3Dir(r.Dir)}
	t, ok := c.Box.IntersectRay(local)
	if !ok {
		return 0, false
	}
	return world.MulVec3(local.At(t)).Distance(r.Origin), true
}

// Fixed is a Placement with a constant transform.
type Fixed math3d.Mat4

// WorldMatrix implements Placement.
func (f Fixed) WorldMatrix() math3d.Mat4 {
	return math3d.Mat4(f)
}
