package math3d

import "math"

// ParallelEpsilon is the smallest |n·dir| (relative to |n|) for which a ray
// is considered to cross a plane.
const ParallelEpsilon = 1e-9

// Plane is the set of points p with Normal·p + D = 0. The normal does not
// have to be unit length unless a caller needs metric distances.
type Plane struct {
	Normal Vec3
	D      float64
}

// PlaneFromPointNormal returns the plane through point with the given normal.
func PlaneFromPointNormal(point, normal Vec3) Plane {
	return Plane{Normal: normal, D: -normal.Dot(point)}
}

// PlaneFromVec4 reads (a, b, c, d) as the plane ax + by + cz + d = 0.
func PlaneFromVec4(v Vec4) Plane {
	return Plane{Normal: v.Vec3(), D: v.W}
}

// Vec4 returns the plane as (a, b, c, d).
func (p Plane) Vec4() Vec4 {
	return V4FromV3(p.Normal, p.D)
}

// Normalize rescales the equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1 / l)
	p.D /= l
}

// DistanceToPoint returns n·p + d. For a normalized plane this is the signed
// distance, positive on the side the normal points to.
func (p Plane) DistanceToPoint(point Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// IntersectPlaneT returns the ray parameter t at which r crosses p. There is
// no hit when the ray is parallel to the plane or the crossing lies behind
// the origin.
func IntersectPlaneT(r Ray, p Plane) (float64, bool) {
	nl := p.Normal.Len()
	if nl == 0 {
		return 0, false
	}
	denom := p.Normal.Dot(r.Dir)
	if math.Abs(denom) < ParallelEpsilon*nl {
		return 0, false
	}
	t := -(p.Normal.Dot(r.Origin) + p.D) / denom
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, false
	}
	return t, true
}

// IntersectPlane returns the point at which r crosses p.
func IntersectPlane(r Ray, p Plane) (Vec3, bool) {
	t, ok := IntersectPlaneT(r, p)
	if !ok {
		return Vec3{}, false
	}
	return r.At(t), true
}
