package math3d

import "math"

// IntersectTriangle tests r against triangle (a, b, c) with the
// Möller–Trumbore algorithm. Both windings are hit.
func IntersectTriangle(r Ray, a, b, c Vec3) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	h := r.Dir.Cross(e2)
	det := e1.Dot(h)
	if math.Abs(det) < Epsilon {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := inv * r.Dir.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := inv * e2.Dot(q)
	if t < Epsilon {
		return 0, false
	}
	return t, true
}
