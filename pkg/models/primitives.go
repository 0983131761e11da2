package models

import (
	"github.com/taigrr/stage/pkg/math3d"
)

// builder accumulates flat-shaded faces oriented away from an interior point.
type builder struct {
	mesh     *Mesh
	interior math3d.Vec3
}

func (b *builder) tri(p0, p1, p2 math3d.Vec3) {
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	if n.Dot(p0.Sub(b.interior)) < 0 {
		p1, p2 = p2, p1
		n = n.Negate()
	}
	n = n.Normalize()
	base := len(b.mesh.Vertices)
	b.mesh.Vertices = append(b.mesh.Vertices,
		MeshVertex{Position: p0, Normal: n},
		MeshVertex{Position: p1, Normal: n},
		MeshVertex{Position: p2, Normal: n},
	)
	b.mesh.Faces = append(b.mesh.Faces, Face{V: [3]int{base, base + 1, base + 2}})
}

func (b *builder) quad(p0, p1, p2, p3 math3d.Vec3) {
	b.tri(p0, p1, p2)
	b.tri(p0, p2, p3)
}

// NewBox returns a closed box spanning box.
func NewBox(name string, box math3d.AABB) *Mesh {
	b := &builder{mesh: NewMesh(name), interior: box.Center()}
	lo, hi := box.Min, box.Max
	c := func(x, y, z bool) math3d.Vec3 {
		p := lo
		if x {
			p.X = hi.X
		}
		if y {
			p.Y = hi.Y
		}
		if z {
			p.Z = hi.Z
		}
		return p
	}
	b.quad(c(false, false, false), c(true, false, false), c(true, true, false), c(false, true, false))
	b.quad(c(false, false, true), c(true, false, true), c(true, true, true), c(false, true, true))
	b.quad(c(false, false, false), c(false, true, false), c(false, true, true), c(false, false, true))
	b.quad(c(true, false, false), c(true, true, false), c(true, true, true), c(true, false, true))
	b.quad(c(false, false, false), c(true, false, false), c(true, false, true), c(false, false, true))
	b.quad(c(false, true, false), c(true, true, false), c(true, true, true), c(false, true, true))
	b.mesh.CalculateBounds()
	return b.mesh
}

// NewCube returns a cube of edge length size centered on the origin.
func NewCube(name string, size float64) *Mesh {
	h := size / 2
	return NewBox(name, math3d.NewAABB(math3d.V3(-h, -h, -h), math3d.V3(h, h, h)))
}

// ArrowShape sizes an arrow built along +Y from the origin.
type ArrowShape struct {
	Length      float64
	ShaftRadius float64
	HeadLength  float64
	HeadRadius  float64
}

// DefaultArrowShape is the gizmo handle shape in gizmo-local units.
var DefaultArrowShape = ArrowShape{
	Length:      1,
	ShaftRadius: 0.03,
	HeadLength:  0.25,
	HeadRadius:  0.09,
}

// NewArrow returns a square shaft capped by a pyramid head, pointing along
// axis from the origin.
func NewArrow(name string, axis math3d.Vec3, shape ArrowShape) *Mesh {
	shaftEnd := shape.Length - shape.HeadLength
	r := shape.ShaftRadius
	m := NewBox(name, math3d.NewAABB(math3d.V3(-r, 0, -r), math3d.V3(r, shaftEnd, r)))

	hr := shape.HeadRadius
	apex := math3d.V3(0, shape.Length, 0)
	base := [4]math3d.Vec3{
		math3d.V3(-hr, shaftEnd, -hr),
		math3d.V3(hr, shaftEnd, -hr),
		math3d.V3(hr, shaftEnd, hr),
		math3d.V3(-hr, shaftEnd, hr),
	}
	head := &builder{mesh: NewMesh(name + ".head"), interior: math3d.V3(0, shaftEnd+shape.HeadLength/4, 0)}
	for i := range base {
		head.tri(base[i], base[(i+1)%4], apex)
	}
	head.quad(base[0], base[1], base[2], base[3])
	m.Append(head.mesh)

	m.Transform(math3d.QuatBetween(math3d.Up(), axis).Mat4())
	return m
}

// NewArrowProxy returns the collision box for an arrow, fattened by margin
// so thin handles remain easy to hit.
func NewArrowProxy(name string, axis math3d.Vec3, shape ArrowShape, margin float64) *Mesh {
	w := max(shape.HeadRadius, shape.ShaftRadius) + margin
	m := NewBox(name, math3d.NewAABB(math3d.V3(-w, 0, -w), math3d.V3(w, shape.Length+margin, w)))
	m.Transform(math3d.QuatBetween(math3d.Up(), axis).Mat4())
	return m
}
