package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/stage/pkg/math3d"
)

// outward reports whether every face normal points away from center.
func outward(m *Mesh, center math3d.Vec3) bool {
	for i := range m.TriangleCount() {
		a, b, c := m.Triangle(i)
		n := b.Sub(a).Cross(c.Sub(a))
		mid := a.Add(b).Add(c).Scale(1.0 / 3)
		if n.Dot(mid.Sub(center)) <= 0 {
			return false
		}
	}
	return true
}

func TestNewBox(t *testing.T) {
	box := math3d.NewAABB(math3d.V3(-1, 0, -2), math3d.V3(1, 3, 2))
	m := NewBox("box", box)

	assert.Equal(t, 12, m.TriangleCount())
	assert.Equal(t, box, m.Bounds())
	assert.True(t, outward(m, box.Center()), "faces wind counter-clockwise from outside")

	for _, v := range m.Vertices {
		assert.InDelta(t, 1.0, v.Normal.Len(), 1e-9)
	}
}

func TestNewArrowPointsAlongAxis(t *testing.T) {
	tests := []struct {
		name string
		axis math3d.Vec3
	}{
		{"x", math3d.V3(1, 0, 0)},
		{"y", math3d.V3(0, 1, 0)},
		{"z", math3d.V3(0, 0, 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewArrow("arrow", tc.axis, DefaultArrowShape)
			tip := m.BoundsMax.Dot(tc.axis)
			assert.InDelta(t, DefaultArrowShape.Length, tip, 1e-9)
			assert.InDelta(t, 0.0, m.BoundsMin.Dot(tc.axis), 1e-9)

			proxy := NewArrowProxy("proxy", tc.axis, DefaultArrowShape, 0.05)
			assert.True(t, proxy.Bounds().ContainsPoint(tc.axis.Scale(0.5)))
			assert.Greater(t, proxy.Size().Len(), m.Size().Len())
		})
	}
}

func TestMeshFitToSize(t *testing.T) {
	m := NewBox("b", math3d.NewAABB(math3d.V3(2, 2, 2), math3d.V3(6, 4, 3)))
	m.FitToSize(2)
	assert.True(t, m.Center().ApproxEqual(math3d.Zero3(), 1e-9))
	assert.InDelta(t, 2.0, m.Size().X, 1e-9)
	assert.InDelta(t, 1.0, m.Size().Y, 1e-9)
}

func TestMeshCloneIsDeep(t *testing.T) {
	m := NewCube("c", 1)
	c := m.Clone()
	c.Vertices[0].Position = math3d.V3(9, 9, 9)
	require.NotEqual(t, m.Vertices[0].Position, c.Vertices[0].Position)
}

func TestCalculateSmoothNormals(t *testing.T) {
	m := NewMesh("tri")
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 0)},
		{Position: math3d.V3(1, 0, 0)},
		{Position: math3d.V3(0, 1, 0)},
	}
	m.Faces = []Face{{V: [3]int{0, 1, 2}}}
	assert.False(t, m.HasNormals())

	m.CalculateSmoothNormals()
	for _, v := range m.Vertices {
		assert.InDelta(t, 1.0, v.Normal.Z, 1e-9)
	}
}
