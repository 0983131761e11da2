package math3d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedProjector struct {
	vp Mat4
}

func (p fixedProjector) ViewProjectionMatrix() Mat4 { return p.vp }

func lookingDownZ(eye Vec3, aspect float64) fixedProjector {
	view := LookAt(eye, eye.Add(V3(0, 0, -1)), Up())
	proj := Perspective(math.Pi/3, aspect, 0.1, 100)
	return fixedProjector{vp: proj.Mul(view)}
}

func assertVec(t *testing.T, want, got Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-6, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-6, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-6, "z")
}

func TestIntersectPlane(t *testing.T) {
	ground := PlaneFromPointNormal(Zero3(), Up())

	tests := []struct {
		name string
		ray  Ray
		hit  bool
		want Vec3
	}{
		{"straight down", NewRay(V3(1, 5, 2), V3(0, -1, 0)), true, V3(1, 0, 2)},
		{"oblique", NewRay(V3(0, 2, 0), V3(1, -1, 0)), true, V3(2, 0, 0)},
		{"parallel", NewRay(V3(0, 2, 0), V3(1, 0, 0)), false, Vec3{}},
		{"pointing away", NewRay(V3(0, 2, 0), V3(0, 1, 0)), false, Vec3{}},
		{"origin on plane", NewRay(V3(3, 0, 3), V3(0, -1, 0)), true, V3(3, 0, 3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := IntersectPlane(tc.ray, ground)
			require.Equal(t, tc.hit, ok)
			if ok {
				assertVec(t, tc.want, got)
			}
		})
	}
}

func TestIntersectPlaneUnnormalized(t *testing.T) {
	p := PlaneFromPointNormal(V3(0, 0, -4), V3(0, 0, 10))
	got, ok := IntersectPlane(NewRay(Zero3(), V3(0, 0, -1)), p)
	require.True(t, ok)
	assertVec(t, V3(0, 0, -4), got)
}

func TestIntersectPlaneDegenerateNormal(t *testing.T) {
	_, ok := IntersectPlane(NewRay(Zero3(), V3(0, 0, -1)), Plane{})
	assert.False(t, ok)
}

func TestPlaneVec4RoundTrip(t *testing.T) {
	p := PlaneFromPointNormal(V3(1, 2, 3), V3(0, 3, 4))
	q := PlaneFromVec4(p.Vec4())
	assert.Equal(t, p, q)

	q.Normalize()
	assert.InDelta(t, 1.0, q.Normal.Len(), 1e-12)
	assert.InDelta(t, 0.0, q.DistanceToPoint(V3(1, 2, 3)), 1e-12)
	assert.InDelta(t, 1.0, q.DistanceToPoint(V3(1, 2, 3).Add(q.Normal)), 1e-12)
}

func TestRayFromScreenPoint(t *testing.T) {
	cam := lookingDownZ(V3(0, 0, 5), 1)
	vp := NewViewport(100, 100)

	t.Run("center", func(t *testing.T) {
		r := RayFromScreenPoint(cam, vp, 50, 50)
		assertVec(t, V3(0, 0, -1), r.Dir)
		assert.InDelta(t, 4.9, r.Origin.Z, 1e-6)
	})

	t.Run("top left leans up and left", func(t *testing.T) {
		r := RayFromScreenPoint(cam, vp, 0, 0)
		assert.Less(t, r.Dir.X, 0.0)
		assert.Greater(t, r.Dir.Y, 0.0)
		assert.InDelta(t, r.Dir.X, -r.Dir.Y, 1e-9)
		assert.InDelta(t, 1.0, r.Dir.Len(), 1e-9)
	})

	t.Run("outside viewport stays finite", func(t *testing.T) {
		r := RayFromScreenPoint(cam, vp, -300, 900)
		assert.True(t, r.Origin.IsFinite())
		assert.True(t, r.Dir.IsFinite())
		assert.InDelta(t, 1.0, r.Dir.Len(), 1e-9)
	})

	t.Run("zero sized viewport", func(t *testing.T) {
		r := RayFromScreenPoint(cam, Viewport{}, 0, 0)
		assert.True(t, r.Dir.IsFinite())
	})

	t.Run("offset viewport", func(t *testing.T) {
		r := RayFromScreenPoint(cam, Viewport{X: 20, Y: 10, Width: 100, Height: 100}, 70, 60)
		assertVec(t, V3(0, 0, -1), r.Dir)
	})
}

func TestRayHitsProjectedPoint(t *testing.T) {
	cam := lookingDownZ(V3(1, 2, 8), 16.0/9.0)
	vp := NewViewport(160, 90)
	target := V3(2.5, 1, -3)

	clip := cam.vp.MulVec4(V4FromV3(target, 1)).PerspectiveDivide()
	px := (clip.X + 1) * 0.5 * vp.Width
	py := (1 - clip.Y) * 0.5 * vp.Height

	r := RayFromScreenPoint(cam, vp, px, py)
	toTarget := target.Sub(r.Origin).Normalize()
	assertVec(t, toTarget, r.Dir)
}

func TestAABBIntersectRay(t *testing.T) {
	box := NewAABB(V3(-1, -1, -1), V3(1, 1, 1))

	d, ok := box.IntersectRay(NewRay(V3(0, 0, 5), V3(0, 0, -1)))
	require.True(t, ok)
	assert.InDelta(t, 4.0, d, 1e-9)

	_, ok = box.IntersectRay(NewRay(V3(3, 0, 5), V3(0, 0, -1)))
	assert.False(t, ok)

	d, ok = box.IntersectRay(NewRay(Zero3(), V3(1, 0, 0)))
	require.True(t, ok)
	assert.Zero(t, d)

	_, ok = box.IntersectRay(NewRay(V3(0, 0, 5), V3(0, 0, 1)))
	assert.False(t, ok)
}

func TestAABBTransform(t *testing.T) {
	box := NewAABB(V3(-1, -1, -1), V3(1, 1, 1))
	moved := box.Transform(Translate(V3(10, 0, 0)).Mul(ScaleUniform(2)))
	assertVec(t, V3(8, -2, -2), moved.Min)
	assertVec(t, V3(12, 2, 2), moved.Max)
	assert.True(t, moved.ContainsPoint(V3(10, 0, 0)))
	assert.False(t, moved.ContainsPoint(Zero3()))
}

func TestIntersectTriangle(t *testing.T) {
	a, b, c := V3(-1, -1, 0), V3(1, -1, 0), V3(0, 1, 0)

	d, ok := IntersectTriangle(NewRay(V3(0, 0, 3), V3(0, 0, -1)), a, b, c)
	require.True(t, ok)
	assert.InDelta(t, 3.0, d, 1e-9)

	d, ok = IntersectTriangle(NewRay(V3(0, 0, -3), V3(0, 0, 1)), a, b, c)
	require.True(t, ok, "back face is hit too")
	assert.InDelta(t, 3.0, d, 1e-9)

	_, ok = IntersectTriangle(NewRay(V3(2, 2, 3), V3(0, 0, -1)), a, b, c)
	assert.False(t, ok)

	_, ok = IntersectTriangle(NewRay(V3(0, 0, 3), V3(1, 0, 0)), a, b, c)
	assert.False(t, ok)
}

func TestQuat(t *testing.T) {
	q := QuatAxisAngle(Up(), math.Pi/2)
	assertVec(t, V3(0, 0, -1), q.Rotate(Right()))
	assertVec(t, Right(), q.Inverse().Rotate(q.Rotate(Right())))

	assertVec(t, Right(), QuatAxisAngle(Vec3{}, 1).Rotate(Right()))

	between := QuatBetween(Right(), Up())
	assertVec(t, Up(), between.Rotate(Right()))

	m := q.Mat4()
	assertVec(t, q.Rotate(V3(1, 2, 3)), m.MulVec3Dir(V3(1, 2, 3)))
}

func TestMat4Inverse(t *testing.T) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5)).Mul(Scale(V3(2, 3, 4)))
	id := m.Mul(m.Inverse())
	want := Identity()
	for i := range id {
		assert.InDelta(t, want[i], id[i], 1e-9, "element %d", i)
	}

	var singular Mat4
	assert.Equal(t, Identity(), singular.Inverse())
}

func TestBasisFromForwardUp(t *testing.T) {
	m := BasisFromForwardUp(Forward(), Up(), V3(1, 2, 3))
	assertVec(t, Right(), m.Column(0))
	assertVec(t, Up(), m.Column(1))
	assertVec(t, V3(0, 0, 1), m.Column(2))
	assertVec(t, V3(1, 2, 3), m.Translation())

	m = BasisFromForwardUp(V3(1, 0, 0), Up(), Zero3())
	assertVec(t, V3(-1, 0, 0), m.Column(2))
	assertVec(t, V3(0, 0, 1), m.Column(0))

	degenerate := BasisFromForwardUp(Up(), Up(), V3(4, 0, 0))
	assert.Equal(t, Translate(V3(4, 0, 0)), degenerate)
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, Vec3{}, Centroid(nil))
	assertVec(t, V3(1, 1, 0), Centroid([]Vec3{V3(0, 0, 0), V3(2, 0, 0), V3(1, 3, 0)}))
}
