package math3d

import "github.com/go-gl/mathgl/mgl64"

// Quat is a rotation quaternion backed by mgl64.
type Quat struct {
	q mgl64.Quat
}

// QuatIdent returns the identity rotation.
func QuatIdent() Quat {
	return Quat{mgl64.QuatIdent()}
}

// QuatAxisAngle returns a rotation of angle radians about axis. A zero axis
// yields the identity.
func QuatAxisAngle(axis Vec3, angle float64) Quat {
	n := axis.Normalize()
	if n.LenSq() == 0 {
		return QuatIdent()
	}
	return Quat{mgl64.QuatRotate(angle, n.mgl())}
}

// QuatBetween returns the shortest rotation taking from onto to.
func QuatBetween(from, to Vec3) Quat {
	return Quat{mgl64.QuatBetweenVectors(from.mgl(), to.mgl())}
}

// Mul composes rotations: the result applies b first, then q.
func (q Quat) Mul(b Quat) Quat {
	return Quat{q.q.Mul(b.q)}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	return fromMgl(q.q.Rotate(v.mgl()))
}

// Normalize returns the unit quaternion.
func (q Quat) Normalize() Quat {
	return Quat{q.q.Normalize()}
}

// Inverse returns the inverse rotation.
func (q Quat) Inverse() Quat {
	return Quat{q.q.Inverse()}
}

// Mat4 returns the rotation as a homogeneous matrix.
func (q Quat) Mat4() Mat4 {
	return Mat4(q.q.Mat4())
}

// W returns the scalar part.
func (q Quat) W() float64 {
	return q.q.W
}
