package types

import "github.com/go-gl/mathgl/mgl32"

// A rotation quaternion backed by mgl32.
type Quat mgl32.Quat

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat(mgl32.QuatIdent())
}

// Create a quaternion from an axis vector and an angle (in radians).
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	return Quat(mgl32.QuatRotate(angle, mgl32.Vec3(axis)))
}

// Rotate a vector by the rotation this quaternion represents.
func (q Quat) Rotate(v Vec3) Vec3 {
	return Vec3(mgl32.Quat(q).Rotate(mgl32.Vec3(v)))
}

// Multiply two quaternions. Multiplication is not commutative.
func (q Quat) Mul(q2 Quat) Quat {
	return Quat(mgl32.Quat(q).Mul(mgl32.Quat(q2)))
}

// Normalize the quaternion.
func (q Quat) Normalize() Quat {
	return Quat(mgl32.Quat(q).Normalize())
}

// Return the homogeneous rotation matrix for this quaternion.
func (q Quat) Mat4() Mat4 {
	return Mat4(mgl32.Quat(q).Mat4())
}
