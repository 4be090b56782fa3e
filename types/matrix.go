package types

import "github.com/go-gl/mathgl/mgl32"

const floatCmpEpsilon = 1e-6

// A column-major 4x4 matrix.
type Mat4 mgl32.Mat4

// Identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Perspective projection; fov is expressed in degrees.
func Perspective4(fov, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(mgl32.DegToRad(fov), aspect, near, far))
}

// Build a view matrix looking from eye to center.
func LookAtV(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(center), mgl32.Vec3(up)))
}

// Multiply with another matrix.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Multiply with a column vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Invert the matrix. Singular matrices yield the zero matrix.
func (m Mat4) Inv() Mat4 {
	return Mat4(mgl32.Mat4(m).Inv())
}
