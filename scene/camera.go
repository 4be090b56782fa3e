package scene

import (
	"fmt"

	"github.com/achilleasa/prism/types"
)

// The direction of a camera movement.
type CameraDirection uint8

const (
	Forward CameraDirection = iota
	Backward
	Left
	Right
)

// The camera type controls the viewpoint used for rendering.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3
	Pitch    float32
	Yaw      float32

	ViewMat types.Mat4
	ProjMat types.Mat4

	// Camera FOV in degrees.
	FOV float32

	// Aspect ratio set by the last SetupProjection call.
	Aspect float32
}

func NewCamera(fov float32) *Camera {
	c := &Camera{
		ViewMat:  types.Ident4(),
		ProjMat:  types.Ident4(),
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
		Aspect:   1,
	}
	c.Update()
	return c
}

// Setup camera projection matrix.
func (c *Camera) SetupProjection(aspect float32) {
	c.Aspect = aspect
	c.ProjMat = types.Perspective4(c.FOV, aspect, 1, 1000)
	c.Update()
}

// Update camera orientation by applying and then clearing the pending
// pitch/yaw deltas.
func (c *Camera) Update() {
	dir := c.LookAt.Sub(c.Position).Normalize()
	pitchAxis := dir.Cross(c.Up).Normalize()
	pitchQuat := types.QuatFromAxisAngle(pitchAxis, c.Pitch)
	yawQuat := types.QuatFromAxisAngle(c.Up, c.Yaw)

	orientQuat := pitchQuat.Mul(yawQuat).Normalize()

	dir = orientQuat.Rotate(dir)
	c.LookAt = c.Position.Add(dir)
	c.Pitch, c.Yaw = 0, 0

	c.ViewMat = types.LookAtV(c.Position, c.LookAt, c.Up)
}

// Move the camera (and its look-at point) along the given direction.
func (c *Camera) Move(dir CameraDirection, amount float32) {
	forward := c.LookAt.Sub(c.Position).Normalize()
	var delta types.Vec3
	switch dir {
	case Forward:
		delta = forward.Mul(amount)
	case Backward:
		delta = forward.Mul(-amount)
	case Left:
		delta = forward.Cross(c.Up).Normalize().Mul(-amount)
	case Right:
		delta = forward.Cross(c.Up).Normalize().Mul(amount)
	}

	c.Position = c.Position.Add(delta)
	c.LookAt = c.LookAt.Add(delta)
	c.Update()
}

// Capture the camera state used for change detection.
func (c *Camera) Snapshot() CameraSnapshot {
	return CameraSnapshot{
		Transform: c.ViewMat.Inv(),
		FOV:       c.FOV,
		Aspect:    c.Aspect,
	}
}

// An immutable copy of a camera's world transform and projection params.
type CameraSnapshot struct {
	Transform types.Mat4
	FOV       float32
	Aspect    float32
}

// Equal returns true if both snapshots have numerically identical transforms,
// field of view and aspect ratio. NaN values compare equal to NaN so that a
// snapshot always equals itself.
func (s CameraSnapshot) Equal(other CameraSnapshot) bool {
	for i := range s.Transform {
		if !floatEq(s.Transform[i], other.Transform[i]) {
			return false
		}
	}
	return floatEq(s.FOV, other.FOV) && floatEq(s.Aspect, other.Aspect)
}

func (s CameraSnapshot) String() string {
	t := s.Transform
	return fmt.Sprintf("camera(pos=(%3.3f, %3.3f, %3.3f), fov=%3.1f, aspect=%3.3f)", t[12], t[13], t[14], s.FOV, s.Aspect)
}

func floatEq(a, b float32) bool {
	return a == b || (a != a && b != b)
}
