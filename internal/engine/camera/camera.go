// Package camera provides camera implementations for 3D rendering.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/groundplane/pkg/math"
)

// Projection holds perspective parameters.
type Projection struct {
	FOV    float32 // Vertical, degrees
	Aspect float32
	Near   float32
	Far    float32
}

// Matrix returns the perspective projection matrix.
func (p Projection) Matrix() math.Mat4 {
	return math.Mat4(mgl32.Perspective(mgl32.DegToRad(p.FOV), p.Aspect, p.Near, p.Far))
}

// FlyCamera is a free camera driven by a position and Euler angles.
//
// Rotation is (pitch, yaw, roll) in radians: positive pitch looks up,
// positive yaw turns left, positive roll banks right. At zero rotation the
// camera looks along -Z.
type FlyCamera struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Proj     Projection

	MoveSpeed       float32 // Units per second
	LookSensitivity float32 // Degrees per mouse pixel
}

// NewFlyCamera creates a fly camera at position with the given projection.
func NewFlyCamera(position mgl32.Vec3, proj Projection) *FlyCamera {
	return &FlyCamera{
		Position:        position,
		Proj:            proj,
		MoveSpeed:       20,
		LookSensitivity: 0.15,
	}
}

// SetPose replaces position and rotation, as the benchmark path does.
func (c *FlyCamera) SetPose(position, rotation mgl32.Vec3) {
	c.Position = position
	c.Rotation = rotation
}

// orientation maps camera space to world space.
func (c *FlyCamera) orientation() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(c.Rotation[1]).
		Mul4(mgl32.HomogRotate3DX(c.Rotation[0])).
		Mul4(mgl32.HomogRotate3DZ(-c.Rotation[2]))
}

// Forward returns the unit view direction in world space.
func (c *FlyCamera) Forward() mgl32.Vec3 {
	return c.orientation().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
}

// Right returns the unit right vector in world space.
func (c *FlyCamera) Right() mgl32.Vec3 {
	return c.orientation().Mul4x1(mgl32.Vec4{1, 0, 0, 0}).Vec3()
}

// Up returns the unit up vector in world space.
func (c *FlyCamera) Up() mgl32.Vec3 {
	return c.orientation().Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3()
}

// ViewMatrix returns the world-to-camera transform.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	view := c.orientation().Transpose().Mul4(mgl32.Translate3D(-c.Position[0], -c.Position[1], -c.Position[2]))
	return math.Mat4(view)
}

// ProjectionMatrix returns the camera projection.
func (c *FlyCamera) ProjectionMatrix() math.Mat4 {
	return c.Proj.Matrix()
}

// ViewProjection returns projection * view.
func (c *FlyCamera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// WorldPosition returns the position as a math.Vec3.
func (c *FlyCamera) WorldPosition() math.Vec3 {
	return math.Vec3{X: c.Position[0], Y: c.Position[1], Z: c.Position[2]}
}

// HandleLook turns the camera by a mouse delta in pixels.
func (c *FlyCamera) HandleLook(dx, dy float32) {
	c.Rotation[1] -= mgl32.DegToRad(dx * c.LookSensitivity)
	c.Rotation[0] -= mgl32.DegToRad(dy * c.LookSensitivity)

	// Constrain pitch
	limit := mgl32.DegToRad(89)
	c.Rotation[0] = mgl32.Clamp(c.Rotation[0], -limit, limit)
}

// HandleMovement moves along the camera axes. Inputs are in [-1, 1] and
// scaled by MoveSpeed and dt seconds.
func (c *FlyCamera) HandleMovement(forward, right, up, dt float32) {
	step := c.MoveSpeed * dt
	move := c.Forward().Mul(forward).
		Add(c.Right().Mul(right)).
		Add(mgl32.Vec3{0, up, 0})
	c.Position = c.Position.Add(move.Mul(step))
}

// SetAspect updates the projection after a resize.
func (c *FlyCamera) SetAspect(width, height int) {
	if height > 0 {
		c.Proj.Aspect = float32(width) / float32(height)
	}
}
