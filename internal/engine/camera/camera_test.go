package camera

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/groundplane/pkg/math"
)

func near(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-4)
}

func TestFlyCameraAxes(t *testing.T) {
	tests := []struct {
		name     string
		rotation mgl32.Vec3
		forward  mgl32.Vec3
		right    mgl32.Vec3
		up       mgl32.Vec3
	}{
		{"identity", mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{"yaw left", mgl32.Vec3{0, gomath.Pi / 2, 0}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{"pitch up", mgl32.Vec3{gomath.Pi / 2, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{"roll right", mgl32.Vec3{0, 0, gomath.Pi / 2}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFlyCamera(mgl32.Vec3{}, Projection{FOV: 60, Aspect: 1, Near: 0.1, Far: 100})
			c.Rotation = tt.rotation
			if f := c.Forward(); !near(f, tt.forward) {
				t.Errorf("Forward() = %v, want %v", f, tt.forward)
			}
			if r := c.Right(); !near(r, tt.right) {
				t.Errorf("Right() = %v, want %v", r, tt.right)
			}
			if u := c.Up(); !near(u, tt.up) {
				t.Errorf("Up() = %v, want %v", u, tt.up)
			}
		})
	}
}

func TestFlyCameraViewMatrix(t *testing.T) {
	c := NewFlyCamera(mgl32.Vec3{10, 5, -3}, Projection{FOV: 60, Aspect: 1, Near: 0.1, Far: 100})
	c.Rotation = mgl32.Vec3{0.3, -0.7, 0.2}

	view := c.ViewMatrix()

	// The eye maps to the origin.
	if eye := view.TransformVec3(c.WorldPosition()); eye.Length() > 1e-4 {
		t.Errorf("eye in view space = %v, want origin", eye)
	}

	// A point ahead ends up on -Z.
	f := c.Forward()
	ahead := c.Position.Add(f.Mul(10))
	p := view.TransformVec3(math.Vec3{X: ahead[0], Y: ahead[1], Z: ahead[2]})
	if gomath.Abs(float64(p.Z+10)) > 1e-3 || gomath.Abs(float64(p.X)) > 1e-3 || gomath.Abs(float64(p.Y)) > 1e-3 {
		t.Errorf("point ahead in view space = %v, want (0,0,-10)", p)
	}
}

func TestFlyCameraFrustum(t *testing.T) {
	c := NewFlyCamera(mgl32.Vec3{0, 10, 0}, Projection{FOV: 60, Aspect: 16.0 / 9.0, Near: 0.1, Far: 500})
	f := math.ExtractFrustum(c.ViewProjection())

	if f.SphereOutside(math.Vec3{X: 0, Y: 10, Z: -50}, 1) {
		t.Error("sphere ahead culled")
	}
	if !f.SphereOutside(math.Vec3{X: 0, Y: 10, Z: 50}, 1) {
		t.Error("sphere behind kept")
	}
	if !f.SphereOutside(math.Vec3{X: 0, Y: 10, Z: -600}, 1) {
		t.Error("sphere beyond far plane kept")
	}
}

func TestHandleLookClampsPitch(t *testing.T) {
	c := NewFlyCamera(mgl32.Vec3{}, Projection{FOV: 60, Aspect: 1, Near: 0.1, Far: 100})
	c.LookSensitivity = 1

	c.HandleLook(0, -1000)
	if got := mgl32.RadToDeg(c.Rotation[0]); got > 89.001 {
		t.Errorf("pitch = %v degrees, want clamped to 89", got)
	}

	c.HandleLook(90, 0)
	if got := mgl32.RadToDeg(c.Rotation[1]); gomath.Abs(float64(got+90)) > 1e-3 {
		t.Errorf("yaw = %v degrees, want -90", got)
	}
}

func TestHandleMovement(t *testing.T) {
	c := NewFlyCamera(mgl32.Vec3{}, Projection{FOV: 60, Aspect: 1, Near: 0.1, Far: 100})
	c.MoveSpeed = 10

	c.HandleMovement(1, 0, 0, 0.5)
	if !near(c.Position, mgl32.Vec3{0, 0, -5}) {
		t.Errorf("after forward: %v, want (0,0,-5)", c.Position)
	}
	c.HandleMovement(0, 1, 1, 1)
	if !near(c.Position, mgl32.Vec3{10, 10, -5}) {
		t.Errorf("after strafe+climb: %v, want (10,10,-5)", c.Position)
	}
}

func TestSetAspect(t *testing.T) {
	c := NewFlyCamera(mgl32.Vec3{}, Projection{FOV: 60, Aspect: 1, Near: 0.1, Far: 100})
	c.SetAspect(1920, 1080)
	if gomath.Abs(float64(c.Proj.Aspect)-16.0/9.0) > 1e-5 {
		t.Errorf("aspect = %v", c.Proj.Aspect)
	}
	c.SetAspect(10, 0)
	if gomath.Abs(float64(c.Proj.Aspect)-16.0/9.0) > 1e-5 {
		t.Error("zero height changed the aspect")
	}
}
