package math

import (
	"math"
	"testing"
)

func TestExtractFrustumOrtho(t *testing.T) {
	// Box x,y,z in [-100, 100].
	f := ExtractFrustum(Ortho(-100, 100, -100, 100, -100, 100))

	tests := []struct {
		name    string
		center  Vec3
		radius  float32
		outside bool
	}{
		{"centered", Vec3{0, 0, 0}, 10, false},
		{"straddles right plane", Vec3{105, 0, 0}, 10, false},
		{"beyond right plane", Vec3{250, 0, 0}, 10, true},
		{"beyond left plane", Vec3{-250, 0, 0}, 10, true},
		{"beyond top plane", Vec3{0, 150, 0}, 10, true},
		{"beyond far plane", Vec3{0, 0, -150}, 10, true},
		{"touching near plane", Vec3{0, 0, 110}, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.SphereOutside(tt.center, tt.radius); got != tt.outside {
				t.Errorf("SphereOutside(%v, %v) = %v, want %v", tt.center, tt.radius, got, tt.outside)
			}
		})
	}
}

func TestExtractFrustumNormalized(t *testing.T) {
	f := ExtractFrustum(Perspective(float32(math.Pi/3), 16.0/9.0, 0.5, 800))
	for i, p := range f {
		l := p.Normal.Length()
		if l < 0.999 || l > 1.001 {
			t.Errorf("plane %d normal length = %v, want 1", i, l)
		}
	}

	// Right plane distance is a true distance: moving a point 1 unit along
	// the plane normal changes the distance by 1.
	p := Vec3{0, 0, -10}
	d0 := f[PlaneRight].Distance(p)
	d1 := f[PlaneRight].Distance(p.Add(f[PlaneRight].Normal))
	if diff := d1 - d0; diff < 0.999 || diff > 1.001 {
		t.Errorf("distance delta along normal = %v, want 1", diff)
	}
}

func TestExtractFrustumPerspective(t *testing.T) {
	proj := Perspective(float32(math.Pi/2), 1, 1, 100)
	view := LookAt(Vec3{0, 0, 0}, Vec3{0, 0, -1}, Vec3{0, 1, 0})
	f := ExtractFrustum(proj.Mul(view))

	if f.SphereOutside(Vec3{0, 0, -50}, 1) {
		t.Error("sphere straight ahead should be inside")
	}
	if !f.SphereOutside(Vec3{0, 0, 50}, 1) {
		t.Error("sphere behind the camera should be outside")
	}
	if !f.SphereOutside(Vec3{0, 0, -200}, 1) {
		t.Error("sphere beyond the far plane should be outside")
	}
}

func TestDegeneratePlaneNeverCulls(t *testing.T) {
	var zero Mat4
	f := ExtractFrustum(zero)
	if f.SphereOutside(Vec3{1e6, 1e6, 1e6}, 0) {
		t.Error("degenerate matrix should not cull")
	}
}
