package lighting

import (
	"testing"

	"github.com/Faultbox/groundplane/pkg/math"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name string
		sun  Sun
		to   math.Vec3
	}{
		{"zenith", Sun{Azimuth: 0, Elevation: 90}, math.Vec3{Y: 1}},
		{"north horizon", Sun{Azimuth: 0, Elevation: 0}, math.Vec3{Z: 1}},
		{"east horizon", Sun{Azimuth: 90, Elevation: 0}, math.Vec3{X: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sun.ToSun(); got.Distance(tt.to) > 1e-5 {
				t.Errorf("ToSun() = %v, want %v", got, tt.to)
			}
			if got := tt.sun.Direction(); got.Distance(tt.to.Scale(-1)) > 1e-5 {
				t.Errorf("Direction() = %v, want %v", got, tt.to.Scale(-1))
			}
		})
	}
}

func TestDefaultSunLightsFromAbove(t *testing.T) {
	d := DefaultSun().Direction()
	if d.Y >= 0 {
		t.Errorf("default sun direction %v does not point down", d)
	}
	if l := d.Length(); l < 0.9999 || l > 1.0001 {
		t.Errorf("direction length = %v", l)
	}
}
