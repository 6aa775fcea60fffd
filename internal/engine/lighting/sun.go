// Package lighting provides lighting utilities for 3D rendering.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/groundplane/pkg/math"
)

// Sun is a directional light placed by compass angles in degrees.
// Azimuth turns around +Y starting from +Z; elevation is above the horizon.
type Sun struct {
	Azimuth   float32
	Elevation float32
}

// DefaultSun lights the terrain from high in the south-west.
func DefaultSun() Sun {
	return Sun{Azimuth: 225, Elevation: 55}
}

// ToSun returns the unit vector pointing from the ground towards the sun.
func (s Sun) ToSun() math.Vec3 {
	lon := float64(s.Azimuth) * gomath.Pi / 180
	lat := float64(s.Elevation) * gomath.Pi / 180
	return math.Vec3{
		X: float32(gomath.Cos(lat) * gomath.Sin(lon)),
		Y: float32(gomath.Sin(lat)),
		Z: float32(gomath.Cos(lat) * gomath.Cos(lon)),
	}
}

// Direction returns the direction the light travels, as shaders expect it.
func (s Sun) Direction() math.Vec3 {
	return s.ToSun().Scale(-1)
}
