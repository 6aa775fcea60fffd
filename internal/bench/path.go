// Package bench drives the scripted camera flythrough and records frame
// timings for comparing builds.
package bench

import "github.com/go-gl/mathgl/mgl32"

// Keyframe is one camera pose on the flythrough path.
type Keyframe struct {
	Position   mgl32.Vec3
	Rotation   mgl32.Vec3 // pitch, yaw, roll in radians
	DurationMs float32    // Time to reach this keyframe from the previous one
	Section    int        // Section the segment ending here belongs to
}

// Path is an ordered keyframe list plus the names of its sections.
type Path struct {
	Keyframes []Keyframe
	Sections  []string
}

// SectionName returns the name of a section index.
func (p *Path) SectionName(i int) string {
	if i < 0 || i >= len(p.Sections) {
		return "Unknown"
	}
	return p.Sections[i]
}

// Duration returns the total path time in milliseconds.
func (p *Path) Duration() float32 {
	var d float32
	for _, k := range p.Keyframes[1:] {
		d += k.DurationMs
	}
	return d
}

// Post-roll keyframes keep roll at 2*pi so interpolation never unwinds.
const fullTurn = 6.28

// DefaultPath returns the standard flythrough over a terrain of the given
// size, centered at the origin. It starts and ends at the same pose.
func DefaultPath(terrainSize float32) Path {
	s := terrainSize / 50
	kf := func(x, y, z, pitch, yaw, roll, ms float32, section int) Keyframe {
		return Keyframe{
			Position:   mgl32.Vec3{x * s, y * s, z * s},
			Rotation:   mgl32.Vec3{pitch, yaw, roll},
			DurationMs: ms,
			Section:    section,
		}
	}

	return Path{
		Sections: []string{
			"Forward Approach", "Right Turn + Pitch Up", "Barrel Roll",
			"Overhead Pass", "Descend", "Pass 2",
			"Climb + Overhead 2", "Descend to Start",
		},
		Keyframes: []Keyframe{
			kf(0, 1, 0, 0, 0, 0, 0, 0),

			kf(0, 2, -6, 0, 0, 0, 2500, 0),
			kf(0, 3, -14, 0, 0, 0, 2500, 0),
			kf(0, 3, -20, 0, 0, 0, 2000, 0),

			kf(5, 4, -20, 0.15, -0.15, 0.06, 2000, 1),
			kf(10, 5, -18, 0.4, -0.3, 0.12, 2500, 1),
			kf(14, 6, -16, 0.8, -0.35, 0.15, 3000, 1),

			kf(16, 10, -15, 0.5, -0.3, 1.57, 2500, 2),
			kf(14, 15, -14, 0, -0.2, 3.14, 2500, 2),
			kf(10, 19, -14, -0.5, -0.1, 4.71, 2500, 2),
			kf(4, 22, -14, -1, 0, fullTurn, 2500, 2),

			kf(0, 22, -14, -1.2, 0, fullTurn, 2500, 3),
			kf(-4, 20, -14, -1, 0, fullTurn, 2500, 3),

			kf(-8, 12, -8, -0.5, 0, fullTurn, 2500, 4),
			kf(-8, 5, -4, -0.1, 0, fullTurn, 2500, 4),

			kf(-5, 4, -10, -0.05, 0, fullTurn, 2000, 5),
			kf(0, 3, -16, 0, 0, fullTurn, 2000, 5),
			kf(5, 3, -20, -0.05, -0.1, fullTurn, 2000, 5),

			kf(5, 10, -22, -0.3, -0.1, fullTurn, 2500, 6),
			kf(3, 18, -20, -0.8, 0, fullTurn, 2500, 6),
			kf(0, 18, -14, -1.1, 0, fullTurn, 2500, 6),

			kf(0, 8, -6, -0.5, 0, fullTurn, 2500, 7),
			kf(0, 1, 0, 0, 0, fullTurn, 3000, 7),
		},
	}
}
