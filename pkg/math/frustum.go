package math

// Plane is the half-space Normal·p + D >= 0. Normal points into the frustum.
type Plane struct {
	Normal Vec3
	D      float32
}

// Distance returns the signed distance from p to the plane. It is a true
// distance only when the plane is normalized.
func (pl Plane) Distance(p Vec3) float32 {
	return pl.Normal.Dot(p) + pl.D
}

// Frustum holds the six clip planes in order: left, right, bottom, top, near, far.
type Frustum [6]Plane

// Plane indices into Frustum.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// ExtractFrustum builds the six normalized frustum planes from a combined
// view-projection matrix (Gribb-Hartmann). Planes are expressed in whatever
// space the matrix takes as input.
func ExtractFrustum(m Mat4) Frustum {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)

	var f Frustum
	f[PlaneLeft] = normalizePlane(add4(r3, r0))
	f[PlaneRight] = normalizePlane(sub4(r3, r0))
	f[PlaneBottom] = normalizePlane(add4(r3, r1))
	f[PlaneTop] = normalizePlane(sub4(r3, r1))
	f[PlaneNear] = normalizePlane(add4(r3, r2))
	f[PlaneFar] = normalizePlane(sub4(r3, r2))
	return f
}

// SphereOutside reports whether the sphere lies entirely on the negative side
// of at least one plane. Spheres that straddle a plane are kept.
func (f *Frustum) SphereOutside(center Vec3, radius float32) bool {
	for i := range f {
		if f[i].Distance(center) < -radius {
			return true
		}
	}
	return false
}

func normalizePlane(v Vec4) Plane {
	n := Vec3{v[0], v[1], v[2]}
	l := n.Length()
	if l == 0 {
		// Degenerate row, never culls.
		return Plane{}
	}
	return Plane{Normal: n.Scale(1 / l), D: v[3] / l}
}

func add4(a, b Vec4) Vec4 {
	return Vec4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func sub4(a, b Vec4) Vec4 {
	return Vec4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}
