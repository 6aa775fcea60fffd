// Package picking casts rays from the screen onto the terrain.
package picking

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/groundplane/internal/engine/terrain"
	"github.com/Faultbox/groundplane/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized
}

// ScreenToRay converts pixel coordinates to a ray in the space viewProj
// maps from. It returns false when viewProj cannot be inverted.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, viewProj math.Mat4) (Ray, bool) {
	m := mgl32.Mat4(viewProj)
	if m.Det() == 0 {
		return Ray{}, false
	}
	inv := m.Inv()

	// Normalized device coordinates, Y flipped
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH

	near := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, -1}, inv)
	far := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, 1}, inv)
	dir := far.Sub(near).Normalize()

	return Ray{
		Origin:    math.Vec3{X: near[0], Y: near[1], Z: near[2]},
		Direction: math.Vec3{X: dir[0], Y: dir[1], Z: dir[2]},
	}, true
}

// IntersectPlaneY intersects the ray with the horizontal plane at planeY.
// It returns false for rays parallel to the plane or pointing away from it.
func (r Ray) IntersectPlaneY(planeY float32) (math.Vec3, bool) {
	if gomath.Abs(float64(r.Direction.Y)) < 1e-6 {
		return math.Vec3{}, false
	}
	t := (planeY - r.Origin.Y) / r.Direction.Y
	if t < 0 {
		return math.Vec3{}, false
	}
	return r.Origin.Add(r.Direction.Scale(t)), true
}

// PickChunk returns the chunk hit by a world-space ray. The terrain is flat,
// so the hit is the ray's crossing of the terrain plane.
func PickChunk(t *terrain.Terrain, r Ray) (terrain.ChunkRef, bool) {
	local := Ray{Origin: t.ToLocal(r.Origin), Direction: r.Direction}
	hit, ok := local.IntersectPlaneY(t.Settings().TerrainHeight)
	if !ok {
		return 0, false
	}
	return t.RefAt(hit.X, hit.Z)
}
