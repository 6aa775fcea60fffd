package terrain

import (
	"slices"

	"github.com/Faultbox/groundplane/pkg/math"
)

// SortNearToFar orders refs by the distance from the camera to each chunk
// center, nearest first. Ties keep grid order.
func (t *Terrain) SortNearToFar(refs []ChunkRef, cameraWorld math.Vec3) {
	local := t.ToLocal(cameraWorld)
	slices.SortStableFunc(refs, func(a, b ChunkRef) int {
		da := t.Chunk(a).center.DistanceSq(local)
		db := t.Chunk(b).center.DistanceSq(local)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	})
}
