// Package scene runs the per-frame terrain pipeline: LOD selection, frustum
// culling and near-to-far ordering for one camera. It issues no GL calls, so
// the viewer and the headless tools share it.
package scene

import (
	"github.com/Faultbox/groundplane/internal/engine/camera"
	"github.com/Faultbox/groundplane/internal/engine/terrain"
	"github.com/Faultbox/groundplane/pkg/math"
)

// FrameStats describes the result of the last Update.
type FrameStats struct {
	Visible   int
	Culled    int
	Triangles int
	LODChunks []int // Chunks per selected LOD, over the whole grid
}

// Scene pairs a terrain with the camera that looks at it.
type Scene struct {
	Terrain *terrain.Terrain
	Camera  *camera.FlyCamera

	view, projection math.Mat4
	visible          []terrain.ChunkRef
	stats            FrameStats
}

// New creates a scene. Call Update before reading any frame state.
func New(t *terrain.Terrain, cam *camera.FlyCamera) *Scene {
	return &Scene{
		Terrain: t,
		Camera:  cam,
	}
}

// Update selects LODs for the camera position, culls chunks against the
// camera frustum in terrain-local space and sorts the survivors near to far.
func (s *Scene) Update() {
	eye := s.Camera.WorldPosition()
	s.view = s.Camera.ViewMatrix()
	s.projection = s.Camera.ProjectionMatrix()

	s.Terrain.UpdateLODs(eye)

	// Planes come out in the space the matrix maps from, so folding the
	// model matrix in puts them in chunk space.
	mvp := s.projection.Mul(s.view).Mul(s.Terrain.ModelMatrix())
	s.visible = s.Terrain.VisibleChunks(mvp)
	s.Terrain.SortNearToFar(s.visible, eye)

	ts := s.Terrain.Stats()
	s.stats = FrameStats{
		Visible:   len(s.visible),
		Culled:    ts.Chunks - len(s.visible),
		Triangles: s.Terrain.DrawnTriangles(s.visible),
		LODChunks: ts.LODChunks,
	}
}

// Visible returns the chunks to draw this frame, nearest first. The slice
// is replaced by the next Update.
func (s *Scene) Visible() []terrain.ChunkRef {
	return s.visible
}

// View returns the view matrix used by the last Update.
func (s *Scene) View() math.Mat4 {
	return s.view
}

// Projection returns the projection matrix used by the last Update.
func (s *Scene) Projection() math.Mat4 {
	return s.projection
}

// Stats returns the statistics of the last Update.
func (s *Scene) Stats() FrameStats {
	return s.stats
}
