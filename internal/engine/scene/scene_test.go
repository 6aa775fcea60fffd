package scene

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/groundplane/internal/engine/camera"
	"github.com/Faultbox/groundplane/internal/engine/terrain"
	"github.com/Faultbox/groundplane/internal/gpumem"
)

func newScene(t *testing.T, pos mgl32.Vec3) *Scene {
	t.Helper()
	s := terrain.DefaultSettings()
	s.ChunksPerSide = 4
	tr, err := terrain.New(s, gpumem.NewHostAllocator(gpumem.DefaultHostConfig()))
	if err != nil {
		t.Fatalf("terrain.New: %v", err)
	}
	t.Cleanup(tr.Close)

	cam := camera.NewFlyCamera(pos, camera.Projection{FOV: 60, Aspect: 1, Near: 0.1, Far: 1000})
	return New(tr, cam)
}

func TestUpdateCullsAndSorts(t *testing.T) {
	sc := newScene(t, mgl32.Vec3{0, 50, 400})
	sc.Update()

	st := sc.Stats()
	if st.Visible == 0 {
		t.Fatal("no chunks visible looking at the terrain")
	}
	if st.Visible+st.Culled != 16 {
		t.Errorf("visible %d + culled %d != 16", st.Visible, st.Culled)
	}
	if len(sc.Visible()) != st.Visible {
		t.Errorf("Visible() has %d refs, stats say %d", len(sc.Visible()), st.Visible)
	}

	eye := sc.Terrain.ToLocal(sc.Camera.WorldPosition())
	prev := float32(-1)
	tris := 0
	for _, ref := range sc.Visible() {
		c := sc.Terrain.Chunk(ref)
		d := c.Center().DistanceSq(eye)
		if d < prev {
			t.Errorf("chunk %d out of order: %v after %v", ref, d, prev)
		}
		prev = d
		tris += c.CurrentLODMesh().IndexCount / 3
	}
	if st.Triangles != tris {
		t.Errorf("Triangles = %d, want %d", st.Triangles, tris)
	}

	// Every chunk is at least 50 units of edge distance away.
	if st.LODChunks[4] != 16 {
		t.Errorf("LOD histogram = %v, want all 16 chunks at LOD 4", st.LODChunks)
	}
}

func TestUpdateLookingAway(t *testing.T) {
	sc := newScene(t, mgl32.Vec3{0, 50, 400})
	sc.Camera.Rotation = mgl32.Vec3{0, gomath.Pi, 0}
	sc.Update()

	if st := sc.Stats(); st.Visible != 0 || st.Culled != 16 || st.Triangles != 0 {
		t.Errorf("stats looking away = %+v", st)
	}
}

func TestUpdateFromAbove(t *testing.T) {
	// Straight down from high up, the whole tile fits in view and the
	// chunk under the camera comes first.
	sc := newScene(t, mgl32.Vec3{-180, 600, -180})
	sc.Camera.Rotation = mgl32.Vec3{-gomath.Pi / 2, 0, 0}
	sc.Update()

	if n := len(sc.Visible()); n != 16 {
		t.Fatalf("%d chunks visible from above, want 16", n)
	}
	if x, z := sc.Terrain.Chunk(sc.Visible()[0]).Coords(); x != 0 || z != 0 {
		t.Errorf("nearest chunk = (%d, %d), want (0, 0)", x, z)
	}
	if sc.View() != sc.Camera.ViewMatrix() {
		t.Error("View() differs from the camera view")
	}
}
