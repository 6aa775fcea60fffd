package terrain

import (
	"errors"
	stdmath "math"
	"testing"

	"github.com/Faultbox/groundplane/internal/gpumem"
	"github.com/Faultbox/groundplane/pkg/math"
)

func smallSettings() Settings {
	s := DefaultSettings()
	s.ChunksPerSide = 4
	return s
}

func newTestTerrain(t *testing.T) (*Terrain, *gpumem.HostAllocator) {
	t.Helper()
	host := gpumem.NewHostAllocator(gpumem.DefaultHostConfig())
	tr, err := New(smallSettings(), host)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(tr.Close)
	return tr, host
}

func TestNewLaysOutPoolChunkMajor(t *testing.T) {
	tr, host := newTestTerrain(t)

	if tr.ChunkCount() != 16 {
		t.Fatalf("ChunkCount() = %d, want 16", tr.ChunkCount())
	}
	if host.LiveBlocks() != 2 {
		t.Errorf("LiveBlocks() = %d, want 2 arenas", host.LiveBlocks())
	}

	vb, ib := MemoryRequirements(tr.Settings())
	if sv, si := tr.BufferPool().Size(); sv != vb || si != ib {
		t.Errorf("pool size = (%d, %d), want (%d, %d)", sv, si, vb, ib)
	}
	if rv, ri := tr.BufferPool().Remaining(); rv != 0 || ri != 0 {
		t.Errorf("Remaining() = (%d, %d), want (0, 0)", rv, ri)
	}

	vcursor, icursor := 0, 0
	for ref := ChunkRef(0); int(ref) < tr.ChunkCount(); ref++ {
		c := tr.Chunk(ref)
		for l := 0; l < c.LODCount(); l++ {
			m := c.LODMesh(LOD(l))
			if m.Resident() {
				t.Fatalf("chunk %d lod %d still holds CPU geometry", ref, l)
			}
			if m.VertexAlloc.Offset != vcursor || m.VertexAlloc.Size != m.VertexBytes() {
				t.Fatalf("chunk %d lod %d vertex alloc %+v, want offset %d", ref, l, m.VertexAlloc, vcursor)
			}
			if m.IndexAlloc.Offset != icursor || m.IndexAlloc.Size != m.IndexBytes() {
				t.Fatalf("chunk %d lod %d index alloc %+v, want offset %d", ref, l, m.IndexAlloc, icursor)
			}
			vcursor, icursor = m.VertexAlloc.End(), m.IndexAlloc.End()
		}
	}
	if vcursor != vb || icursor != ib {
		t.Errorf("allocations sum to (%d, %d), want (%d, %d)", vcursor, icursor, vb, ib)
	}
}

func TestUploadedGeometryTiles(t *testing.T) {
	tr, _ := newTestTerrain(t)
	pool := tr.BufferPool()

	for lod := 0; lod < len(tr.Settings().LODs); lod++ {
		a := tr.ChunkAt(1, 2).LODMesh(LOD(lod))
		b := tr.ChunkAt(2, 2).LODMesh(LOD(lod))
		n := a.VerticesPerSide

		av, bv := pool.View(a.VertexAlloc), pool.View(b.VertexAlloc)
		for z := 0; z < n; z++ {
			pa := DecodeVertex(av, z*n+n-1).Position
			pb := DecodeVertex(bv, z*n).Position
			if !sameBits(pa, pb) {
				t.Fatalf("lod %d row %d: seam between %v and %v", lod, z, pa, pb)
			}
		}

		ai := pool.View(a.IndexAlloc)
		if got := DecodeIndex(ai, 1); got != uint16(n) {
			t.Errorf("lod %d: second index = %d, want %d", lod, got, n)
		}
	}
}

func TestNewAllocationFailure(t *testing.T) {
	vb, _ := MemoryRequirements(smallSettings())
	host := gpumem.NewHostAllocator(gpumem.HostConfig{
		VertexGranularity: 1,
		IndexGranularity:  1,
		Budget:            vb, // leaves no room for the index arena
	})

	tr, err := New(smallSettings(), host)
	if err == nil {
		tr.Close()
		t.Fatal("New succeeded without memory for the index arena")
	}
	if !errors.Is(err, ErrAllocationFailed) || !errors.Is(err, gpumem.ErrOutOfMemory) {
		t.Errorf("err = %v, want ErrAllocationFailed wrapping ErrOutOfMemory", err)
	}
	if host.LiveBlocks() != 0 {
		t.Errorf("LiveBlocks() = %d after failed New, want 0", host.LiveBlocks())
	}
}

func TestNewCommitFailure(t *testing.T) {
	alloc := &committingAllocator{HostAllocator: gpumem.NewHostAllocator(gpumem.DefaultHostConfig()), fail: true}

	tr, err := New(smallSettings(), alloc)
	if err == nil {
		tr.Close()
		t.Fatal("New succeeded although the upload could not be committed")
	}
	if !errors.Is(err, ErrAllocationFailed) || !errors.Is(err, errUnmap) {
		t.Errorf("err = %v, want ErrAllocationFailed wrapping the commit error", err)
	}
	if alloc.LiveBlocks() != 0 {
		t.Errorf("LiveBlocks() = %d after failed New, want 0", alloc.LiveBlocks())
	}
}

func TestNewWithUnmappingAllocator(t *testing.T) {
	alloc := &committingAllocator{HostAllocator: gpumem.NewHostAllocator(gpumem.DefaultHostConfig())}
	tr, err := New(smallSettings(), alloc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer tr.Close()

	m := tr.ChunkAt(1, 2).LODMesh(0)
	if v := tr.BufferPool().View(m.VertexAlloc); v != nil {
		t.Errorf("View after upload = %d bytes, want nil", len(v))
	}
	if m.VertexAlloc.Size != m.VertexBytes() || m.IndexAlloc.Size != m.IndexBytes() {
		t.Errorf("allocations %+v %+v do not match mesh sizes", m.VertexAlloc, m.IndexAlloc)
	}
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	s := smallSettings()
	s.ChunksPerSide = 0
	if _, err := New(s, gpumem.NewHostAllocator(gpumem.DefaultHostConfig())); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("err = %v, want ErrInvalidSettings", err)
	}
}

func TestUpdateLODsScenario(t *testing.T) {
	tr, _ := newTestTerrain(t)

	// Local (0,10,0) is the grid corner nearest chunk (0,0).
	tr.UpdateLODs(math.Vec3{X: -250, Y: 10, Z: -250})

	if got := tr.ChunkAt(0, 0).CurrentLOD(); got != 0 {
		t.Errorf("nearest chunk lod = %d, want 0", got)
	}
	coarsest := LOD(len(tr.Settings().LODs) - 1)
	if got := tr.ChunkAt(3, 3).CurrentLOD(); got != coarsest {
		t.Errorf("far corner lod = %d, want %d", got, coarsest)
	}
	if m := tr.ChunkAt(3, 3).CurrentLODMesh(); m.VerticesPerSide != 2 {
		t.Errorf("far corner mesh has %d vertices per side, want 2", m.VerticesPerSide)
	}

	st := tr.Stats()
	sum := 0
	for _, n := range st.LODChunks {
		sum += n
	}
	if sum != 16 || st.LODChunks[0] != 1 {
		t.Errorf("lod histogram = %v", st.LODChunks)
	}
}

func TestVisibleChunks(t *testing.T) {
	tr, _ := newTestTerrain(t)
	model := tr.ModelMatrix()

	all := math.Ortho(-300, 300, -300, 300, -300, 300).Mul(model)
	refs := tr.VisibleChunks(all)
	if len(refs) != 16 {
		t.Fatalf("visible = %d, want 16", len(refs))
	}
	for i, r := range refs {
		if int(r) != i {
			t.Fatalf("refs not in grid order: %v", refs)
		}
	}

	refs[0] = 99
	if again := tr.VisibleChunks(all); again[0] != 0 {
		t.Error("VisibleChunks reused the previous result slice")
	}

	// World x in [-300, -100]: only the first column (world x in [-250, -125])
	// and the second (starting at -125, radius ~88) survive.
	left := math.Ortho(-300, -100, -300, 300, -300, 300).Mul(model)
	for _, r := range tr.VisibleChunks(left) {
		if x, _ := tr.Chunk(r).Coords(); x > 1 {
			t.Errorf("chunk in column %d should be culled", x)
		}
	}
	if got := tr.Stats().Visible; got != 8 {
		t.Errorf("Stats().Visible = %d, want 8", got)
	}

	none := math.Ortho(1000, 2000, -300, 300, -300, 300).Mul(model)
	if refs := tr.VisibleChunks(none); len(refs) != 0 {
		t.Errorf("visible = %d, want 0 with everything outside the frustum", len(refs))
	}
}

func TestModelMatrixCentersTile(t *testing.T) {
	tr, _ := newTestTerrain(t)

	m := tr.ModelMatrix()
	world := m.TransformVec3(math.Vec3{X: 250, Y: 0, Z: 250})
	if world != (math.Vec3{}) {
		t.Errorf("tile center maps to %v, want origin", world)
	}
	if tr.Offset() != (math.Vec3{X: -250, Z: -250}) {
		t.Errorf("Offset() = %v", tr.Offset())
	}
	if local := tr.ToLocal(math.Vec3{X: -250, Y: 10, Z: -250}); local != (math.Vec3{Y: 10}) {
		t.Errorf("ToLocal = %v, want (0,10,0)", local)
	}
}

func TestSortNearToFar(t *testing.T) {
	tr, _ := newTestTerrain(t)
	refs := []ChunkRef{15, 0, 5, 10, 3}

	cam := math.Vec3{X: -250, Y: 10, Z: -250}
	tr.SortNearToFar(refs, cam)

	local := tr.ToLocal(cam)
	prev := float32(-1)
	for _, r := range refs {
		d := tr.Chunk(r).Center().DistanceSq(local)
		if d < prev {
			t.Fatalf("refs not sorted near to far: %v", refs)
		}
		prev = d
	}
	if refs[0] != 0 || refs[len(refs)-1] != 15 {
		t.Errorf("sorted refs = %v, want 0 first and 15 last", refs)
	}
}

func TestChunkLookupPanics(t *testing.T) {
	tr, _ := newTestTerrain(t)

	tests := []struct {
		name string
		fn   func()
	}{
		{"x too large", func() { tr.ChunkAt(4, 0) }},
		{"negative z", func() { tr.ChunkAt(0, -1) }},
		{"ref too large", func() { tr.Chunk(16) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}

	if c := tr.ChunkAt(3, 1); c != tr.Chunk(7) {
		t.Error("ChunkAt(3,1) is not row-major ref 7")
	}
}

func TestDrawnTriangles(t *testing.T) {
	tr, _ := newTestTerrain(t)
	tr.UpdateLODs(math.Vec3{X: 0, Y: 5000, Z: 0})

	refs := []ChunkRef{0, 1}
	if got := tr.DrawnTriangles(refs); got != 4 {
		t.Errorf("DrawnTriangles = %d, want 4 at the coarsest lod", got)
	}
}

func TestCloseReleasesArenas(t *testing.T) {
	host := gpumem.NewHostAllocator(gpumem.DefaultHostConfig())
	tr, err := New(smallSettings(), host)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr.Close()
	if host.LiveBlocks() != 0 || host.Used() != 0 {
		t.Errorf("after Close: %d live blocks, %d bytes used", host.LiveBlocks(), host.Used())
	}
}

func TestChunkRadiusMatchesScenario(t *testing.T) {
	tr, _ := newTestTerrain(t)
	r := tr.ChunkAt(0, 0).BoundingRadius()
	if stdmath.Abs(float64(r)-125*stdmath.Sqrt2/2) > 1e-3 {
		t.Errorf("radius = %v", r)
	}
}

func TestRefAt(t *testing.T) {
	tr, _ := newTestTerrain(t)

	tests := []struct {
		x, z float32
		want ChunkRef
		ok   bool
	}{
		{0, 0, 0, true},
		{124.9, 0, 0, true},
		{125, 0, 1, true},    // Shared edge goes to the larger index
		{10, 260, 8, true},   // Row 2
		{500, 500, 15, true}, // Far corner
		{-0.1, 10, 0, false},
		{10, 500.1, 0, false},
	}
	for _, tt := range tests {
		got, ok := tr.RefAt(tt.x, tt.z)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("RefAt(%v, %v) = %d, %v; want %d, %v", tt.x, tt.z, got, ok, tt.want, tt.ok)
		}
	}
}
