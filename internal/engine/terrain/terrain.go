package terrain

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/groundplane/internal/gpumem"
	"github.com/Faultbox/groundplane/internal/logger"
	"github.com/Faultbox/groundplane/pkg/math"
)

// ErrAllocationFailed wraps any memory failure during terrain construction.
var ErrAllocationFailed = errors.New("terrain: allocation failed")

// ChunkRef identifies a chunk by its row-major index in the grid. Refs stay
// valid for the lifetime of the Terrain.
type ChunkRef int

// Terrain is a ChunksPerSide x ChunksPerSide grid of chunks covering a
// TerrainSize square, centered on the world origin by its model matrix.
// It is not safe for concurrent use.
type Terrain struct {
	settings Settings
	chunks   []*Chunk
	pool     *BufferPool
	offset   math.Vec3
	model    math.Mat4

	lastVisible int
	log         *zap.Logger
}

// New builds every chunk and LOD, sizes the pool from the result, and
// uploads all geometry into the arenas. On error nothing stays allocated.
func New(settings Settings, allocator gpumem.Allocator) (*Terrain, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	half := settings.TerrainSize / 2
	t := &Terrain{
		settings: settings,
		chunks:   make([]*Chunk, 0, settings.ChunkCount()),
		pool:     NewBufferPool(allocator),
		offset:   math.Vec3{X: -half, Y: 0, Z: -half},
		log:      logger.Named("terrain"),
	}
	t.model = math.Translate(t.offset.X, t.offset.Y, t.offset.Z)

	for z := 0; z < settings.ChunksPerSide; z++ {
		for x := 0; x < settings.ChunksPerSide; x++ {
			t.chunks = append(t.chunks, newChunk(x, z, settings))
		}
	}

	if err := t.upload(); err != nil {
		t.pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}

	for _, c := range t.chunks {
		c.releaseGeometry()
	}

	vb, ib := MemoryRequirements(settings)
	t.log.Info("terrain built",
		zap.Int("chunks", len(t.chunks)),
		zap.Float32("chunkSize", settings.ChunkSize()),
		zap.Int("lods", len(settings.LODs)),
		zap.Int("vertexBytes", vb),
		zap.Int("indexBytes", ib),
	)
	return t, nil
}

// upload allocates each (chunk, LOD) range in chunk-major, LOD-minor order
// and encodes the geometry into it.
func (t *Terrain) upload() error {
	vb, ib := MemoryRequirements(t.settings)
	if err := t.pool.Init(vb, ib); err != nil {
		return err
	}

	for _, c := range t.chunks {
		for l := range c.lods {
			m := &c.lods[l]

			va, err := t.pool.AllocateVertices(m.VertexBytes())
			if err != nil {
				return fmt.Errorf("chunk (%d,%d) lod %d: %w", c.x, c.z, l, err)
			}
			ia, err := t.pool.AllocateIndices(m.IndexBytes())
			if err != nil {
				return fmt.Errorf("chunk (%d,%d) lod %d: %w", c.x, c.z, l, err)
			}
			m.VertexAlloc, m.IndexAlloc = va, ia

			if dst := t.pool.View(va); dst != nil {
				if err := EncodeVertices(dst, m.vertices); err != nil {
					return err
				}
			}
			if dst := t.pool.View(ia); dst != nil {
				if err := EncodeIndices(dst, m.indices); err != nil {
					return err
				}
			}
		}
	}

	if rv, ri := t.pool.Remaining(); rv != 0 || ri != 0 {
		return fmt.Errorf("pool sizing mismatch: %d vertex and %d index bytes unused", rv, ri)
	}
	return t.pool.Commit()
}

// UpdateLODs selects the LOD of every chunk for a world-space camera.
func (t *Terrain) UpdateLODs(cameraWorld math.Vec3) {
	local := t.ToLocal(cameraWorld)
	for _, c := range t.chunks {
		c.current = c.CalculateLOD(local)
	}
}

// VisibleChunks returns the chunks whose bounding spheres touch the frustum
// of viewProj, in grid order. viewProj must include ModelMatrix. The
// returned slice is freshly allocated on every call.
func (t *Terrain) VisibleChunks(viewProj math.Mat4) []ChunkRef {
	f := math.ExtractFrustum(viewProj)
	visible := make([]ChunkRef, 0, len(t.chunks))
	for i, c := range t.chunks {
		if c.inFrustum(&f) {
			visible = append(visible, ChunkRef(i))
		}
	}
	t.lastVisible = len(visible)
	return visible
}

// Chunk resolves a ref. An invalid ref is a programming error and panics.
func (t *Terrain) Chunk(ref ChunkRef) *Chunk {
	if ref < 0 || int(ref) >= len(t.chunks) {
		panic(fmt.Sprintf("terrain: chunk ref %d out of range [0, %d)", ref, len(t.chunks)))
	}
	return t.chunks[ref]
}

// ChunkAt returns the chunk at grid coordinates (x, z). Coordinates outside
// the grid panic.
func (t *Terrain) ChunkAt(x, z int) *Chunk {
	n := t.settings.ChunksPerSide
	if x < 0 || x >= n || z < 0 || z >= n {
		panic(fmt.Sprintf("terrain: chunk (%d,%d) outside %dx%d grid", x, z, n, n))
	}
	return t.chunks[z*n+x]
}

// RefAt returns the chunk whose square contains the grid-local point (x, z).
// Points on a shared edge belong to the chunk with the larger index; the far
// border of the tile belongs to the last row and column.
func (t *Terrain) RefAt(localX, localZ float32) (ChunkRef, bool) {
	n := t.settings.ChunksPerSide
	if localX < 0 || localZ < 0 || localX > t.settings.TerrainSize || localZ > t.settings.TerrainSize {
		return 0, false
	}
	size := t.settings.ChunkSize()
	x := min(int(localX/size), n-1)
	z := min(int(localZ/size), n-1)
	return ChunkRef(z*n + x), true
}

// ChunkCount returns the number of chunks.
func (t *Terrain) ChunkCount() int {
	return len(t.chunks)
}

// ModelMatrix maps grid-local coordinates to world space.
func (t *Terrain) ModelMatrix() math.Mat4 {
	return t.model
}

// Offset returns the local-to-world translation.
func (t *Terrain) Offset() math.Vec3 {
	return t.offset
}

// ToLocal converts a world-space point into grid-local space.
func (t *Terrain) ToLocal(world math.Vec3) math.Vec3 {
	return world.Sub(t.offset)
}

// BufferPool returns the pool holding every chunk's geometry.
func (t *Terrain) BufferPool() *BufferPool {
	return t.pool
}

// Settings returns the settings the terrain was built with.
func (t *Terrain) Settings() Settings {
	return t.settings
}

// Close releases both arenas. The terrain must not be drawn afterwards.
func (t *Terrain) Close() {
	t.pool.Close()
	t.log.Debug("terrain released")
}
