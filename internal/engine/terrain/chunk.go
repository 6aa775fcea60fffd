package terrain

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/groundplane/pkg/math"
)

// Chunk is one cell of the terrain grid. Geometry is fixed after
// construction; only the selected LOD changes from frame to frame.
type Chunk struct {
	x, z    int
	size    float32
	center  math.Vec3
	radius  float32
	lodDist []float32
	lods    []LODMesh
	current LOD
}

func newChunk(x, z int, s Settings) *Chunk {
	size := s.ChunkSize()
	c := &Chunk{
		x:    x,
		z:    z,
		size: size,
		center: math.Vec3{
			X: (float32(x) + 0.5) * size,
			Y: s.TerrainHeight,
			Z: (float32(z) + 0.5) * size,
		},
		radius:  size * float32(stdmath.Sqrt2) / 2,
		lodDist: make([]float32, len(s.LODs)),
		lods:    make([]LODMesh, len(s.LODs)),
	}

	for i, l := range s.LODs {
		c.lodDist[i] = l.Distance
		c.lods[i] = c.generateLODMesh(l.VerticesPerSide, s.TerrainHeight)
	}
	return c
}

// generateLODMesh builds the grid for one resolution.
func (c *Chunk) generateLODMesh(verticesPerSide int, height float32) LODMesh {
	vertices, indices := GenerateGrid(GridParams{
		CellX:           c.x,
		CellZ:           c.z,
		CellSize:        c.size,
		VerticesPerSide: verticesPerSide,
		Height:          height,
	})
	return LODMesh{
		VerticesPerSide: verticesPerSide,
		VertexCount:     len(vertices),
		IndexCount:      len(indices),
		vertices:        vertices,
		indices:         indices,
	}
}

// CalculateLOD picks the LOD for a camera given in the grid's local space.
// The distance used is to the nearest point of the bounding sphere, and
// thresholds are inclusive lower bounds scanned from the coarsest level.
func (c *Chunk) CalculateLOD(cameraLocal math.Vec3) LOD {
	edge := cameraLocal.Distance(c.center) - c.radius
	if edge < 0 {
		edge = 0
	}
	for i := len(c.lodDist) - 1; i >= 0; i-- {
		if edge >= c.lodDist[i] {
			return LOD(i)
		}
	}
	return 0
}

// InFrustum reports whether the chunk's bounding sphere touches the frustum
// of viewProj. The matrix must already include the terrain model transform.
func (c *Chunk) InFrustum(viewProj math.Mat4) bool {
	f := math.ExtractFrustum(viewProj)
	return c.inFrustum(&f)
}

func (c *Chunk) inFrustum(f *math.Frustum) bool {
	return !f.SphereOutside(c.center, c.radius)
}

// LODMesh returns the mesh of one level.
func (c *Chunk) LODMesh(lod LOD) *LODMesh {
	if lod < 0 || int(lod) >= len(c.lods) {
		panic(fmt.Sprintf("terrain: lod %d out of range [0, %d)", lod, len(c.lods)))
	}
	return &c.lods[lod]
}

// CurrentLODMesh returns the mesh selected by the last UpdateLODs.
func (c *Chunk) CurrentLODMesh() *LODMesh {
	return &c.lods[c.current]
}

// CurrentLOD returns the level selected by the last UpdateLODs.
func (c *Chunk) CurrentLOD() LOD {
	return c.current
}

// LODCount returns the number of levels the chunk holds.
func (c *Chunk) LODCount() int {
	return len(c.lods)
}

// Center returns the chunk centroid in local space.
func (c *Chunk) Center() math.Vec3 {
	return c.center
}

// BoundingRadius returns the radius of the circumscribing sphere.
func (c *Chunk) BoundingRadius() float32 {
	return c.radius
}

// Size returns the chunk edge length.
func (c *Chunk) Size() float32 {
	return c.size
}

// Coords returns the grid coordinates.
func (c *Chunk) Coords() (x, z int) {
	return c.x, c.z
}

// releaseGeometry drops CPU-side vertex and index copies once uploaded.
func (c *Chunk) releaseGeometry() {
	for i := range c.lods {
		c.lods[i].vertices = nil
		c.lods[i].indices = nil
	}
}
