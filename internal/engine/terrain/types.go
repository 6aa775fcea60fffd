// Package terrain splits a flat ground tile into a grid of chunks, keeps
// several precomputed resolutions per chunk in two shared GPU arenas, and
// selects and culls those resolutions every frame.
package terrain

import (
	"github.com/Faultbox/groundplane/internal/gpumem"
)

// Vertex is the packed terrain vertex as the GPU reads it.
// Normal, tangent and bitangent are signed-normalized 16-bit values.
type Vertex struct {
	Position  [3]float32
	TexCoord  [2]float32
	Normal    [3]int16
	Tangent   [3]int16
	Bitangent [3]int16
	_         int16 // pad to 40 bytes
}

// Byte layout of an encoded Vertex.
const (
	VertexSize = 40
	IndexSize  = 2

	OffsetPosition  = 0
	OffsetTexCoord  = 12
	OffsetNormal    = 20
	OffsetTangent   = 26
	OffsetBitangent = 32
)

// LOD indexes a chunk's mesh resolutions; 0 is the finest.
type LOD int

// BufferAllocation is a byte range inside one of the pool arenas.
type BufferAllocation struct {
	Arena  gpumem.Kind
	Offset int
	Size   int
}

// End returns the first byte past the range.
func (a BufferAllocation) End() int {
	return a.Offset + a.Size
}

// LODMesh describes one resolution of a chunk and where it lives in the pool.
type LODMesh struct {
	VerticesPerSide int
	VertexAlloc     BufferAllocation
	IndexAlloc      BufferAllocation
	VertexCount     int
	IndexCount      int

	// CPU copies, released once uploaded.
	vertices []Vertex
	indices  []uint16
}

// VertexBytes returns the encoded vertex stream size.
func (m *LODMesh) VertexBytes() int {
	return m.VertexCount * VertexSize
}

// IndexBytes returns the encoded index buffer size.
func (m *LODMesh) IndexBytes() int {
	return m.IndexCount * IndexSize
}

// Resident reports whether the CPU-side geometry is still held.
func (m *LODMesh) Resident() bool {
	return m.vertices != nil
}
