package terrain

// GridParams places a square vertex grid covering one cell of a tile on
// the XZ plane.
//
// Border rows and columns sit at cell*CellSize, which does not depend on
// the resolution, so neighbouring chunks agree bit for bit on shared
// corners at any pair of LODs. Interior vertices use the tile-wide grid
// index times the spacing, which keeps same-resolution edges identical too.
type GridParams struct {
	CellX, CellZ    int     // Cell coordinates within the tile
	CellSize        float32 // World edge length of a cell
	VerticesPerSide int
	Height          float32 // Y of every vertex
}

var (
	upNormal   = [3]int16{0, snormOne, 0}
	tangentX   = [3]int16{snormOne, 0, 0}
	bitangentZ = [3]int16{0, 0, snormOne}
	snormOne   = packSnorm(1)
)

// GenerateGrid builds VerticesPerSide² vertices and two triangles per quad.
// For each quad with start = z*n + x the triangles are
// (start, start+n, start+1) and (start+1, start+n, start+n+1).
// Grids below 2 or above 256 vertices per side yield no geometry.
func GenerateGrid(p GridParams) ([]Vertex, []uint16) {
	n := p.VerticesPerSide
	if n < 2 || n > maxVerticesPerSide {
		return nil, nil
	}
	quads := n - 1
	spacing := p.CellSize / float32(quads)

	vertices := make([]Vertex, 0, gridVertexCount(n))
	last := float32(n - 1)

	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			vertices = append(vertices, Vertex{
				Position: [3]float32{
					gridCoord(p.CellX, x, quads, p.CellSize, spacing),
					p.Height,
					gridCoord(p.CellZ, z, quads, p.CellSize, spacing),
				},
				TexCoord:  [2]float32{float32(x) / last, float32(z) / last},
				Normal:    upNormal,
				Tangent:   tangentX,
				Bitangent: bitangentZ,
			})
		}
	}

	indices := make([]uint16, 0, gridIndexCount(n))
	for z := 0; z < n-1; z++ {
		for x := 0; x < n-1; x++ {
			start := uint16(z*n + x)
			row := uint16(n)
			indices = append(indices,
				start, start+row, start+1,
				start+1, start+row, start+row+1,
			)
		}
	}

	return vertices, indices
}

// gridCoord places vertex i of a cell along one axis.
func gridCoord(cell, i, quads int, cellSize, spacing float32) float32 {
	switch i {
	case 0:
		return float32(cell) * cellSize
	case quads:
		return float32(cell+1) * cellSize
	}
	return float32(cell*quads+i) * spacing
}

func gridVertexCount(n int) int {
	return n * n
}

func gridIndexCount(n int) int {
	return (n - 1) * (n - 1) * 6
}

// packSnorm converts [-1, 1] to a signed-normalized 16-bit value.
func packSnorm(f float32) int16 {
	if f > 1 {
		f = 1
	}
	if f < -1 {
		f = -1
	}
	if f >= 0 {
		return int16(f*32767 + 0.5)
	}
	return int16(f*32767 - 0.5)
}

// unpackSnorm is the inverse of packSnorm.
func unpackSnorm(v int16) float32 {
	f := float32(v) / 32767
	if f < -1 {
		return -1
	}
	return f
}
