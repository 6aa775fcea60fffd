package terrain

// Stats summarises the terrain state after the last frame.
type Stats struct {
	Chunks      int
	Visible     int   // Result size of the last VisibleChunks
	LODChunks   []int // Chunks per currently selected LOD
	VertexBytes int
	IndexBytes  int
}

// Stats returns the current LOD histogram and pool usage.
func (t *Terrain) Stats() Stats {
	s := Stats{
		Chunks:    len(t.chunks),
		Visible:   t.lastVisible,
		LODChunks: make([]int, len(t.settings.LODs)),
	}
	for _, c := range t.chunks {
		s.LODChunks[c.current]++
	}
	s.VertexBytes, s.IndexBytes = t.pool.Size()
	return s
}

// DrawnTriangles counts triangles of the current LODs for refs.
func (t *Terrain) DrawnTriangles(refs []ChunkRef) int {
	n := 0
	for _, r := range refs {
		n += t.Chunk(r).CurrentLODMesh().IndexCount / 3
	}
	return n
}
