package terrain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSettings is wrapped by every Settings validation failure.
var ErrInvalidSettings = errors.New("terrain: invalid settings")

// Largest grid that still fits 16-bit indices.
const maxVerticesPerSide = 256

// LODLevel is one entry of the LOD table.
type LODLevel struct {
	VerticesPerSide int     `yaml:"vertices_per_side"`
	Distance        float32 `yaml:"distance"` // Edge distance at which this level starts (inclusive)
}

// Settings describes the terrain tile and its LOD table.
type Settings struct {
	ChunksPerSide int        `yaml:"chunks_per_side"`
	TerrainSize   float32    `yaml:"terrain_size"`
	TerrainHeight float32    `yaml:"terrain_height"`
	LODs          []LODLevel `yaml:"lods"`
}

// DefaultSettings returns a 14x14 grid over a 500 unit tile with five LODs.
func DefaultSettings() Settings {
	return Settings{
		ChunksPerSide: 14,
		TerrainSize:   500,
		TerrainHeight: 0,
		LODs: []LODLevel{
			{VerticesPerSide: 64, Distance: 0},
			{VerticesPerSide: 32, Distance: 1},
			{VerticesPerSide: 16, Distance: 2},
			{VerticesPerSide: 8, Distance: 10},
			{VerticesPerSide: 2, Distance: 50},
		},
	}
}

// ChunkSize returns the world edge length of one chunk.
func (s Settings) ChunkSize() float32 {
	return s.TerrainSize / float32(s.ChunksPerSide)
}

// ChunkCount returns the number of chunks in the grid.
func (s Settings) ChunkCount() int {
	return s.ChunksPerSide * s.ChunksPerSide
}

// Validate checks the grid dimensions and that the LOD table gets coarser
// as distances grow.
func (s Settings) Validate() error {
	if s.ChunksPerSide <= 0 {
		return fmt.Errorf("%w: chunks_per_side must be positive, got %d", ErrInvalidSettings, s.ChunksPerSide)
	}
	if !finite(s.TerrainSize) || !finite(s.TerrainHeight) {
		return fmt.Errorf("%w: terrain_size %g and terrain_height %g must be finite",
			ErrInvalidSettings, s.TerrainSize, s.TerrainHeight)
	}
	if s.TerrainSize <= 0 {
		return fmt.Errorf("%w: terrain_size must be positive, got %g", ErrInvalidSettings, s.TerrainSize)
	}
	if len(s.LODs) == 0 {
		return fmt.Errorf("%w: at least one LOD level is required", ErrInvalidSettings)
	}

	for i, l := range s.LODs {
		if l.VerticesPerSide < 2 || l.VerticesPerSide > maxVerticesPerSide {
			return fmt.Errorf("%w: lod %d: vertices_per_side %d outside [2, %d]",
				ErrInvalidSettings, i, l.VerticesPerSide, maxVerticesPerSide)
		}
		if !finite(l.Distance) {
			return fmt.Errorf("%w: lod %d: distance %g is not finite", ErrInvalidSettings, i, l.Distance)
		}
		if l.Distance < 0 {
			return fmt.Errorf("%w: lod %d: negative distance %g", ErrInvalidSettings, i, l.Distance)
		}
		if i == 0 {
			continue
		}
		prev := s.LODs[i-1]
		if l.Distance <= prev.Distance {
			return fmt.Errorf("%w: lod %d: distance %g not above lod %d distance %g",
				ErrInvalidSettings, i, l.Distance, i-1, prev.Distance)
		}
		if l.VerticesPerSide > prev.VerticesPerSide {
			return fmt.Errorf("%w: lod %d: %d vertices per side is finer than lod %d",
				ErrInvalidSettings, i, l.VerticesPerSide, i-1)
		}
	}
	return nil
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// MemoryRequirements returns the exact vertex and index arena sizes for the
// whole grid, in the order the terrain allocates them.
func MemoryRequirements(s Settings) (vertexBytes, indexBytes int) {
	for _, l := range s.LODs {
		vertexBytes += gridVertexCount(l.VerticesPerSide) * VertexSize
		indexBytes += gridIndexCount(l.VerticesPerSide) * IndexSize
	}
	n := s.ChunkCount()
	return vertexBytes * n, indexBytes * n
}
