// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/groundplane/internal/engine/terrain"
	"github.com/Faultbox/groundplane/internal/gpumem"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid value")

// Allocator names accepted by MemoryConfig.Allocator.
const (
	AllocatorHost = "host"
	AllocatorGL   = "gl"
)

// Config holds all viewer settings.
type Config struct {
	Terrain  TerrainConfig  `yaml:"terrain"`
	Memory   MemoryConfig   `yaml:"memory"`
	Graphics GraphicsConfig `yaml:"graphics"`
	Camera   CameraConfig   `yaml:"camera"`
	Bench    BenchConfig    `yaml:"bench"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TerrainConfig describes the terrain grid and its LOD table.
type TerrainConfig struct {
	ChunksPerSide int                `yaml:"chunks_per_side"`
	Size          float32            `yaml:"size"`
	Height        float32            `yaml:"height"`
	LODs          []terrain.LODLevel `yaml:"lods"`
}

// MemoryConfig selects the GPU memory allocator.
type MemoryConfig struct {
	Allocator         string `yaml:"allocator"`          // host or gl
	VertexGranularity int    `yaml:"vertex_granularity"` // Bytes, power of two
	IndexGranularity  int    `yaml:"index_granularity"`
	Budget            int    `yaml:"budget"` // Host allocator limit in bytes, 0 = unlimited
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FPSLimit   int     `yaml:"fps_limit"`
	FOV        float32 `yaml:"fov"` // Vertical, degrees
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`
	Wireframe  bool    `yaml:"wireframe"`
}

// CameraConfig holds the fly camera start pose and controls.
type CameraConfig struct {
	Position        [3]float32 `yaml:"position"`
	Yaw             float32    `yaml:"yaw"`   // Degrees, 0 looks along -Z
	Pitch           float32    `yaml:"pitch"` // Degrees
	MoveSpeed       float32    `yaml:"move_speed"`
	LookSensitivity float32    `yaml:"look_sensitivity"`
}

// BenchConfig controls the scripted flythrough.
type BenchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Output  string `yaml:"output"` // CSV path, appended per run
	Label   string `yaml:"label"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	ts := terrain.DefaultSettings()
	return &Config{
		Terrain: TerrainConfig{
			ChunksPerSide: ts.ChunksPerSide,
			Size:          ts.TerrainSize,
			Height:        ts.TerrainHeight,
			LODs:          ts.LODs,
		},
		Memory: MemoryConfig{
			Allocator:         AllocatorGL,
			VertexGranularity: gpumem.DefaultVertexGranularity,
			IndexGranularity:  gpumem.DefaultIndexGranularity,
		},
		Graphics: GraphicsConfig{
			Width:      960,
			Height:     544,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			FOV:        60,
			Near:       0.1,
			Far:        1000,
		},
		Camera: CameraConfig{
			Position:        [3]float32{0, 10, 30},
			Yaw:             0,
			Pitch:           -15,
			MoveSpeed:       20,
			LookSensitivity: 0.15,
		},
		Bench: BenchConfig{
			Enabled: false,
			Output:  "bench.csv",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// TerrainSettings converts the terrain section for terrain.New.
func (c *Config) TerrainSettings() terrain.Settings {
	lods := make([]terrain.LODLevel, len(c.Terrain.LODs))
	copy(lods, c.Terrain.LODs)
	return terrain.Settings{
		ChunksPerSide: c.Terrain.ChunksPerSide,
		TerrainSize:   c.Terrain.Size,
		TerrainHeight: c.Terrain.Height,
		LODs:          lods,
	}
}

// HostConfig converts the memory section for gpumem.NewHostAllocator.
func (c *Config) HostConfig() gpumem.HostConfig {
	return gpumem.HostConfig{
		VertexGranularity: c.Memory.VertexGranularity,
		IndexGranularity:  c.Memory.IndexGranularity,
		Budget:            c.Memory.Budget,
	}
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	if err := c.TerrainSettings().Validate(); err != nil {
		return err
	}

	switch c.Memory.Allocator {
	case AllocatorHost, AllocatorGL:
	default:
		return fmt.Errorf("%w: memory.allocator %q (want %q or %q)",
			ErrInvalidConfig, c.Memory.Allocator, AllocatorHost, AllocatorGL)
	}
	for name, g := range map[string]int{
		"vertex_granularity": c.Memory.VertexGranularity,
		"index_granularity":  c.Memory.IndexGranularity,
	} {
		if g < 0 || g&(g-1) != 0 {
			return fmt.Errorf("%w: memory.%s %d is not a power of two", ErrInvalidConfig, name, g)
		}
	}
	if c.Memory.Budget < 0 {
		return fmt.Errorf("%w: memory.budget %d", ErrInvalidConfig, c.Memory.Budget)
	}

	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("%w: graphics size %dx%d", ErrInvalidConfig, c.Graphics.Width, c.Graphics.Height)
	}
	if c.Graphics.FOV <= 0 || c.Graphics.FOV >= 180 {
		return fmt.Errorf("%w: graphics.fov %g", ErrInvalidConfig, c.Graphics.FOV)
	}
	if c.Graphics.Near <= 0 || c.Graphics.Far <= c.Graphics.Near {
		return fmt.Errorf("%w: graphics near/far %g/%g", ErrInvalidConfig, c.Graphics.Near, c.Graphics.Far)
	}
	if c.Bench.Enabled && c.Bench.Output == "" {
		return fmt.Errorf("%w: bench.output is required when bench is enabled", ErrInvalidConfig)
	}
	return nil
}
