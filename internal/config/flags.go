package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagChunks     = flag.Int("chunks", 0, "Chunks per terrain side")
	flagAllocator  = flag.String("allocator", "", "GPU memory allocator (host or gl)")
	flagWireframe  = flag.Bool("wireframe", false, "Draw terrain as wireframe")
	flagBench      = flag.Bool("bench", false, "Run the benchmark flythrough")
	flagBenchOut   = flag.String("bench-out", "", "Benchmark CSV output path")
	flagBenchLabel = flag.String("bench-label", "", "Benchmark run label")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagChunks > 0 {
		cfg.Terrain.ChunksPerSide = *flagChunks
	}
	if *flagAllocator != "" {
		cfg.Memory.Allocator = *flagAllocator
	}
	if *flagWireframe {
		cfg.Graphics.Wireframe = true
	}
	if *flagBench {
		cfg.Bench.Enabled = true
	}
	if *flagBenchOut != "" {
		cfg.Bench.Output = *flagBenchOut
	}
	if *flagBenchLabel != "" {
		cfg.Bench.Label = *flagBenchLabel
	}
}
