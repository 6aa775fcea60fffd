// terrainstat reports terrain memory use and LOD behaviour without a GPU,
// and summarises benchmark logs written by the viewer.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Faultbox/groundplane/internal/bench"
	"github.com/Faultbox/groundplane/internal/config"
	"github.com/Faultbox/groundplane/internal/engine/camera"
	"github.com/Faultbox/groundplane/internal/engine/scene"
	"github.com/Faultbox/groundplane/internal/engine/terrain"
	"github.com/Faultbox/groundplane/internal/gpumem"
	"github.com/Faultbox/groundplane/internal/logger"
)

// Thousands separators for byte and triangle counts.
var p = message.NewPrinter(language.English)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "mem":
		cmdMem(args)
	case "fly":
		cmdFly(args)
	case "cull":
		cmdCull(args)
	case "runs":
		cmdRuns(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terrainstat - terrain memory and LOD inspection

Usage:
  terrainstat <command> [options]

Commands:
  mem  [-config file] [-chunks N]            Show arena sizes and allocator rounding
  fly  [-config file] [-step ms] [-debug]    Fly the benchmark path headless, report LOD and culling
  cull [-config file] (-vp m | -eye x,y,z [-at x,y,z] | -top)
                                             Cull the grid against one view and map the result
  runs <bench.csv>                           Summarise the runs in a benchmark log

Examples:
  terrainstat mem -chunks 20
  terrainstat fly -step 33.3
  terrainstat cull -eye 0,60,300 -at 0,0,0
  terrainstat runs bench.csv`)
}

// commonFlags registers the options shared by commands that build a terrain.
func commonFlags(fs *flag.FlagSet) (cfgPath *string, chunks *int, debug *bool) {
	cfgPath = fs.String("config", "", "Path to config file")
	chunks = fs.Int("chunks", 0, "Chunks per terrain side")
	debug = fs.Bool("debug", false, "Enable debug logging")
	return
}

func loadConfig(path string, chunks int, debug bool) *config.Config {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if chunks > 0 {
		cfg.Terrain.ChunksPerSide = chunks
	}
	level := "warn"
	if debug {
		level = "debug"
	}
	if err := logger.Init(level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func buildTerrain(cfg *config.Config) (*terrain.Terrain, *gpumem.HostAllocator) {
	host := gpumem.NewHostAllocator(cfg.HostConfig())
	t, err := terrain.New(cfg.TerrainSettings(), host)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return t, host
}

func cmdMem(args []string) {
	fs := flag.NewFlagSet("mem", flag.ExitOnError)
	cfgPath, chunks, debug := commonFlags(fs)
	fs.Parse(args)

	cfg := loadConfig(*cfgPath, *chunks, *debug)
	defer logger.Sync()
	settings := cfg.TerrainSettings()

	t, host := buildTerrain(cfg)
	defer t.Close()

	fmt.Printf("Grid:      %d x %d chunks, %.1f units each\n",
		settings.ChunksPerSide, settings.ChunksPerSide, settings.ChunkSize())
	fmt.Println()
	fmt.Println("Per chunk:")
	fmt.Printf("  %-4s %-6s %10s %10s %12s %12s\n", "LOD", "Verts", "Triangles", "Distance", "VertexBytes", "IndexBytes")
	c := t.ChunkAt(0, 0)
	for i, l := range settings.LODs {
		m := c.LODMesh(terrain.LOD(i))
		p.Printf("  %-4d %-6s %10d %10.1f %12d %12d\n", i,
			fmt.Sprintf("%dx%d", l.VerticesPerSide, l.VerticesPerSide),
			m.IndexCount/3, l.Distance, m.VertexBytes(), m.IndexBytes())
	}

	vb, ib := terrain.MemoryRequirements(settings)
	vg, ig := cfg.Memory.VertexGranularity, cfg.Memory.IndexGranularity
	fmt.Println()
	fmt.Println("Arenas:")
	p.Printf("  vertex  %12d bytes  (+%d rounding at %d)\n", vb, gpumem.Waste(vb, vg), vg)
	p.Printf("  index   %12d bytes  (+%d rounding at %d)\n", ib, gpumem.Waste(ib, ig), ig)
	p.Printf("  total   %12d bytes allocated\n", host.Used())
	if cfg.Memory.Budget > 0 {
		p.Printf("  budget  %12d bytes\n", cfg.Memory.Budget)
	}
}

// sectionStats accumulates per-section culling results.
type sectionStats struct {
	frames    int
	visible   int
	triangles int
	maxTris   int
	lods      []int
}

func cmdFly(args []string) {
	fs := flag.NewFlagSet("fly", flag.ExitOnError)
	cfgPath, chunks, debug := commonFlags(fs)
	step := fs.Float64("step", 1000.0/60.0, "Simulated frame time in milliseconds")
	fs.Parse(args)

	if *step <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -step must be positive")
		os.Exit(1)
	}

	cfg := loadConfig(*cfgPath, *chunks, *debug)
	defer logger.Sync()

	t, _ := buildTerrain(cfg)
	defer t.Close()

	path := bench.DefaultPath(cfg.Terrain.Size)
	f, err := bench.NewFlythrough(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cam := camera.NewFlyCamera(path.Keyframes[0].Position, camera.Projection{
		FOV:    cfg.Graphics.FOV,
		Aspect: float32(cfg.Graphics.Width) / float32(cfg.Graphics.Height),
		Near:   cfg.Graphics.Near,
		Far:    cfg.Graphics.Far,
	})
	cam.SetPose(f.Start())
	sc := scene.New(t, cam)

	sections := make([]sectionStats, len(path.Sections))
	for i := range sections {
		sections[i].lods = make([]int, len(cfg.Terrain.LODs))
	}

	for running := true; running; {
		var pos, rot mgl32.Vec3
		pos, rot, running = f.Update(float32(*step))
		cam.SetPose(pos, rot)
		sc.Update()

		frames := f.Frames()
		s := &sections[frames[len(frames)-1].Section]
		st := sc.Stats()
		s.frames++
		s.visible += st.Visible
		s.triangles += st.Triangles
		s.maxTris = max(s.maxTris, st.Triangles)
		for _, ref := range sc.Visible() {
			s.lods[t.Chunk(ref).CurrentLOD()]++
		}
	}

	fmt.Printf("Flythrough: %d frames at %.2f ms, %d chunks\n", len(f.Frames()), *step, t.ChunkCount())
	fmt.Println()
	fmt.Printf("  %-22s %6s %8s %12s %12s  %s\n", "Section", "Frames", "Visible", "AvgTris", "MaxTris", "Drawn per LOD")
	for i, s := range sections {
		if s.frames == 0 {
			continue
		}
		n := float64(s.frames)
		perLOD := make([]string, len(s.lods))
		for l, c := range s.lods {
			perLOD[l] = fmt.Sprintf("%.1f", float64(c)/n)
		}
		p.Printf("  %-22s %6d %8.1f %12d %12d  %v\n", path.SectionName(i), s.frames,
			float64(s.visible)/n, int(float64(s.triangles)/n), s.maxTris, perLOD)
	}
}

func cmdRuns(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terrainstat runs <bench.csv>")
		os.Exit(1)
	}

	file, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	runs, _, err := bench.ParseRuns(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}

	fmt.Printf("Log: %s (%d runs)\n\n", args[0], len(runs))
	fmt.Printf("  %-4s %7s %9s %8s %8s %8s %10s\n", "Run", "Frames", "AvgMS", "AvgFPS", "MaxMS", "1%Low", "vs run 1")
	base := runs[0].AvgMs
	for i, r := range runs {
		delta := ""
		if i > 0 && base > 0 {
			delta = fmt.Sprintf("%+.1f%%", (r.AvgMs-base)/base*100)
		}
		fmt.Printf("  %-4d %7d %9.2f %8.1f %8.1f %8.1f %10s\n", i+1, r.Frames, r.AvgMs,
			fpsOf(r.AvgMs), r.MaxMs, fpsOf(r.P1Ms), delta)
	}

	c := bench.Cumulative(runs)
	fmt.Printf("\n  all  %7d %9.2f %8.1f %8.1f %8.1f\n", c.Frames, c.AvgMs, fpsOf(c.AvgMs), c.MaxMs, fpsOf(c.P1Ms))
}

func fpsOf(ms float32) float32 {
	if ms <= 0 {
		return 0
	}
	return 1000 / ms
}
