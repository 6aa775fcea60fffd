package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/groundplane/internal/config"
	"github.com/Faultbox/groundplane/internal/engine/terrain"
	"github.com/Faultbox/groundplane/pkg/math"
)

// parseFloats reads exactly n comma-separated numbers.
func parseFloats(s string, n int) ([]float32, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated values, got %d", n, len(parts))
	}
	out := make([]float32, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func parseVec3(s string) (math.Vec3, error) {
	f, err := parseFloats(s, 3)
	if err != nil {
		return math.Vec3{}, err
	}
	return math.Vec3{X: f[0], Y: f[1], Z: f[2]}, nil
}

// parseRowMajor reads a 4x4 matrix given row by row.
func parseRowMajor(s string) (math.Mat4, error) {
	f, err := parseFloats(s, 16)
	if err != nil {
		return math.Mat4{}, err
	}
	return math.FromRowMajor([16]float32(f)), nil
}

// lookViewProj builds a world-space perspective camera at eye looking at target.
func lookViewProj(eye, target math.Vec3, g config.GraphicsConfig) math.Mat4 {
	aspect := float32(g.Width) / float32(g.Height)
	proj := math.Perspective(mgl32.DegToRad(g.FOV), aspect, g.Near, g.Far)
	return proj.Mul(math.LookAt(eye, target, math.Vec3{Y: 1}))
}

// topViewProj frames the whole tile from straight above, -Z up on screen.
func topViewProj(size float32) math.Mat4 {
	half := size / 2
	eye := math.Vec3{Y: size}
	view := math.LookAt(eye, math.Vec3{}, math.Vec3{Z: -1})
	return math.Ortho(-half, half, -half, half, 1, 2*size).Mul(view)
}

// cullMap draws the grid with +Z rows downward: the LOD digit for visible
// chunks and '.' for culled ones.
func cullMap(t *terrain.Terrain, visible []terrain.ChunkRef) []string {
	n := t.Settings().ChunksPerSide
	rows := make([][]byte, n)
	for z := range rows {
		rows[z] = []byte(strings.Repeat(".", n))
	}
	for _, ref := range visible {
		c := t.Chunk(ref)
		x, z := c.Coords()
		rows[z][x] = lodGlyph(c.CurrentLOD())
	}
	out := make([]string, n)
	for z, r := range rows {
		out[z] = string(r)
	}
	return out
}

func lodGlyph(l terrain.LOD) byte {
	if l < 10 {
		return byte('0' + l)
	}
	return '+'
}

func cmdCull(args []string) {
	fs := flag.NewFlagSet("cull", flag.ExitOnError)
	cfgPath, chunks, debug := commonFlags(fs)
	vpFlag := fs.String("vp", "", "World view-projection, 16 comma-separated values row by row")
	eyeFlag := fs.String("eye", "", "Camera position x,y,z (also drives LOD selection)")
	atFlag := fs.String("at", "0,0,0", "Look-at target x,y,z, used with -eye")
	top := fs.Bool("top", false, "Orthographic view of the whole tile from above")
	nearest := fs.Int("nearest", 5, "Number of nearest visible chunks to list")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath, *chunks, *debug)
	t, _ := buildTerrain(cfg)
	defer t.Close()

	fail := func(err error) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var eye math.Vec3
	haveEye := *eyeFlag != ""
	if haveEye {
		var err error
		if eye, err = parseVec3(*eyeFlag); err != nil {
			fail(fmt.Errorf("-eye: %w", err))
		}
	}

	var viewProj math.Mat4
	switch {
	case *vpFlag != "":
		m, err := parseRowMajor(*vpFlag)
		if err != nil {
			fail(fmt.Errorf("-vp: %w", err))
		}
		viewProj = m
	case *top:
		viewProj = topViewProj(cfg.Terrain.Size)
	case haveEye:
		at, err := parseVec3(*atFlag)
		if err != nil {
			fail(fmt.Errorf("-at: %w", err))
		}
		viewProj = lookViewProj(eye, at, cfg.Graphics)
	default:
		fail(fmt.Errorf("one of -vp, -top or -eye is required"))
	}

	if haveEye {
		t.UpdateLODs(eye)
	}
	visible := t.VisibleChunks(viewProj.Mul(t.ModelMatrix()))

	fmt.Println("View-projection (row-major):")
	rm := viewProj.RowMajor()
	for r := 0; r < 4; r++ {
		fmt.Printf("  %10.4f %10.4f %10.4f %10.4f\n", rm[r*4], rm[r*4+1], rm[r*4+2], rm[r*4+3])
	}
	fmt.Println()
	fmt.Printf("Visible: %d of %d chunks, %d triangles\n", len(visible), t.ChunkCount(), t.DrawnTriangles(visible))
	fmt.Println()
	for _, row := range cullMap(t, visible) {
		fmt.Printf("  %s\n", row)
	}

	if !haveEye || *nearest <= 0 || len(visible) == 0 {
		return
	}
	t.SortNearToFar(visible, eye)
	fmt.Println()
	fmt.Println("Nearest visible:")
	model := t.ModelMatrix()
	for _, ref := range visible[:min(*nearest, len(visible))] {
		c := t.Chunk(ref)
		x, z := c.Coords()
		center := model.TransformVec3(c.Center())
		fmt.Printf("  (%d,%d) LOD %d  center %.1f,%.1f,%.1f  %.1f away\n",
			x, z, c.CurrentLOD(), center.X, center.Y, center.Z, center.Distance(eye))
	}
}
