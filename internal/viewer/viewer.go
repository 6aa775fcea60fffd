// Package viewer implements the interactive terrain viewer loop.
package viewer

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/groundplane/internal/bench"
	"github.com/Faultbox/groundplane/internal/config"
	"github.com/Faultbox/groundplane/internal/engine/camera"
	"github.com/Faultbox/groundplane/internal/engine/debug"
	"github.com/Faultbox/groundplane/internal/engine/glbuffer"
	"github.com/Faultbox/groundplane/internal/engine/input"
	"github.com/Faultbox/groundplane/internal/engine/picking"
	"github.com/Faultbox/groundplane/internal/engine/renderer"
	"github.com/Faultbox/groundplane/internal/engine/scene"
	"github.com/Faultbox/groundplane/internal/engine/terrain"
	"github.com/Faultbox/groundplane/internal/engine/window"
	"github.com/Faultbox/groundplane/internal/gpumem"
	"github.com/Faultbox/groundplane/internal/logger"
)

const title = "groundplane"

// Viewer owns the window, GL state, terrain and camera.
type Viewer struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input

	terrain     *terrain.Terrain
	terrainDraw *renderer.TerrainRenderer
	scene       *scene.Scene

	flythrough  *bench.Flythrough
	quitOnBench bool // Started with bench enabled: exit when the run ends
	captured    bool
	screenshots *debug.Screenshots
	wantShot    bool

	log *zap.Logger
}

// New creates the window and renderer, then builds the terrain into the
// configured allocator.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg: cfg,
		log: logger.Named("viewer"),
	}
	v.log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("allocator", cfg.Memory.Allocator),
	)

	var err error
	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer AFTER window, since the OpenGL context must exist
	v.renderer, err = renderer.New(renderer.Config{
		Width:     cfg.Graphics.Width,
		Height:    cfg.Graphics.Height,
		Wireframe: cfg.Graphics.Wireframe,
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	var alloc gpumem.Allocator
	switch cfg.Memory.Allocator {
	case config.AllocatorGL:
		alloc = glbuffer.New(cfg.HostConfig())
	default:
		alloc = gpumem.NewHostAllocator(cfg.HostConfig())
	}

	start := time.Now()
	v.terrain, err = terrain.New(cfg.TerrainSettings(), alloc)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to build terrain: %w", err)
	}
	v.log.Info("terrain ready", zap.Duration("took", time.Since(start)))

	v.terrainDraw, err = renderer.NewTerrainRenderer(v.terrain)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create terrain renderer: %w", err)
	}
	v.terrainDraw.FogFar = cfg.Graphics.Far

	cam := camera.NewFlyCamera(mgl32.Vec3(cfg.Camera.Position), camera.Projection{
		FOV:    cfg.Graphics.FOV,
		Aspect: float32(cfg.Graphics.Width) / float32(cfg.Graphics.Height),
		Near:   cfg.Graphics.Near,
		Far:    cfg.Graphics.Far,
	})
	cam.Rotation = mgl32.Vec3{mgl32.DegToRad(cfg.Camera.Pitch), mgl32.DegToRad(cfg.Camera.Yaw), 0}
	cam.MoveSpeed = cfg.Camera.MoveSpeed
	cam.LookSensitivity = cfg.Camera.LookSensitivity
	v.scene = scene.New(v.terrain, cam)

	v.input = input.New()
	v.screenshots = debug.NewScreenshots("screenshots", title)

	if cfg.Bench.Enabled {
		v.quitOnBench = true
		if err := v.startBench(); err != nil {
			v.Close()
			return nil, err
		}
	}

	v.log.Info("viewer initialized successfully")
	return v, nil
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	var frameBudget time.Duration
	if v.cfg.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(v.cfg.Graphics.FPSLimit)
	}

	v.log.Info("starting main loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		// 2. Move the camera, then run the terrain pipeline
		if err := v.update(dt); err != nil {
			return fmt.Errorf("update error: %w", err)
		}

		// 3. Render
		v.render()
		if v.wantShot {
			v.wantShot = false
			v.screenshot()
		}

		// 4. Present (swap buffers)
		v.window.SwapBuffers()

		if frameBudget > 0 {
			if spent := time.Since(now); spent < frameBudget {
				time.Sleep(frameBudget - spent)
			}
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(v.statusLine(frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(event.Width, event.Height)
			v.scene.Camera.SetAspect(event.Width, event.Height)
		case input.EventMouseDown:
			if !v.captured {
				v.captured = true
				v.window.SetMouseCaptured(true)
			}
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				if v.captured {
					v.captured = false
					v.window.SetMouseCaptured(false)
				} else {
					v.running = false
				}
			case sdl.SCANCODE_F:
				v.renderer.SetWireframe(!v.renderer.Wireframe())
			case sdl.SCANCODE_L:
				v.terrainDraw.ShowLODs = !v.terrainDraw.ShowLODs
			case sdl.SCANCODE_F12:
				v.wantShot = true
			case sdl.SCANCODE_B:
				if v.flythrough == nil {
					if err := v.startBench(); err != nil {
						v.log.Warn("benchmark not started", zap.Error(err))
					}
				}
			}
		}
	}
}

func (v *Viewer) startBench() error {
	f, err := bench.NewFlythrough(bench.DefaultPath(v.cfg.Terrain.Size))
	if err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}
	v.flythrough = f
	pos, rot := f.Start()
	v.scene.Camera.SetPose(pos, rot)
	v.log.Info("benchmark started", zap.Float32("durationMs", f.Path().Duration()))
	return nil
}

func (v *Viewer) update(dt time.Duration) error {
	cam := v.scene.Camera
	if v.flythrough != nil {
		frameMs := float32(dt.Seconds() * 1000)
		pos, rot, running := v.flythrough.Update(frameMs)
		cam.SetPose(pos, rot)
		if !running {
			if err := v.finishBench(); err != nil {
				return err
			}
		}
	} else {
		if v.captured {
			dx, dy := v.input.MouseDelta()
			cam.HandleLook(float32(dx), float32(dy))
		}
		cam.HandleMovement(
			v.input.Axis(sdl.SCANCODE_S, sdl.SCANCODE_W),
			v.input.Axis(sdl.SCANCODE_A, sdl.SCANCODE_D),
			v.input.Axis(sdl.SCANCODE_LCTRL, sdl.SCANCODE_SPACE),
			float32(dt.Seconds()),
		)
	}

	v.scene.Update()
	return nil
}

func (v *Viewer) finishBench() error {
	f := v.flythrough
	v.flythrough = nil
	if v.cfg.Bench.Output != "" {
		run, err := bench.AppendLog(v.cfg.Bench.Output, v.cfg.Bench.Label, f)
		if err != nil {
			return fmt.Errorf("saving benchmark: %w", err)
		}
		v.log.Info("benchmark saved",
			zap.String("path", v.cfg.Bench.Output),
			zap.Int("run", run),
		)
	}
	if v.quitOnBench {
		v.running = false
	}
	return nil
}

func (v *Viewer) render() {
	v.renderer.Begin()
	v.terrainDraw.Render(v.scene.Visible(), v.scene.View(), v.scene.Projection(), v.scene.Camera.WorldPosition())
	v.renderer.End()
}

func (v *Viewer) screenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	name, err := v.screenshots.Save(pixels, w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", name))
}

func (v *Viewer) statusLine(fps int) string {
	st := v.scene.Stats()
	mode := ""
	if v.flythrough != nil {
		mode = " [bench]"
	}
	return fmt.Sprintf("%s%s | %d fps | %d/%d chunks | %d tris | LODs %v%s",
		title, mode, fps, st.Visible, st.Visible+st.Culled, st.Triangles, st.LODChunks, v.aimed())
}

// aimed describes the chunk under the screen center.
func (v *Viewer) aimed() string {
	w, h := v.window.GetSize()
	viewProj := v.scene.Projection().Mul(v.scene.View())
	ray, ok := picking.ScreenToRay(float32(w)/2, float32(h)/2, float32(w), float32(h), viewProj)
	if !ok {
		return ""
	}
	ref, ok := picking.PickChunk(v.terrain, ray)
	if !ok {
		return ""
	}
	c := v.terrain.Chunk(ref)
	x, z := c.Coords()
	return fmt.Sprintf(" | aim (%d,%d) LOD %d", x, z, c.CurrentLOD())
}

// Close releases everything in reverse creation order.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.terrainDraw != nil {
		v.terrainDraw.Close()
	}
	if v.terrain != nil {
		v.terrain.Close()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
