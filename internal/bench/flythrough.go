package bench

import (
	"errors"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/groundplane/internal/logger"
)

// ErrEmptyPath is returned for paths with fewer than two keyframes.
var ErrEmptyPath = errors.New("bench: path needs at least two keyframes")

// Frame is one recorded frame.
type Frame struct {
	TimeMs  float32
	Section int
}

// Flythrough moves a camera along a Path and records every frame time.
type Flythrough struct {
	path     Path
	current  int     // Keyframe the active segment starts from
	elapsed  float32 // Time spent in the active segment
	frames   []Frame
	finished bool
	log      *zap.Logger
}

// NewFlythrough starts a run along path.
func NewFlythrough(path Path) (*Flythrough, error) {
	if len(path.Keyframes) < 2 {
		return nil, ErrEmptyPath
	}
	return &Flythrough{
		path: path,
		log:  logger.Named("bench"),
	}, nil
}

// Start returns the pose of the first keyframe.
func (f *Flythrough) Start() (position, rotation mgl32.Vec3) {
	k := f.path.Keyframes[0]
	return k.Position, k.Rotation
}

// Update records a frame of frameMs and advances along the path. It returns
// the interpolated pose and whether the run is still going. The frame that
// completes the path returns the final pose and false.
func (f *Flythrough) Update(frameMs float32) (position, rotation mgl32.Vec3, running bool) {
	kfs := f.path.Keyframes
	last := len(kfs) - 1
	if f.finished {
		return kfs[last].Position, kfs[last].Rotation, false
	}

	f.elapsed += frameMs
	t := f.progress()
	for t >= 1 && f.current < last {
		f.elapsed -= kfs[f.current+1].DurationMs
		f.current++
		if f.current == last {
			break
		}
		t = f.progress()
	}

	if f.current >= last {
		f.frames = append(f.frames, Frame{TimeMs: frameMs, Section: kfs[last].Section})
		f.finished = true
		s := f.Summary()
		f.log.Info("benchmark finished",
			zap.Int("frames", s.Frames),
			zap.Float32("totalMs", s.TotalMs),
			zap.Float32("avgMs", s.AvgMs),
			zap.Float32("avgFPS", fps(s.AvgMs)),
			zap.Float32("minMs", s.MinMs),
			zap.Float32("maxMs", s.MaxMs),
		)
		return kfs[last].Position, kfs[last].Rotation, false
	}

	from, to := kfs[f.current], kfs[f.current+1]
	f.frames = append(f.frames, Frame{TimeMs: frameMs, Section: to.Section})
	return lerp(from.Position, to.Position, t), lerp(from.Rotation, to.Rotation, t), true
}

// progress returns the fraction of the active segment covered.
func (f *Flythrough) progress() float32 {
	d := f.path.Keyframes[f.current+1].DurationMs
	if d <= 0 {
		return 1
	}
	return f.elapsed / d
}

func lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	t = mgl32.Clamp(t, 0, 1)
	return a.Add(b.Sub(a).Mul(t))
}

// Finished reports whether the path has been completed.
func (f *Flythrough) Finished() bool {
	return f.finished
}

// Frames returns the recorded frames.
func (f *Flythrough) Frames() []Frame {
	return f.frames
}

// Path returns the path being flown.
func (f *Flythrough) Path() *Path {
	return &f.path
}

// Summary holds frame time statistics in milliseconds.
type Summary struct {
	Frames  int
	TotalMs float32
	AvgMs   float32
	MinMs   float32
	MaxMs   float32
	P1Ms    float32 // 99th percentile frame time (1% low)
	P01Ms   float32 // 99.9th percentile frame time (0.1% low)
}

// Summary computes statistics over every recorded frame.
func (f *Flythrough) Summary() Summary {
	return summarize(f.frames, func(Frame) bool { return true })
}

// SectionSummary computes statistics over the frames of one section.
func (f *Flythrough) SectionSummary(section int) Summary {
	return summarize(f.frames, func(fr Frame) bool { return fr.Section == section })
}

func summarize(frames []Frame, keep func(Frame) bool) Summary {
	times := make([]float32, 0, len(frames))
	var s Summary
	for _, fr := range frames {
		if !keep(fr) {
			continue
		}
		if len(times) == 0 || fr.TimeMs < s.MinMs {
			s.MinMs = fr.TimeMs
		}
		if fr.TimeMs > s.MaxMs {
			s.MaxMs = fr.TimeMs
		}
		s.TotalMs += fr.TimeMs
		times = append(times, fr.TimeMs)
	}

	s.Frames = len(times)
	if s.Frames == 0 {
		return s
	}
	s.AvgMs = s.TotalMs / float32(s.Frames)

	slices.Sort(times)
	s.P1Ms = percentile(times, 0.99)
	s.P01Ms = percentile(times, 0.999)
	return s
}

func percentile(sorted []float32, p float32) float32 {
	i := int(float32(len(sorted)) * p)
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}

func fps(ms float32) float32 {
	if ms <= 0 {
		return 0
	}
	return 1000 / ms
}
