// Package glbuffer implements gpumem.Allocator on OpenGL buffer objects.
//
// Every block is one buffer object, mapped for writing until Commit. The
// terrain renderer binds the vertex block as GL_ARRAY_BUFFER and the index
// block as GL_ELEMENT_ARRAY_BUFFER and draws with byte offsets into them.
package glbuffer

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/groundplane/internal/gpumem"
	"github.com/Faultbox/groundplane/internal/logger"
)

// ErrMapFailed is returned when the driver refuses to map a new buffer.
var ErrMapFailed = errors.New("glbuffer: map buffer failed")

// Allocator creates one buffer object per block. It must be used from the
// thread that owns the GL context.
type Allocator struct {
	cfg    gpumem.HostConfig
	mapped map[uint32]bool // buffer -> still mapped
	sizes  map[uint32]int  // buffer -> rounded size
	used   int
	log    *zap.Logger
}

// New creates an allocator. Granularities and budget in cfg are applied to
// the accounting the same way the host allocator applies them.
func New(cfg gpumem.HostConfig) *Allocator {
	return &Allocator{
		cfg:    cfg,
		mapped: make(map[uint32]bool),
		sizes:  make(map[uint32]int),
		log:    logger.Named("glbuffer"),
	}
}

func (a *Allocator) granularity(kind gpumem.Kind) int {
	if kind == gpumem.KindVertex {
		return a.cfg.VertexGranularity
	}
	return a.cfg.IndexGranularity
}

// Allocate creates a buffer object of at least size bytes and maps it.
func (a *Allocator) Allocate(kind gpumem.Kind, size int) (gpumem.Block, error) {
	if size <= 0 {
		return gpumem.Block{}, fmt.Errorf("%w: %d bytes of %s memory", gpumem.ErrInvalidSize, size, kind)
	}
	rounded := gpumem.Align(size, a.granularity(kind))
	if a.cfg.Budget > 0 && a.used+rounded > a.cfg.Budget {
		return gpumem.Block{}, fmt.Errorf("%w: %s block of %d bytes (%d of %d in use)",
			gpumem.ErrOutOfMemory, kind, rounded, a.used, a.cfg.Budget)
	}

	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, buf)
	gl.BufferData(gl.COPY_WRITE_BUFFER, rounded, nil, gl.STATIC_DRAW)
	if code := gl.GetError(); code == gl.OUT_OF_MEMORY {
		gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
		gl.DeleteBuffers(1, &buf)
		return gpumem.Block{}, fmt.Errorf("%w: driver rejected %d bytes of %s memory",
			gpumem.ErrOutOfMemory, rounded, kind)
	}

	ptr := gl.MapBufferRange(gl.COPY_WRITE_BUFFER, 0, rounded,
		gl.MAP_WRITE_BIT|gl.MAP_INVALIDATE_BUFFER_BIT)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	if ptr == nil {
		gl.DeleteBuffers(1, &buf)
		return gpumem.Block{}, fmt.Errorf("%w: %s buffer of %d bytes", ErrMapFailed, kind, rounded)
	}

	a.mapped[buf] = true
	a.sizes[buf] = rounded
	a.used += rounded

	a.log.Debug("buffer created",
		zap.Stringer("kind", kind),
		zap.Uint32("buffer", buf),
		zap.Int("requested", size),
		zap.Int("rounded", rounded),
	)

	return gpumem.Block{
		Kind:   kind,
		Handle: buf,
		Size:   size,
		Data:   unsafe.Slice((*byte)(ptr), rounded),
	}, nil
}

// Commit unmaps the buffer. The returned block has no CPU view.
func (a *Allocator) Commit(b gpumem.Block) (gpumem.Block, error) {
	if !a.mapped[b.Handle] {
		b.Data = nil
		return b, nil
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.Handle)
	ok := gl.UnmapBuffer(gl.COPY_WRITE_BUFFER)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	a.mapped[b.Handle] = false
	b.Data = nil

	// A false return means the store was corrupted while mapped and the
	// contents are undefined.
	if !ok {
		return b, fmt.Errorf("glbuffer: buffer %d lost its contents while mapped", b.Handle)
	}
	return b, nil
}

// Free deletes the buffer object, unmapping it first if needed.
func (a *Allocator) Free(b gpumem.Block) {
	rounded, ok := a.sizes[b.Handle]
	if !ok {
		a.log.Warn("free of unknown buffer", zap.Uint32("buffer", b.Handle))
		return
	}
	if a.mapped[b.Handle] {
		gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.Handle)
		gl.UnmapBuffer(gl.COPY_WRITE_BUFFER)
		gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	}
	buf := b.Handle
	gl.DeleteBuffers(1, &buf)

	delete(a.mapped, b.Handle)
	delete(a.sizes, b.Handle)
	a.used -= rounded
}

// Used returns the bytes held in live buffers, including rounding.
func (a *Allocator) Used() int {
	return a.used
}
