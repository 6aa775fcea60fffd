package gpumem

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/groundplane/internal/logger"
)

// HostConfig configures a HostAllocator.
type HostConfig struct {
	VertexGranularity int // Rounding for KindVertex blocks (power of two)
	IndexGranularity  int // Rounding for KindIndex blocks (power of two)
	Budget            int // Total bytes available across both heaps, 0 = unlimited
}

// DefaultHostConfig mirrors the console heap granularities with no budget.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		VertexGranularity: DefaultVertexGranularity,
		IndexGranularity:  DefaultIndexGranularity,
	}
}

// HostAllocator serves blocks from the Go heap. It applies the same page
// rounding as the console allocator so memory accounting matches.
type HostAllocator struct {
	cfg        HostConfig
	nextHandle uint32
	live       map[uint32]int // handle -> rounded size
	used       int
	log        *zap.Logger
}

// NewHostAllocator creates a host allocator.
func NewHostAllocator(cfg HostConfig) *HostAllocator {
	return &HostAllocator{
		cfg:  cfg,
		live: make(map[uint32]int),
		log:  logger.Named("gpumem"),
	}
}

func (a *HostAllocator) granularity(kind Kind) int {
	if kind == KindVertex {
		return a.cfg.VertexGranularity
	}
	return a.cfg.IndexGranularity
}

// Allocate returns a zeroed block of at least size bytes.
func (a *HostAllocator) Allocate(kind Kind, size int) (Block, error) {
	if size <= 0 {
		return Block{}, fmt.Errorf("%w: %d bytes of %s memory", ErrInvalidSize, size, kind)
	}

	rounded := Align(size, a.granularity(kind))
	if a.cfg.Budget > 0 && a.used+rounded > a.cfg.Budget {
		return Block{}, fmt.Errorf("%w: %s block of %d bytes (%d of %d in use)",
			ErrOutOfMemory, kind, rounded, a.used, a.cfg.Budget)
	}

	a.nextHandle++
	handle := a.nextHandle
	a.live[handle] = rounded
	a.used += rounded

	a.log.Debug("allocated block",
		zap.Stringer("kind", kind),
		zap.Uint32("handle", handle),
		zap.Int("requested", size),
		zap.Int("rounded", rounded),
	)

	return Block{
		Kind:   kind,
		Handle: handle,
		Size:   size,
		Data:   make([]byte, rounded),
	}, nil
}

// Free releases a block. Freeing an unknown handle is logged and ignored.
func (a *HostAllocator) Free(b Block) {
	rounded, ok := a.live[b.Handle]
	if !ok {
		a.log.Warn("free of unknown block", zap.Uint32("handle", b.Handle))
		return
	}
	delete(a.live, b.Handle)
	a.used -= rounded
}

// Used returns the bytes currently allocated, including rounding.
func (a *HostAllocator) Used() int {
	return a.used
}

// LiveBlocks returns the number of blocks not yet freed.
func (a *HostAllocator) LiveBlocks() int {
	return len(a.live)
}
