package terrain

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/groundplane/internal/gpumem"
	"github.com/Faultbox/groundplane/internal/logger"
)

var (
	// ErrPoolNotInitialized is returned when allocating before Init.
	ErrPoolNotInitialized = errors.New("terrain: buffer pool not initialized")
	// ErrPoolInitialized is returned by a second Init.
	ErrPoolInitialized = errors.New("terrain: buffer pool already initialized")
	// ErrPoolOverflow is returned when a request would run past the arena end.
	ErrPoolOverflow = errors.New("terrain: buffer pool overflow")
	// ErrPoolSealed is returned when allocating after Commit.
	ErrPoolSealed = errors.New("terrain: buffer pool sealed")
)

// arena is a bump allocator over one memory block.
type arena struct {
	kind   gpumem.Kind
	block  gpumem.Block
	size   int
	cursor int
}

func (a *arena) allocate(size int) (BufferAllocation, error) {
	if !a.block.Valid() {
		return BufferAllocation{}, ErrPoolNotInitialized
	}
	if size < 0 || a.cursor+size > a.size {
		return BufferAllocation{}, fmt.Errorf("%w: %s arena: offset %d + size %d exceeds %d",
			ErrPoolOverflow, a.kind, a.cursor, size, a.size)
	}
	alloc := BufferAllocation{Arena: a.kind, Offset: a.cursor, Size: size}
	a.cursor += size
	return alloc, nil
}

// BufferPool owns one vertex arena and one index arena and hands out
// non-overlapping byte ranges from them. Ranges are never freed one by one;
// the arenas live until Close.
type BufferPool struct {
	allocator gpumem.Allocator
	vertex    arena
	index     arena
	sealed    bool
	log       *zap.Logger
}

// NewBufferPool creates an empty pool drawing memory from allocator.
func NewBufferPool(allocator gpumem.Allocator) *BufferPool {
	return &BufferPool{
		allocator: allocator,
		vertex:    arena{kind: gpumem.KindVertex},
		index:     arena{kind: gpumem.KindIndex},
		log:       logger.Named("pool"),
	}
}

// Init allocates both arenas. If either allocation fails nothing is kept.
func (p *BufferPool) Init(totalVertexBytes, totalIndexBytes int) error {
	if p.vertex.block.Valid() || p.index.block.Valid() {
		return ErrPoolInitialized
	}

	vb, err := p.allocator.Allocate(gpumem.KindVertex, totalVertexBytes)
	if err != nil {
		return fmt.Errorf("allocating vertex arena (%d bytes): %w", totalVertexBytes, err)
	}
	ib, err := p.allocator.Allocate(gpumem.KindIndex, totalIndexBytes)
	if err != nil {
		p.allocator.Free(vb)
		return fmt.Errorf("allocating index arena (%d bytes): %w", totalIndexBytes, err)
	}

	p.vertex.block, p.vertex.size, p.vertex.cursor = vb, totalVertexBytes, 0
	p.index.block, p.index.size, p.index.cursor = ib, totalIndexBytes, 0

	p.log.Info("buffer pool ready",
		zap.Int("vertexBytes", totalVertexBytes),
		zap.Int("indexBytes", totalIndexBytes),
		zap.Uint32("vertexHandle", vb.Handle),
		zap.Uint32("indexHandle", ib.Handle),
	)
	return nil
}

// AllocateVertices reserves size bytes of the vertex arena.
func (p *BufferPool) AllocateVertices(size int) (BufferAllocation, error) {
	if p.sealed {
		return BufferAllocation{}, ErrPoolSealed
	}
	return p.vertex.allocate(size)
}

// AllocateIndices reserves size bytes of the index arena.
func (p *BufferPool) AllocateIndices(size int) (BufferAllocation, error) {
	if p.sealed {
		return BufferAllocation{}, ErrPoolSealed
	}
	return p.index.allocate(size)
}

// View returns the CPU-visible bytes of an allocation, or nil once the
// backing allocator has dropped its CPU mapping.
func (p *BufferPool) View(a BufferAllocation) []byte {
	ar := p.arenaFor(a.Arena)
	if a.Offset < 0 || a.End() > ar.size {
		panic(fmt.Sprintf("terrain: allocation [%d, %d) outside %s arena of %d bytes",
			a.Offset, a.End(), ar.kind, ar.size))
	}
	if ar.block.Data == nil {
		return nil
	}
	return ar.block.Data[a.Offset:a.End():a.End()]
}

func (p *BufferPool) arenaFor(kind gpumem.Kind) *arena {
	if kind == gpumem.KindVertex {
		return &p.vertex
	}
	return &p.index
}

// Commit tells the allocator that CPU writes are finished. Further
// allocations fail with ErrPoolSealed.
func (p *BufferPool) Commit() error {
	if p.sealed {
		return nil
	}
	for _, ar := range []*arena{&p.vertex, &p.index} {
		if !ar.block.Valid() {
			return ErrPoolNotInitialized
		}
		b, err := gpumem.Commit(p.allocator, ar.block)
		if err != nil {
			return fmt.Errorf("committing %s arena: %w", ar.kind, err)
		}
		ar.block = b
	}
	p.sealed = true
	return nil
}

// VertexPoolBase returns the vertex arena block. Renderers bind
// block + allocation offset; they never own the block.
func (p *BufferPool) VertexPoolBase() gpumem.Block {
	return p.vertex.block
}

// IndexPoolBase returns the index arena block.
func (p *BufferPool) IndexPoolBase() gpumem.Block {
	return p.index.block
}

// Remaining returns the unallocated bytes of each arena.
func (p *BufferPool) Remaining() (vertex, index int) {
	return p.vertex.size - p.vertex.cursor, p.index.size - p.index.cursor
}

// Size returns the capacity of each arena.
func (p *BufferPool) Size() (vertex, index int) {
	return p.vertex.size, p.index.size
}

// Close frees both arenas. It is safe to call more than once.
func (p *BufferPool) Close() {
	for _, ar := range []*arena{&p.vertex, &p.index} {
		if ar.block.Valid() {
			p.allocator.Free(ar.block)
		}
		ar.block = gpumem.Block{}
		ar.size, ar.cursor = 0, 0
	}
	p.sealed = false
}
