// Package gpumem defines the GPU memory allocator contract used by the
// terrain buffer pool, plus a host-memory implementation for tools and tests.
package gpumem

import (
	"errors"
	"fmt"
)

// Kind selects which memory heap a block comes from.
type Kind int

const (
	// KindVertex is memory for vertex streams (large alignment granularity).
	KindVertex Kind = iota
	// KindIndex is memory for index buffers.
	KindIndex
)

func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindIndex:
		return "index"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Allocation granularities of the console heaps: vertex blocks live in
// CDRAM (256 KiB pages), index blocks in uncached user memory (4 KiB pages).
const (
	DefaultVertexGranularity = 256 * 1024
	DefaultIndexGranularity  = 4 * 1024
)

var (
	// ErrOutOfMemory is returned when a heap cannot satisfy a request.
	ErrOutOfMemory = errors.New("gpumem: out of memory")
	// ErrInvalidSize is returned for zero or negative requests.
	ErrInvalidSize = errors.New("gpumem: invalid allocation size")
)

// Block is one contiguous memory block owned by whoever allocated it.
// Data is a CPU-visible view of at least Size bytes; it may be longer when
// the heap rounds requests up.
type Block struct {
	Kind   Kind
	Handle uint32
	Size   int
	Data   []byte
}

// Valid reports whether the block refers to live memory.
func (b Block) Valid() bool {
	return b.Handle != 0
}

// Allocator hands out and releases GPU-visible memory blocks.
type Allocator interface {
	Allocate(kind Kind, size int) (Block, error)
	Free(b Block)
}

// Committer is implemented by allocators that need to be told when the CPU
// has finished writing a block (for example to unmap it). The returned block
// replaces the caller's copy; its Data is nil when no CPU view survives.
type Committer interface {
	Commit(b Block) (Block, error)
}

// Commit calls a's Commit when it implements Committer, otherwise it returns
// b unchanged.
func Commit(a Allocator, b Block) (Block, error) {
	if c, ok := a.(Committer); ok {
		return c.Commit(b)
	}
	return b, nil
}

// Align rounds size up to a multiple of granularity (a power of two).
func Align(size, granularity int) int {
	if granularity <= 1 {
		return size
	}
	return (size + granularity - 1) &^ (granularity - 1)
}

// Waste returns the bytes lost to rounding size up to granularity.
func Waste(size, granularity int) int {
	return Align(size, granularity) - size
}
