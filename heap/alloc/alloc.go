package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Alloc returns a block with at least size usable payload bytes.
//
// Alloc(0) returns (Nil, nil) and changes nothing. A negative size returns
// ErrBadSize. When no free block fits, the heap is extended by
// max(block size, ChunkSize); if that fails the error wraps ErrOutOfMemory
// and the heap is unchanged.
func (a *Allocator) Alloc(size int) (Ptr, error) {
	if size == 0 {
		return Nil, nil
	}
	if size < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	need, ok := format.BlockSizeFor(size)
	if !ok {
		return Nil, fmt.Errorf("%w: request of %d bytes exceeds the largest block", ErrOutOfMemory, size)
	}

	a.stats.AllocCalls++

	if bp, ok := a.findFit(need); ok {
		a.stats.AllocFastPath++
		a.place(bp, need)
		a.debugCheckHeap()
		return Ptr(bp), nil
	}

	bp, err := a.extend(max(int(need), a.cfg.ChunkSize))
	if err != nil {
		return Nil, err
	}
	a.stats.AllocSlowPath++
	a.place(bp, need)
	a.debugCheckHeap()
	return Ptr(bp), nil
}

// Free releases the block at p and coalesces it with free neighbours.
//
// Free(Nil) is a no-op. Freeing a pointer not returned by Alloc or Realloc,
// or freeing twice, is undefined; heapdebug builds panic on it.
func (a *Allocator) Free(p Ptr) {
	if p == Nil {
		return
	}
	bp := int(p)
	a.debugCheckLive(bp)

	size := a.blockSize(bp)
	a.setBlock(bp, size, false)
	a.stats.FreeCalls++
	a.stats.BytesFreed += int64(size)

	a.coalesce(bp)
}
