package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Realloc resizes the block at p to hold at least size payload bytes and
// returns its (possibly new) pointer. The first min(old payload, size) bytes
// are preserved.
//
// Paths, in order:
//   - shrink in place when the block is already big enough; a tail of at
//     least MinBlockSize is split off and freed
//   - grow in place when the next block is free and the two together fit
//   - move: Alloc, copy, Free
//
// If the move cannot allocate, p is left allocated and untouched and the
// error (wrapping ErrOutOfMemory) is returned. Realloc(Nil, n) returns
// ErrNilPtr. Realloc(p, 0) frees p and returns Nil.
func (a *Allocator) Realloc(p Ptr, size int) (Ptr, error) {
	if p == Nil {
		return Nil, ErrNilPtr
	}
	if size < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if size == 0 {
		a.Free(p)
		return Nil, nil
	}

	bp := int(p)
	a.debugCheckLive(bp)

	need, ok := format.BlockSizeFor(size)
	if !ok {
		return Nil, fmt.Errorf("%w: request of %d bytes exceeds the largest block", ErrOutOfMemory, size)
	}

	a.stats.ReallocCalls++
	cur := a.blockSize(bp)

	if need <= cur {
		a.stats.ReallocShrink++
		a.splitAllocated(bp, cur, need)
		a.rover = bp
		return p, nil
	}

	if next := a.next(bp); !a.allocated(next) {
		if total := cur + a.blockSize(next); total >= need {
			a.stats.ReallocGrow++
			a.stats.BytesAllocated += int64(need - cur)
			a.splitAllocated(bp, total, need)
			// rover may have pointed at the absorbed successor
			a.rover = bp
			return p, nil
		}
	}

	np, err := a.Alloc(size)
	if err != nil {
		return Nil, err
	}
	a.stats.ReallocMove++

	// Alloc may have extended the heap; a.data is the current mapping.
	n := min(int(cur)-format.Overhead, size)
	copy(a.data[int(np):int(np)+n], a.data[bp:bp+n])
	a.markDirty(int(np), n)
	a.Free(p)
	return np, nil
}
