package alloc

import "github.com/joshuapare/heapkit/internal/logger"

// coalesce merges the free block bp with any free neighbours and returns the
// payload offset of the resulting block. When a merge happens the rover moves
// to the merged block, so it never points into the middle of one.
//
//	prev  next   result
//	alloc alloc  bp unchanged
//	alloc free   bp absorbs next
//	free  alloc  prev absorbs bp
//	free  free   prev absorbs bp and next
func (a *Allocator) coalesce(bp int) int {
	prevAlloc := a.prevAllocated(bp)
	nextAlloc := a.allocated(a.next(bp))
	size := a.blockSize(bp)

	switch {
	case prevAlloc && nextAlloc:
		return bp

	case prevAlloc && !nextAlloc:
		size += a.blockSize(a.next(bp))
		a.setBlock(bp, size, false)
		a.stats.CoalesceForward++

	case !prevAlloc && nextAlloc:
		bp = a.prev(bp)
		size += a.blockSize(bp)
		a.setBlock(bp, size, false)
		a.stats.CoalesceBackward++

	default:
		size += a.blockSize(a.next(bp))
		bp = a.prev(bp)
		size += a.blockSize(bp)
		a.setBlock(bp, size, false)
		a.stats.CoalesceBoth++
	}

	if logAlloc {
		logger.Debug("coalesce", "heap", a.cfg.Name, "block", bp, "size", size)
	}

	a.rover = bp
	return bp
}
