package alloc

import (
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// place marks need bytes at the front of the free block bp allocated.
// A remainder of at least MinBlockSize becomes a free block of its own;
// anything smaller stays inside the allocation. The rover ends on bp.
func (a *Allocator) place(bp int, need uint32) {
	size := a.blockSize(bp)
	a.stats.BytesAllocated += int64(need)
	a.splitAllocated(bp, size, need)
	a.rover = bp
}

// splitAllocated turns the block at bp (currently size bytes) into an
// allocated block of need bytes plus a coalesced free remainder, or into a
// single allocated block of size bytes when the remainder would be a splinter.
func (a *Allocator) splitAllocated(bp int, size, need uint32) {
	if size-need < format.MinBlockSize {
		a.setBlock(bp, size, true)
		return
	}

	a.setBlock(bp, need, true)
	rem := bp + int(need)
	a.setBlock(rem, size-need, false)
	a.stats.SplitCount++

	if logAlloc {
		logger.Debug("split",
			"heap", a.cfg.Name,
			"block", bp,
			"keep", need,
			"remainder", size-need,
		)
	}

	a.coalesce(rem)
}
