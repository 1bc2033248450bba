package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// extend grows the heap by n bytes (rounded up to a multiple of 8) and returns
// the payload offset of the resulting free block, after coalescing it with a
// free predecessor.
//
// The old epilogue header becomes the header of the new block:
//
//	before: ... [last block][epi]
//	after:  ... [last block][hdr | new free span | ftr][epi]
func (a *Allocator) extend(n int) (int, error) {
	n = format.Align8(n)
	if n < format.MinBlockSize || n > format.MaxBlockSize {
		return 0, fmt.Errorf("%w: cannot extend by %d bytes", ErrOutOfMemory, n)
	}
	if a.onExtend != nil {
		a.onExtend(n)
	}

	bp, err := a.r.Extend(n)
	if err != nil {
		// A file region may have remapped its old contents elsewhere.
		a.data = a.r.Bytes()
		return 0, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	a.data = a.r.Bytes()

	a.setBlock(bp, uint32(n), false)
	epi := format.HeaderOff(bp + n)
	format.PutTag(a.data, epi, 0, true)
	a.markDirty(epi, format.WordSize)

	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(n)

	if logAlloc {
		logger.Debug("heap grow",
			"heap", a.cfg.Name,
			"grow", a.stats.GrowCalls,
			"bytes", n,
			"total", len(a.data),
		)
	}

	return a.coalesce(bp), nil
}
