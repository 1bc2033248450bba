package alloc

import (
	"fmt"
	"os"

	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Runtime debug flag for allocation logging - controlled by HEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAP_LOG_ALLOC") != ""

// Allocator is a next-fit, boundary-tag allocator over a single region.
type Allocator struct {
	r   region.Region
	dt  DirtyTracker // nil disables dirty tracking
	cfg Config

	// data is r.Bytes(), refreshed after every extension.
	data []byte

	// heapStart is the payload offset of the prologue block.
	heapStart int

	// rover is the payload offset where the next fit search resumes.
	rover int

	stats Stats

	// Test hook: called with the byte count before every heap extension (nil in production)
	onExtend func(n int)
}

// New initializes a heap on r, which must be empty, and extends it by one
// chunk. A nil cfg selects DefaultConfig and a nil dt disables dirty tracking.
func New(r region.Region, dt DirtyTracker, cfg *Config) (*Allocator, error) {
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrRegionInUse, r.Len())
	}
	c := DefaultConfig
	if cfg != nil {
		c = *cfg
	}
	a := &Allocator{
		r:   r,
		dt:  dt,
		cfg: c.normalize(),
	}
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

// init lays down padding, prologue and epilogue, then extends by one chunk.
func (a *Allocator) init() error {
	base, err := a.r.Extend(format.InitialHeapSize)
	if err != nil {
		return fmt.Errorf("%w: initial heap: %w", ErrOutOfMemory, err)
	}
	a.data = a.r.Bytes()

	format.PutU32(a.data, base, 0)
	format.PutTag(a.data, base+format.WordSize, format.PrologueSize, true)
	format.PutTag(a.data, base+2*format.WordSize, format.PrologueSize, true)
	format.PutTag(a.data, base+3*format.WordSize, 0, true)
	a.markDirty(base, format.InitialHeapSize)

	a.heapStart = base + format.DoubleWordSize
	a.rover = a.firstBlock()

	if _, err := a.extend(a.cfg.ChunkSize); err != nil {
		return err
	}
	if logAlloc {
		logger.Debug("heap initialized", "heap", a.cfg.Name, "bytes", len(a.data))
	}
	return nil
}

// Reset drops every block, resets the region and re-initializes the heap.
// All previously returned pointers become invalid.
func (a *Allocator) Reset() error {
	if err := a.r.Reset(); err != nil {
		return err
	}
	a.data = nil
	a.stats = Stats{}
	return a.init()
}

// Payload returns the usable bytes of the block at p, or nil if p does not
// name a block inside the heap. The slice aliases the region and is
// invalidated by any call that extends the heap.
func (a *Allocator) Payload(p Ptr) []byte {
	bp := int(p)
	if p == Nil || !buf.Has(a.data, bp-format.WordSize, format.WordSize) {
		return nil
	}
	size := a.blockSize(bp)
	if size < format.MinBlockSize {
		return nil
	}
	b, ok := buf.Slice(a.data, bp, int(size)-format.Overhead)
	if !ok {
		return nil
	}
	return b
}

// HeapSize returns the number of bytes obtained from the region so far.
func (a *Allocator) HeapSize() int { return len(a.data) }

// Config returns the effective configuration.
func (a *Allocator) Config() Config { return a.cfg }

// firstBlock is the payload offset of the block after the prologue.
func (a *Allocator) firstBlock() int { return a.heapStart + format.PrologueSize }

// epilogue is the payload offset the epilogue header would describe.
func (a *Allocator) epilogue() int { return len(a.data) }

func (a *Allocator) tag(bp int) uint32 {
	return format.ReadTag(a.data, format.HeaderOff(bp))
}

func (a *Allocator) blockSize(bp int) uint32 {
	return format.TagSize(a.tag(bp))
}

func (a *Allocator) allocated(bp int) bool {
	return format.TagAllocatedBit(a.tag(bp))
}

// next returns the payload offset of the block after bp.
func (a *Allocator) next(bp int) int {
	return bp + int(a.blockSize(bp))
}

// prevAllocated reads the predecessor's footer, which sits right before bp's header.
func (a *Allocator) prevAllocated(bp int) bool {
	return format.TagAllocatedBit(format.ReadTag(a.data, bp-format.DoubleWordSize))
}

// prev returns the payload offset of the block before bp.
func (a *Allocator) prev(bp int) int {
	return bp - int(format.TagSize(format.ReadTag(a.data, bp-format.DoubleWordSize)))
}

// setBlock writes matching header and footer tags for the block at bp.
func (a *Allocator) setBlock(bp int, size uint32, allocated bool) {
	hdr := format.HeaderOff(bp)
	ftr := format.FooterOff(bp, size)
	format.PutTag(a.data, hdr, size, allocated)
	format.PutTag(a.data, ftr, size, allocated)
	a.markDirty(hdr, format.WordSize)
	a.markDirty(ftr, format.WordSize)
}

func (a *Allocator) markDirty(off, n int) {
	if a.dt != nil {
		a.dt.Add(off, n)
	}
}
