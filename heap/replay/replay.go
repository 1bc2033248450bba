package replay

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/logger"
)

// ErrValidation indicates the allocator returned a result the driver rejects.
var ErrValidation = errors.New("replay: validation failed")

// Heap is the allocator surface the driver needs. *alloc.Allocator satisfies it.
type Heap interface {
	Alloc(size int) (alloc.Ptr, error)
	Free(p alloc.Ptr)
	Realloc(p alloc.Ptr, size int) (alloc.Ptr, error)
	Payload(p alloc.Ptr) []byte
	HeapSize() int
	Check() error
}

// Options controls a replay.
type Options struct {
	// CheckHeap runs Heap.Check after every operation.
	CheckHeap bool

	// SkipValidate skips trace.Validate before the replay starts.
	SkipValidate bool
}

// Result summarizes one replay.
type Result struct {
	Name      string
	Ops       int           // operations executed
	Elapsed   time.Duration // wall time spent inside the allocator and checks
	PeakLive  int64         // largest sum of live payload sizes
	HeapSize  int           // heap bytes at the end of the replay
	Weight    int           // trace weight from the header
	Completed bool          // every op ran and passed validation
}

// Throughput returns operations per second.
func (r *Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

// Utilization returns peak live payload bytes over final heap bytes.
func (r *Result) Utilization() float64 {
	if r.HeapSize == 0 {
		return 0
	}
	return float64(r.PeakLive) / float64(r.HeapSize)
}

// OpError reports the operation at which a replay failed.
type OpError struct {
	Index int // op index in the trace
	Op    trace.Op
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("op %d (line %d, %s id %d size %d): %v", e.Index, e.Op.Line, e.Op.Kind, e.Op.ID, e.Op.Size, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// block is the driver's record of a live trace id.
type block struct {
	p    alloc.Ptr
	size int
	sum  uint64
	live bool
}

// span is a live payload range, kept sorted by start.
type span struct {
	start, end int
	id         int
}

// player holds the per-replay state.
type player struct {
	h      Heap
	blocks []block
	spans  []span
	live   int64
	peak   int64
}

// Run replays tr against h. The returned Result is non-nil even on error and
// describes the ops completed before the failure. Validation failures wrap
// ErrValidation; allocator failures wrap the allocator's error. Cancellation
// is checked between operations.
func Run(ctx context.Context, h Heap, tr *trace.Trace, opts Options) (*Result, error) {
	res := &Result{Name: tr.Name, Weight: tr.Weight}
	st, err := NewStepper(h, tr, opts)
	if err != nil {
		return res, err
	}

	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
		res.PeakLive = st.Peak()
		res.HeapSize = h.HeapSize()
	}()

	for !st.Done() {
		if st.Pos()&0xFF == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		if _, err := st.Step(); err != nil {
			return res, err
		}
		res.Ops++
	}

	res.Completed = true
	logger.Debug("replay finished", "trace", tr.Name, "ops", res.Ops, "heap", h.HeapSize())
	return res, nil
}

func (pl *player) step(op trace.Op) error {
	if op.ID >= len(pl.blocks) {
		return fmt.Errorf("%w: id %d out of range", ErrValidation, op.ID)
	}
	b := &pl.blocks[op.ID]

	switch op.Kind {
	case trace.Alloc:
		if b.live {
			return fmt.Errorf("%w: id %d already live", ErrValidation, op.ID)
		}
		p, err := pl.h.Alloc(op.Size)
		if err != nil {
			return err
		}
		if err := pl.place(op.ID, p, op.Size); err != nil {
			return err
		}

	case trace.Realloc:
		if !b.live {
			return fmt.Errorf("%w: realloc of dead id %d", ErrValidation, op.ID)
		}
		if err := pl.verify(op.ID); err != nil {
			return err
		}
		old := *b
		p, err := pl.h.Realloc(b.p, op.Size)
		if err != nil {
			return err
		}
		pl.remove(op.ID)

		// The new block must still carry the old pattern up to the shorter size.
		if err := pl.checkRange(p, op.Size); err != nil {
			return err
		}
		keep := min(old.size, op.Size)
		if !matchesPattern(op.ID, pl.h.Payload(p)[:keep]) {
			return fmt.Errorf("%w: realloc of id %d did not preserve %d bytes", ErrValidation, op.ID, keep)
		}
		if err := pl.place(op.ID, p, op.Size); err != nil {
			return err
		}

	case trace.Free:
		if !b.live {
			return fmt.Errorf("%w: free of dead id %d", ErrValidation, op.ID)
		}
		if err := pl.verify(op.ID); err != nil {
			return err
		}
		pl.h.Free(b.p)
		pl.remove(op.ID)

	default:
		return fmt.Errorf("%w: unknown op %s", ErrValidation, op.Kind)
	}
	return nil
}

// place validates a fresh block, writes the id pattern and records it live.
func (pl *player) place(id int, p alloc.Ptr, size int) error {
	if err := pl.checkRange(p, size); err != nil {
		return err
	}
	s := span{start: int(p), end: int(p) + size, id: id}
	i, _ := slices.BinarySearchFunc(pl.spans, s.start, func(x span, start int) int { return x.start - start })
	if i > 0 && pl.spans[i-1].end > s.start {
		return fmt.Errorf("%w: id %d at [0x%x,0x%x) overlaps [0x%x,0x%x)",
			ErrValidation, id, s.start, s.end, pl.spans[i-1].start, pl.spans[i-1].end)
	}
	if i < len(pl.spans) && pl.spans[i].start < s.end {
		return fmt.Errorf("%w: id %d at [0x%x,0x%x) overlaps [0x%x,0x%x)",
			ErrValidation, id, s.start, s.end, pl.spans[i].start, pl.spans[i].end)
	}
	pl.spans = slices.Insert(pl.spans, i, s)

	payload := pl.h.Payload(p)[:size]
	fillPattern(id, payload)
	pl.blocks[id] = block{p: p, size: size, sum: xxh3.Hash(payload), live: true}

	pl.live += int64(size)
	pl.peak = max(pl.peak, pl.live)
	return nil
}

// remove forgets the live block bound to id.
func (pl *player) remove(id int) {
	b := &pl.blocks[id]
	i, found := slices.BinarySearchFunc(pl.spans, int(b.p), func(x span, start int) int { return x.start - start })
	if found {
		pl.spans = slices.Delete(pl.spans, i, i+1)
	}
	pl.live -= int64(b.size)
	*b = block{}
}

// verify re-hashes the payload bound to id.
func (pl *player) verify(id int) error {
	b := pl.blocks[id]
	payload := pl.h.Payload(b.p)
	if len(payload) < b.size {
		return fmt.Errorf("%w: id %d payload shrank to %d bytes", ErrValidation, id, len(payload))
	}
	if xxh3.Hash(payload[:b.size]) != b.sum {
		return fmt.Errorf("%w: payload of id %d at 0x%x was overwritten", ErrValidation, id, uint32(b.p))
	}
	return nil
}

// checkRange validates a pointer returned for a size-byte request.
func (pl *player) checkRange(p alloc.Ptr, size int) error {
	switch {
	case p == alloc.Nil:
		return fmt.Errorf("%w: nil block for %d bytes", ErrValidation, size)
	case p%8 != 0:
		return fmt.Errorf("%w: block 0x%x not 8-aligned", ErrValidation, uint32(p))
	case int(p)+size > pl.h.HeapSize():
		return fmt.Errorf("%w: block [0x%x,0x%x) outside heap of %d bytes", ErrValidation, uint32(p), int(p)+size, pl.h.HeapSize())
	case len(pl.h.Payload(p)) < size:
		return fmt.Errorf("%w: block 0x%x holds %d bytes, asked for %d", ErrValidation, uint32(p), len(pl.h.Payload(p)), size)
	}
	return nil
}

// fillPattern writes the deterministic byte pattern for id.
func fillPattern(id int, b []byte) {
	for i := range b {
		b[i] = patternByte(id, i)
	}
}

func matchesPattern(id int, b []byte) bool {
	for i := range b {
		if b[i] != patternByte(id, i) {
			return false
		}
	}
	return true
}

func patternByte(id, i int) byte {
	return byte(id*131 + i*7 + 1)
}
