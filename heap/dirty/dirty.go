package dirty

import (
	"context"
	"os"
	"sort"
)

// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
const defaultRangeCapacity = 64

// FlushMode controls durability guarantees of Flush.
type FlushMode int

const (
	// FlushAuto msyncs dirty pages, then fdatasyncs the file.
	FlushAuto FlushMode = iota

	// FlushDataOnly only msyncs dirty pages. The caller is responsible for
	// syncing the file descriptor later.
	FlushDataOnly

	// FlushFull msyncs dirty pages and fdatasyncs the file; on macOS it uses
	// F_FULLFSYNC to get past the drive cache.
	FlushFull
)

// Range represents a dirty byte range (heap offsets).
type Range struct {
	Off int64 // Offset from the start of the heap
	Len int64 // Length in bytes
}

// End returns the exclusive end offset.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates dirty ranges and flushes them efficiently.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	m        Mapping
	ranges   []Range // raw ranges, coalesced at flush time
	pageSize int64
}

// NewTracker creates a dirty tracker for the given mapping.
func NewTracker(m Mapping) *Tracker {
	return &Tracker{
		m:        m,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: int64(os.Getpagesize()),
	}
}

// Add records a dirty range. It only appends to a slice; alignment and
// merging happen at flush time.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Pending returns the number of raw ranges recorded since the last flush.
func (t *Tracker) Pending() int { return len(t.ranges) }

// Ranges returns the coalesced, page-aligned ranges a flush would write.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// Flush writes every dirty range to disk and clears the tracker.
//
// The context is checked before msync and again before fdatasync. If it is
// cancelled in between, pages may be written without the file being synced;
// the ranges are kept so a later Flush retries them.
func (t *Tracker) Flush(ctx context.Context, mode FlushMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(t.ranges) == 0 {
		return nil
	}

	data := t.m.Bytes()
	if len(data) == 0 {
		t.ranges = t.ranges[:0]
		return nil
	}

	if err := t.flushRanges(data); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if mode != FlushDataOnly {
		if err := fdatasync(t.m, mode == FlushFull); err != nil {
			return err
		}
	}

	t.ranges = t.ranges[:0]
	return nil
}

// Reset clears all tracked ranges without flushing them.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize

		end := r.End()
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}

		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.End() {
			current.Len = max(current.End(), next.End()) - current.Off
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
