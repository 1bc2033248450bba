package alloc

import (
	"fmt"
	"io"
)

// Stats holds allocator counters for testing and instrumentation.
type Stats struct {
	GrowCalls int   // Number of heap extensions
	GrowBytes int64 // Total bytes added by extensions

	AllocCalls    int // Alloc calls with size > 0
	AllocFastPath int // Allocations satisfied by the fit search
	AllocSlowPath int // Allocations that extended the heap

	FreeCalls int // Free calls with a non-nil pointer

	ReallocCalls  int // Realloc calls that resized a block
	ReallocShrink int // Resolved in place without growing
	ReallocGrow   int // Resolved in place by absorbing the next block
	ReallocMove   int // Resolved by alloc + copy + free

	BytesAllocated int64 // Block bytes handed out (tags included)
	BytesFreed     int64 // Block bytes released by Free

	SplitCount       int // Blocks split during placement or in-place resize
	CoalesceForward  int // Merges with the next block only
	CoalesceBackward int // Merges with the previous block only
	CoalesceBoth     int // Merges with both neighbours

	FitSearches   int   // Next-fit searches run
	FitVisits     int64 // Blocks visited across all searches
	LastFitVisits int   // Blocks visited by the most recent search
}

// Stats returns a snapshot of the counters.
func (a *Allocator) Stats() Stats { return a.stats }

// PrintStats writes a human-readable summary of the counters to w.
func (a *Allocator) PrintStats(w io.Writer) {
	s := a.stats
	fmt.Fprintf(w, "\n=== ALLOCATOR STATISTICS (%s) ===\n", a.cfg.Name)
	fmt.Fprintf(w, "Grow calls:         %d (%d KB added)\n", s.GrowCalls, s.GrowBytes/1024)
	fmt.Fprintf(w, "Alloc calls:        %d (fast: %d, slow: %d)\n", s.AllocCalls, s.AllocFastPath, s.AllocSlowPath)
	fmt.Fprintf(w, "Free calls:         %d\n", s.FreeCalls)
	fmt.Fprintf(
		w,
		"Realloc calls:      %d (shrink: %d, grow: %d, move: %d)\n",
		s.ReallocCalls,
		s.ReallocShrink,
		s.ReallocGrow,
		s.ReallocMove,
	)
	fmt.Fprintf(w, "Bytes allocated:    %d\n", s.BytesAllocated)
	fmt.Fprintf(w, "Bytes freed:        %d\n", s.BytesFreed)
	fmt.Fprintf(w, "Block splits:       %d\n", s.SplitCount)
	fmt.Fprintf(w, "Coalesce fwd:       %d\n", s.CoalesceForward)
	fmt.Fprintf(w, "Coalesce bwd:       %d\n", s.CoalesceBackward)
	fmt.Fprintf(w, "Coalesce both:      %d\n", s.CoalesceBoth)
	if s.FitSearches > 0 {
		fmt.Fprintf(
			w,
			"Fit searches:       %d (avg %.1f visits, last %d)\n",
			s.FitSearches,
			float64(s.FitVisits)/float64(s.FitSearches),
			s.LastFitVisits,
		)
	}
	fmt.Fprintf(w, "============================\n")
}

// Usage summarizes the current heap contents.
type Usage struct {
	HeapBytes       int    // Bytes obtained from the region
	AllocatedBlocks int    // Live blocks (prologue excluded)
	AllocatedBytes  int64  // Sum of live block sizes
	PayloadBytes    int64  // Sum of live payload capacities
	FreeBlocks      int    // Free blocks
	FreeBytes       int64  // Sum of free block sizes
	LargestFree     uint32 // Size of the largest free block
}

// Utilization returns allocated block bytes over heap bytes.
func (u Usage) Utilization() float64 {
	if u.HeapBytes == 0 {
		return 0
	}
	return float64(u.AllocatedBytes) / float64(u.HeapBytes)
}

// Usage walks the heap and tallies its blocks. A corrupt heap yields the
// totals up to the first bad block; use Check to find out why.
func (a *Allocator) Usage() Usage {
	u := Usage{HeapBytes: len(a.data)}
	it := a.Blocks()
	for {
		b, err := it.Next()
		if err != nil {
			return u
		}
		if b.Allocated {
			u.AllocatedBlocks++
			u.AllocatedBytes += int64(b.Size)
			u.PayloadBytes += int64(b.PayloadSize())
			continue
		}
		u.FreeBlocks++
		u.FreeBytes += int64(b.Size)
		u.LargestFree = max(u.LargestFree, b.Size)
	}
}
