// Package alloc implements a boundary-tag heap allocator over a growable region.
//
// # Overview
//
// The allocator manages one contiguous heap obtained from a region.Region.
// It never keeps a free list outside the heap: every block carries its own
// size and state in a header word and a mirrored footer word, and the set of
// free blocks is found by walking those tags (an implicit free list).
//
// # Heap Layout
//
//	offset 0   4          8          12                         Len()-4
//	      [pad][prologue h][prologue f][ block ][ block ] ... [epilogue]
//
//   - pad: one word so that payloads land on 8-byte boundaries
//   - prologue: an allocated 8-byte block with no payload; never freed or merged
//   - epilogue: a header-only block of size 0 marked allocated; marks the end
//
// A block is:
//
//	[header][payload ................][footer]
//	 4 B     size-8 bytes             4 B
//
// Tags are packed with format.Pack: bits 3..31 are the block size (a multiple
// of 8), bit 0 is the allocated flag. Blocks are never smaller than 16 bytes.
//
// # Handles
//
// Alloc returns a Ptr: the region offset of the block's payload. Ptr values
// survive heap growth; byte slices do not. Use Payload(p) to get the bytes and
// re-fetch them after any call that may extend the heap.
//
// # Algorithm
//
//   - Fit: next-fit. The search resumes at a cursor (the rover), runs to the
//     epilogue, then wraps to the first block and stops at the cursor.
//   - Placement: a block is split when the leftover is at least 16 bytes;
//     smaller leftovers stay inside the allocation.
//   - Free: the block is marked free and immediately coalesced with free
//     neighbours (four cases: none, next, previous, both).
//   - Miss: the heap is extended by max(need, ChunkSize) bytes. The new span
//     replaces the old epilogue, becomes one free block, and is coalesced
//     with a free predecessor.
//   - Realloc: shrinks in place, grows in place into a free successor, and
//     otherwise moves (alloc, copy, free).
//
// # Usage Example
//
//	r := region.NewMemory(region.DefaultLimit)
//	a, err := alloc.New(r, nil, nil)
//	if err != nil {
//	    return err
//	}
//
//	p, err := a.Alloc(100)
//	if err != nil {
//	    return err
//	}
//	copy(a.Payload(p), data)
//
//	p, err = a.Realloc(p, 400)
//	...
//	a.Free(p)
//
// # File-Backed Heaps
//
// With region.File the heap lives in a shared mapping. Pass a dirty tracker
// to New and every tag write is reported to it; flush with Tracker.Flush.
// Payload writes are not seen by the allocator and must be reported by the
// caller.
//
// # Debug Builds
//
// Building with -tags heapdebug validates every pointer handed to Free and
// Realloc and runs Check after each allocation, panicking with an error that
// wraps ErrCorrupt on the first violation.
//
// # Thread Safety
//
// Allocator is NOT thread-safe. Callers serialize access, or use Locked.
// Independent allocators over independent regions need no coordination.
package alloc
