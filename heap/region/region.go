// Package region provides the raw heap-growth primitive the allocator is
// built on: a contiguous byte range that can only be extended at its end.
//
// A Region hands out nothing but offsets. Extend returns the previous break
// (the offset where the new bytes begin), which is exactly the contract of a
// classic sbrk-style call. The allocator formats those bytes itself.
//
// # Implementations
//
//   - Memory: a growable []byte with a hard limit, for tests and trace replay.
//   - File: a heap backed by a file mapped MAP_SHARED (unix). Extending the
//     heap grows the file and remaps it, so the heap image survives the process.
//
// # Slice validity
//
// Bytes returns the current backing memory. Any Extend may move it (slice
// reallocation, or a fresh mmap), so callers must re-fetch Bytes after every
// Extend and must never hold on to sub-slices across one.
//
// # Thread Safety
//
// Regions are not thread-safe. The allocator that owns a region serializes
// access to it.
package region

import "errors"

const (
	// DefaultLimit is the default size cap of a Memory region (20 MiB).
	DefaultLimit = 20 << 20

	// MaxLimit is the largest region any implementation will grow to. Heap
	// offsets are carried in uint32 handles and kept within int32 range.
	MaxLimit = 0x7FFFFFF8
)

var (
	// ErrExhausted indicates the region cannot grow by the requested amount.
	ErrExhausted = errors.New("region: out of memory")

	// ErrBadExtend indicates a negative extension request.
	ErrBadExtend = errors.New("region: negative extend")

	// ErrClosed indicates an operation on a closed file region.
	ErrClosed = errors.New("region: closed")
)

// Region is a contiguous, append-only byte range.
type Region interface {
	// Extend grows the region by n bytes and returns the offset of the first
	// new byte (the old length). New bytes are zeroed. On failure the region
	// is unchanged.
	Extend(n int) (int, error)

	// Bytes returns the current backing memory, valid until the next Extend or Reset.
	Bytes() []byte

	// Len returns the current region size in bytes.
	Len() int

	// Reset drops every byte so the region can be reused from offset 0.
	Reset() error
}

// Syncer is implemented by regions that can persist their bytes.
type Syncer interface {
	Sync() error
}

// clampLimit normalizes a caller-supplied limit.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
