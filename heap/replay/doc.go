// Package replay drives an allocator through a trace and checks every result
// the way a grading driver would.
//
// For each operation Run verifies that the returned block is non-nil,
// 8-aligned, inside the heap, and disjoint from every other live block. Each
// payload is filled with a byte pattern derived from its trace id and
// fingerprinted with xxh3; the fingerprint is re-checked before the block is
// freed or resized, and Realloc must carry the pattern over to the new block.
//
// RunFiles replays many traces concurrently, each on its own heap.
package replay
