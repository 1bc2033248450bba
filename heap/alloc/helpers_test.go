package alloc

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/internal/format"
)

// ============================================================================
// Allocator Creation Utilities
// ============================================================================

// newTestAllocator creates an allocator over a fresh memory region.
// chunk <= 0 selects the default chunk size; limit <= 0 selects region.DefaultLimit.
func newTestAllocator(t testing.TB, chunk, limit int) *Allocator {
	t.Helper()
	a, err := New(region.NewMemory(limit), nil, &Config{Name: t.Name(), ChunkSize: chunk})
	require.NoError(t, err)
	return a
}

// newTightAllocator creates an allocator whose chunk size is the minimum block,
// so every miss extends by exactly the block it needs and the heap carries no
// large free tail.
func newTightAllocator(t testing.TB) *Allocator {
	t.Helper()
	return newTestAllocator(t, format.MinBlockSize, 0)
}

// countExtends installs an onExtend hook and returns a pointer to the call count.
func countExtends(a *Allocator) *int {
	n := new(int)
	a.onExtend = func(int) { *n++ }
	return n
}

// ============================================================================
// Invariant Checks
// ============================================================================

// requireValid fails the test if the heap violates any layout invariant.
func requireValid(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Check())
}

// blocks returns every block between prologue and epilogue.
func blocks(t testing.TB, a *Allocator) []Block {
	t.Helper()
	var out []Block
	it := a.Blocks()
	for {
		b, err := it.Next()
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			return out
		}
		out = append(out, b)
	}
}

// blockAt returns the block whose payload starts at p.
func blockAt(t testing.TB, a *Allocator, p Ptr) Block {
	t.Helper()
	for _, b := range blocks(t, a) {
		if b.Ptr == p {
			return b
		}
	}
	t.Fatalf("no block at 0x%x", uint32(p))
	return Block{}
}

// fill writes a byte pattern derived from seed into the payload of p.
func fill(a *Allocator, p Ptr, n int, seed byte) {
	payload := a.Payload(p)
	for i := range n {
		payload[i] = seed + byte(i*7)
	}
}

// requirePattern checks the first n bytes of p against the fill pattern.
func requirePattern(t testing.TB, a *Allocator, p Ptr, n int, seed byte) {
	t.Helper()
	payload := a.Payload(p)
	require.GreaterOrEqual(t, len(payload), n)
	for i := range n {
		if payload[i] != seed+byte(i*7) {
			t.Fatalf("payload of 0x%x differs at byte %d: got %d want %d", uint32(p), i, payload[i], seed+byte(i*7))
		}
	}
}
