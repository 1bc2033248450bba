package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

func TestRealloc_Nil(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	_, err := a.Realloc(Nil, 10)
	require.ErrorIs(t, err, ErrNilPtr)
}

func TestRealloc_Negative(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	p, err := a.Alloc(10)
	require.NoError(t, err)

	_, err = a.Realloc(p, -5)
	require.ErrorIs(t, err, ErrBadSize)
	assert.True(t, blockAt(t, a, p).Allocated)
}

func TestRealloc_ZeroFrees(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	p, err := a.Alloc(10)
	require.NoError(t, err)

	q, err := a.Realloc(p, 0)
	require.NoError(t, err)
	assert.Equal(t, Nil, q)
	assert.Equal(t, 1, a.Stats().FreeCalls)
	assert.Len(t, blocks(t, a), 1, "freed block merges back into the chunk")
	requireValid(t, a)
}

func TestRealloc_ShrinkKeepsSplinter(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	p, err := a.Alloc(100) // 112
	require.NoError(t, err)
	fill(a, p, 100, 1)

	q, err := a.Realloc(p, 96) // 104: slack of 8 stays
	require.NoError(t, err)
	assert.Equal(t, p, q)
	assert.Equal(t, uint32(112), blockAt(t, a, p).Size)
	assert.Equal(t, 1, a.Stats().ReallocShrink)
	assert.Equal(t, 1, a.Stats().SplitCount, "only the original placement split")
	requirePattern(t, a, q, 96, 1)
	requireValid(t, a)
}

func TestRealloc_GrowInPlace(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	p, err := a.Alloc(100) // 112
	require.NoError(t, err)
	q, err := a.Alloc(100) // 112
	require.NoError(t, err)
	_, err = a.Alloc(100) // guard
	require.NoError(t, err)
	fill(a, p, 100, 9)

	a.Free(q)

	got, err := a.Realloc(p, 180) // 192 of the combined 224
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Equal(t, Block{Ptr: p, Size: 192, Allocated: true}, blockAt(t, a, p))
	assert.Equal(t, Block{Ptr: p + 192, Size: 32}, blockAt(t, a, p+192))
	assert.Equal(t, 1, a.Stats().ReallocGrow)
	assert.Equal(t, int(p), a.rover)
	requirePattern(t, a, p, 100, 9)
	requireValid(t, a)
}

func TestRealloc_GrowInPlaceAbsorbsWholeSuccessor(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	p, err := a.Alloc(100) // 112
	require.NoError(t, err)
	q1, err := a.Alloc(24) // 32
	require.NoError(t, err)
	q2, err := a.Alloc(24) // 32
	require.NoError(t, err)
	_, err = a.Alloc(100) // guard
	require.NoError(t, err)

	// Merging q1 and q2 parks the rover on q1.
	a.Free(q1)
	a.Free(q2)
	require.Equal(t, int(q1), a.rover)

	got, err := a.Realloc(p, 160) // 168; 176-168 is a splinter
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Equal(t, uint32(176), blockAt(t, a, p).Size)

	// The rover must not be left inside the grown block.
	assert.Equal(t, int(p), a.rover)
	requireValid(t, a)
}

func TestRealloc_Move(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	p, err := a.Alloc(100)
	require.NoError(t, err)
	_, err = a.Alloc(100) // guard
	require.NoError(t, err)
	fill(a, p, 100, 42)

	q, err := a.Realloc(p, 6000)
	require.NoError(t, err)
	assert.NotEqual(t, p, q)
	assert.Equal(t, 1, a.Stats().ReallocMove)
	assert.False(t, blockAt(t, a, p).Allocated)
	assert.GreaterOrEqual(t, len(a.Payload(q)), 6000)
	requirePattern(t, a, q, 100, 42)
	requireValid(t, a)
}

func TestRealloc_MoveOutOfMemory(t *testing.T) {
	a := newTestAllocator(t, 0, format.InitialHeapSize+format.DefaultChunkSize)
	p, err := a.Alloc(100)
	require.NoError(t, err)
	_, err = a.Alloc(100)
	require.NoError(t, err)
	fill(a, p, 100, 5)
	before := blocks(t, a)

	q, err := a.Realloc(p, 8000)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, Nil, q)

	assert.Equal(t, before, blocks(t, a))
	assert.True(t, blockAt(t, a, p).Allocated)
	requirePattern(t, a, p, 100, 5)
	requireValid(t, a)
}

func TestRealloc_PreservesContentsAcrossSizes(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	p, err := a.Alloc(16)
	require.NoError(t, err)
	fill(a, p, 16, 77)

	kept := 16
	for _, n := range []int{40, 8, 300, 2000, 64, 9000, 1} {
		p, err = a.Realloc(p, n)
		require.NoError(t, err, "resize to %d", n)
		kept = min(kept, n)
		requirePattern(t, a, p, kept, 77)
		requireValid(t, a)
	}
}
