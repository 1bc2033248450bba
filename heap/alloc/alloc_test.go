package alloc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/internal/format"
)

func TestNew_Layout(t *testing.T) {
	a := newTestAllocator(t, 0, 0)

	data := a.data
	require.Equal(t, format.InitialHeapSize+format.DefaultChunkSize, a.HeapSize())

	assert.Equal(t, uint32(0), format.ReadU32(data, 0), "padding word")
	assert.Equal(t, format.Pack(8, true), format.ReadTag(data, 4), "prologue header")
	assert.Equal(t, format.Pack(8, true), format.ReadTag(data, 8), "prologue footer")
	assert.Equal(t, format.Pack(0, true), format.ReadTag(data, len(data)-4), "epilogue")

	bs := blocks(t, a)
	require.Len(t, bs, 1)
	assert.Equal(t, Block{Ptr: 16, Size: format.DefaultChunkSize}, bs[0])
	requireValid(t, a)
}

func TestNew_RegionInUse(t *testing.T) {
	r := region.NewMemory(0)
	_, err := r.Extend(8)
	require.NoError(t, err)

	_, err = New(r, nil, nil)
	require.ErrorIs(t, err, ErrRegionInUse)
}

func TestNew_OutOfMemory(t *testing.T) {
	_, err := New(region.NewMemory(100), nil, nil)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.ErrorIs(t, err, region.ErrExhausted)
}

func TestNew_ConfigNormalized(t *testing.T) {
	a, err := New(region.NewMemory(0), nil, &Config{ChunkSize: 1001})
	require.NoError(t, err)
	assert.Equal(t, 1008, a.Config().ChunkSize)
	assert.Equal(t, DefaultConfig.Name, a.Config().Name)

	a, err = New(region.NewMemory(0), nil, &Config{ChunkSize: 3})
	require.NoError(t, err)
	assert.Equal(t, format.MinBlockSize, a.Config().ChunkSize)
}

func TestAlloc_Zero(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	before := a.Stats()

	p, err := a.Alloc(0)
	require.NoError(t, err)
	assert.Equal(t, Nil, p)
	assert.Equal(t, before, a.Stats(), "Alloc(0) must not change state")
}

func TestAlloc_Negative(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	_, err := a.Alloc(-1)
	require.ErrorIs(t, err, ErrBadSize)
}

func TestAlloc_TooLarge(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	_, err := a.Alloc(math.MaxInt)
	require.ErrorIs(t, err, ErrOutOfMemory)
	requireValid(t, a)
}

func TestAlloc_AlignmentAndCapacity(t *testing.T) {
	a := newTestAllocator(t, 0, 0)

	for _, n := range []int{1, 7, 8, 9, 15, 16, 17, 100, 1000, 4088, 4089, 9000} {
		p, err := a.Alloc(n)
		require.NoError(t, err, "size %d", n)
		require.NotEqual(t, Nil, p)
		assert.Zero(t, int(p)%format.Alignment, "size %d: payload 0x%x not aligned", n, uint32(p))
		assert.GreaterOrEqual(t, len(a.Payload(p)), n)

		want, _ := format.BlockSizeFor(n)
		b := blockAt(t, a, p)
		assert.True(t, b.Allocated)
		assert.GreaterOrEqual(t, b.Size, want)
		assert.Less(t, b.Size-want, uint32(format.MinBlockSize), "only splinters may be absorbed")
	}
	requireValid(t, a)
}

func TestAlloc_PayloadDoesNotTouchTags(t *testing.T) {
	a := newTestAllocator(t, 0, 0)

	p1, err := a.Alloc(24)
	require.NoError(t, err)
	p2, err := a.Alloc(24)
	require.NoError(t, err)

	for i := range a.Payload(p1) {
		a.Payload(p1)[i] = 0xFF
	}
	for i := range a.Payload(p2) {
		a.Payload(p2)[i] = 0xEE
	}
	requireValid(t, a)
}

func TestAlloc_BoundaryTagsEncoded(t *testing.T) {
	a := newTestAllocator(t, 0, 0)

	p, err := a.Alloc(100)
	require.NoError(t, err)
	require.Equal(t, Ptr(16), p)

	// 100 + 8 bytes of tags rounds up to 112.
	hdr := format.ReadTag(a.data, format.HeaderOff(int(p)))
	size, allocated := format.Unpack(hdr)
	assert.Equal(t, uint32(112), size)
	assert.True(t, allocated)
	assert.Equal(t, hdr, format.ReadTag(a.data, format.FooterOff(int(p), size)))

	// The split remainder follows with its own free tags.
	rem := int(p) + int(size)
	rsize, ralloc := format.Unpack(format.ReadTag(a.data, format.HeaderOff(rem)))
	assert.Equal(t, uint32(format.DefaultChunkSize-112), rsize)
	assert.False(t, ralloc)
}

func TestAlloc_ExtendsOnMiss(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	extends := countExtends(a)

	p, err := a.Alloc(10000)
	require.NoError(t, err)
	assert.Equal(t, 1, *extends)
	assert.Equal(t, 1, a.Stats().AllocSlowPath)

	// The untouched initial chunk was merged into the extension, so the block
	// starts at the first block offset.
	assert.Equal(t, Ptr(16), p)
	requireValid(t, a)
}

func TestAlloc_SmallMissExtendsByChunk(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	_, err := a.Alloc(4000)
	require.NoError(t, err)

	before := a.HeapSize()
	_, err = a.Alloc(200)
	require.NoError(t, err)
	assert.Equal(t, before+format.DefaultChunkSize, a.HeapSize())
	requireValid(t, a)
}

func TestAlloc_OutOfMemoryLeavesHeapUnchanged(t *testing.T) {
	limit := format.InitialHeapSize + format.DefaultChunkSize
	a := newTestAllocator(t, 0, limit)

	p, err := a.Alloc(1000)
	require.NoError(t, err)
	fill(a, p, 1000, 3)

	beforeBlocks := blocks(t, a)
	beforeStats := a.Stats()
	beforeSize := a.HeapSize()

	_, err = a.Alloc(5000)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.ErrorIs(t, err, region.ErrExhausted)

	assert.Equal(t, beforeSize, a.HeapSize())
	assert.Equal(t, beforeBlocks, blocks(t, a))
	assert.Equal(t, beforeStats.GrowCalls, a.Stats().GrowCalls)
	requirePattern(t, a, p, 1000, 3)
	requireValid(t, a)

	// The heap is still usable.
	q, err := a.Alloc(100)
	require.NoError(t, err)
	assert.NotEqual(t, Nil, q)
}

func TestFree_Nil(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	before := a.Stats()
	a.Free(Nil)
	assert.Equal(t, before, a.Stats())
	requireValid(t, a)
}

func TestPayload(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	assert.Nil(t, a.Payload(Nil))
	assert.Nil(t, a.Payload(Ptr(a.HeapSize()+64)))

	p, err := a.Alloc(20)
	require.NoError(t, err)
	payload := a.Payload(p)
	assert.Len(t, payload, 24) // 20+8 rounds to a 32-byte block
	assert.Equal(t, len(payload), cap(payload), "payload must be capped")
}

// Scenario A: a freed block is found again by the wraparound pass instead of
// extending the heap.
func TestScenario_ReuseFreedBlock(t *testing.T) {
	a := newTightAllocator(t)

	first, err := a.Alloc(100)
	require.NoError(t, err)
	_, err = a.Alloc(200)
	require.NoError(t, err)
	a.Free(first)

	extends := countExtends(a)
	got, err := a.Alloc(50)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Zero(t, *extends)
	requireValid(t, a)
}

// Scenario B: two adjacent blocks freed in order become one block that an
// allocation of exactly the combined capacity fits in.
func TestScenario_AdjacentFreesCoalesce(t *testing.T) {
	a := newTestAllocator(t, 0, 0)

	x, err := a.Alloc(64)
	require.NoError(t, err)
	y, err := a.Alloc(64)
	require.NoError(t, err)
	_, err = a.Alloc(64) // keeps y's successor allocated
	require.NoError(t, err)

	xb, yb := blockAt(t, a, x), blockAt(t, a, y)
	require.Equal(t, int(x)+int(xb.Size), int(y), "x and y must be adjacent")

	a.Free(x)
	a.Free(y)

	merged := blockAt(t, a, x)
	assert.False(t, merged.Allocated)
	assert.Equal(t, xb.Size+yb.Size, merged.Size)

	extends := countExtends(a)
	got, err := a.Alloc(int(merged.Size) - format.Overhead)
	require.NoError(t, err)
	assert.Equal(t, x, got)
	assert.Zero(t, *extends)
	requireValid(t, a)
}

// Scenario C: the tail split off by a shrinking Realloc is reused.
func TestScenario_ShrinkTailReused(t *testing.T) {
	a := newTestAllocator(t, 0, 0)

	p, err := a.Alloc(200)
	require.NoError(t, err)
	_, err = a.Alloc(32) // guard
	require.NoError(t, err)

	q, err := a.Realloc(p, 50)
	require.NoError(t, err)
	require.Equal(t, p, q)

	extends := countExtends(a)
	r, err := a.Alloc(100)
	require.NoError(t, err)
	assert.Equal(t, int(p)+64, int(r), "tail of the shrunk block")
	assert.Zero(t, *extends)
	requireValid(t, a)
}

func TestReset(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	for range 10 {
		_, err := a.Alloc(3000)
		require.NoError(t, err)
	}
	require.NoError(t, a.Reset())

	assert.Equal(t, format.InitialHeapSize+format.DefaultChunkSize, a.HeapSize())
	assert.Equal(t, 1, a.Stats().GrowCalls)
	assert.Len(t, blocks(t, a), 1)
	requireValid(t, a)
}

// movingRegion fails every Extend past its limit and, like a file region
// recovering its old mapping, hands back the same bytes at a new address.
type movingRegion struct {
	*region.Memory
	data  []byte
	limit int
}

func (r *movingRegion) Extend(n int) (int, error) {
	if r.Len()+n > r.limit {
		r.data = append([]byte(nil), r.Bytes()...)
		return 0, errors.New("remapped after failed grow")
	}
	off, err := r.Memory.Extend(n)
	r.data = nil
	return off, err
}

func (r *movingRegion) Bytes() []byte {
	if r.data != nil {
		return r.data
	}
	return r.Memory.Bytes()
}

func TestAlloc_FailedExtendRereadsRegion(t *testing.T) {
	r := &movingRegion{Memory: region.NewMemory(0), limit: format.InitialHeapSize + format.DefaultChunkSize}
	a, err := New(r, nil, nil)
	require.NoError(t, err)

	p, err := a.Alloc(64)
	require.NoError(t, err)
	fill(a, p, 64, 0xAB)

	_, err = a.Alloc(8192)
	require.ErrorIs(t, err, ErrOutOfMemory)

	// The allocator must now work on the region's current bytes.
	require.Equal(t, &r.Bytes()[0], &a.data[0])
	requirePattern(t, a, p, 64, 0xAB)
	requireValid(t, a)

	q, err := a.Alloc(64)
	require.NoError(t, err)
	fill(a, q, 64, 0xCD)
	assert.Equal(t, byte(0xCD), r.Bytes()[int(q)])
}
