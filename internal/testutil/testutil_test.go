package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/trace"
)

func TestRandomTraceIsValid(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		tr := RandomTrace(seed, 200, 5000)
		require.NoError(t, tr.Validate(), "seed %d", seed)
		assert.GreaterOrEqual(t, tr.NumOps, 400, "every id is allocated and freed")
	}
}

func TestWriteTraceRoundTrip(t *testing.T) {
	tr := RandomTrace(9, 20, 100)
	path := WriteTrace(t, t.TempDir(), "r.rep", tr)

	got, err := trace.ParseFile(path)
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	assert.Equal(t, tr.NumOps, len(got.Ops))
	assert.Equal(t, tr.Ops[len(tr.Ops)-1].Line, got.Ops[len(got.Ops)-1].Line)
}

func TestSetupHeaps(t *testing.T) {
	a := SetupMemoryHeap(t, nil)
	require.NoError(t, a.Check())

	fh, cleanup := SetupFileHeap(t, nil)
	defer cleanup()
	p, err := fh.Alloc.Alloc(10)
	require.NoError(t, err)
	assert.NotZero(t, p)
	assert.Positive(t, fh.Tracker.Pending())
}
