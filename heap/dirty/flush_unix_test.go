//go:build unix

package dirty

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/region"
)

func TestFlushWritesThroughToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.img")
	r, err := region.OpenFile(path, 0)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Extend(3 * os.Getpagesize())
	require.NoError(t, err)

	tracker := NewTracker(r)
	off := os.Getpagesize() + 40
	copy(r.Bytes()[off:], "boundary")
	tracker.Add(off, 8)

	for _, mode := range []FlushMode{FlushDataOnly, FlushAuto, FlushFull} {
		tracker.Add(off, 8)
		require.NoError(t, tracker.Flush(context.Background(), mode))
		assert.Zero(t, tracker.Pending())
	}

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "boundary", string(onDisk[off:off+8]))
}

func TestFlushClampsToMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.img")
	r, err := region.OpenFile(path, 0)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Extend(os.Getpagesize())
	require.NoError(t, err)

	tracker := NewTracker(r)
	// Past the end of the mapping: nothing to msync, but no error either.
	tracker.Add(10*os.Getpagesize(), 16)
	tracker.Add(0, 16)
	require.NoError(t, tracker.Flush(context.Background(), FlushAuto))
}
