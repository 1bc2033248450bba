// Package testutil holds setup helpers shared by heapkit's tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/heap/region"
)

// SetupMemoryHeap creates an allocator over a fresh Memory region.
// A nil cfg selects alloc.DefaultConfig.
//
// Example:
//
//	a := testutil.SetupMemoryHeap(t, nil)
//	p, err := a.Alloc(64)
func SetupMemoryHeap(t testing.TB, cfg *alloc.Config) *alloc.Allocator {
	t.Helper()
	a, err := alloc.New(region.NewMemory(0), nil, cfg)
	if err != nil {
		t.Fatalf("Failed to create heap: %v", err)
	}
	return a
}

// FileHeap bundles a file-backed allocator with its region and dirty tracker.
type FileHeap struct {
	Path    string
	Region  *region.File
	Tracker *dirty.Tracker
	Alloc   *alloc.Allocator
}

// SetupFileHeap creates an allocator over a file in t.TempDir(), with dirty
// tracking. Returns the heap and a cleanup function that closes the region.
//
// Example:
//
//	fh, cleanup := testutil.SetupFileHeap(t, nil)
//	defer cleanup()
func SetupFileHeap(t testing.TB, cfg *alloc.Config) (*FileHeap, func()) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "heap.img")
	r, err := region.OpenFile(path, 0)
	if err != nil {
		t.Fatalf("Failed to open heap file: %v", err)
	}

	dt := dirty.NewTracker(r)
	a, err := alloc.New(r, dt, cfg)
	if err != nil {
		r.Close()
		t.Fatalf("Failed to create heap: %v", err)
	}

	cleanup := func() {
		r.Close()
	}
	return &FileHeap{Path: path, Region: r, Tracker: dt, Alloc: a}, cleanup
}
