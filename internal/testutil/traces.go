package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/heapkit/heap/trace"
)

// RandomTrace builds a valid trace with numIDs ids. Every id is allocated,
// resized a few times at random, and freed, with ops from different ids
// interleaved. maxSize bounds every request.
func RandomTrace(seed int64, numIDs, maxSize int) *trace.Trace {
	rng := rand.New(rand.NewSource(seed)) // Fixed seed for reproducibility
	tr := &trace.Trace{Name: "random", NumIDs: numIDs, Weight: 1}

	var live []int
	next := 0
	for next < numIDs || len(live) > 0 {
		switch r := rng.Intn(10); {
		case next < numIDs && (r < 5 || len(live) == 0):
			tr.Ops = append(tr.Ops, trace.Op{Kind: trace.Alloc, ID: next, Size: 1 + rng.Intn(maxSize)})
			live = append(live, next)
			next++
		case r < 7:
			id := live[rng.Intn(len(live))]
			tr.Ops = append(tr.Ops, trace.Op{Kind: trace.Realloc, ID: id, Size: 1 + rng.Intn(maxSize)})
		default:
			i := rng.Intn(len(live))
			tr.Ops = append(tr.Ops, trace.Op{Kind: trace.Free, ID: live[i]})
			live = append(live[:i], live[i+1:]...)
		}
	}

	tr.NumOps = len(tr.Ops)
	for i := range tr.Ops {
		tr.Ops[i].Line = 5 + i
	}
	return tr
}

// WriteTrace writes tr to dir/name and returns the path.
func WriteTrace(t testing.TB, dir, name string, tr *trace.Trace) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create trace: %v", err)
	}
	defer f.Close()
	if err := tr.Write(f); err != nil {
		t.Fatalf("Failed to write trace: %v", err)
	}
	return path
}
