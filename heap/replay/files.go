package replay

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/logger"
)

// NewHeapFunc builds a fresh heap for one trace. release is called when the
// replay is done, whatever its outcome.
type NewHeapFunc func(tr *trace.Trace) (h *alloc.Allocator, release func() error, err error)

// MemoryHeaps returns a NewHeapFunc that builds each heap on a Memory region
// capped at limit bytes (<= 0 for region.DefaultLimit).
func MemoryHeaps(cfg alloc.Config, limit int) NewHeapFunc {
	return func(tr *trace.Trace) (*alloc.Allocator, func() error, error) {
		c := cfg
		if c.Name == "" {
			c.Name = tr.Name
		}
		a, err := alloc.New(region.NewMemory(limit), nil, &c)
		if err != nil {
			return nil, nil, err
		}
		return a, func() error { return nil }, nil
	}
}

// FileHeaps returns a NewHeapFunc that backs each heap with a file in dir
// named after the trace: <name>.heap, or <name>-2.heap, <name>-3.heap and so
// on when traces from different directories share a name. Tag writes are
// tracked and flushed when the replay releases the heap, so the file holds
// the final heap image.
func FileHeaps(dir string, cfg alloc.Config, limit int) NewHeapFunc {
	var (
		mu   sync.Mutex
		used = make(map[string]bool)
	)
	claim := func(name string) string {
		mu.Lock()
		defer mu.Unlock()
		file := name + ".heap"
		for n := 2; used[file]; n++ {
			file = fmt.Sprintf("%s-%d.heap", name, n)
		}
		used[file] = true
		return file
	}

	return func(tr *trace.Trace) (*alloc.Allocator, func() error, error) {
		name := tr.Name
		if name == "" {
			name = "trace"
		}
		r, err := region.OpenFile(filepath.Join(dir, claim(name)), limit)
		if err != nil {
			return nil, nil, err
		}
		dt := dirty.NewTracker(r)

		c := cfg
		if c.Name == "" {
			c.Name = name
		}
		a, err := alloc.New(r, dt, &c)
		if err != nil {
			return nil, nil, errors.Join(err, r.Close())
		}

		release := func() error {
			// Payload writes by the driver are not tracked; the whole image is dirty.
			dt.Add(0, a.HeapSize())
			return errors.Join(dt.Flush(context.Background(), dirty.FlushAuto), r.Close())
		}
		return a, release, nil
	}
}

// FileResult pairs a trace file with its replay outcome.
type FileResult struct {
	Path   string
	Result *Result
	Stats  alloc.Stats
	Usage  alloc.Usage
	Err    error
}

// RunFiles parses and replays each path on a heap from newHeap, running up to
// jobs replays at once (jobs <= 0 means one per path). Replay failures are
// recorded per file and do not stop the others; the returned error is only
// set when ctx is cancelled.
func RunFiles(ctx context.Context, paths []string, jobs int, newHeap NewHeapFunc, opts Options) ([]FileResult, error) {
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for i, path := range paths {
		g.Go(func() error {
			results[i] = runFile(gctx, path, newHeap, opts)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func runFile(ctx context.Context, path string, newHeap NewHeapFunc, opts Options) FileResult {
	fr := FileResult{Path: path}

	tr, err := trace.ParseFile(path)
	if err != nil {
		fr.Err = err
		return fr
	}

	h, release, err := newHeap(tr)
	if err != nil {
		fr.Err = fmt.Errorf("%s: new heap: %w", tr.Name, err)
		return fr
	}

	fr.Result, fr.Err = Run(ctx, h, tr, opts)
	fr.Stats = h.Stats()
	fr.Usage = h.Usage()
	if rerr := release(); rerr != nil {
		fr.Err = errors.Join(fr.Err, rerr)
	}

	if fr.Err != nil {
		logger.Warn("replay failed", "trace", tr.Name, "error", fr.Err)
	} else {
		logger.Info("replay ok",
			"trace", tr.Name,
			"ops", fr.Result.Ops,
			"util", fr.Result.Utilization(),
			"kops", fr.Result.Throughput()/1000,
		)
	}
	return fr
}
