// Package dirty tracks which byte ranges of a file-backed heap have been
// modified and flushes them to disk.
//
// # Overview
//
// The allocator writes boundary tags in place. When the heap lives in a
// memory-mapped file (region.File), those writes reach the page cache but
// not necessarily the disk. The allocator reports every tag write to a
// DirtyTracker; a Tracker turns those reports into page-aligned, coalesced
// ranges and msyncs only those pages.
//
// # Usage
//
//	r, _ := region.OpenFile("heap.img", 0)
//	dt := dirty.NewTracker(r)
//	a, _ := alloc.New(r, dt, nil)
//
//	p, _ := a.Alloc(128)
//	copy(a.Payload(p), data)
//	dt.Add(int(p), len(data)) // payload writes are the caller's to report
//
//	_ = dt.Flush(ctx, dirty.FlushAuto)
//
// # Page-Level Granularity
//
// Ranges are rounded out to OS page boundaries and merged when they touch:
//
//	Add(100, 200), Add(4096, 10) → [0x0000-0x2000)
//
// # Thread Safety
//
// Tracker instances are not thread-safe. They are owned by the same caller
// that serializes the allocator.
package dirty
