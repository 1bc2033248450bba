package dirty

// DirtyTracker is the minimal interface for tracking dirty (modified) byte ranges.
// The allocator only needs to notify about dirty regions; flushing belongs to
// whoever owns the tracker.
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	// off is the offset from the start of the heap, length is the number of bytes.
	Add(off, length int)
}

// Mapping is the view of a file-backed region the tracker flushes through.
// region.File satisfies it.
type Mapping interface {
	Bytes() []byte
	FD() int
}
