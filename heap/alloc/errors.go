package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory indicates that the region could not be extended.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrBadSize indicates a negative size argument.
	ErrBadSize = errors.New("alloc: negative size")

	// ErrNilPtr indicates Realloc was called with Nil.
	ErrNilPtr = errors.New("alloc: nil pointer")

	// ErrBadPtr indicates a pointer that does not name a live block.
	ErrBadPtr = errors.New("alloc: bad pointer")

	// ErrCorrupt indicates the heap violates a layout invariant.
	ErrCorrupt = errors.New("alloc: heap corrupt")

	// ErrRegionInUse indicates New was handed a region that already holds bytes.
	ErrRegionInUse = errors.New("alloc: region not empty")
)

// CorruptionError describes one heap invariant violation.
type CorruptionError struct {
	Off    int    // region offset of the offending tag or block
	Reason string // what is wrong
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("alloc: heap corrupt at 0x%x: %s", e.Off, e.Reason)
}

// Unwrap lets errors.Is(err, ErrCorrupt) match.
func (e *CorruptionError) Unwrap() error { return ErrCorrupt }

func corruptf(off int, format string, args ...any) error {
	return &CorruptionError{Off: off, Reason: fmt.Sprintf(format, args...)}
}
