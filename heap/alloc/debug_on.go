//go:build heapdebug

package alloc

import "fmt"

// debugHeap is set in heapdebug builds.
const debugHeap = true

// debugCheckLive panics if bp does not name a live allocated block.
func (a *Allocator) debugCheckLive(bp int) {
	if err := a.CheckPtr(Ptr(bp)); err != nil {
		panic(fmt.Errorf("%w: %w", ErrCorrupt, err))
	}
}

// debugCheckHeap panics on the first heap invariant violation.
func (a *Allocator) debugCheckHeap() {
	if err := a.Check(); err != nil {
		panic(err)
	}
}
