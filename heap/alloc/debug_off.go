//go:build !heapdebug

package alloc

// This file provides no-op debug hooks for non-debug builds.

const debugHeap = false

func (a *Allocator) debugCheckLive(int) {}

func (a *Allocator) debugCheckHeap() {}
