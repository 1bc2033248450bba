package alloc

import (
	"fmt"
	"sync"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Locked serializes every call on an Allocator behind one mutex.
//
// Payload slices are not handed out because another goroutine's Alloc may
// extend the heap and move it; Read and Write copy under the lock instead.
type Locked struct {
	mu sync.Mutex
	a  *Allocator
}

// NewLocked wraps a. The caller must not use a directly afterwards.
func NewLocked(a *Allocator) *Locked {
	return &Locked{a: a}
}

// Alloc is Allocator.Alloc under the lock.
func (l *Locked) Alloc(size int) (Ptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Alloc(size)
}

// Free is Allocator.Free under the lock.
func (l *Locked) Free(p Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.a.Free(p)
}

// Realloc is Allocator.Realloc under the lock.
func (l *Locked) Realloc(p Ptr, size int) (Ptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Realloc(p, size)
}

// Write copies src into the payload of p starting at off.
func (l *Locked) Write(p Ptr, off int, src []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	dst, err := l.window(p, off, len(src))
	if err != nil {
		return err
	}
	copy(dst, src)
	l.a.markDirty(int(p)+off, len(src))
	return nil
}

// Read copies len(dst) bytes from the payload of p starting at off.
func (l *Locked) Read(p Ptr, off int, dst []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	src, err := l.window(p, off, len(dst))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// Stats is Allocator.Stats under the lock.
func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Stats()
}

// Check is Allocator.Check under the lock.
func (l *Locked) Check() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Check()
}

// Do runs fn with exclusive access to the allocator. Slices obtained inside
// fn must not escape it.
func (l *Locked) Do(fn func(a *Allocator)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.a)
}

// window returns payload bytes [off, off+n) of p. Caller holds the lock.
func (l *Locked) window(p Ptr, off, n int) ([]byte, error) {
	payload := l.a.Payload(p)
	if payload == nil {
		return nil, fmt.Errorf("%w: 0x%x", ErrBadPtr, uint32(p))
	}
	b, ok := buf.Slice(payload, off, n)
	if !ok {
		return nil, fmt.Errorf("%w: range [%d, %d+%d) outside %d-byte payload", ErrBadPtr, off, off, n, len(payload))
	}
	return b, nil
}
