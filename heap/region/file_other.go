//go:build !unix

package region

import (
	"fmt"
	"os"
)

// File keeps the heap in memory on platforms without mmap and mirrors it to
// the file on Sync.
type File struct {
	f   *os.File
	mem *Memory
}

// OpenFile creates (or truncates) the file at path and returns an empty
// region over it. A limit <= 0 selects MaxLimit.
func OpenFile(path string, limit int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &File{f: f, mem: NewMemory(clampLimit(limit, MaxLimit))}, nil
}

// Extend grows the in-memory heap and the file by n bytes.
func (r *File) Extend(n int) (int, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	old, err := r.mem.Extend(n)
	if err != nil {
		return 0, err
	}
	if err := r.f.Truncate(int64(r.mem.Len())); err != nil {
		r.mem.data = r.mem.data[:old]
		return 0, fmt.Errorf("%w: truncate file: %v", ErrExhausted, err)
	}
	return old, nil
}

// Bytes returns the in-memory heap.
func (r *File) Bytes() []byte { return r.mem.Bytes() }

// Len returns the current heap size.
func (r *File) Len() int { return r.mem.Len() }

// FD returns -1; the heap is not mapped on this platform.
func (r *File) FD() int { return -1 }

// Sync writes the whole heap to the file.
func (r *File) Sync() error {
	if r.f == nil {
		return ErrClosed
	}
	if _, err := r.f.WriteAt(r.mem.Bytes(), 0); err != nil {
		return err
	}
	return r.f.Sync()
}

// Reset drops the heap and truncates the file.
func (r *File) Reset() error {
	if r.f == nil {
		return ErrClosed
	}
	_ = r.mem.Reset()
	return r.f.Truncate(0)
}

// Close closes the file. The file itself is kept.
func (r *File) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
