//go:build unix

package region

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is a Region backed by a file mapped MAP_SHARED. Growing the heap
// grows the file and remaps it; the mapping may move on every Extend.
type File struct {
	f     *os.File
	data  []byte
	size  int
	limit int
}

// OpenFile creates (or truncates) the file at path and returns an empty
// region over it. A limit <= 0 selects MaxLimit.
func OpenFile(path string, limit int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &File{f: f, limit: clampLimit(limit, MaxLimit)}, nil
}

// Extend grows the backing file by n bytes and remaps it.
// The new bytes are zero-initialized by the OS.
func (r *File) Extend(n int) (int, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrBadExtend, n)
	}
	old := r.size
	if n > r.limit-old {
		return 0, fmt.Errorf("%w: have %d, want %d more, limit %d", ErrExhausted, old, n, r.limit)
	}
	if n == 0 {
		return old, nil
	}
	newSize := old + n

	if err := r.unmap(); err != nil {
		return 0, fmt.Errorf("region: unmap before grow: %w", err)
	}

	if err := r.f.Truncate(int64(newSize)); err != nil {
		r.recover(old)
		return 0, fmt.Errorf("%w: truncate file: %v", ErrExhausted, err)
	}

	data, err := unix.Mmap(int(r.f.Fd()), 0, newSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = r.f.Truncate(int64(old))
		r.recover(old)
		return 0, fmt.Errorf("%w: remap after grow: %v", ErrExhausted, err)
	}

	r.data = data
	r.size = newSize
	return old, nil
}

// recover remaps the previous size after a failed grow.
func (r *File) recover(size int) {
	r.size = size
	if size == 0 {
		return
	}
	data, err := unix.Mmap(int(r.f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err == nil {
		r.data = data
	}
}

func (r *File) unmap() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}

// Bytes returns the current mapping.
func (r *File) Bytes() []byte { return r.data }

// Len returns the current file size.
func (r *File) Len() int { return r.size }

// FD returns the file descriptor, or -1 once closed.
func (r *File) FD() int {
	if r == nil || r.f == nil {
		return -1
	}
	return int(r.f.Fd())
}

// Sync flushes the whole mapping to disk.
func (r *File) Sync() error {
	if r.f == nil {
		return ErrClosed
	}
	if r.data == nil {
		return nil
	}
	return unix.Msync(r.data, unix.MS_SYNC)
}

// Reset unmaps the heap and truncates the file to zero bytes.
func (r *File) Reset() error {
	if r.f == nil {
		return ErrClosed
	}
	if err := r.unmap(); err != nil {
		return err
	}
	r.size = 0
	return r.f.Truncate(0)
}

// Close unmaps the heap and closes the file. The file itself is kept.
func (r *File) Close() error {
	var err error
	if uerr := r.unmap(); uerr != nil {
		err = uerr
	}
	if r.f != nil {
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
		r.f = nil
	}
	return err
}
