package alloc

import (
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// BlockIterator walks the heap from the first block after the prologue to
// the epilogue.
type BlockIterator struct {
	a   *Allocator
	bp  int
	err error
}

// Blocks returns an iterator over every block between prologue and epilogue.
// The iterator must not be used across calls that modify the heap.
func (a *Allocator) Blocks() *BlockIterator {
	return &BlockIterator{a: a, bp: a.firstBlock()}
}

// Next returns the next block, io.EOF at the epilogue, or a
// *CorruptionError if a tag cannot be trusted. Once an error is returned,
// every later call returns it too.
func (it *BlockIterator) Next() (Block, error) {
	if it.err != nil {
		return Block{}, it.err
	}
	data := it.a.data
	hdr := format.HeaderOff(it.bp)
	if !buf.Has(data, hdr, format.WordSize) {
		it.err = corruptf(hdr, "block header past end of heap (len %d)", len(data))
		return Block{}, it.err
	}

	size, allocated := format.Unpack(format.ReadTag(data, hdr))
	if size == 0 {
		it.err = io.EOF
		return Block{}, it.err
	}
	if size < format.MinBlockSize || !format.IsAligned(int(size)) {
		it.err = corruptf(hdr, "bad block size %d", size)
		return Block{}, it.err
	}
	if _, err := buf.CheckRange(len(data), hdr, int(size)); err != nil {
		it.err = corruptf(hdr, "block of %d bytes runs past heap: %v", size, err)
		return Block{}, it.err
	}

	b := Block{Ptr: Ptr(it.bp), Size: size, Allocated: allocated}
	it.bp += int(size)
	return b, nil
}

// Check walks the whole heap and reports every layout violation it finds,
// joined with errors.Join. Each violation is a *CorruptionError wrapping
// ErrCorrupt. A nil result means:
//
//   - the prologue and epilogue are intact and in place
//   - every block is aligned, at least MinBlockSize, and has header == footer
//   - no two adjacent blocks are free
//   - the blocks exactly cover the bytes added by extensions
//   - the rover points at a block
func (a *Allocator) Check() error {
	data := a.data
	if len(data) < format.InitialHeapSize {
		return corruptf(0, "heap too small: %d bytes", len(data))
	}

	var errs []error
	prologue := format.Pack(format.PrologueSize, true)
	if w := format.ReadTag(data, format.HeaderOff(a.heapStart)); w != prologue {
		errs = append(errs, corruptf(format.HeaderOff(a.heapStart), "prologue header 0x%x", w))
	}
	if w := format.ReadTag(data, a.heapStart); w != prologue {
		errs = append(errs, corruptf(a.heapStart, "prologue footer 0x%x", w))
	}

	var (
		sum        int
		prevFree   bool
		roverFound bool
		end        = a.firstBlock()
	)

	it := a.Blocks()
	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errs = append(errs, err)
			return errors.Join(errs...)
		}

		bp := int(b.Ptr)
		if !format.IsAligned(bp) {
			errs = append(errs, corruptf(bp, "payload not 8-aligned"))
		}
		if ftr := format.ReadTag(data, format.FooterOff(bp, b.Size)); ftr != format.Pack(b.Size, b.Allocated) {
			errs = append(errs, corruptf(format.FooterOff(bp, b.Size), "footer 0x%x does not match header (size %d)", ftr, b.Size))
		}
		if !b.Allocated && prevFree {
			errs = append(errs, corruptf(bp, "adjacent free blocks"))
		}
		if bp == a.rover {
			roverFound = true
		}
		prevFree = !b.Allocated
		sum += int(b.Size)
		end = bp + int(b.Size)
	}

	if epi := format.HeaderOff(end); epi != len(data)-format.WordSize {
		errs = append(errs, corruptf(epi, "epilogue at 0x%x, expected 0x%x", epi, len(data)-format.WordSize))
	}
	if w := format.ReadTag(data, len(data)-format.WordSize); w != format.Pack(0, true) {
		errs = append(errs, corruptf(len(data)-format.WordSize, "epilogue tag 0x%x", w))
	}
	if want := len(data) - format.InitialHeapSize; sum != want {
		errs = append(errs, corruptf(a.firstBlock(), "blocks cover %d bytes, heap extensions added %d", sum, want))
	}
	if !roverFound {
		errs = append(errs, corruptf(a.rover, "rover is not at a block start"))
	}

	return errors.Join(errs...)
}

// CheckPtr reports whether p names a live allocated block: inside the heap,
// 8-aligned, with an allocated header that matches its footer. It does not
// walk the heap, so a pointer into the middle of a payload that happens to
// look like a block is not caught.
func (a *Allocator) CheckPtr(p Ptr) error {
	bp := int(p)
	if p == Nil {
		return ErrNilPtr
	}
	if bp < a.firstBlock() || bp >= a.epilogue() {
		return fmt.Errorf("%w: 0x%x outside heap [0x%x, 0x%x)", ErrBadPtr, bp, a.firstBlock(), a.epilogue())
	}
	if !format.IsAligned(bp) {
		return fmt.Errorf("%w: 0x%x not 8-aligned", ErrBadPtr, bp)
	}
	size, allocated := format.Unpack(a.tag(bp))
	if !allocated {
		return fmt.Errorf("%w: 0x%x is not allocated", ErrBadPtr, bp)
	}
	if size < format.MinBlockSize || bp+int(size) > a.epilogue() {
		return corruptf(format.HeaderOff(bp), "bad block size %d", size)
	}
	if ftr := format.ReadTag(a.data, format.FooterOff(bp, size)); ftr != a.tag(bp) {
		return corruptf(format.FooterOff(bp, size), "footer 0x%x does not match header 0x%x", ftr, a.tag(bp))
	}
	return nil
}
