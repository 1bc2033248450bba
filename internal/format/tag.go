package format

// Boundary tag layout (one little-endian uint32):
//
//	bit  31 ............ 3   2   1   0
//	    [ block size >> 3 ][ r ][ r ][ a ]
//
// The size is always a multiple of 8, so its low three bits are free to carry
// flags. Only bit 0 (allocated) is used; bits 1 and 2 are reserved and always
// written as zero. Headers and footers use the same encoding.

// Pack encodes a block size and allocated flag into a tag word.
// size must be a multiple of Alignment; stray low bits are dropped.
func Pack(size uint32, allocated bool) uint32 {
	w := size & TagSizeMask
	if allocated {
		w |= TagAllocated
	}
	return w
}

// Unpack decodes a tag word into its block size and allocated flag.
func Unpack(w uint32) (size uint32, allocated bool) {
	return w & TagSizeMask, w&TagAllocated != 0
}

// TagSize returns the size field of a tag word.
func TagSize(w uint32) uint32 {
	return w & TagSizeMask
}

// TagAllocatedBit reports whether the allocated flag of a tag word is set.
func TagAllocatedBit(w uint32) bool {
	return w&TagAllocated != 0
}

// ReadTag reads the tag word at off.
func ReadTag(b []byte, off int) uint32 {
	return ReadU32(b, off)
}

// PutTag packs size and allocated and writes the tag word at off.
func PutTag(b []byte, off int, size uint32, allocated bool) {
	PutU32(b, off, Pack(size, allocated))
}

// HeaderOff returns the header offset of the block whose payload starts at bp.
func HeaderOff(bp int) int {
	return bp - WordSize
}

// FooterOff returns the footer offset of the block whose payload starts at bp
// and whose total size is size.
func FooterOff(bp int, size uint32) int {
	return bp + int(size) - DoubleWordSize
}
