package format

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
//	Align8(16) = 16
func Align8(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// Align8U32 is the uint32 version of Align8, for tag arithmetic.
func Align8U32(n uint32) uint32 {
	return (n + AlignmentMask) & ^uint32(AlignmentMask)
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

// BlockSizeFor returns the aligned block size needed to hold a payload of n
// bytes, never less than MinBlockSize. ok is false when the block would not
// fit in a tag.
//
// Example:
//
//	BlockSizeFor(1)   = 16
//	BlockSizeFor(8)   = 16
//	BlockSizeFor(9)   = 24
//	BlockSizeFor(100) = 112
func BlockSizeFor(n int) (size uint32, ok bool) {
	if n < 0 || n > MaxBlockSize-Overhead-AlignmentMask {
		return 0, false
	}
	need := Align8(n + Overhead)
	if need < MinBlockSize {
		need = MinBlockSize
	}
	return uint32(need), true
}
