// Package format holds the on-heap layout of the allocator: word and
// alignment sizes, the boundary tag bit layout, and the little-endian word
// accessors used for every header and footer. Nothing in here knows about
// free lists or cursors; it only describes bytes.
package format

const (
	// WordSize is the size of a boundary tag (header or footer) in bytes.
	WordSize = 4

	// DoubleWordSize is the alignment unit of every block and payload.
	DoubleWordSize = 8

	// Alignment is the required alignment of block sizes and payload offsets.
	Alignment = DoubleWordSize

	// AlignmentMask is Alignment-1, used for rounding.
	AlignmentMask = Alignment - 1

	// Overhead is the per-block metadata cost: one header word and one footer word.
	Overhead = 2 * WordSize

	// MinBlockSize is the smallest legal block: header + footer + one alignment unit.
	// Remainders below this size are never split off (they would be splinters).
	MinBlockSize = 2 * DoubleWordSize

	// DefaultChunkSize is the default heap extension increment on a fit miss.
	DefaultChunkSize = 1 << 12

	// MaxBlockSize is the largest block the allocator will create. The tag
	// could carry up to 4 GiB, but offsets are kept within int32 range so heap
	// arithmetic never overflows on 32-bit platforms.
	MaxBlockSize = 0x7FFFFFF8

	// PrologueSize is the total size of the prologue block (header + footer, no payload).
	PrologueSize = DoubleWordSize

	// InitialHeapSize is what initialization asks the region for: the padding
	// word, the prologue header and footer, and the epilogue header.
	InitialHeapSize = 4 * WordSize
)

const (
	// TagAllocated is the allocated flag (bit 0).
	TagAllocated uint32 = 0x1

	// TagFlagMask covers the three low-order flag bits. Bits 1 and 2 are reserved.
	TagFlagMask uint32 = 0x7

	// TagSizeMask covers the size bits (3..31).
	TagSizeMask = ^TagFlagMask
)
