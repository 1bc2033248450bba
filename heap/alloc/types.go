package alloc

import (
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/internal/format"
)

// Ptr is the region offset of a block's payload.
type Ptr uint32

// Nil is the zero Ptr. The heap begins with padding and the prologue, so no
// payload can ever start at offset 0.
const Nil Ptr = 0

// DirtyTracker is a type alias for the canonical interface defined in heap/dirty.
type DirtyTracker = dirty.DirtyTracker

// Config tunes an Allocator.
type Config struct {
	// Name labels log records from this allocator.
	Name string

	// ChunkSize is the minimum number of bytes requested from the region
	// when no free block fits. Rounded up to a multiple of 8.
	ChunkSize int
}

// DefaultConfig matches the classic lab allocator: 4 KiB extensions.
var DefaultConfig = Config{
	Name:      "heap",
	ChunkSize: format.DefaultChunkSize,
}

// normalize fills zero fields from DefaultConfig.
func (c Config) normalize() Config {
	if c.Name == "" {
		c.Name = DefaultConfig.Name
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultConfig.ChunkSize
	}
	c.ChunkSize = max(format.Align8(c.ChunkSize), format.MinBlockSize)
	if c.ChunkSize > format.MaxBlockSize {
		c.ChunkSize = format.MaxBlockSize
	}
	return c
}

// Block describes one block visited by a BlockIterator.
type Block struct {
	Ptr       Ptr    // payload offset
	Size      uint32 // total block size, tags included
	Allocated bool
}

// PayloadSize returns the usable bytes of the block.
func (b Block) PayloadSize() int { return int(b.Size) - format.Overhead }
