//go:build !unix

package dirty

import "github.com/joshuapare/heapkit/heap/region"

// flushRanges hands the whole heap to the region when it can persist itself;
// there is no mapping to msync on this platform.
func (t *Tracker) flushRanges(_ []byte) error {
	if s, ok := t.m.(region.Syncer); ok {
		return s.Sync()
	}
	return nil
}

func fdatasync(Mapping, bool) error { return nil }
