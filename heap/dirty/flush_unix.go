//go:build unix && !darwin

package dirty

import "golang.org/x/sys/unix"

// flushRanges msyncs each coalesced range. The mapping base is page-aligned,
// so page-aligned offsets give page-aligned addresses.
func (t *Tracker) flushRanges(data []byte) error {
	for _, r := range t.coalesce() {
		start := int(r.Off)
		end := min(int(r.End()), len(data))
		if start >= end {
			continue
		}
		if err := unix.Msync(data[start:end], unix.MS_SYNC); err != nil {
			return err
		}
	}
	return nil
}

// fdatasync syncs file data. fullfsync is a macOS concept and is ignored here.
func fdatasync(m Mapping, _ bool) error {
	fd := m.FD()
	if fd < 0 {
		return nil
	}
	return unix.Fdatasync(fd)
}
