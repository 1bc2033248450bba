//go:build darwin

package dirty

import "golang.org/x/sys/unix"

// flushRanges flushes the whole mapping.
//
// msync on macOS wants the address the mapping started at, so sub-slices are
// not usable. The kernel only writes pages that are actually dirty.
func (t *Tracker) flushRanges(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}

// fdatasync uses F_FULLFSYNC when fullfsync is set, fsync otherwise
// (macOS has no fdatasync).
func fdatasync(m Mapping, fullfsync bool) error {
	fd := m.FD()
	if fd < 0 {
		return nil
	}
	if fullfsync {
		_, err := unix.FcntlInt(uintptr(fd), unix.F_FULLFSYNC, 0)
		return err
	}
	return unix.Fsync(fd)
}
