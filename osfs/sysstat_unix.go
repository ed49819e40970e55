//go:build unix

package osfs

import (
	"io/fs"
	"syscall"
)

// sysStatOf adapts a host fs.FileInfo's platform-specific Sys() value
// into virtfs.SysStater.
func sysStatOf(info fs.FileInfo) any {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return hostSysStat{}
	}

	return hostSysStat{uid: int(st.Uid), gid: int(st.Gid), nlink: uint64(st.Nlink)} //nolint:unconvert // Nlink's width varies by platform.
}
