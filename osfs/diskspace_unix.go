//go:build unix

package osfs

import "syscall"

// spaceAvailable reports the bytes available to an unprivileged caller
// on the filesystem holding path, grounded on statfs(2) semantics.
func spaceAvailable(path string) (uint64, error) {
	var st syscall.Statfs_t

	if err := syscall.Statfs(path, &st); err != nil {
		return 0, err
	}

	return uint64(st.Bavail) * uint64(st.Bsize), nil //nolint:unconvert // Bsize's width varies by platform.
}
