//go:build !unix

package osfs

// spaceAvailable has no portable implementation without cgo or a
// platform-specific syscall; it reports zero rather than guessing.
func spaceAvailable(path string) (uint64, error) {
	return 0, nil
}
