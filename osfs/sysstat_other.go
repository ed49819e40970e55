//go:build !unix

package osfs

import "io/fs"

// sysStatOf has no portable source of uid/gid/nlink outside unix; it
// reports the single-owner, single-link default.
func sysStatOf(info fs.FileInfo) any {
	return hostSysStat{}
}
