package virtfs

import (
	"io/fs"
	"time"
)

// HostIO is the minimal collaborator through which this module reaches the
// real host filesystem (spec §6). It is consumed by the host-spilled
// storage policy (package memfs) and by the host-backed facade (package
// osfs). Nothing in this module performs host filesystem I/O through the
// os package outside an implementation of this interface, so tests can
// swap in a fake.
type HostIO interface {
	Create(name string) (RawFile, error)
	Open(name string) (RawFile, error)
	OpenFile(name string, flag int, perm fs.FileMode) (RawFile, error)
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldname, newname string) error
	Mkdir(name string, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	Chmod(name string, mode fs.FileMode) error
	Chown(name string, uid, gid int) error
	Chtimes(name string, atime, mtime time.Time) error
	ReadDir(name string) ([]fs.DirEntry, error)
	Readlink(name string) (string, error)
	Symlink(oldname, newname string) error
	Link(oldname, newname string) error
	CopyFile(src, dst string, overwrite bool) error
	SpaceAvailable(path string) (uint64, error)
	CanonicalPath(name string) (string, error)
	TempDir() string
}

// RawFile is the byte-stream handle returned by HostIO's Open/Create/
// OpenFile, matching spec §1's "out of scope" byte-level stream
// abstraction: any standard stream suffices, so this is exactly
// *os.File's usable surface.
type RawFile interface {
	Name() string
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Truncate(size int64) error
	Close() error
	Sync() error
}
