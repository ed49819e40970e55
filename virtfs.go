// Package virtfs defines the interfaces, error kinds and path utilities
// shared by every filesystem implementation and overlay in this module:
// the in-memory engine (package memfs), the host-backed facade (package
// osfs) and the composition layer (packages rofs, chrootfs, unionfs).
package virtfs

import (
	"io"
	"io/fs"
	"time"
)

const (
	// PathSeparator is the character that separates path components.
	PathSeparator = '/'

	// DefaultDirPerm is the default permission bits for a directory.
	DefaultDirPerm = fs.FileMode(0o755)

	// DefaultFilePerm is the default permission bits for a regular file.
	DefaultFilePerm = fs.FileMode(0o644)

	// FileModeMask is the bitmask of the mode bits a file can carry.
	FileModeMask = fs.ModePerm | fs.ModeSticky | fs.ModeSetuid | fs.ModeSetgid

	// TempNameLen is the length of the random names given to host-spilled
	// regular file backings (see HostIO and the host-spilled storage
	// policy in package memfs).
	TempNameLen = 32
)

// VFS is the virtual filesystem interface. Every implementation (memfs.FS,
// osfs.FS) and every overlay (rofs.FS, chrootfs.FS, unionfs.FS) satisfies
// it; callers depend only on this interface, never on a concrete type.
type VFS interface {
	// OpenRead opens name for reading. On failure, it returns a non-nil
	// error; unlike an open(2)-style call, the returned value is never a
	// "failed" sentinel file — callers that previously relied on a failed
	// stream should check the error instead.
	OpenRead(name string, opts OpenOptions) (File, error)

	// OpenWrite opens or creates name for writing. If the tail component
	// is absent and its parent exists and is a directory, a new regular
	// file is created using the parent directory's storage policy.
	OpenWrite(name string, opts OpenOptions) (File, error)

	// Create is shorthand for OpenWrite(name, OpenOptions{Truncate: true}).
	Create(name string) (File, error)

	// Canonical returns the absolute, normalized path obtained by
	// resolving every symlink in name. name must exist.
	Canonical(name string) (string, error)

	// WeaklyCanonical resolves name as far as components exist and
	// lexically appends the non-existent remainder.
	WeaklyCanonical(name string) (string, error)

	// Copy copies src to dst according to opts (see CopyOptions).
	Copy(src, dst string, opts CopyOptions) error

	// CopyFile copies the regular file src to dst according to opts; it
	// reports whether a copy actually happened.
	CopyFile(src, dst string, opts CopyOptions) (bool, error)

	// Mkdir creates name as a new, empty directory using perm (before any
	// process-wide umask the implementation applies). The parent of name
	// must already exist.
	Mkdir(name string, perm fs.FileMode) error

	// MkdirAll creates name and any missing parents using perm.
	MkdirAll(name string, perm fs.FileMode) error

	// Link creates newname as a hard link to the file named oldname.
	Link(oldname, newname string) error

	// Symlink creates newname as a symbolic link whose target is
	// oldname, stored verbatim (not resolved, and not required to
	// exist).
	Symlink(oldname, newname string) error

	// ReadLink returns the verbatim target of the symbolic link named
	// name.
	ReadLink(name string) (string, error)

	// CurrentPath returns the path of the current working directory.
	CurrentPath() string

	// ChangeCurrentPath returns a handle sharing this filesystem's tree
	// but whose current directory is name, which must resolve to an
	// existing directory.
	ChangeCurrentPath(name string) (VFS, error)

	// Equivalent reports whether p1 and p2 resolve (after following any
	// symlink chain) to the same underlying file. If neither resolves,
	// it returns an error; if exactly one resolves, it returns
	// (false, nil).
	Equivalent(p1, p2 string) (bool, error)

	// FileSize returns the size in bytes of the regular file name
	// resolves to.
	FileSize(name string) (int64, error)

	// HardLinkCount returns the number of directory entries (hard links)
	// naming the file name resolves to.
	HardLinkCount(name string) (int, error)

	// LastWriteTime returns the last-write timestamp of name.
	LastWriteTime(name string) (time.Time, error)

	// SetLastWriteTime sets the last-write timestamp of name.
	SetLastWriteTime(name string, t time.Time) error

	// ResizeFile truncates or zero-extends the regular file name to size
	// bytes.
	ResizeFile(name string, size int64) error

	// Status returns the metadata of name, following any symlink chain.
	Status(name string) (fs.FileInfo, error)

	// SymlinkStatus returns the metadata of name without following a
	// trailing symlink.
	SymlinkStatus(name string) (fs.FileInfo, error)

	// TempDirectoryPath returns the filesystem's temporary directory.
	TempDirectoryPath() string

	// Permissions changes the permission bits of name per opts.
	Permissions(name string, perm fs.FileMode, opts PermOptions) error

	// Remove removes the empty directory or file name. It reports
	// whether anything was removed; it does not fail when name is
	// absent.
	Remove(name string) (bool, error)

	// RemoveAll recursively removes name and everything beneath it,
	// returning the number of files removed.
	RemoveAll(name string) (int, error)

	// Rename moves src to dst, see spec §4.4.2.
	Rename(src, dst string) error

	// IsEmpty reports whether name is an empty directory or a
	// zero-length regular file.
	IsEmpty(name string) (bool, error)

	// ReadDir returns a flat cursor over the children of name.
	ReadDir(name string) (Cursor, error)

	// WalkDir returns a recursive cursor rooted at name.
	WalkDir(name string, opts WalkOptions) (RecursiveCursor, error)
}

// File is a single open handle, returned by OpenRead/OpenWrite/Create. It
// is always either a read-only source or a write-only sink: read/write
// duality is not offered, matching spec §4.2's open_read/open_write split.
type File interface {
	io.Closer
	io.Reader
	io.Writer
	io.Seeker

	// Name returns the path the handle was opened with.
	Name() string
}

// OpenOptions carries the recognized options for OpenRead/OpenWrite (spec
// §4.2: {truncate, append, binary}). Binary is accepted for symmetry with
// the spec but never changes behavior: this module performs no text
// translation on any platform.
type OpenOptions struct {
	Truncate bool
	Append   bool
	Binary   bool
}

// PermOptions is the recognized option set for Permissions (spec §4.4).
type PermOptions struct {
	Replace  bool
	Add      bool
	Remove   bool
	NoFollow bool
}

// SysStater is the value returned by fs.FileInfo.Sys() on every
// filesystem in this module.
type SysStater interface {
	Uid() int
	Gid() int
	Nlink() uint64
}
