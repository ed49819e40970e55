// Package rofs implements the read-only overlay of spec §4.9: every read
// passes straight through to the wrapped filesystem, every mutator
// refuses with virtfs.ErrReadOnlyFileSystem, grounded on
// avfs-avfs/vfs/rofs.
package rofs

import (
	"io/fs"
	"time"

	"github.com/lesomnus/vfs-sub000"
)

// FS wraps a virtfs.VFS and refuses every operation that could change
// it.
type FS struct {
	base virtfs.VFS
}

// New wraps base in a read-only view.
func New(base virtfs.VFS) *FS { return &FS{base: base} }

func (o *FS) OpenRead(name string, opts virtfs.OpenOptions) (virtfs.File, error) {
	return o.base.OpenRead(name, opts)
}

func (o *FS) OpenWrite(name string, opts virtfs.OpenOptions) (virtfs.File, error) {
	return nil, virtfs.NewError("open", name, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) Create(name string) (virtfs.File, error) {
	return nil, virtfs.NewError("open", name, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) Canonical(name string) (string, error) { return o.base.Canonical(name) }

func (o *FS) WeaklyCanonical(name string) (string, error) { return o.base.WeaklyCanonical(name) }

func (o *FS) Copy(src, dst string, opts virtfs.CopyOptions) error {
	return virtfs.NewLinkError("copy", src, dst, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) CopyFile(src, dst string, opts virtfs.CopyOptions) (bool, error) {
	return false, virtfs.NewLinkError("copy_file", src, dst, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) Mkdir(name string, perm fs.FileMode) error {
	return virtfs.NewError("mkdir", name, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) MkdirAll(name string, perm fs.FileMode) error {
	return virtfs.NewError("mkdir_all", name, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) Link(oldname, newname string) error {
	return virtfs.NewLinkError("link", oldname, newname, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) Symlink(oldname, newname string) error {
	return virtfs.NewLinkError("symlink", oldname, newname, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) ReadLink(name string) (string, error) { return o.base.ReadLink(name) }

func (o *FS) CurrentPath() string { return o.base.CurrentPath() }

func (o *FS) ChangeCurrentPath(name string) (virtfs.VFS, error) {
	next, err := o.base.ChangeCurrentPath(name)
	if err != nil {
		return nil, err
	}

	return &FS{base: next}, nil
}

func (o *FS) Equivalent(p1, p2 string) (bool, error) { return o.base.Equivalent(p1, p2) }
func (o *FS) FileSize(name string) (int64, error)    { return o.base.FileSize(name) }
func (o *FS) HardLinkCount(name string) (int, error) { return o.base.HardLinkCount(name) }

func (o *FS) LastWriteTime(name string) (time.Time, error) { return o.base.LastWriteTime(name) }

func (o *FS) SetLastWriteTime(name string, t time.Time) error {
	return virtfs.NewError("last_write_time", name, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) ResizeFile(name string, size int64) error {
	return virtfs.NewError("resize_file", name, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) Status(name string) (fs.FileInfo, error)        { return o.base.Status(name) }
func (o *FS) SymlinkStatus(name string) (fs.FileInfo, error) { return o.base.SymlinkStatus(name) }
func (o *FS) TempDirectoryPath() string                      { return o.base.TempDirectoryPath() }

func (o *FS) Permissions(name string, perm fs.FileMode, opts virtfs.PermOptions) error {
	return virtfs.NewError("permissions", name, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) Remove(name string) (bool, error) {
	return false, virtfs.NewError("remove", name, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) RemoveAll(name string) (int, error) {
	return 0, virtfs.NewError("remove_all", name, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) Rename(src, dst string) error {
	return virtfs.NewLinkError("rename", src, dst, virtfs.ErrReadOnlyFileSystem)
}

func (o *FS) IsEmpty(name string) (bool, error) { return o.base.IsEmpty(name) }

func (o *FS) ReadDir(name string) (virtfs.Cursor, error) { return o.base.ReadDir(name) }

func (o *FS) WalkDir(name string, opts virtfs.WalkOptions) (virtfs.RecursiveCursor, error) {
	return o.base.WalkDir(name, opts)
}

var _ virtfs.VFS = (*FS)(nil)
