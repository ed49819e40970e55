// Package chrootfs implements the chroot confinement overlay of spec
// §4.9: every path is clamped to a base subtree of the wrapped
// filesystem before being translated and delegated, so "/.." can never
// walk above the confined root, grounded in its path-translation shape
// on avfs-avfs/vfs/basepathfs's toBasePath/fromBasePath/restoreError.
package chrootfs

import (
	"io/fs"
	"strings"
	"time"

	"github.com/lesomnus/vfs-sub000"
)

// FS confines every operation to the subtree of base rooted at basePath.
type FS struct {
	base     virtfs.VFS
	basePath string
	curDir   string
}

// New confines base to the subtree rooted at basePath, which must
// already exist in base as a directory.
func New(base virtfs.VFS, basePath string) (*FS, error) {
	info, err := base.Status(basePath)
	if err != nil {
		return nil, virtfs.NewError("chroot", basePath, err)
	}

	if !info.IsDir() {
		return nil, virtfs.NewError("chroot", basePath, virtfs.ErrNotADirectory)
	}

	return &FS{base: base, basePath: virtfs.LexicallyNormal(basePath), curDir: "/"}, nil
}

// chrootPath returns name as an absolute path within the chroot
// namespace, clamped so it can never climb above "/" (spec §4.9's
// "containment"). A relative name is joined against the chroot's own
// current directory, never base's.
func (c *FS) chrootPath(name string) string {
	if virtfs.IsAbs(name) {
		return virtfs.LexicallyNormal(name)
	}

	return virtfs.Join(c.curDir, name)
}

// real translates a chroot-relative path into base's own namespace.
func (c *FS) real(name string) string {
	return virtfs.Join(c.basePath, strings.TrimPrefix(c.chrootPath(name), "/"))
}

// restore undoes real on a path reported back by base, so errors and
// canonicalized results are expressed in chroot-relative terms.
func (c *FS) restore(realPath string) string {
	rel := strings.TrimPrefix(realPath, c.basePath)
	if rel == "" {
		return "/"
	}

	return rel
}

func (c *FS) translateErr(err error) error {
	fsErr, ok := err.(*virtfs.Error) //nolint:errorlint // rewriting our own carrier type's paths.
	if !ok {
		return err
	}

	translated := &virtfs.Error{Op: fsErr.Op, Err: fsErr.Err}

	if strings.HasPrefix(fsErr.Path1, c.basePath) {
		translated.Path1 = c.restore(fsErr.Path1)
	} else {
		translated.Path1 = fsErr.Path1
	}

	if fsErr.Path2 != "" {
		if strings.HasPrefix(fsErr.Path2, c.basePath) {
			translated.Path2 = c.restore(fsErr.Path2)
		} else {
			translated.Path2 = fsErr.Path2
		}
	}

	return translated
}

func (c *FS) OpenRead(name string, opts virtfs.OpenOptions) (virtfs.File, error) {
	f, err := c.base.OpenRead(c.real(name), opts)
	return f, c.translateErr(err)
}

func (c *FS) OpenWrite(name string, opts virtfs.OpenOptions) (virtfs.File, error) {
	f, err := c.base.OpenWrite(c.real(name), opts)
	return f, c.translateErr(err)
}

func (c *FS) Create(name string) (virtfs.File, error) {
	f, err := c.base.Create(c.real(name))
	return f, c.translateErr(err)
}

func (c *FS) Canonical(name string) (string, error) {
	p, err := c.base.Canonical(c.real(name))
	if err != nil {
		return "", c.translateErr(err)
	}

	return c.restore(p), nil
}

func (c *FS) WeaklyCanonical(name string) (string, error) {
	p, err := c.base.WeaklyCanonical(c.real(name))
	if err != nil {
		return "", c.translateErr(err)
	}

	return c.restore(p), nil
}

func (c *FS) Copy(src, dst string, opts virtfs.CopyOptions) error {
	return c.translateErr(c.base.Copy(c.real(src), c.real(dst), opts))
}

func (c *FS) CopyFile(src, dst string, opts virtfs.CopyOptions) (bool, error) {
	ok, err := c.base.CopyFile(c.real(src), c.real(dst), opts)
	return ok, c.translateErr(err)
}

func (c *FS) Mkdir(name string, perm fs.FileMode) error {
	return c.translateErr(c.base.Mkdir(c.real(name), perm))
}

func (c *FS) MkdirAll(name string, perm fs.FileMode) error {
	return c.translateErr(c.base.MkdirAll(c.real(name), perm))
}

func (c *FS) Link(oldname, newname string) error {
	return c.translateErr(c.base.Link(c.real(oldname), c.real(newname)))
}

func (c *FS) Symlink(oldname, newname string) error {
	// oldname is stored verbatim, unresolved (spec §3): it is not
	// translated, matching a real chroot's symlink semantics where the
	// target is whatever string the caller gave.
	return c.translateErr(c.base.Symlink(oldname, c.real(newname)))
}

func (c *FS) ReadLink(name string) (string, error) {
	target, err := c.base.ReadLink(c.real(name))
	return target, c.translateErr(err)
}

func (c *FS) CurrentPath() string { return c.curDir }

func (c *FS) ChangeCurrentPath(name string) (virtfs.VFS, error) {
	path := c.chrootPath(name)

	info, err := c.base.Status(c.real(path))
	if err != nil {
		return nil, c.translateErr(err)
	}

	if !info.IsDir() {
		return nil, virtfs.NewError("chdir", name, virtfs.ErrNotADirectory)
	}

	return &FS{base: c.base, basePath: c.basePath, curDir: path}, nil
}

func (c *FS) Equivalent(p1, p2 string) (bool, error) {
	return c.base.Equivalent(c.real(p1), c.real(p2))
}

func (c *FS) FileSize(name string) (int64, error) {
	n, err := c.base.FileSize(c.real(name))
	return n, c.translateErr(err)
}

func (c *FS) HardLinkCount(name string) (int, error) {
	n, err := c.base.HardLinkCount(c.real(name))
	return n, c.translateErr(err)
}

func (c *FS) LastWriteTime(name string) (time.Time, error) {
	t, err := c.base.LastWriteTime(c.real(name))
	return t, c.translateErr(err)
}

func (c *FS) SetLastWriteTime(name string, t time.Time) error {
	return c.translateErr(c.base.SetLastWriteTime(c.real(name), t))
}

func (c *FS) ResizeFile(name string, size int64) error {
	return c.translateErr(c.base.ResizeFile(c.real(name), size))
}

func (c *FS) Status(name string) (fs.FileInfo, error) {
	info, err := c.base.Status(c.real(name))
	return info, c.translateErr(err)
}

func (c *FS) SymlinkStatus(name string) (fs.FileInfo, error) {
	info, err := c.base.SymlinkStatus(c.real(name))
	return info, c.translateErr(err)
}

func (c *FS) TempDirectoryPath() string { return "/tmp" }

func (c *FS) Permissions(name string, perm fs.FileMode, opts virtfs.PermOptions) error {
	return c.translateErr(c.base.Permissions(c.real(name), perm, opts))
}

func (c *FS) Remove(name string) (bool, error) {
	ok, err := c.base.Remove(c.real(name))
	return ok, c.translateErr(err)
}

func (c *FS) RemoveAll(name string) (int, error) {
	n, err := c.base.RemoveAll(c.real(name))
	return n, c.translateErr(err)
}

func (c *FS) Rename(src, dst string) error {
	return c.translateErr(c.base.Rename(c.real(src), c.real(dst)))
}

func (c *FS) IsEmpty(name string) (bool, error) {
	ok, err := c.base.IsEmpty(c.real(name))
	return ok, c.translateErr(err)
}

func (c *FS) ReadDir(name string) (virtfs.Cursor, error) {
	cur, err := c.base.ReadDir(c.real(name))
	return cur, c.translateErr(err)
}

func (c *FS) WalkDir(name string, opts virtfs.WalkOptions) (virtfs.RecursiveCursor, error) {
	cur, err := c.base.WalkDir(c.real(name), opts)
	return cur, c.translateErr(err)
}

var _ virtfs.VFS = (*FS)(nil)
