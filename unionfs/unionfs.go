// Package unionfs implements the copy-on-write union overlay of spec
// §4.7: an upper, mutable filesystem shadows a lower, immutable one.
// Every mutation lands on upper; a name removed from a union that still
// exists in lower is recorded in a per-directory hidden name set rather
// than actually destroyed in lower, so it stays invisible without
// requiring lower to support deletion at all.
package unionfs

import (
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/lesomnus/vfs-sub000"
)

// FS is the union of upper over lower.
type FS struct {
	upper virtfs.VFS
	lower virtfs.VFS

	curDir string

	mu        sync.RWMutex
	whiteouts map[string]map[string]struct{} // parent path -> hidden child names
}

// New unions upper (read-write) over lower (read-only from the union's
// point of view, even if the concrete type underneath is writable).
func New(upper, lower virtfs.VFS) *FS {
	return &FS{upper: upper, lower: lower, curDir: "/", whiteouts: make(map[string]map[string]struct{})}
}

func (u *FS) abs(name string) string {
	if virtfs.IsAbs(name) {
		return virtfs.LexicallyNormal(name)
	}

	return virtfs.Join(u.curDir, name)
}

func (u *FS) isWhited(parent, base string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()

	names, ok := u.whiteouts[parent]
	if !ok {
		return false
	}

	_, hidden := names[base]

	return hidden
}

func (u *FS) addWhiteout(parent, base string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.whiteouts[parent] == nil {
		u.whiteouts[parent] = make(map[string]struct{})
	}

	u.whiteouts[parent][base] = struct{}{}
}

func (u *FS) clearWhiteout(parent, base string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if names, ok := u.whiteouts[parent]; ok {
		delete(names, base)
	}
}

// anchor materializes name's parent chain in upper, copying directory
// shape (not content) down from lower as needed, so a write below a
// directory that so far exists only in lower has somewhere to land
// (spec §4.7's lazy anchoring).
func (u *FS) anchor(name string) error {
	parent := virtfs.Dir(name)
	if parent == "/" {
		return nil
	}

	if info, err := u.upper.Status(parent); err == nil && info.IsDir() {
		return nil
	}

	if err := u.anchor(parent); err != nil {
		return err
	}

	perm := virtfs.DefaultDirPerm
	if info, err := u.lower.Status(parent); err == nil {
		perm = info.Mode().Perm()
	}

	if err := u.upper.Mkdir(parent, perm); err != nil {
		if fsErr, ok := err.(*virtfs.Error); !ok || fsErr.Err != virtfs.ErrFileExists { //nolint:errorlint
			return err
		}
	}

	return nil
}

// statLayer finds name, respecting the whiteout set, and reports which
// layer it was found in: 0 for upper, 1 for lower.
func (u *FS) statLayer(name string, lstat bool) (fs.FileInfo, int, error) {
	abs := u.abs(name)
	parent, base := virtfs.Dir(abs), virtfs.Base(abs)

	if u.isWhited(parent, base) {
		return nil, 0, virtfs.NewError("stat", name, virtfs.ErrNoSuchFileOrDir)
	}

	statFn := func(v virtfs.VFS) (fs.FileInfo, error) {
		if lstat {
			return v.SymlinkStatus(abs)
		}

		return v.Status(abs)
	}

	if info, err := statFn(u.upper); err == nil {
		return info, 0, nil
	}

	if info, err := statFn(u.lower); err == nil {
		return info, 1, nil
	}

	return nil, 0, virtfs.NewError("stat", name, virtfs.ErrNoSuchFileOrDir)
}

func (u *FS) OpenRead(name string, opts virtfs.OpenOptions) (virtfs.File, error) {
	abs := u.abs(name)
	parent, base := virtfs.Dir(abs), virtfs.Base(abs)

	if u.isWhited(parent, base) {
		return nil, virtfs.NewError("open", name, virtfs.ErrNoSuchFileOrDir)
	}

	if f, err := u.upper.OpenRead(abs, opts); err == nil {
		return f, nil
	}

	return u.lower.OpenRead(abs, opts)
}

func (u *FS) OpenWrite(name string, opts virtfs.OpenOptions) (virtfs.File, error) {
	abs := u.abs(name)

	if err := u.anchor(abs); err != nil {
		return nil, virtfs.NewError("open", name, err)
	}

	// A file visible only through lower has to be copied up before a
	// non-truncating write, or the lower content would be lost under
	// the fresh, empty file upper would otherwise open.
	if !opts.Truncate {
		if _, layer, err := u.statLayer(name, false); err == nil && layer == 1 {
			if _, err := u.CopyFile(name, name, virtfs.CopyOverwriteExisting); err != nil {
				return nil, err
			}
		}
	}

	f, err := u.upper.OpenWrite(abs, opts)
	if err != nil {
		return nil, err
	}

	u.clearWhiteout(virtfs.Dir(abs), virtfs.Base(abs))

	return f, nil
}

func (u *FS) Create(name string) (virtfs.File, error) {
	return u.OpenWrite(name, virtfs.OpenOptions{Truncate: true})
}

func (u *FS) Canonical(name string) (string, error) {
	if info, _, err := u.statLayer(name, true); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		target, rerr := u.ReadLink(name)
		if rerr == nil {
			return u.Canonical(target)
		}
	}

	abs := u.abs(name)
	if _, _, err := u.statLayer(name, false); err != nil {
		return "", err
	}

	return abs, nil
}

func (u *FS) WeaklyCanonical(name string) (string, error) {
	if _, _, err := u.statLayer(name, false); err == nil {
		return u.abs(name), nil
	}

	parent := virtfs.Dir(u.abs(name))

	resolved, err := u.WeaklyCanonical(parent)
	if err != nil {
		return "", err
	}

	return virtfs.Join(resolved, virtfs.Base(u.abs(name))), nil
}

func (u *FS) Copy(src, dst string, opts virtfs.CopyOptions) error {
	return virtfs.Copy(u, u, dst, src, opts)
}

func (u *FS) CopyFile(src, dst string, opts virtfs.CopyOptions) (bool, error) {
	absDst := u.abs(dst)

	if dstInfo, _, err := u.statLayer(dst, false); err == nil {
		srcInfo, _, serr := u.statLayer(src, false)
		if serr != nil {
			return false, virtfs.NewLinkError("copy_file", src, dst, serr)
		}

		switch {
		case opts.Has(virtfs.CopySkipExisting):
			return false, nil
		case opts.Has(virtfs.CopyUpdateExisting):
			if !virtfs.CopyFileUpdatePolicy(srcInfo.ModTime(), dstInfo.ModTime()) {
				return false, nil
			}
		case opts.Has(virtfs.CopyOverwriteExisting):
		default:
			return false, virtfs.NewLinkError("copy_file", src, dst, virtfs.ErrFileExists)
		}
	}

	if err := u.anchor(absDst); err != nil {
		return false, err
	}

	r, err := u.OpenRead(src, virtfs.OpenOptions{})
	if err != nil {
		return false, err
	}
	defer r.Close()

	w, err := u.upper.OpenWrite(absDst, virtfs.OpenOptions{Truncate: true})
	if err != nil {
		return false, err
	}

	buf := make([]byte, 32*1024)

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				w.Close()
				return false, virtfs.NewLinkError("copy_file", src, dst, werr)
			}
		}

		if rerr != nil {
			break
		}
	}

	if err := w.Close(); err != nil {
		return false, err
	}

	u.clearWhiteout(virtfs.Dir(absDst), virtfs.Base(absDst))

	return true, nil
}

func (u *FS) Mkdir(name string, perm fs.FileMode) error {
	abs := u.abs(name)

	if _, _, err := u.statLayer(name, true); err == nil {
		return virtfs.NewError("mkdir", name, virtfs.ErrFileExists)
	}

	if err := u.anchor(abs); err != nil {
		return err
	}

	if err := u.upper.Mkdir(abs, perm); err != nil {
		return err
	}

	u.clearWhiteout(virtfs.Dir(abs), virtfs.Base(abs))

	return nil
}

func (u *FS) MkdirAll(name string, perm fs.FileMode) error {
	abs := u.abs(name)

	if info, _, err := u.statLayer(name, true); err == nil {
		if !info.IsDir() {
			return virtfs.NewError("mkdir_all", name, virtfs.ErrNotADirectory)
		}

		return nil
	}

	if err := u.anchor(abs); err != nil {
		return err
	}

	if err := u.upper.MkdirAll(abs, perm); err != nil {
		return err
	}

	u.clearWhiteout(virtfs.Dir(abs), virtfs.Base(abs))

	return nil
}

func (u *FS) Link(oldname, newname string) error {
	return virtfs.NewLinkError("link", oldname, newname, fmt.Errorf("%w: hard links across union layers", virtfs.ErrInvalidArgument))
}

func (u *FS) Symlink(oldname, newname string) error {
	abs := u.abs(newname)

	if err := u.anchor(abs); err != nil {
		return err
	}

	if err := u.upper.Symlink(oldname, abs); err != nil {
		return err
	}

	u.clearWhiteout(virtfs.Dir(abs), virtfs.Base(abs))

	return nil
}

func (u *FS) ReadLink(name string) (string, error) {
	abs := u.abs(name)
	parent, base := virtfs.Dir(abs), virtfs.Base(abs)

	if u.isWhited(parent, base) {
		return "", virtfs.NewError("readlink", name, virtfs.ErrNoSuchFileOrDir)
	}

	if target, err := u.upper.ReadLink(abs); err == nil {
		return target, nil
	}

	return u.lower.ReadLink(abs)
}

func (u *FS) CurrentPath() string { return u.curDir }

func (u *FS) ChangeCurrentPath(name string) (virtfs.VFS, error) {
	abs := u.abs(name)

	info, _, err := u.statLayer(name, true)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, virtfs.NewError("chdir", name, virtfs.ErrNotADirectory)
	}

	return &FS{upper: u.upper, lower: u.lower, curDir: abs, whiteouts: u.whiteouts, mu: sync.RWMutex{}}, nil
}

func (u *FS) Equivalent(p1, p2 string) (bool, error) {
	i1, _, err1 := u.statLayer(p1, false)
	i2, _, err2 := u.statLayer(p2, false)

	if err1 != nil && err2 != nil {
		return false, virtfs.NewLinkError("equivalent", p1, p2, virtfs.ErrNoSuchFileOrDir)
	}

	if err1 != nil || err2 != nil {
		return false, nil
	}

	return u.abs(p1) == u.abs(p2) || (i1.Sys() != nil && fmt.Sprint(i1.Sys()) == fmt.Sprint(i2.Sys())), nil
}

func (u *FS) FileSize(name string) (int64, error) {
	info, _, err := u.statLayer(name, false)
	if err != nil {
		return 0, err
	}

	return info.Size(), nil
}

func (u *FS) HardLinkCount(name string) (int, error) {
	info, _, err := u.statLayer(name, false)
	if err != nil {
		return 0, err
	}

	if s, ok := info.Sys().(virtfs.SysStater); ok {
		return int(s.Nlink()), nil
	}

	return 1, nil
}

func (u *FS) LastWriteTime(name string) (time.Time, error) {
	info, _, err := u.statLayer(name, false)
	if err != nil {
		return time.Time{}, err
	}

	return info.ModTime(), nil
}

func (u *FS) SetLastWriteTime(name string, t time.Time) error {
	abs := u.abs(name)

	if err := u.anchor(abs); err != nil {
		return err
	}

	if _, layer, err := u.statLayer(name, false); err == nil && layer == 1 {
		if _, err := u.CopyFile(name, name, virtfs.CopyOverwriteExisting); err != nil {
			return err
		}
	}

	return u.upper.SetLastWriteTime(abs, t)
}

func (u *FS) ResizeFile(name string, size int64) error {
	abs := u.abs(name)

	if _, layer, err := u.statLayer(name, false); err == nil && layer == 1 {
		if _, err := u.CopyFile(name, name, virtfs.CopyOverwriteExisting); err != nil {
			return err
		}
	}

	return u.upper.ResizeFile(abs, size)
}

func (u *FS) Status(name string) (fs.FileInfo, error) {
	info, _, err := u.statLayer(name, false)
	return info, err
}

func (u *FS) SymlinkStatus(name string) (fs.FileInfo, error) {
	info, _, err := u.statLayer(name, true)
	return info, err
}

func (u *FS) TempDirectoryPath() string { return u.upper.TempDirectoryPath() }

func (u *FS) Permissions(name string, perm fs.FileMode, opts virtfs.PermOptions) error {
	abs := u.abs(name)

	if _, layer, err := u.statLayer(name, opts.NoFollow); err == nil && layer == 1 {
		if _, err := u.CopyFile(name, name, virtfs.CopyOverwriteExisting); err != nil {
			return err
		}
	}

	return u.upper.Permissions(abs, perm, opts)
}

// Remove removes name from the union. If it exists in upper, it is
// removed there; if it is (also) visible through lower, a whiteout
// records that it is gone, without ever touching lower (spec §4.7: the
// file "becomes inaccessible", not necessarily destroyed).
func (u *FS) Remove(name string) (bool, error) {
	abs := u.abs(name)
	parent, base := virtfs.Dir(abs), virtfs.Base(abs)

	if info, _, err := u.statLayer(name, true); err == nil && info.IsDir() {
		if empty, eerr := u.IsEmpty(name); eerr == nil && !empty {
			return false, virtfs.NewError("remove", name, virtfs.ErrDirNotEmpty)
		}
	}

	upperRemoved, uerr := u.upper.Remove(abs)
	if uerr != nil {
		return false, uerr
	}

	_, lerr := u.lower.Status(abs)
	visibleInLower := lerr == nil && !u.isWhited(parent, base)

	if visibleInLower {
		u.addWhiteout(parent, base)
	}

	return upperRemoved || visibleInLower, nil
}

func (u *FS) RemoveAll(name string) (int, error) {
	abs := u.abs(name)
	parent, base := virtfs.Dir(abs), virtfs.Base(abs)

	upperCount, uerr := u.upper.RemoveAll(abs)
	if uerr != nil {
		return upperCount, uerr
	}

	if _, lerr := u.lower.Status(abs); lerr == nil && !u.isWhited(parent, base) {
		u.addWhiteout(parent, base)

		if upperCount == 0 {
			upperCount = 1
		}
	}

	return upperCount, nil
}

func (u *FS) Rename(src, dst string) error {
	absSrc, absDst := u.abs(src), u.abs(dst)

	if _, layer, err := u.statLayer(src, false); err == nil && layer == 1 {
		if _, err := u.CopyFile(src, src, virtfs.CopyOverwriteExisting); err != nil {
			return virtfs.NewLinkError("rename", src, dst, err)
		}
	}

	if err := u.anchor(absDst); err != nil {
		return virtfs.NewLinkError("rename", src, dst, err)
	}

	if err := u.upper.Rename(absSrc, absDst); err != nil {
		return err
	}

	srcParent, srcBase := virtfs.Dir(absSrc), virtfs.Base(absSrc)
	if _, lerr := u.lower.Status(absSrc); lerr == nil {
		u.addWhiteout(srcParent, srcBase)
	}

	u.clearWhiteout(virtfs.Dir(absDst), virtfs.Base(absDst))

	return nil
}

func (u *FS) IsEmpty(name string) (bool, error) {
	cur, err := u.ReadDir(name)
	if err != nil {
		return false, err
	}
	defer cur.Close()

	return cur.AtEnd(), nil
}

func (u *FS) ReadDir(name string) (virtfs.Cursor, error) {
	abs := u.abs(name)

	entries := make(map[string]virtfs.DirEntry)

	if cur, err := u.lower.ReadDir(abs); err == nil {
		for !cur.AtEnd() {
			e := cur.Value()
			if !u.isWhited(abs, e.Name()) {
				entries[e.Name()] = e
			}

			cur.Increment()
		}

		cur.Close()
	}

	if cur, err := u.upper.ReadDir(abs); err == nil {
		for !cur.AtEnd() {
			e := cur.Value()
			entries[e.Name()] = e
			cur.Increment()
		}

		cur.Close()
	} else if len(entries) == 0 {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}

	return newUnionCursor(names, entries), nil
}

func (u *FS) WalkDir(name string, opts virtfs.WalkOptions) (virtfs.RecursiveCursor, error) {
	return newUnionRecursiveCursor(u, u.abs(name), opts)
}

var _ virtfs.VFS = (*FS)(nil)
