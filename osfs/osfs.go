package osfs

import (
	"io/fs"
	"os"
	"time"

	"github.com/lesomnus/vfs-sub000"
)

// hostSysStat is what Status/SymlinkStatus's fs.FileInfo.Sys() returns.
type hostSysStat struct {
	uid, gid int
	nlink    uint64
}

func (s hostSysStat) Uid() int      { return s.uid }
func (s hostSysStat) Gid() int      { return s.gid }
func (s hostSysStat) Nlink() uint64 { return max(s.nlink, 1) }

var _ virtfs.SysStater = hostSysStat{}

// hostInfo wraps a host fs.FileInfo so Sys() returns virtfs.SysStater
// instead of the platform-specific *syscall.Stat_t.
type hostInfo struct {
	fs.FileInfo
}

func (i hostInfo) Sys() any { return sysStatOf(i.FileInfo) }

// FS is the host-backed virtfs.VFS facade (spec §4.2): every operation
// is a thin translation onto host, with no node tree of its own. Mount
// support for a host-backed root comes from wrapping an *FS as the root
// of a memfs.FS mount table, not from this type implementing Mount
// itself.
type FS struct {
	host   virtfs.HostIO
	curDir string
}

// New builds a host-backed filesystem rooted at the real filesystem,
// starting in dir (which must already exist).
func New(host virtfs.HostIO, dir string) *FS {
	return &FS{host: host, curDir: dir}
}

func (o *FS) abs(name string) string {
	if virtfs.IsAbs(name) {
		return virtfs.LexicallyNormal(name)
	}

	return virtfs.Join(o.curDir, name)
}

type osFile struct {
	name string
	raw  virtfs.RawFile
}

func (f *osFile) Name() string                       { return f.name }
func (f *osFile) Read(p []byte) (int, error)          { return f.raw.Read(p) }
func (f *osFile) Write(p []byte) (int, error)         { return f.raw.Write(p) }
func (f *osFile) Seek(o int64, w int) (int64, error)  { return f.raw.Seek(o, w) }
func (f *osFile) Close() error                        { return f.raw.Close() }

var _ virtfs.File = (*osFile)(nil)

func (o *FS) OpenRead(name string, opts virtfs.OpenOptions) (virtfs.File, error) {
	raw, err := o.host.OpenFile(o.abs(name), os.O_RDONLY, 0)
	if err != nil {
		return nil, virtfs.NewError("open", name, err)
	}

	return &osFile{name: name, raw: raw}, nil
}

func (o *FS) OpenWrite(name string, opts virtfs.OpenOptions) (virtfs.File, error) {
	flag := os.O_WRONLY | os.O_CREATE

	switch {
	case opts.Append:
		flag |= os.O_APPEND
	case opts.Truncate:
		flag |= os.O_TRUNC
	}

	raw, err := o.host.OpenFile(o.abs(name), flag, virtfs.DefaultFilePerm)
	if err != nil {
		return nil, virtfs.NewError("open", name, err)
	}

	return &osFile{name: name, raw: raw}, nil
}

func (o *FS) Create(name string) (virtfs.File, error) {
	return o.OpenWrite(name, virtfs.OpenOptions{Truncate: true})
}

func (o *FS) Canonical(name string) (string, error) {
	p, err := o.host.CanonicalPath(o.abs(name))
	if err != nil {
		return "", virtfs.NewError("canonical", name, err)
	}

	return p, nil
}

func (o *FS) WeaklyCanonical(name string) (string, error) {
	full := o.abs(name)
	comps := splitComponents(full)

	for n := len(comps); n >= 0; n-- {
		prefix := "/" + joinSlash(comps[:n])

		if resolved, err := o.host.CanonicalPath(prefix); err == nil {
			if n == len(comps) {
				return resolved, nil
			}

			return virtfs.Join(resolved, joinSlash(comps[n:])), nil
		}
	}

	return "/", nil
}

func splitComponents(p string) []string {
	var out []string

	start := 0

	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			if i > start {
				out = append(out, p[start:i])
			}

			start = i + 1
		}
	}

	return out
}

func joinSlash(comps []string) string {
	out := ""

	for i, c := range comps {
		if i > 0 {
			out += "/"
		}

		out += c
	}

	return out
}

func (o *FS) Copy(src, dst string, opts virtfs.CopyOptions) error {
	return virtfs.Copy(o, o, dst, src, opts)
}

func (o *FS) CopyFile(src, dst string, opts virtfs.CopyOptions) (bool, error) {
	absSrc, absDst := o.abs(src), o.abs(dst)

	if dstInfo, err := o.host.Stat(absDst); err == nil {
		srcInfo, serr := o.host.Stat(absSrc)
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

		if err := o.host.CopyFile(absSrc, absDst, true); err != nil {
			return false, virtfs.NewLinkError("copy_file", src, dst, err)
		}

		return true, nil
	}

	if err := o.host.CopyFile(absSrc, absDst, false); err != nil {
		return false, virtfs.NewLinkError("copy_file", src, dst, err)
	}

	return true, nil
}

func (o *FS) Mkdir(name string, perm fs.FileMode) error {
	if err := o.host.Mkdir(o.abs(name), perm); err != nil {
		return virtfs.NewError("mkdir", name, err)
	}

	return nil
}

func (o *FS) MkdirAll(name string, perm fs.FileMode) error {
	if err := o.host.MkdirAll(o.abs(name), perm); err != nil {
		return virtfs.NewError("mkdir_all", name, err)
	}

	return nil
}

func (o *FS) Link(oldname, newname string) error {
	if err := o.host.Link(o.abs(oldname), o.abs(newname)); err != nil {
		return virtfs.NewLinkError("link", oldname, newname, err)
	}

	return nil
}

func (o *FS) Symlink(oldname, newname string) error {
	if err := o.host.Symlink(oldname, o.abs(newname)); err != nil {
		return virtfs.NewLinkError("symlink", oldname, newname, err)
	}

	return nil
}

func (o *FS) ReadLink(name string) (string, error) {
	target, err := o.host.Readlink(o.abs(name))
	if err != nil {
		return "", virtfs.NewError("readlink", name, err)
	}

	return target, nil
}

func (o *FS) CurrentPath() string { return o.curDir }

func (o *FS) ChangeCurrentPath(name string) (virtfs.VFS, error) {
	path, err := o.host.CanonicalPath(o.abs(name))
	if err != nil {
		return nil, virtfs.NewError("chdir", name, err)
	}

	info, err := o.host.Stat(path)
	if err != nil {
		return nil, virtfs.NewError("chdir", name, err)
	}

	if !info.IsDir() {
		return nil, virtfs.NewError("chdir", name, virtfs.ErrNotADirectory)
	}

	return &FS{host: o.host, curDir: path}, nil
}

func (o *FS) Equivalent(p1, p2 string) (bool, error) {
	i1, err1 := o.host.Stat(o.abs(p1))
	i2, err2 := o.host.Stat(o.abs(p2))

	if err1 != nil && err2 != nil {
		return false, virtfs.NewLinkError("equivalent", p1, p2, virtfs.ErrNoSuchFileOrDir)
	}

	if err1 != nil || err2 != nil {
		return false, nil
	}

	return os.SameFile(i1, i2), nil
}

func (o *FS) FileSize(name string) (int64, error) {
	info, err := o.host.Stat(o.abs(name))
	if err != nil {
		return 0, virtfs.NewError("file_size", name, err)
	}

	if info.IsDir() {
		return 0, virtfs.NewError("file_size", name, virtfs.ErrIsADirectory)
	}

	return info.Size(), nil
}

func (o *FS) HardLinkCount(name string) (int, error) {
	info, err := o.host.Stat(o.abs(name))
	if err != nil {
		return 0, virtfs.NewError("hard_link_count", name, err)
	}

	if s, ok := sysStatOf(info).(virtfs.SysStater); ok {
		return int(s.Nlink()), nil
	}

	return 1, nil
}

func (o *FS) LastWriteTime(name string) (time.Time, error) {
	info, err := o.host.Stat(o.abs(name))
	if err != nil {
		return time.Time{}, virtfs.NewError("last_write_time", name, err)
	}

	return info.ModTime(), nil
}

func (o *FS) SetLastWriteTime(name string, t time.Time) error {
	if err := o.host.Chtimes(o.abs(name), t, t); err != nil {
		return virtfs.NewError("last_write_time", name, err)
	}

	return nil
}

func (o *FS) ResizeFile(name string, size int64) error {
	raw, err := o.host.OpenFile(o.abs(name), os.O_WRONLY, 0)
	if err != nil {
		return virtfs.NewError("resize_file", name, err)
	}
	defer raw.Close()

	if err := raw.Truncate(size); err != nil {
		return virtfs.NewError("resize_file", name, err)
	}

	return nil
}

func (o *FS) Status(name string) (fs.FileInfo, error) {
	info, err := o.host.Stat(o.abs(name))
	if err != nil {
		return nil, virtfs.NewError("stat", name, err)
	}

	return hostInfo{info}, nil
}

func (o *FS) SymlinkStatus(name string) (fs.FileInfo, error) {
	info, err := o.host.Lstat(o.abs(name))
	if err != nil {
		return nil, virtfs.NewError("lstat", name, err)
	}

	return hostInfo{info}, nil
}

func (o *FS) TempDirectoryPath() string { return o.host.TempDir() }

func (o *FS) Permissions(name string, perm fs.FileMode, opts virtfs.PermOptions) error {
	abs := o.abs(name)

	current, err := o.host.Stat(abs)
	if err != nil {
		return virtfs.NewError("permissions", name, err)
	}

	next := perm

	switch {
	case opts.Add:
		next = current.Mode() | (perm & virtfs.FileModeMask)
	case opts.Remove:
		next = current.Mode() &^ (perm & virtfs.FileModeMask)
	}

	if err := o.host.Chmod(abs, next&virtfs.FileModeMask); err != nil {
		return virtfs.NewError("permissions", name, err)
	}

	return nil
}

func (o *FS) Remove(name string) (bool, error) {
	abs := o.abs(name)

	if _, err := o.host.Lstat(abs); err != nil {
		return false, nil
	}

	if err := o.host.Remove(abs); err != nil {
		return false, virtfs.NewError("remove", name, err)
	}

	return true, nil
}

func (o *FS) RemoveAll(name string) (int, error) {
	abs := o.abs(name)

	before, err := countTree(o.host, abs)
	if err != nil {
		return 0, nil //nolint:nilerr // absent path removes nothing, not an error.
	}

	if err := o.host.RemoveAll(abs); err != nil {
		return 0, virtfs.NewError("remove_all", name, err)
	}

	return before, nil
}

func countTree(host virtfs.HostIO, path string) (int, error) {
	info, err := host.Lstat(path)
	if err != nil {
		return 0, err
	}

	if !info.IsDir() {
		return 1, nil
	}

	entries, err := host.ReadDir(path)
	if err != nil {
		return 1, nil //nolint:nilerr // unreadable directory still counts as one entry.
	}

	total := 1

	for _, e := range entries {
		sub, err := countTree(host, virtfs.Join(path, e.Name()))
		if err == nil {
			total += sub
		}
	}

	return total, nil
}

func (o *FS) Rename(src, dst string) error {
	if err := o.host.Rename(o.abs(src), o.abs(dst)); err != nil {
		return virtfs.NewLinkError("rename", src, dst, err)
	}

	return nil
}

func (o *FS) IsEmpty(name string) (bool, error) {
	abs := o.abs(name)

	info, err := o.host.Stat(abs)
	if err != nil {
		return false, virtfs.NewError("is_empty", name, err)
	}

	if !info.IsDir() {
		return info.Size() == 0, nil
	}

	entries, err := o.host.ReadDir(abs)
	if err != nil {
		return false, virtfs.NewError("is_empty", name, err)
	}

	return len(entries) == 0, nil
}

func (o *FS) ReadDir(name string) (virtfs.Cursor, error) {
	abs := o.abs(name)

	entries, err := o.host.ReadDir(abs)
	if err != nil {
		return nil, virtfs.NewError("readdir", name, err)
	}

	return newHostCursor(entries), nil
}

func (o *FS) WalkDir(name string, opts virtfs.WalkOptions) (virtfs.RecursiveCursor, error) {
	abs := o.abs(name)

	if _, err := o.host.Stat(abs); err != nil {
		return nil, virtfs.NewError("walk", name, err)
	}

	return newHostRecursiveCursor(o.host, abs, opts), nil
}

var _ virtfs.VFS = (*FS)(nil)
