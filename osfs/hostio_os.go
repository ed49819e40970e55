// Package osfs implements the host-backed facade of this module: a
// virtfs.VFS that maps every operation directly onto the real operating
// system filesystem through a virtfs.HostIO collaborator, with no entry
// tree of its own (spec §4.2's host-backed note, grounded on
// avfs-avfs/vfs/osfs).
package osfs

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/lesomnus/vfs-sub000"
)

// stdHostIO is the production virtfs.HostIO, a thin pass-through to the
// os and path/filepath packages. It is the only place in this package
// that performs host filesystem I/O through os; osfs.go uses os only for
// open flags and os.SameFile.
type stdHostIO struct{}

// NewStdHostIO returns the virtfs.HostIO that talks to the real host
// filesystem.
func NewStdHostIO() virtfs.HostIO { return stdHostIO{} }

func (stdHostIO) Create(name string) (virtfs.RawFile, error) { return os.Create(name) }
func (stdHostIO) Open(name string) (virtfs.RawFile, error)   { return os.Open(name) }

func (stdHostIO) OpenFile(name string, flag int, perm fs.FileMode) (virtfs.RawFile, error) {
	return os.OpenFile(name, flag, perm)
}

func (stdHostIO) Remove(name string) error      { return os.Remove(name) }
func (stdHostIO) RemoveAll(path string) error   { return os.RemoveAll(path) }
func (stdHostIO) Rename(o, n string) error      { return os.Rename(o, n) }
func (stdHostIO) Mkdir(name string, perm fs.FileMode) error { return os.Mkdir(name, perm) }

func (stdHostIO) MkdirAll(path string, perm fs.FileMode) error { return os.MkdirAll(path, perm) }

func (stdHostIO) Stat(name string) (fs.FileInfo, error)  { return os.Stat(name) }
func (stdHostIO) Lstat(name string) (fs.FileInfo, error) { return os.Lstat(name) }
func (stdHostIO) Chmod(name string, mode fs.FileMode) error { return os.Chmod(name, mode) }
func (stdHostIO) Chown(name string, uid, gid int) error     { return os.Chown(name, uid, gid) }

func (stdHostIO) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}

func (stdHostIO) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (stdHostIO) Readlink(name string) (string, error)       { return os.Readlink(name) }
func (stdHostIO) Symlink(oldname, newname string) error      { return os.Symlink(oldname, newname) }
func (stdHostIO) Link(oldname, newname string) error         { return os.Link(oldname, newname) }

func (stdHostIO) CopyFile(src, dst string, overwrite bool) error {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flag |= os.O_EXCL
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, flag, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	buf := make([]byte, 32*1024)

	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
		}

		if rerr != nil {
			if rerr == io.EOF { //nolint:errorlint // os.File.Read returns io.EOF verbatim.
				break
			}

			return rerr
		}
	}

	return nil
}

func (stdHostIO) SpaceAvailable(path string) (uint64, error) {
	return spaceAvailable(path)
}

func (stdHostIO) CanonicalPath(name string) (string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", err
	}

	return filepath.EvalSymlinks(abs)
}

func (stdHostIO) TempDir() string { return os.TempDir() }

var _ virtfs.HostIO = stdHostIO{}
