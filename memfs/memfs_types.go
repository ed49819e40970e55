// Package memfs implements the in-memory engine of this module: a tree
// of nodes rooted at "/", resolved through transient entries, backed by
// a pluggable storage policy (spec §3, §4.2, §4.3).
package memfs

import (
	"io/fs"
	"time"

	"github.com/lesomnus/vfs-sub000"
)

// FS is the facade type satisfying virtfs.VFS over an in-memory node
// tree (spec §4.2's "make_vfs" / "make_mem_fs"). ChangeCurrentPath
// returns a new FS that shares this one's tree (same root and mount
// table) but has a different curDir, which is how a "current directory
// handle" is modeled (spec §4.1).
type FS struct {
	root    *dirNode
	curDir  string
	policy  StoragePolicy
	tempDir string
	host    virtfs.HostIO

	mounts *mountTable
}

// NewMemFS builds a filesystem whose regular files are held entirely in
// memory (spec's make_mem_fs).
func NewMemFS() *FS {
	return newFS(memStoragePolicy{}, nil, "/tmp")
}

// NewVFS builds a filesystem whose regular files are spilled to
// host-backed temp files under tempDir, addressed through host (spec's
// make_vfs). A nil host is rejected by the first operation that needs
// one; pass an osfs-backed implementation in production code.
func NewVFS(host virtfs.HostIO, tempDir string) *FS {
	return newFS(newHostStoragePolicy(host, tempDir), host, tempDir)
}

func newFS(policy StoragePolicy, host virtfs.HostIO, tempDir string) *FS {
	root := newDirNode(virtfs.DefaultDirPerm)

	return &FS{
		root:    root,
		curDir:  "/",
		policy:  policy,
		tempDir: tempDir,
		host:    host,
		mounts:  newMountTable(),
	}
}

// MemInfo is the fs.FileInfo / fs.DirEntry this package returns from
// Status, SymlinkStatus, ReadDir and WalkDir.
type MemInfo struct {
	name string
	n    node
}

func newMemInfo(name string, n node) *MemInfo { return &MemInfo{name: name, n: n} }

func (i *MemInfo) Name() string { return i.name }
func (i *MemInfo) Size() int64  { return i.n.size() }

func (i *MemInfo) Mode() fs.FileMode {
	i.n.rlock()
	defer i.n.runlock()

	return i.n.mode()
}

func (i *MemInfo) ModTime() time.Time {
	i.n.rlock()
	defer i.n.runlock()

	return i.n.modTime()
}

func (i *MemInfo) IsDir() bool { return i.n.kind() == kindDirectory }
func (i *MemInfo) Sys() any    { return sysStat{n: i.n} }

// Type and Info satisfy fs.DirEntry.
func (i *MemInfo) Type() fs.FileMode          { return i.Mode().Type() }
func (i *MemInfo) Info() (fs.FileInfo, error) { return i, nil }

// sysStat is what fs.FileInfo.Sys() returns: virtfs.SysStater, reading
// straight through to the node under its own lock.
type sysStat struct {
	n node
}

func (s sysStat) Uid() int {
	s.n.rlock()
	defer s.n.runlock()

	uid, _ := s.n.owner()

	return uid
}

func (s sysStat) Gid() int {
	s.n.rlock()
	defer s.n.runlock()

	_, gid := s.n.owner()

	return gid
}

func (s sysStat) Nlink() uint64 {
	f, ok := s.n.(*fileNode)
	if !ok {
		return 1
	}

	f.rlock()
	defer f.runlock()

	return uint64(f.nlink)
}

var _ virtfs.SysStater = sysStat{}
