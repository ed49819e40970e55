package memfs

import (
	"io/fs"
	"sync"
	"time"

	"github.com/lesomnus/vfs-sub000"
)

// nodeKind distinguishes the three file kinds spec §3 recognizes.
type nodeKind int

const (
	kindRegular nodeKind = iota
	kindDirectory
	kindSymlink
)

// node is the owning representation of a file: the tree of nodes forms
// the DAG described in spec §3 ("Node"), reachable from one or more
// directories through hard links. Resolution never walks node pointers
// directly; it walks entry values (see entry.go), which is what keeps a
// directory from ever becoming its own ancestor.
type node interface {
	kind() nodeKind
	mode() fs.FileMode
	setMode(m fs.FileMode)
	owner() (uid, gid int)
	setOwner(uid, gid int)
	modTime() time.Time
	setModTime(t time.Time)
	size() int64

	lock()
	unlock()
	rlock()
	runlock()
}

// baseNode carries the metadata and the per-node lock common to every
// node kind (spec §5: "each node carries its own lock").
type baseNode struct {
	mu       sync.RWMutex
	modeBits fs.FileMode
	uid      int
	gid      int
	mtime    time.Time
}

func newBaseNode(kind fs.FileMode, perm fs.FileMode) baseNode {
	return baseNode{
		modeBits: kind | (perm & virtfs.FileModeMask),
		mtime:    time.Now(),
	}
}

func (b *baseNode) lock()    { b.mu.Lock() }
func (b *baseNode) unlock()  { b.mu.Unlock() }
func (b *baseNode) rlock()   { b.mu.RLock() }
func (b *baseNode) runlock() { b.mu.RUnlock() }

func (b *baseNode) mode() fs.FileMode { return b.modeBits }

func (b *baseNode) setMode(m fs.FileMode) {
	b.modeBits = (b.modeBits &^ virtfs.FileModeMask) | (m & virtfs.FileModeMask)
}

func (b *baseNode) owner() (int, int) { return b.uid, b.gid }

func (b *baseNode) setOwner(uid, gid int) {
	if uid >= 0 {
		b.uid = uid
	}

	if gid >= 0 {
		b.gid = gid
	}
}

func (b *baseNode) modTime() time.Time     { return b.mtime }
func (b *baseNode) setModTime(t time.Time) { b.mtime = t }

// fileNode is a regular file: bytes owned by a storage policy backing,
// counted by the number of directory entries that name it (spec §3's
// "Hard link"). It is destroyed, and its backing released, only when
// that count reaches zero.
type fileNode struct {
	baseNode

	backing regularBacking
	nlink   int
}

func newFileNode(policy StoragePolicy, perm fs.FileMode) *fileNode {
	return &fileNode{
		baseNode: newBaseNode(0, perm),
		backing:  policy.MakeRegular(),
		nlink:    1,
	}
}

func (f *fileNode) kind() nodeKind { return kindRegular }
func (f *fileNode) size() int64   { return f.backing.Size() }

// linkAdd and linkRemove track the hard link count under the node's own
// lock; removeChildEntry in resolver.go (and removeChildEntryForce and
// removeAllUnder in memfs.go) call linkRemove and destroy the backing
// once it returns zero.
func (f *fileNode) linkAdd()     { f.nlink++ }
func (f *fileNode) linkRemove() int {
	f.nlink--
	return f.nlink
}

// dirNode is a directory: a name -> node map plus, for the union
// overlay, a parallel whiteout set recording names hidden from a lower
// layer (spec §4.7's "Hidden name set"). Plain memfs directories never
// populate hidden.
type dirNode struct {
	baseNode

	children map[string]node
	hidden   map[string]struct{}
}

func newDirNode(perm fs.FileMode) *dirNode {
	return &dirNode{
		baseNode: newBaseNode(fs.ModeDir, perm),
		children: make(map[string]node),
	}
}

func (d *dirNode) kind() nodeKind { return kindDirectory }
func (d *dirNode) size() int64    { return int64(len(d.children)) }

func (d *dirNode) child(name string) (node, bool) {
	n, ok := d.children[name]
	return n, ok
}

func (d *dirNode) addChild(name string, n node) {
	d.children[name] = n
	delete(d.hidden, name)
}

func (d *dirNode) removeChild(name string) {
	delete(d.children, name)
}

func (d *dirNode) hide(name string) {
	if d.hidden == nil {
		d.hidden = make(map[string]struct{})
	}

	d.hidden[name] = struct{}{}
}

func (d *dirNode) isHidden(name string) bool {
	_, ok := d.hidden[name]
	return ok
}

func (d *dirNode) names() []string {
	names := make([]string, 0, len(d.children))
	for name := range d.children {
		names = append(names, name)
	}

	return names
}

// symlinkNode is a symbolic link: a verbatim target string, never
// resolved at creation time (spec §3's "Symlink").
type symlinkNode struct {
	baseNode

	target string
}

func newSymlinkNode(target string) *symlinkNode {
	return &symlinkNode{
		baseNode: newBaseNode(fs.ModeSymlink, fs.FileMode(0o777)),
		target:   target,
	}
}

func (s *symlinkNode) kind() nodeKind { return kindSymlink }
func (s *symlinkNode) size() int64    { return int64(len(s.target)) }
