package memfs

import (
	"io/fs"
	"strings"

	"github.com/lesomnus/vfs-sub000"
)

// maxSymlinkDepth bounds the number of symlinks a single resolution may
// follow before giving up (spec §4.3's "too many symbolic links"),
// grounded on avfs-avfs/vfs/memfs's slCountMax.
const maxSymlinkDepth = 64

// resolveResult is what resolve produces: the parent directory entry and,
// if the named file exists, its own entry. When leaf is nil, name still
// carries the component that was looked for, so a caller that wants to
// create it has everything it needs.
type resolveResult struct {
	parent *entry
	leaf   *entry
	name   string
}

func splitComponents(path string) []string {
	if path == "" {
		return nil
	}

	parts := strings.Split(path, string(virtfs.PathSeparator))
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func (vfs *FS) rootEntry() *entry { return &entry{file: vfs.root} }

// cwdEntry rebuilds the entry chain down to the current working
// directory. vfs.curDir is always a canonical path (no "." or ".." or
// symlinks), so the walk below never needs to re-resolve anything.
func (vfs *FS) cwdEntry() *entry { return vfs.entryForCanonical(vfs.curDir) }

func (vfs *FS) entryForCanonical(path string) *entry {
	cur := vfs.rootEntry()

	for _, c := range splitComponents(path) {
		dir, ok := cur.dir()
		if !ok {
			return cur
		}

		dir.rlock()
		child, found := dir.child(c)
		dir.runlock()

		if !found {
			return cur
		}

		cur = &entry{name: c, parent: cur, file: child}
	}

	return cur
}

// resolve walks path component by component starting from the root (if
// path is absolute) or the current directory, following symlinks as it
// goes and splicing a symlink's target into the remaining work list in
// place of the symlink itself (spec §4.3). followLast controls whether a
// symlink named by the final component is itself followed (Stat
// semantics) or returned as-is (Lstat semantics).
//
// A missing intermediate component is always an error; a missing final
// component is reported through resolveResult so callers that create
// files can tell "doesn't exist yet" apart from "can't get there".
func (vfs *FS) resolve(path string, followLast bool) (*resolveResult, error) {
	if path == "" {
		return nil, virtfs.NewError("resolve", path, virtfs.ErrNoSuchFileOrDir)
	}

	dirOnly := virtfs.IsDirectoryShaped(path)
	if dirOnly {
		followLast = true
	}

	var cur *entry
	if virtfs.IsAbs(path) {
		cur = vfs.rootEntry()
	} else {
		cur = vfs.cwdEntry()
	}

	comps := splitComponents(path)
	symlinks := 0

	for i := 0; i < len(comps); i++ {
		c := comps[i]
		last := i == len(comps)-1

		switch c {
		case ".":
			continue
		case "..":
			if cur.parent != nil {
				cur = cur.parent
			}

			continue
		}

		dir, ok := cur.dir()
		if !ok {
			return nil, virtfs.NewError("resolve", path, virtfs.ErrNotADirectory)
		}

		dir.rlock()
		child, found := dir.child(c)
		dir.runlock()

		if !found {
			if last {
				return &resolveResult{parent: cur, leaf: nil, name: c}, nil
			}

			return nil, virtfs.NewError("resolve", path, virtfs.ErrNoSuchFileOrDir)
		}

		if sl, isSym := child.(*symlinkNode); isSym && (!last || followLast) {
			symlinks++
			if symlinks > maxSymlinkDepth {
				return nil, virtfs.NewError("resolve", path, virtfs.ErrTooManySymlinks)
			}

			sl.rlock()
			target := sl.target
			sl.runlock()

			base := cur
			if virtfs.IsAbs(target) {
				base = vfs.rootEntry()
			}

			rest := make([]string, 0, len(comps)-i-1)
			rest = append(rest, comps[i+1:]...)

			comps = append(splitComponents(target), rest...)
			cur = base
			i = -1

			continue
		}

		cur = &entry{name: c, parent: cur, file: child}

		if last {
			if _, isDir := cur.dir(); dirOnly && !isDir {
				return nil, virtfs.NewError("resolve", path, virtfs.ErrNotADirectory)
			}

			return &resolveResult{parent: cur.parent, leaf: cur, name: c}, nil
		}
	}

	return &resolveResult{parent: cur.parent, leaf: cur, name: cur.name}, nil
}

// canonical resolves path and requires it to exist, returning the
// absolute, symlink-free path it names.
func (vfs *FS) canonical(path string) (string, error) {
	const op = "canonical"

	res, err := vfs.resolve(path, true)
	if err != nil {
		return "", err
	}

	if res.leaf == nil {
		return "", virtfs.NewError(op, path, virtfs.ErrNoSuchFileOrDir)
	}

	return res.leaf.path(), nil
}

// mustDir resolves path and requires it to name an existing directory.
func (vfs *FS) mustDir(op, path string) (*entry, error) {
	res, err := vfs.resolve(path, true)
	if err != nil {
		return nil, err
	}

	if res.leaf == nil {
		return nil, virtfs.NewError(op, path, virtfs.ErrNoSuchFileOrDir)
	}

	if _, ok := res.leaf.dir(); !ok {
		return nil, virtfs.NewError(op, path, virtfs.ErrNotADirectory)
	}

	return res.leaf, nil
}

// createDirEntry creates an empty directory named name inside parent.
func createDirEntry(parent *entry, name string, perm fs.FileMode) (*entry, error) {
	dir, ok := parent.dir()
	if !ok {
		return nil, virtfs.ErrNotADirectory
	}

	dir.lock()
	defer dir.unlock()

	if _, exists := dir.child(name); exists {
		return nil, virtfs.ErrFileExists
	}

	child := newDirNode(perm)
	dir.addChild(name, child)

	return &entry{name: name, parent: parent, file: child}, nil
}

// createFileEntry creates a new, empty regular file named name inside
// parent, using policy to mint its backing.
func createFileEntry(parent *entry, name string, perm fs.FileMode, policy StoragePolicy) (*entry, error) {
	dir, ok := parent.dir()
	if !ok {
		return nil, virtfs.ErrNotADirectory
	}

	dir.lock()
	defer dir.unlock()

	if _, exists := dir.child(name); exists {
		return nil, virtfs.ErrFileExists
	}

	child := newFileNode(policy, perm)
	dir.addChild(name, child)

	return &entry{name: name, parent: parent, file: child}, nil
}

// createSymlinkEntry creates a new symlink named name inside parent with
// the verbatim target.
func createSymlinkEntry(parent *entry, name, target string) (*entry, error) {
	dir, ok := parent.dir()
	if !ok {
		return nil, virtfs.ErrNotADirectory
	}

	dir.lock()
	defer dir.unlock()

	if _, exists := dir.child(name); exists {
		return nil, virtfs.ErrFileExists
	}

	child := newSymlinkNode(target)
	dir.addChild(name, child)

	return &entry{name: name, parent: parent, file: child}, nil
}

// linkFileEntry creates name inside parent as a new directory entry
// naming the same fileNode as target, incrementing its link count (spec
// §3 "Hard link").
func linkFileEntry(parent *entry, name string, target *fileNode) (*entry, error) {
	dir, ok := parent.dir()
	if !ok {
		return nil, virtfs.ErrNotADirectory
	}

	dir.lock()
	defer dir.unlock()

	if _, exists := dir.child(name); exists {
		return nil, virtfs.ErrFileExists
	}

	target.lock()
	target.linkAdd()
	target.unlock()

	dir.addChild(name, target)

	return &entry{name: name, parent: parent, file: target}, nil
}

// removeChildEntry removes name from parent. For a regular file it
// decrements the link count and destroys the backing once it reaches
// zero (spec §3); for a directory it refuses unless the directory is
// empty.
func removeChildEntry(parent *entry, name string) error {
	dir, ok := parent.dir()
	if !ok {
		return virtfs.ErrNotADirectory
	}

	dir.lock()
	defer dir.unlock()

	child, exists := dir.child(name)
	if !exists {
		return virtfs.ErrNoSuchFileOrDir
	}

	if d, isDir := child.(*dirNode); isDir {
		d.rlock()
		empty := len(d.children) == 0
		d.runlock()

		if !empty {
			return virtfs.ErrDirNotEmpty
		}

		dir.removeChild(name)

		return nil
	}

	if f, isFile := child.(*fileNode); isFile {
		f.lock()
		remaining := f.linkRemove()
		f.unlock()

		dir.removeChild(name)

		if remaining <= 0 {
			f.backing.Destroy()
		}

		return nil
	}

	dir.removeChild(name)

	return nil
}
