package memfs

import (
	"sort"

	"github.com/lesomnus/vfs-sub000"
)

// flatCursor is the Cursor returned by ReadDir (spec §4.6). It snapshots
// child names at construction time and re-checks each one against the
// live directory on access, so an entry removed mid-iteration is skipped
// rather than surfaced as a stale node.
type flatCursor struct {
	dirPath string
	dir     *dirNode
	names   []string
	idx     int
}

func newFlatCursor(dirPath string, d *dirNode) *flatCursor {
	d.rlock()
	names := d.names()
	d.runlock()
	sort.Strings(names)

	fc := &flatCursor{dirPath: dirPath, dir: d, names: names}
	fc.skipStale()

	return fc
}

func (fc *flatCursor) skipStale() {
	for fc.idx < len(fc.names) {
		fc.dir.rlock()
		_, ok := fc.dir.child(fc.names[fc.idx])
		fc.dir.runlock()

		if ok {
			return
		}

		fc.idx++
	}
}

func (fc *flatCursor) AtEnd() bool { return fc.idx >= len(fc.names) }

func (fc *flatCursor) Value() virtfs.DirEntry {
	if fc.AtEnd() {
		return nil
	}

	name := fc.names[fc.idx]

	fc.dir.rlock()
	child, _ := fc.dir.child(name)
	fc.dir.runlock()

	return newMemInfo(name, child)
}

func (fc *flatCursor) Increment() error {
	if fc.AtEnd() {
		return virtfs.NewError("readdir", fc.dirPath, virtfs.ErrInvalidArgument)
	}

	fc.idx++
	fc.skipStale()

	return nil
}

func (fc *flatCursor) Close() error { return nil }

var _ virtfs.Cursor = (*flatCursor)(nil)

// cursorFrame is one level of a recursiveCursor's depth stack.
type cursorFrame struct {
	path  string
	dir   *dirNode
	names []string
	idx   int
}

func newCursorFrame(path string, d *dirNode) *cursorFrame {
	d.rlock()
	names := d.names()
	d.runlock()
	sort.Strings(names)

	return &cursorFrame{path: path, dir: d, names: names}
}

// recursiveCursor is the RecursiveCursor returned by WalkDir (spec
// §4.6), a depth-first walk with pop()/disable_recursion_pending()
// control exactly as std::filesystem::recursive_directory_iterator
// offers.
type recursiveCursor struct {
	fsv     *FS
	opts    virtfs.WalkOptions
	frames  []*cursorFrame
	pending bool
}

func newRecursiveCursor(fsv *FS, rootPath string, root *dirNode, opts virtfs.WalkOptions) *recursiveCursor {
	rc := &recursiveCursor{
		fsv:     fsv,
		opts:    opts,
		frames:  []*cursorFrame{newCursorFrame(rootPath, root)},
		pending: true,
	}
	rc.normalize()

	return rc
}

// normalize drops exhausted frames off the top of the stack, so AtEnd
// need only check whether the stack is empty.
func (rc *recursiveCursor) normalize() {
	for len(rc.frames) > 0 {
		top := rc.frames[len(rc.frames)-1]

		for top.idx < len(top.names) {
			top.dir.rlock()
			_, ok := top.dir.child(top.names[top.idx])
			top.dir.runlock()

			if ok {
				break
			}

			top.idx++
		}

		if top.idx < len(top.names) {
			return
		}

		rc.frames = rc.frames[:len(rc.frames)-1]
	}
}

func (rc *recursiveCursor) AtEnd() bool {
	rc.normalize()
	return len(rc.frames) == 0
}

func (rc *recursiveCursor) current() (name string, child node, path string) {
	top := rc.frames[len(rc.frames)-1]
	name = top.names[top.idx]

	top.dir.rlock()
	child, _ = top.dir.child(name)
	top.dir.runlock()

	return name, child, virtfs.Join(top.path, name)
}

func (rc *recursiveCursor) Value() virtfs.DirEntry {
	if rc.AtEnd() {
		return nil
	}

	name, child, _ := rc.current()

	return newMemInfo(name, child)
}

func (rc *recursiveCursor) Depth() int { return len(rc.frames) - 1 }

// descendable reports whether child, found at path, is something
// Increment should push a new frame for: a directory outright, or a
// symlink to one when FollowDirectorySymlink is set.
func (rc *recursiveCursor) descendable(child node, path string) bool {
	switch child.(type) {
	case *dirNode:
		return true
	case *symlinkNode:
		if !rc.opts.FollowDirectorySymlink {
			return false
		}

		res, err := rc.fsv.resolve(path, true)

		return err == nil && res.leaf != nil && res.leaf.file.kind() == kindDirectory
	default:
		return false
	}
}

func (rc *recursiveCursor) RecursionPending() bool {
	if rc.AtEnd() || !rc.pending {
		return false
	}

	_, child, path := rc.current()

	return rc.descendable(child, path)
}

func (rc *recursiveCursor) DisableRecursionPending() { rc.pending = false }

func (rc *recursiveCursor) Increment() error {
	if rc.AtEnd() {
		return virtfs.NewError("walk", "", virtfs.ErrInvalidArgument)
	}

	_, child, path := rc.current()

	if rc.pending && rc.descendable(child, path) {
		dir, ok := child.(*dirNode)
		if !ok {
			res, err := rc.fsv.resolve(path, true)
			if err == nil && res.leaf != nil {
				dir, _ = res.leaf.file.(*dirNode)
			}
		}

		if dir != nil {
			rc.frames = append(rc.frames, newCursorFrame(path, dir))
			rc.pending = true
			rc.normalize()

			return nil
		}
	}

	top := rc.frames[len(rc.frames)-1]
	top.idx++
	rc.pending = true
	rc.normalize()

	return nil
}

// Pop abandons the remaining siblings at the current depth and resumes
// iteration one level up, exactly as recursive_directory_iterator::pop.
func (rc *recursiveCursor) Pop() error {
	if rc.AtEnd() {
		return virtfs.NewError("walk", "", virtfs.ErrInvalidArgument)
	}

	rc.frames = rc.frames[:len(rc.frames)-1]

	if len(rc.frames) > 0 {
		top := rc.frames[len(rc.frames)-1]
		top.idx++
		rc.pending = true
	}

	rc.normalize()

	return nil
}

func (rc *recursiveCursor) Close() error { return nil }

var _ virtfs.RecursiveCursor = (*recursiveCursor)(nil)
