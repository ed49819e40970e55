package osfs

import (
	"io/fs"

	"github.com/lesomnus/vfs-sub000"
)

// hostCursor is the Cursor returned by ReadDir, a thin wrapper over
// os.ReadDir's already name-sorted result.
type hostCursor struct {
	entries []fs.DirEntry
	idx     int
}

func newHostCursor(entries []fs.DirEntry) *hostCursor {
	return &hostCursor{entries: entries}
}

func (c *hostCursor) AtEnd() bool { return c.idx >= len(c.entries) }

func (c *hostCursor) Value() virtfs.DirEntry {
	if c.AtEnd() {
		return nil
	}

	return c.entries[c.idx]
}

func (c *hostCursor) Increment() error {
	if c.AtEnd() {
		return virtfs.NewError("readdir", "", virtfs.ErrInvalidArgument)
	}

	c.idx++

	return nil
}

func (c *hostCursor) Close() error { return nil }

var _ virtfs.Cursor = (*hostCursor)(nil)

type hostFrame struct {
	path    string
	entries []fs.DirEntry
	idx     int
}

// hostRecursiveCursor is the RecursiveCursor returned by WalkDir,
// reading each directory's children lazily as the walk descends into it
// rather than materializing the whole tree up front.
type hostRecursiveCursor struct {
	host    virtfs.HostIO
	opts    virtfs.WalkOptions
	frames  []*hostFrame
	pending bool
}

func newHostRecursiveCursor(host virtfs.HostIO, root string, opts virtfs.WalkOptions) *hostRecursiveCursor {
	entries, _ := host.ReadDir(root)

	rc := &hostRecursiveCursor{
		host:    host,
		opts:    opts,
		frames:  []*hostFrame{{path: root, entries: entries}},
		pending: true,
	}
	rc.normalize()

	return rc
}

func (rc *hostRecursiveCursor) normalize() {
	for len(rc.frames) > 0 {
		top := rc.frames[len(rc.frames)-1]
		if top.idx < len(top.entries) {
			return
		}

		rc.frames = rc.frames[:len(rc.frames)-1]
	}
}

func (rc *hostRecursiveCursor) AtEnd() bool {
	rc.normalize()
	return len(rc.frames) == 0
}

func (rc *hostRecursiveCursor) current() (fs.DirEntry, string) {
	top := rc.frames[len(rc.frames)-1]
	e := top.entries[top.idx]

	return e, virtfs.Join(top.path, e.Name())
}

func (rc *hostRecursiveCursor) Value() virtfs.DirEntry {
	if rc.AtEnd() {
		return nil
	}

	e, _ := rc.current()

	return e
}

func (rc *hostRecursiveCursor) Depth() int { return len(rc.frames) - 1 }

func (rc *hostRecursiveCursor) descendable(e fs.DirEntry, path string) bool {
	if e.IsDir() {
		return true
	}

	if e.Type()&fs.ModeSymlink != 0 && rc.opts.FollowDirectorySymlink {
		info, err := rc.host.Stat(path)
		return err == nil && info.IsDir()
	}

	return false
}

func (rc *hostRecursiveCursor) RecursionPending() bool {
	if rc.AtEnd() || !rc.pending {
		return false
	}

	e, path := rc.current()

	return rc.descendable(e, path)
}

func (rc *hostRecursiveCursor) DisableRecursionPending() { rc.pending = false }

func (rc *hostRecursiveCursor) Increment() error {
	if rc.AtEnd() {
		return virtfs.NewError("walk", "", virtfs.ErrInvalidArgument)
	}

	e, path := rc.current()

	if rc.pending && rc.descendable(e, path) {
		if entries, err := rc.host.ReadDir(path); err == nil {
			rc.frames = append(rc.frames, &hostFrame{path: path, entries: entries})
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

func (rc *hostRecursiveCursor) Pop() error {
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

func (rc *hostRecursiveCursor) Close() error { return nil }

var _ virtfs.RecursiveCursor = (*hostRecursiveCursor)(nil)
