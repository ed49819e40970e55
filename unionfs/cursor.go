package unionfs

import (
	"io/fs"
	"sort"

	"github.com/lesomnus/vfs-sub000"
)

// unionDirEntry adapts a Stat result into the fs.DirEntry shape WalkDir
// reports, since a recursive cursor over the merged tree has no single
// underlying directory listing to hand back verbatim.
type unionDirEntry struct {
	name string
	info fs.FileInfo
}

func (e unionDirEntry) Name() string              { return e.name }
func (e unionDirEntry) IsDir() bool                { return e.info.IsDir() }
func (e unionDirEntry) Type() fs.FileMode          { return e.info.Mode().Type() }
func (e unionDirEntry) Info() (fs.FileInfo, error) { return e.info, nil }

// unionCursor is the Cursor returned by ReadDir, over a pre-merged
// upper-over-lower, whiteout-filtered name set.
type unionCursor struct {
	names   []string
	entries map[string]virtfs.DirEntry
	idx     int
}

func newUnionCursor(names []string, entries map[string]virtfs.DirEntry) *unionCursor {
	sort.Strings(names)
	return &unionCursor{names: names, entries: entries}
}

func (c *unionCursor) AtEnd() bool { return c.idx >= len(c.names) }

func (c *unionCursor) Value() virtfs.DirEntry {
	if c.AtEnd() {
		return nil
	}

	return c.entries[c.names[c.idx]]
}

func (c *unionCursor) Increment() error {
	if c.AtEnd() {
		return virtfs.NewError("readdir", "", virtfs.ErrInvalidArgument)
	}

	c.idx++

	return nil
}

func (c *unionCursor) Close() error { return nil }

var _ virtfs.Cursor = (*unionCursor)(nil)

type unionFrame struct {
	path  string
	names []string
	idx   int
}

// unionRecursiveCursor walks the merged tree depth-first, re-merging
// upper and lower entries at each directory it descends into.
type unionRecursiveCursor struct {
	u       *FS
	opts    virtfs.WalkOptions
	frames  []*unionFrame
	pending bool
}

func mergedNames(u *FS, path string) []string {
	seen := make(map[string]struct{})

	if cur, err := u.lower.ReadDir(path); err == nil {
		for !cur.AtEnd() {
			name := cur.Value().Name()
			if !u.isWhited(path, name) {
				seen[name] = struct{}{}
			}

			cur.Increment()
		}

		cur.Close()
	}

	if cur, err := u.upper.ReadDir(path); err == nil {
		for !cur.AtEnd() {
			seen[cur.Value().Name()] = struct{}{}
			cur.Increment()
		}

		cur.Close()
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func newUnionRecursiveCursor(u *FS, root string, opts virtfs.WalkOptions) (*unionRecursiveCursor, error) {
	if _, _, err := u.statLayer(root, false); err != nil {
		return nil, err
	}

	rc := &unionRecursiveCursor{
		u:       u,
		opts:    opts,
		frames:  []*unionFrame{{path: root, names: mergedNames(u, root)}},
		pending: true,
	}
	rc.normalize()

	return rc, nil
}

func (rc *unionRecursiveCursor) normalize() {
	for len(rc.frames) > 0 {
		top := rc.frames[len(rc.frames)-1]
		if top.idx < len(top.names) {
			return
		}

		rc.frames = rc.frames[:len(rc.frames)-1]
	}
}

func (rc *unionRecursiveCursor) AtEnd() bool {
	rc.normalize()
	return len(rc.frames) == 0
}

func (rc *unionRecursiveCursor) currentPath() string {
	top := rc.frames[len(rc.frames)-1]
	return virtfs.Join(top.path, top.names[top.idx])
}

func (rc *unionRecursiveCursor) Value() virtfs.DirEntry {
	if rc.AtEnd() {
		return nil
	}

	path := rc.currentPath()

	info, _, err := rc.u.statLayer(path, true)
	if err != nil {
		return nil
	}

	return unionDirEntry{name: virtfs.Base(path), info: info}
}

func (rc *unionRecursiveCursor) Depth() int { return len(rc.frames) - 1 }

func (rc *unionRecursiveCursor) descendable(path string) bool {
	info, _, err := rc.u.statLayer(path, true)
	if err != nil {
		return false
	}

	if info.IsDir() {
		return true
	}

	if info.Mode()&fs.ModeSymlink != 0 && rc.opts.FollowDirectorySymlink {
		target, _, terr := rc.u.statLayer(path, false)
		return terr == nil && target.IsDir()
	}

	return false
}

func (rc *unionRecursiveCursor) RecursionPending() bool {
	if rc.AtEnd() || !rc.pending {
		return false
	}

	return rc.descendable(rc.currentPath())
}

func (rc *unionRecursiveCursor) DisableRecursionPending() { rc.pending = false }

func (rc *unionRecursiveCursor) Increment() error {
	if rc.AtEnd() {
		return virtfs.NewError("walk", "", virtfs.ErrInvalidArgument)
	}

	path := rc.currentPath()

	if rc.pending && rc.descendable(path) {
		rc.frames = append(rc.frames, &unionFrame{path: path, names: mergedNames(rc.u, path)})
		rc.pending = true
		rc.normalize()

		return nil
	}

	top := rc.frames[len(rc.frames)-1]
	top.idx++
	rc.pending = true
	rc.normalize()

	return nil
}

func (rc *unionRecursiveCursor) Pop() error {
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

func (rc *unionRecursiveCursor) Close() error { return nil }

var _ virtfs.RecursiveCursor = (*unionRecursiveCursor)(nil)
