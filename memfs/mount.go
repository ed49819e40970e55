package memfs

import (
	"sort"
	"strings"
	"sync"

	"github.com/lesomnus/vfs-sub000"
)

// mountTable is the stack-per-path mount registry of spec §4.8, grounded
// in shape on avfs-avfs/vfs/mountfs's MountFS (a map from mount path to
// the filesystem serving it) but keeping a stack per path instead of a
// single entry, so Unmount restores whatever was mounted there before
// (including nothing, for a mount directly over native memfs content).
type mountTable struct {
	mu    sync.RWMutex
	stack map[string][]virtfs.VFS
}

func newMountTable() *mountTable {
	return &mountTable{stack: make(map[string][]virtfs.VFS)}
}

func (t *mountTable) push(path string, v virtfs.VFS) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stack[path] = append(t.stack[path], v)
}

// pop removes the most recent mount at path. It reports whether a mount
// was actually present.
func (t *mountTable) pop(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.stack[path]
	if len(s) == 0 {
		return false
	}

	s = s[:len(s)-1]
	if len(s) == 0 {
		delete(t.stack, path)
	} else {
		t.stack[path] = s
	}

	return true
}

// resolve returns the filesystem mounted over the longest prefix of path,
// plus the remainder of path relative to that mount point, plus true. It
// returns ok=false when no ancestor of path is a mount point, which is
// the common case and means the caller should fall through to memfs's
// own node tree.
func (t *mountTable) resolve(path string) (target virtfs.VFS, remainder string, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.stack) == 0 {
		return nil, "", false
	}

	mountPaths := make([]string, 0, len(t.stack))
	for p, s := range t.stack {
		if len(s) > 0 {
			mountPaths = append(mountPaths, p)
		}
	}

	sort.Slice(mountPaths, func(i, j int) bool { return len(mountPaths[i]) > len(mountPaths[j]) })

	for _, mp := range mountPaths {
		if path == mp {
			return t.stack[mp][len(t.stack[mp])-1], "/", true
		}

		prefix := mp
		if prefix != "/" {
			prefix += "/"
		}

		if strings.HasPrefix(path, prefix) {
			rel := "/" + strings.TrimPrefix(path, prefix)

			return t.stack[mp][len(t.stack[mp])-1], rel, true
		}
	}

	return nil, "", false
}

// Mount grafts v over the directory named by name: until Unmount is
// called for the same path, every operation whose resolved path falls
// under name is delegated to v instead of this filesystem's own tree
// (spec §4.8). name must already exist as a directory in this
// filesystem.
func (vfs *FS) Mount(name string, v virtfs.VFS) error {
	const op = "mount"

	path, err := vfs.canonical(name)
	if err != nil {
		return virtfs.NewError(op, name, err)
	}

	if _, _, ok := vfs.mounts.resolve(path); !ok {
		if _, err := vfs.mustDir(op, path); err != nil {
			return err
		}
	}

	vfs.mounts.push(path, v)

	return nil
}

// Unmount reverses the most recent Mount at name, restoring whatever was
// there before (spec §4.8). It is an error to unmount a path with no
// active mount.
func (vfs *FS) Unmount(name string) error {
	const op = "unmount"

	path, err := vfs.canonical(name)
	if err != nil {
		return virtfs.NewError(op, name, err)
	}

	if !vfs.mounts.pop(path) {
		return virtfs.NewError(op, name, virtfs.ErrInvalidArgument)
	}

	return nil
}

// delegate reports the mount, if any, that should serve an already
// cwd-joined absolute path instead of this filesystem's own tree.
func (vfs *FS) delegate(absPath string) (virtfs.VFS, string, bool) {
	return vfs.mounts.resolve(absPath)
}
