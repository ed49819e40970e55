package memfs_test

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesomnus/vfs-sub000"
	"github.com/lesomnus/vfs-sub000/memfs"
)

func TestWriteThenRead(t *testing.T) {
	fs := memfs.NewMemFS()

	w, err := fs.OpenWrite("/hello.txt", virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)

	_, err = w.Write([]byte("hello, world"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := fs.OpenRead("/hello.txt", virtfs.OpenOptions{})
	require.NoError(t, err)

	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(data))
}

func TestOpenWriteCreatesMissingFile(t *testing.T) {
	fs := memfs.NewMemFS()

	_, err := fs.Status("/new.txt")
	require.Error(t, err)

	w, err := fs.OpenWrite("/new.txt", virtfs.OpenOptions{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	info, err := fs.Status("/new.txt")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestAppendPreservesExistingContent(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, writeAll(fs, "/log.txt", "first"))
	require.NoError(t, appendAll(fs, "/log.txt", "second"))

	assert.Equal(t, "firstsecond", readAll(t, fs, "/log.txt"))
}

func TestOverwriteWithoutTruncateKeepsTrailingBytes(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, writeAll(fs, "/f.txt", "0123456789"))

	w, err := fs.OpenWrite("/f.txt", virtfs.OpenOptions{})
	require.NoError(t, err)

	_, err = w.Write([]byte("ABC"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, "ABC3456789", readAll(t, fs, "/f.txt"))
}

func TestMkdirAllAndReadDir(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, fs.MkdirAll("/a/b/c", virtfs.DefaultDirPerm))
	require.NoError(t, writeAll(fs, "/a/b/c/leaf.txt", "x"))

	cur, err := fs.ReadDir("/a/b")
	require.NoError(t, err)

	defer cur.Close()

	var names []string
	for !cur.AtEnd() {
		names = append(names, cur.Value().Name())
		require.NoError(t, cur.Increment())
	}

	assert.Equal(t, []string{"c"}, names)
}

func TestSymlinkResolutionAcrossDirectories(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, fs.MkdirAll("/real/dir", virtfs.DefaultDirPerm))
	require.NoError(t, writeAll(fs, "/real/dir/file.txt", "payload"))
	require.NoError(t, fs.Symlink("/real", "/link"))

	assert.Equal(t, "payload", readAll(t, fs, "/link/dir/file.txt"))

	canon, err := fs.Canonical("/link/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "/real/dir/file.txt", canon)
}

func TestCopyFileRespectsUpdateExisting(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, writeAll(fs, "/src.txt", "new"))
	require.NoError(t, writeAll(fs, "/dst.txt", "old"))

	srcTime, err := fs.LastWriteTime("/src.txt")
	require.NoError(t, err)
	require.NoError(t, fs.SetLastWriteTime("/dst.txt", srcTime.Add(time.Hour)))

	copied, err := fs.CopyFile("/src.txt", "/dst.txt", virtfs.CopyUpdateExisting)
	require.NoError(t, err)
	assert.False(t, copied)
	assert.Equal(t, "old", readAll(t, fs, "/dst.txt"))
}

func TestRenameIntoOwnDescendantIsRejected(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, fs.MkdirAll("/a/b", virtfs.DefaultDirPerm))

	err := fs.Rename("/a", "/a/b/moved")
	require.Error(t, err)
}

func TestRenameMovesFile(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, writeAll(fs, "/a.txt", "payload"))
	require.NoError(t, fs.Rename("/a.txt", "/b.txt"))

	assert.Equal(t, "payload", readAll(t, fs, "/b.txt"))

	_, err := fs.Status("/a.txt")
	assert.Error(t, err)
}

func TestRenameOntoItselfIsNoOp(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, writeAll(fs, "/a.txt", "payload"))
	require.NoError(t, fs.Rename("/a.txt", "/a.txt"))

	assert.Equal(t, "payload", readAll(t, fs, "/a.txt"))
}

func TestRenameAcrossHardLinkIsNoOp(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, writeAll(fs, "/a.txt", "payload"))
	require.NoError(t, fs.Link("/a.txt", "/b.txt"))
	require.NoError(t, fs.Rename("/a.txt", "/b.txt"))

	assert.Equal(t, "payload", readAll(t, fs, "/a.txt"))
	assert.Equal(t, "payload", readAll(t, fs, "/b.txt"))
}

func TestRemoveAllCountsEveryFile(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, fs.MkdirAll("/tree/sub", virtfs.DefaultDirPerm))
	require.NoError(t, writeAll(fs, "/tree/a.txt", "1"))
	require.NoError(t, writeAll(fs, "/tree/sub/b.txt", "2"))

	count, err := fs.RemoveAll("/tree")
	require.NoError(t, err)
	assert.Equal(t, 4, count) // a.txt, sub/b.txt, sub, tree

	_, err = fs.Status("/tree")
	assert.Error(t, err)
}

func TestEquivalentFollowsHardLinks(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, writeAll(fs, "/one.txt", "x"))
	require.NoError(t, fs.Link("/one.txt", "/two.txt"))

	ok, err := fs.Equivalent("/one.txt", "/two.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMountDelegatesWholeSubtree(t *testing.T) {
	host := memfs.NewMemFS()

	require.NoError(t, host.MkdirAll("/mnt", virtfs.DefaultDirPerm))

	guest := memfs.NewMemFS()
	require.NoError(t, writeAll(guest, "/inside.txt", "guest content"))

	require.NoError(t, host.Mount("/mnt", guest))
	assert.Equal(t, "guest content", readAll(t, host, "/mnt/inside.txt"))

	require.NoError(t, host.Unmount("/mnt"))

	_, err := host.Status("/mnt/inside.txt")
	assert.Error(t, err)
}

func writeAll(fs *memfs.FS, name, content string) error {
	w, err := fs.OpenWrite(name, virtfs.OpenOptions{Truncate: true})
	if err != nil {
		return err
	}

	if _, err := w.Write([]byte(content)); err != nil {
		return err
	}

	return w.Close()
}

func appendAll(fs *memfs.FS, name, content string) error {
	w, err := fs.OpenWrite(name, virtfs.OpenOptions{Append: true})
	if err != nil {
		return err
	}

	if _, err := w.Write([]byte(content)); err != nil {
		return err
	}

	return w.Close()
}

func readAll(t *testing.T, fs *memfs.FS, name string) string {
	t.Helper()

	r, err := fs.OpenRead(name, virtfs.OpenOptions{})
	require.NoError(t, err)

	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(data)
}
