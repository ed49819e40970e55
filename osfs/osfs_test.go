package osfs_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesomnus/vfs-sub000"
	"github.com/lesomnus/vfs-sub000/osfs"
)

func newTestFS(t *testing.T) *osfs.FS {
	t.Helper()

	return osfs.New(osfs.NewStdHostIO(), t.TempDir())
}

func TestWriteThenRead(t *testing.T) {
	fs := newTestFS(t)

	w, err := fs.OpenWrite("hello.txt", virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)

	_, err = w.Write([]byte("hello from disk"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := fs.OpenRead("hello.txt", virtfs.OpenOptions{})
	require.NoError(t, err)

	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello from disk", string(data))
}

func TestMkdirAllAndReadDir(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.MkdirAll("a/b/c", virtfs.DefaultDirPerm))

	cur, err := fs.ReadDir("a/b")
	require.NoError(t, err)

	defer cur.Close()

	var names []string
	for !cur.AtEnd() {
		names = append(names, cur.Value().Name())
		require.NoError(t, cur.Increment())
	}

	assert.Equal(t, []string{"c"}, names)
}

func TestRemoveAllCountsEveryFile(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.MkdirAll("tree/sub", virtfs.DefaultDirPerm))
	require.NoError(t, touch(fs, "tree/a.txt"))
	require.NoError(t, touch(fs, "tree/sub/b.txt"))

	count, err := fs.RemoveAll("tree")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	_, err = fs.Status("tree")
	assert.Error(t, err)
}

func TestWalkDirVisitsNestedFiles(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.MkdirAll("root/sub", virtfs.DefaultDirPerm))
	require.NoError(t, touch(fs, "root/top.txt"))
	require.NoError(t, touch(fs, "root/sub/nested.txt"))

	cur, err := fs.WalkDir("root", virtfs.WalkOptions{})
	require.NoError(t, err)

	defer cur.Close()

	var names []string
	for !cur.AtEnd() {
		names = append(names, cur.Value().Name())
		require.NoError(t, cur.Increment())
	}

	assert.ElementsMatch(t, []string{"sub", "top.txt", "nested.txt"}, names)
}

func TestRenameMovesFile(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, touch(fs, "old.txt"))
	require.NoError(t, fs.Rename("old.txt", "new.txt"))

	_, err := fs.Status("old.txt")
	assert.Error(t, err)

	_, err = fs.Status("new.txt")
	assert.NoError(t, err)
}

func touch(fs *osfs.FS, name string) error {
	w, err := fs.OpenWrite(name, virtfs.OpenOptions{Truncate: true})
	if err != nil {
		return err
	}

	return w.Close()
}
