package virtfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesomnus/vfs-sub000"
	"github.com/lesomnus/vfs-sub000/memfs"
)

func TestCopyShallowCopiesImmediateChildrenOnly(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, fs.MkdirAll("/src/sub", virtfs.DefaultDirPerm))
	w, err := fs.OpenWrite("/src/top.txt", virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)
	_, err = w.Write([]byte("top"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = fs.OpenWrite("/src/sub/nested.txt", virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)
	_, err = w.Write([]byte("nested"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, fs.Copy("/src", "/dst", virtfs.CopyNone))

	_, err = fs.Status("/dst/top.txt")
	assert.NoError(t, err)

	_, err = fs.Status("/dst/sub")
	assert.Error(t, err, "CopyNone must not copy sub-directories")

	_, err = fs.Status("/dst/sub/nested.txt")
	assert.Error(t, err, "CopyNone must not descend into sub-directories")
}

func TestCopyRecursiveCopiesEverything(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, fs.MkdirAll("/src/sub", virtfs.DefaultDirPerm))
	w, err := fs.OpenWrite("/src/sub/nested.txt", virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)
	_, err = w.Write([]byte("nested"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, fs.Copy("/src", "/dst", virtfs.CopyRecursive))

	r, err := fs.OpenRead("/dst/sub/nested.txt", virtfs.OpenOptions{})
	require.NoError(t, err)
	defer r.Close()
}

func TestCopyNonRecursiveFlagAloneIsNoOp(t *testing.T) {
	fs := memfs.NewMemFS()

	require.NoError(t, fs.MkdirAll("/src/sub", virtfs.DefaultDirPerm))

	require.NoError(t, fs.Copy("/src", "/dst", virtfs.CopySkipExisting))

	_, err := fs.Status("/dst")
	assert.Error(t, err, "a non-recursive flag other than CopyNone must not copy a directory")
}

func TestCopyFileRecognizesOverwriteExisting(t *testing.T) {
	fs := memfs.NewMemFS()

	w, err := fs.OpenWrite("/src.txt", virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)
	_, err = w.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = fs.OpenWrite("/dst.txt", virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)
	_, err = w.Write([]byte("old"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	copied, err := fs.CopyFile("/src.txt", "/dst.txt", virtfs.CopyOverwriteExisting)
	require.NoError(t, err)
	assert.True(t, copied)

	r, err := fs.OpenRead("/dst.txt", virtfs.OpenOptions{})
	require.NoError(t, err)
	defer r.Close()
}
