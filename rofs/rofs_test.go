package rofs_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesomnus/vfs-sub000"
	"github.com/lesomnus/vfs-sub000/memfs"
	"github.com/lesomnus/vfs-sub000/rofs"
)

func TestReadPassesThrough(t *testing.T) {
	base := memfs.NewMemFS()

	w, err := base.OpenWrite("/file.txt", virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)

	_, err = w.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ro := rofs.New(base)

	r, err := ro.OpenRead("/file.txt", virtfs.OpenOptions{})
	require.NoError(t, err)

	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestMutatorsAreRefused(t *testing.T) {
	base := memfs.NewMemFS()
	ro := rofs.New(base)

	_, err := ro.OpenWrite("/new.txt", virtfs.OpenOptions{})
	assert.ErrorIs(t, err, virtfs.ErrReadOnlyFileSystem)

	assert.ErrorIs(t, ro.Mkdir("/dir", virtfs.DefaultDirPerm), virtfs.ErrReadOnlyFileSystem)

	_, err = ro.Remove("/file.txt")
	assert.ErrorIs(t, err, virtfs.ErrReadOnlyFileSystem)

	assert.ErrorIs(t, ro.Rename("/a", "/b"), virtfs.ErrReadOnlyFileSystem)
}

func TestChangeCurrentPathStaysReadOnly(t *testing.T) {
	base := memfs.NewMemFS()
	require.NoError(t, base.MkdirAll("/sub", virtfs.DefaultDirPerm))

	ro := rofs.New(base)

	next, err := ro.ChangeCurrentPath("/sub")
	require.NoError(t, err)

	_, ok := next.(*rofs.FS)
	assert.True(t, ok)

	_, err = next.OpenWrite("/x.txt", virtfs.OpenOptions{})
	assert.ErrorIs(t, err, virtfs.ErrReadOnlyFileSystem)
}
