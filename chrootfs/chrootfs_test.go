package chrootfs_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesomnus/vfs-sub000"
	"github.com/lesomnus/vfs-sub000/chrootfs"
	"github.com/lesomnus/vfs-sub000/memfs"
)

func newChroot(t *testing.T) (*memfs.FS, *chrootfs.FS) {
	t.Helper()

	base := memfs.NewMemFS()
	require.NoError(t, base.MkdirAll("/jail/inside", virtfs.DefaultDirPerm))

	jail, err := chrootfs.New(base, "/jail")
	require.NoError(t, err)

	return base, jail
}

func TestPathsAreRelativeToJail(t *testing.T) {
	base, jail := newChroot(t)

	w, err := jail.OpenWrite("/inside/file.txt", virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)

	_, err = w.Write([]byte("secret"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := base.OpenRead("/jail/inside/file.txt", virtfs.OpenOptions{})
	require.NoError(t, err)

	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(data))
}

func TestEscapeAboveRootIsClamped(t *testing.T) {
	base, jail := newChroot(t)

	require.NoError(t, base.MkdirAll("/outside", virtfs.DefaultDirPerm))

	w, err := base.OpenWrite("/outside/secret.txt", virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = jail.Status("/../outside/secret.txt")
	assert.Error(t, err)
}

func TestErrorsAreTranslatedBackToJailPaths(t *testing.T) {
	_, jail := newChroot(t)

	_, err := jail.Status("/missing.txt")
	require.Error(t, err)

	fsErr, ok := err.(*virtfs.Error)
	require.True(t, ok)
	assert.Equal(t, "/missing.txt", fsErr.Path1)
}

func TestChangeCurrentPathStaysWithinJail(t *testing.T) {
	_, jail := newChroot(t)

	next, err := jail.ChangeCurrentPath("/inside")
	require.NoError(t, err)
	assert.Equal(t, "/inside", next.CurrentPath())
}
