package unionfs_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesomnus/vfs-sub000"
	"github.com/lesomnus/vfs-sub000/memfs"
	"github.com/lesomnus/vfs-sub000/unionfs"
)

func writeFile(t *testing.T, v virtfs.VFS, name, content string) {
	t.Helper()

	w, err := v.OpenWrite(name, virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)

	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readFile(t *testing.T, v virtfs.VFS, name string) string {
	t.Helper()

	r, err := v.OpenRead(name, virtfs.OpenOptions{})
	require.NoError(t, err)

	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(data)
}

func TestUpperShadowsLower(t *testing.T) {
	lower := memfs.NewMemFS()
	writeFile(t, lower, "/shared.txt", "from lower")

	upper := memfs.NewMemFS()
	u := unionfs.New(upper, lower)

	assert.Equal(t, "from lower", readFile(t, u, "/shared.txt"))

	writeFile(t, u, "/shared.txt", "from upper")
	assert.Equal(t, "from upper", readFile(t, u, "/shared.txt"))

	assert.Equal(t, "from lower", readFile(t, lower, "/shared.txt"))
}

func TestWriteBelowLowerOnlyDirectoryAnchorsUpperParents(t *testing.T) {
	lower := memfs.NewMemFS()
	require.NoError(t, lower.MkdirAll("/a/b", virtfs.DefaultDirPerm))

	upper := memfs.NewMemFS()
	u := unionfs.New(upper, lower)

	writeFile(t, u, "/a/b/new.txt", "fresh")
	assert.Equal(t, "fresh", readFile(t, u, "/a/b/new.txt"))

	_, err := upper.Status("/a/b")
	require.NoError(t, err)

	_, err = lower.Status("/a/b/new.txt")
	assert.Error(t, err)
}

func TestRemoveHidesLowerFileWithoutDestroyingIt(t *testing.T) {
	lower := memfs.NewMemFS()
	writeFile(t, lower, "/only-in-lower.txt", "still here")

	upper := memfs.NewMemFS()
	u := unionfs.New(upper, lower)

	removed, err := u.Remove("/only-in-lower.txt")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = u.Status("/only-in-lower.txt")
	assert.Error(t, err)

	assert.Equal(t, "still here", readFile(t, lower, "/only-in-lower.txt"))
}

func TestReaddirMergesBothLayersExcludingWhiteouts(t *testing.T) {
	lower := memfs.NewMemFS()
	require.NoError(t, lower.MkdirAll("/dir", virtfs.DefaultDirPerm))
	writeFile(t, lower, "/dir/from-lower.txt", "l")
	writeFile(t, lower, "/dir/hidden.txt", "gone soon")

	upper := memfs.NewMemFS()
	u := unionfs.New(upper, lower)

	writeFile(t, u, "/dir/from-upper.txt", "u")

	_, err := u.Remove("/dir/hidden.txt")
	require.NoError(t, err)

	cur, err := u.ReadDir("/dir")
	require.NoError(t, err)

	defer cur.Close()

	var names []string
	for !cur.AtEnd() {
		names = append(names, cur.Value().Name())
		require.NoError(t, cur.Increment())
	}

	assert.ElementsMatch(t, []string{"from-lower.txt", "from-upper.txt"}, names)
}

func TestResizeFileCopiesUpBeforeMutating(t *testing.T) {
	lower := memfs.NewMemFS()
	writeFile(t, lower, "/grow.txt", "abc")

	upper := memfs.NewMemFS()
	u := unionfs.New(upper, lower)

	require.NoError(t, u.ResizeFile("/grow.txt", 1))
	assert.Equal(t, "a", readFile(t, u, "/grow.txt"))
	assert.Equal(t, "abc", readFile(t, lower, "/grow.txt"))
}
