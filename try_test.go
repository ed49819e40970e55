package virtfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesomnus/vfs-sub000"
	"github.com/lesomnus/vfs-sub000/memfs"
)

func TestTryMkdirReportsErrorInsteadOfPropagating(t *testing.T) {
	fs := memfs.NewMemFS()

	var err error

	virtfs.TryMkdir(fs, "/missing-parent/child", virtfs.DefaultDirPerm, &err)
	assert.Error(t, err)
}

func TestTryMkdirClearsErrpOnSuccess(t *testing.T) {
	fs := memfs.NewMemFS()

	err := assert.AnError

	virtfs.TryMkdir(fs, "/dir", virtfs.DefaultDirPerm, &err)
	assert.NoError(t, err)
}

func TestTryStatusReturnsZeroValueOnFailure(t *testing.T) {
	fs := memfs.NewMemFS()

	var err error

	info := virtfs.TryStatus(fs, "/missing.txt", &err)
	assert.Error(t, err)
	assert.Nil(t, info)
}

func TestTryFileSizeReturnsSizeOnSuccess(t *testing.T) {
	fs := memfs.NewMemFS()

	w, err := fs.OpenWrite("/f.txt", virtfs.OpenOptions{Truncate: true})
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var tryErr error

	size := virtfs.TryFileSize(fs, "/f.txt", &tryErr)
	require.NoError(t, tryErr)
	assert.EqualValues(t, 5, size)
}

func TestReportPanicsOnNonFilesystemError(t *testing.T) {
	assert.Panics(t, func() {
		var err error

		virtfs.Report(&err, func() error { return assert.AnError })
	})
}
