package memfs

import (
	"io"
	"os"

	"github.com/lesomnus/vfs-sub000"
	"github.com/valyala/fastrand"
)

// regularBacking is the concrete byte storage behind a regular file node
// (spec §3 "Storage policy"). Reads and writes never touch it directly:
// a write sink accumulates into a private buffer and calls Replace,
// Append or Overwrite only when it closes, so the backing's content changes atomically
// from every other handle's point of view (spec's Design Notes on
// streams and writeback).
type regularBacking interface {
	Size() int64
	ReadAt(p []byte, off int64) (int, error)
	Replace(data []byte) error
	Append(data []byte) error
	Overwrite(data []byte) error
	Resize(n int64) error
	Destroy()
}

// StoragePolicy is the abstract factory of spec §4.2: it mints the
// concrete backing for each newly created regular file. An FS passes its
// own policy to every regular file it creates (OpenWrite of a new name).
type StoragePolicy interface {
	MakeRegular() regularBacking
}

// memStoragePolicy mints purely in-memory regular file backings; it is
// what NewMemFS uses.
type memStoragePolicy struct{}

func (memStoragePolicy) MakeRegular() regularBacking { return &memBacking{} }

// memBacking holds its content as an owned byte slice. Replace installs a
// fresh copy rather than mutating in place, matching spec §3's
// copy-on-write buffer semantics: a reader that already holds a slice
// obtained from an earlier ReadAt is never disturbed by a later write.
type memBacking struct {
	data []byte
}

func (b *memBacking) Size() int64 { return int64(len(b.data)) }

func (b *memBacking) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, virtfs.ErrInvalidArgument
	}

	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}

	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (b *memBacking) Replace(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	b.data = cp

	return nil
}

func (b *memBacking) Append(data []byte) error {
	b.data = append(b.data, data...)
	return nil
}

// Overwrite writes data starting at offset zero without shrinking a
// longer existing content, matching a plain write(2) with neither
// O_TRUNC nor O_APPEND.
func (b *memBacking) Overwrite(data []byte) error {
	if len(data) >= len(b.data) {
		return b.Replace(data)
	}

	copy(b.data, data)

	return nil
}

func (b *memBacking) Resize(n int64) error {
	if n < 0 {
		return virtfs.ErrInvalidArgument
	}

	switch diff := n - int64(len(b.data)); {
	case diff > 0:
		b.data = append(b.data, make([]byte, diff)...)
	case diff < 0:
		b.data = b.data[:n]
	}

	return nil
}

func (b *memBacking) Destroy() { b.data = nil }

// hostStoragePolicy mints regular file backings spilled to a uniquely
// named file under a host temp directory; it is what NewVFS uses. The
// random component of the name is generated with fastrand rather than
// crypto/rand: collisions only need to be astronomically unlikely, not
// unpredictable, and fastrand avoids the global lock of math/rand's
// default source under concurrent file creation.
type hostStoragePolicy struct {
	host    virtfs.HostIO
	tempDir string
}

func newHostStoragePolicy(host virtfs.HostIO, tempDir string) *hostStoragePolicy {
	return &hostStoragePolicy{host: host, tempDir: tempDir}
}

func (p *hostStoragePolicy) MakeRegular() regularBacking {
	return &hostBacking{host: p.host, path: virtfs.Join(p.tempDir, randomName())}
}

const nameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomName() string {
	buf := make([]byte, virtfs.TempNameLen)
	for i := range buf {
		buf[i] = nameAlphabet[fastrand.Uint32n(uint32(len(nameAlphabet)))]
	}

	return string(buf)
}

// hostBacking defers creating its host temp file until first use, since a
// regular file node can be created without ever being read or written.
type hostBacking struct {
	host    virtfs.HostIO
	path    string
	created bool
}

func (b *hostBacking) ensure() error {
	if b.created {
		return nil
	}

	if b.host == nil {
		return &virtfs.ErrIo{Err: virtfs.ErrInvalidArgument}
	}

	f, err := b.host.Create(b.path)
	if err != nil {
		return &virtfs.ErrIo{Err: err}
	}

	b.created = true

	return f.Close()
}

func (b *hostBacking) Size() int64 {
	if !b.created {
		return 0
	}

	info, err := b.host.Stat(b.path)
	if err != nil {
		return 0
	}

	return info.Size()
}

func (b *hostBacking) ReadAt(p []byte, off int64) (int, error) {
	if err := b.ensure(); err != nil {
		return 0, err
	}

	f, err := b.host.Open(b.path)
	if err != nil {
		return 0, &virtfs.ErrIo{Err: err}
	}
	defer f.Close()

	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return 0, &virtfs.ErrIo{Err: err}
	}

	n, err := f.Read(p)
	if err != nil && err != io.EOF {
		return n, &virtfs.ErrIo{Err: err}
	}

	return n, err
}

func (b *hostBacking) Replace(data []byte) error {
	if err := b.ensure(); err != nil {
		return err
	}

	f, err := b.host.OpenFile(b.path, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return &virtfs.ErrIo{Err: err}
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return &virtfs.ErrIo{Err: err}
	}

	return nil
}

func (b *hostBacking) Append(data []byte) error {
	if err := b.ensure(); err != nil {
		return err
	}

	f, err := b.host.OpenFile(b.path, os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return &virtfs.ErrIo{Err: err}
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return &virtfs.ErrIo{Err: err}
	}

	return nil
}

func (b *hostBacking) Overwrite(data []byte) error {
	if err := b.ensure(); err != nil {
		return err
	}

	f, err := b.host.OpenFile(b.path, os.O_WRONLY, 0o600)
	if err != nil {
		return &virtfs.ErrIo{Err: err}
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return &virtfs.ErrIo{Err: err}
	}

	return nil
}

func (b *hostBacking) Resize(n int64) error {
	if n < 0 {
		return virtfs.ErrInvalidArgument
	}

	if err := b.ensure(); err != nil {
		return err
	}

	f, err := b.host.OpenFile(b.path, os.O_WRONLY, 0o600)
	if err != nil {
		return &virtfs.ErrIo{Err: err}
	}
	defer f.Close()

	if err := f.Truncate(n); err != nil {
		return &virtfs.ErrIo{Err: err}
	}

	return nil
}

func (b *hostBacking) Destroy() {
	if b.created {
		_ = b.host.Remove(b.path)
	}
}
