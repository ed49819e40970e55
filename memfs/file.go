package memfs

import (
	"io"
	"time"

	"github.com/lesomnus/vfs-sub000"
)

// memFile is the File returned by OpenRead and OpenWrite. A read handle
// streams straight from the backing; a write handle accumulates into buf
// and installs it into the backing only on Close, so a reader that opens
// the same file concurrently never observes a partial write (spec's
// Design Notes on streams and writeback).
type memFile struct {
	name string
	n    *fileNode

	writable bool
	append   bool
	truncate bool
	closed   bool

	pos int64
	buf []byte
}

func newReadFile(name string, n *fileNode) *memFile {
	return &memFile{name: name, n: n}
}

func newWriteFile(name string, n *fileNode, opts virtfs.OpenOptions) *memFile {
	return &memFile{name: name, n: n, writable: true, append: opts.Append, truncate: opts.Truncate}
}

func (f *memFile) Name() string { return f.name }

func (f *memFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, virtfs.NewError("read", f.name, virtfs.ErrBadFileDesc)
	}

	if f.writable {
		return 0, virtfs.NewError("read", f.name, virtfs.ErrInvalidArgument)
	}

	f.n.rlock()
	n, err := f.n.backing.ReadAt(p, f.pos)
	f.n.runlock()

	f.pos += int64(n)

	return n, err
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, virtfs.NewError("write", f.name, virtfs.ErrBadFileDesc)
	}

	if !f.writable {
		return 0, virtfs.NewError("write", f.name, virtfs.ErrInvalidArgument)
	}

	f.buf = append(f.buf, p...)

	return len(p), nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, virtfs.NewError("seek", f.name, virtfs.ErrBadFileDesc)
	}

	if f.writable {
		switch whence {
		case io.SeekStart:
			if offset == 0 {
				f.buf = f.buf[:0]
				return 0, nil
			}
		case io.SeekCurrent:
			if offset == 0 {
				return int64(len(f.buf)), nil
			}
		}

		return 0, virtfs.NewError("seek", f.name, virtfs.ErrInvalidArgument)
	}

	f.n.rlock()
	size := f.n.backing.Size()
	f.n.runlock()

	var next int64

	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = f.pos + offset
	case io.SeekEnd:
		next = size + offset
	default:
		return 0, virtfs.NewError("seek", f.name, virtfs.ErrInvalidArgument)
	}

	if next < 0 {
		return 0, virtfs.NewError("seek", f.name, virtfs.ErrInvalidArgument)
	}

	f.pos = next

	return f.pos, nil
}

func (f *memFile) Close() error {
	if f.closed {
		return virtfs.NewError("close", f.name, virtfs.ErrBadFileDesc)
	}

	f.closed = true

	if !f.writable {
		return nil
	}

	f.n.lock()
	defer f.n.unlock()

	var err error

	switch {
	case f.append:
		err = f.n.backing.Append(f.buf)
	case f.truncate:
		err = f.n.backing.Replace(f.buf)
	default:
		err = f.n.backing.Overwrite(f.buf)
	}

	if err != nil {
		return virtfs.NewError("close", f.name, err)
	}

	f.n.setModTime(time.Now())

	return nil
}

var _ virtfs.File = (*memFile)(nil)
