package virtfs

import (
	"io/fs"
	"time"
)

// CopyOptions is the copy_options bitmask of spec §4.4.1, grounded in
// shape on avfs's Feature bitmask (avfs_feature.go) and in semantics on
// std::filesystem::copy_options.
type CopyOptions uint16

const (
	// CopyNone applies the default, non-recursive, no-overwrite policy.
	CopyNone CopyOptions = 0

	// CopySkipExisting skips a regular destination that already exists
	// instead of failing.
	CopySkipExisting CopyOptions = 1 << iota

	// CopyOverwriteExisting replaces an existing regular destination's
	// content unconditionally.
	CopyOverwriteExisting

	// CopyUpdateExisting replaces an existing regular destination only
	// if the source is not older than it (see CopyFileUpdatePolicy).
	CopyUpdateExisting

	// CopyRecursive descends into directories.
	CopyRecursive

	// CopyCopySymlinks copies a symlink as a new symlink with the same
	// target instead of following it.
	CopyCopySymlinks

	// CopySkipSymlinks ignores symlinks instead of copying or following
	// them.
	CopySkipSymlinks

	// CopyDirectoriesOnly copies only the directory structure, no
	// regular file content.
	CopyDirectoriesOnly

	// CopyCreateSymlinks creates symlinks at the destination pointing
	// back at each source file instead of copying content.
	CopyCreateSymlinks

	// CopyCreateHardLinks hard-links the destination to each source file
	// instead of copying content.
	CopyCreateHardLinks
)

func (o CopyOptions) Has(flag CopyOptions) bool { return o&flag != 0 }

// Copy implements spec §4.4.1 against the VFS interface alone, so it works
// identically for same-filesystem and cross-filesystem copies (spec
// §4.4.1 point 4): it never reaches into a concrete implementation's
// internals, only the public VFS operations.
func Copy(dstFS, srcFS VFS, dst, src string, opts CopyOptions) error {
	const op = "copy"

	srcInfo, err := srcFS.SymlinkStatus(src)
	if err != nil {
		return NewLinkError(op, src, dst, err)
	}

	switch {
	case srcInfo.Mode()&fs.ModeSymlink != 0:
		return copySymlink(dstFS, srcFS, dst, src, opts)
	case srcInfo.IsDir():
		return copyDir(dstFS, srcFS, dst, src, opts)
	default:
		return copyRegular(dstFS, srcFS, dst, src, opts)
	}
}

func copyRegular(dstFS, srcFS VFS, dst, src string, opts CopyOptions) error {
	const op = "copy"

	if opts.Has(CopyDirectoriesOnly) {
		return nil
	}

	if opts.Has(CopyCreateSymlinks) {
		abs, err := srcFS.Canonical(src)
		if err != nil {
			return NewLinkError(op, src, dst, err)
		}

		return dstFS.Symlink(abs, dst)
	}

	if opts.Has(CopyCreateHardLinks) {
		return dstFS.Link(src, dst)
	}

	if dstInfo, err := dstFS.Status(dst); err == nil && dstInfo.IsDir() {
		return Copy(dstFS, srcFS, Join(dst, Base(src)), src, opts)
	}

	_, err := dstFS.CopyFile(src, dst, opts)

	return err
}

func copySymlink(dstFS, srcFS VFS, dst, src string, opts CopyOptions) error {
	if opts.Has(CopySkipSymlinks) {
		return nil
	}

	if !opts.Has(CopyCopySymlinks) {
		return NewLinkError("copy", src, dst, ErrInvalidArgument)
	}

	target, err := srcFS.ReadLink(src)
	if err != nil {
		return err
	}

	return dstFS.Symlink(target, dst)
}

func copyDir(dstFS, srcFS VFS, dst, src string, opts CopyOptions) error {
	const op = "copy"

	if opts.Has(CopyCreateSymlinks) {
		return NewLinkError(op, src, dst, ErrIsADirectory)
	}

	if !opts.Has(CopyRecursive) && opts != CopyNone {
		return nil
	}

	if err := dstFS.Mkdir(dst, DefaultDirPerm); err != nil {
		if fsErr, ok := err.(*Error); !ok || fsErr.Err != ErrFileExists { //nolint:errorlint // comparing the spec's own sentinel.
			return err
		}
	}

	cursor, err := srcFS.ReadDir(src)
	if err != nil {
		return err
	}

	defer cursor.Close()

	for !cursor.AtEnd() {
		name := cursor.Value().Name()
		childSrc, childDst := Join(src, name), Join(dst, name)

		childInfo, ierr := srcFS.SymlinkStatus(childSrc)
		if ierr != nil {
			return ierr
		}

		switch {
		case childInfo.Mode()&fs.ModeSymlink != 0:
			if opts.Has(CopyCopySymlinks) {
				if err := copySymlink(dstFS, srcFS, childDst, childSrc, opts); err != nil {
					return err
				}
			}
		case childInfo.IsDir():
			if opts.Has(CopyRecursive) {
				if err := copyDir(dstFS, srcFS, childDst, childSrc, opts); err != nil {
					return err
				}
			}
		default:
			if err := copyRegular(dstFS, srcFS, childDst, childSrc, opts); err != nil {
				return err
			}
		}

		if err := cursor.Increment(); err != nil {
			return err
		}
	}

	return nil
}

// DirEntry is the minimal shape a Cursor yields (spec §4.6): a name plus
// enough metadata to tell file kinds apart without a second Stat call.
type DirEntry interface {
	Name() string
}

// Cursor is the flat directory enumerator of spec §4.6.
type Cursor interface {
	AtEnd() bool
	Value() DirEntry
	Increment() error
	Close() error
}

// RecursiveCursor is the recursive directory enumerator of spec §4.6.
type RecursiveCursor interface {
	Cursor
	Depth() int
	RecursionPending() bool
	DisableRecursionPending()
	Pop() error
}

// WalkOptions is the recognized option set for WalkDir (spec §4.6).
type WalkOptions struct {
	FollowDirectorySymlink bool
}

// CopyFileUpdatePolicy implements the update_existing branch of
// copy_file's destination-exists policy (spec §4.4): replace only if src
// is not older than dst.
func CopyFileUpdatePolicy(srcTime, dstTime time.Time) bool {
	return !srcTime.Before(dstTime)
}
