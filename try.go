package virtfs

import (
	"io/fs"
	"time"
)

// This file implements the reporting form of every VFS operation (spec
// §4.4, §7): a TryXxx wrapper with the same arguments as its throwing-form
// counterpart, plus a trailing errp *error that receives the failure
// instead of it being returned. Grounded on the shape of fs.PathError /
// os.LinkError's use throughout memfs.go, generalized to value-returning
// operations via reportValue.

// TryOpenRead is the reporting form of VFS.OpenRead.
func TryOpenRead(vfs VFS, name string, opts OpenOptions, errp *error) File {
	return reportValue(errp, func() (File, error) { return vfs.OpenRead(name, opts) })
}

// TryOpenWrite is the reporting form of VFS.OpenWrite.
func TryOpenWrite(vfs VFS, name string, opts OpenOptions, errp *error) File {
	return reportValue(errp, func() (File, error) { return vfs.OpenWrite(name, opts) })
}

// TryCreate is the reporting form of VFS.Create.
func TryCreate(vfs VFS, name string, errp *error) File {
	return reportValue(errp, func() (File, error) { return vfs.Create(name) })
}

// TryCanonical is the reporting form of VFS.Canonical.
func TryCanonical(vfs VFS, name string, errp *error) string {
	return reportValue(errp, func() (string, error) { return vfs.Canonical(name) })
}

// TryWeaklyCanonical is the reporting form of VFS.WeaklyCanonical.
func TryWeaklyCanonical(vfs VFS, name string, errp *error) string {
	return reportValue(errp, func() (string, error) { return vfs.WeaklyCanonical(name) })
}

// TryCopy is the reporting form of VFS.Copy.
func TryCopy(vfs VFS, src, dst string, opts CopyOptions, errp *error) {
	Report(errp, func() error { return vfs.Copy(src, dst, opts) })
}

// TryCopyFile is the reporting form of VFS.CopyFile.
func TryCopyFile(vfs VFS, src, dst string, opts CopyOptions, errp *error) bool {
	return reportValue(errp, func() (bool, error) { return vfs.CopyFile(src, dst, opts) })
}

// TryMkdir is the reporting form of VFS.Mkdir.
func TryMkdir(vfs VFS, name string, perm fs.FileMode, errp *error) {
	Report(errp, func() error { return vfs.Mkdir(name, perm) })
}

// TryMkdirAll is the reporting form of VFS.MkdirAll.
func TryMkdirAll(vfs VFS, name string, perm fs.FileMode, errp *error) {
	Report(errp, func() error { return vfs.MkdirAll(name, perm) })
}

// TryLink is the reporting form of VFS.Link.
func TryLink(vfs VFS, oldname, newname string, errp *error) {
	Report(errp, func() error { return vfs.Link(oldname, newname) })
}

// TrySymlink is the reporting form of VFS.Symlink.
func TrySymlink(vfs VFS, oldname, newname string, errp *error) {
	Report(errp, func() error { return vfs.Symlink(oldname, newname) })
}

// TryReadLink is the reporting form of VFS.ReadLink.
func TryReadLink(vfs VFS, name string, errp *error) string {
	return reportValue(errp, func() (string, error) { return vfs.ReadLink(name) })
}

// TryChangeCurrentPath is the reporting form of VFS.ChangeCurrentPath.
func TryChangeCurrentPath(vfs VFS, name string, errp *error) VFS {
	return reportValue(errp, func() (VFS, error) { return vfs.ChangeCurrentPath(name) })
}

// TryEquivalent is the reporting form of VFS.Equivalent.
func TryEquivalent(vfs VFS, p1, p2 string, errp *error) bool {
	return reportValue(errp, func() (bool, error) { return vfs.Equivalent(p1, p2) })
}

// TryFileSize is the reporting form of VFS.FileSize.
func TryFileSize(vfs VFS, name string, errp *error) int64 {
	return reportValue(errp, func() (int64, error) { return vfs.FileSize(name) })
}

// TryHardLinkCount is the reporting form of VFS.HardLinkCount.
func TryHardLinkCount(vfs VFS, name string, errp *error) int {
	return reportValue(errp, func() (int, error) { return vfs.HardLinkCount(name) })
}

// TryLastWriteTime is the reporting form of VFS.LastWriteTime.
func TryLastWriteTime(vfs VFS, name string, errp *error) time.Time {
	return reportValue(errp, func() (time.Time, error) { return vfs.LastWriteTime(name) })
}

// TrySetLastWriteTime is the reporting form of VFS.SetLastWriteTime.
func TrySetLastWriteTime(vfs VFS, name string, t time.Time, errp *error) {
	Report(errp, func() error { return vfs.SetLastWriteTime(name, t) })
}

// TryResizeFile is the reporting form of VFS.ResizeFile.
func TryResizeFile(vfs VFS, name string, size int64, errp *error) {
	Report(errp, func() error { return vfs.ResizeFile(name, size) })
}

// TryStatus is the reporting form of VFS.Status.
func TryStatus(vfs VFS, name string, errp *error) fs.FileInfo {
	return reportValue(errp, func() (fs.FileInfo, error) { return vfs.Status(name) })
}

// TrySymlinkStatus is the reporting form of VFS.SymlinkStatus.
func TrySymlinkStatus(vfs VFS, name string, errp *error) fs.FileInfo {
	return reportValue(errp, func() (fs.FileInfo, error) { return vfs.SymlinkStatus(name) })
}

// TryPermissions is the reporting form of VFS.Permissions.
func TryPermissions(vfs VFS, name string, perm fs.FileMode, opts PermOptions, errp *error) {
	Report(errp, func() error { return vfs.Permissions(name, perm, opts) })
}

// TryRemove is the reporting form of VFS.Remove.
func TryRemove(vfs VFS, name string, errp *error) bool {
	return reportValue(errp, func() (bool, error) { return vfs.Remove(name) })
}

// TryRemoveAll is the reporting form of VFS.RemoveAll.
func TryRemoveAll(vfs VFS, name string, errp *error) int {
	return reportValue(errp, func() (int, error) { return vfs.RemoveAll(name) })
}

// TryRename is the reporting form of VFS.Rename.
func TryRename(vfs VFS, src, dst string, errp *error) {
	Report(errp, func() error { return vfs.Rename(src, dst) })
}

// TryIsEmpty is the reporting form of VFS.IsEmpty.
func TryIsEmpty(vfs VFS, name string, errp *error) bool {
	return reportValue(errp, func() (bool, error) { return vfs.IsEmpty(name) })
}

// TryReadDir is the reporting form of VFS.ReadDir.
func TryReadDir(vfs VFS, name string, errp *error) Cursor {
	return reportValue(errp, func() (Cursor, error) { return vfs.ReadDir(name) })
}

// TryWalkDir is the reporting form of VFS.WalkDir.
func TryWalkDir(vfs VFS, name string, opts WalkOptions, errp *error) RecursiveCursor {
	return reportValue(errp, func() (RecursiveCursor, error) { return vfs.WalkDir(name, opts) })
}
