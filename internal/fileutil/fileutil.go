// Package fileutil holds file permission constants and the atomic output
// writer shared by the pipeline and the CLI.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/erraggy/oasprep/oaserrors"
)

// OwnerReadWrite is the file permission mode for spec output files
// containing potentially sensitive API data (owner read/write only).
const OwnerReadWrite os.FileMode = 0o600

// ReadableByAll is the file permission mode for generator configuration
// files intended to be read by build tools and other users.
const ReadableByAll os.FileMode = 0o644

// RejectSymlink returns an error if path exists and is a symbolic link.
// A missing path is accepted.
func RejectSymlink(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking output path: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("refusing to write to symlink: %s", path)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file in the target directory and
// renames it over path, so readers never observe a partial file. On failure
// the target is left untouched. Errors are *oaserrors.WriteError.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	path = filepath.Clean(path)
	if err := RejectSymlink(path); err != nil {
		return &oaserrors.WriteError{Path: path, Op: "check", Cause: err}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &oaserrors.WriteError{Path: path, Op: "create", Cause: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return &oaserrors.WriteError{Path: path, Op: "write", Cause: err}
	}
	if err = tmp.Sync(); err != nil {
		return &oaserrors.WriteError{Path: path, Op: "sync", Cause: err}
	}
	if err = tmp.Chmod(perm); err != nil {
		return &oaserrors.WriteError{Path: path, Op: "chmod", Cause: err}
	}
	if err = tmp.Close(); err != nil {
		return &oaserrors.WriteError{Path: path, Op: "close", Cause: err}
	}
	if err = os.Rename(tmpName, path); err != nil {
		return &oaserrors.WriteError{Path: path, Op: "rename", Cause: err}
	}
	return nil
}
