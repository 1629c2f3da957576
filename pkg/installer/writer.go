package installer

import (
	stderrors "errors"
	"io/fs"
	"os"
	"syscall"

	"github.com/arthur-debert/binstall/pkg/errors"
)

// tempPattern names staged files so stray ones are recognizable after
// a crash.
const tempPattern = ".binstall-*.tmp"

// TempHandle is a staged file awaiting commit or rollback.
type TempHandle struct {
	path      string
	committed bool
}

// Stage writes content to a uniquely named temporary file inside
// destDir, fsyncs it, and sets the final permission bits. The temp file
// lives in the destination directory itself so the later rename is
// atomic; it never crosses a filesystem boundary. The mode is applied
// before the rename, so the final name never exists with wrong
// permissions. setuid/setgid/sticky bits are always stripped.
func Stage(destDir string, content []byte, mode fs.FileMode) (*TempHandle, error) {
	f, err := os.CreateTemp(destDir, tempPattern)
	if err != nil {
		return nil, classifyFSError(err, "failed to create staging file in %s", destDir)
	}
	h := &TempHandle{path: f.Name()}

	if _, err := f.Write(content); err != nil {
		f.Close()
		h.Rollback()
		return nil, classifyFSError(err, "failed to write staged content for %s", destDir)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		h.Rollback()
		return nil, classifyFSError(err, "failed to sync staged content for %s", destDir)
	}

	if err := f.Chmod(mode & 0777); err != nil {
		f.Close()
		h.Rollback()
		return nil, classifyFSError(err, "failed to set mode on staged file %s", h.path)
	}

	if err := f.Close(); err != nil {
		h.Rollback()
		return nil, classifyFSError(err, "failed to close staged file %s", h.path)
	}

	return h, nil
}

// Path returns the temp file's current path.
func (h *TempHandle) Path() string { return h.path }

// Commit renames the staged file onto finalPath in a single atomic
// step, replacing any existing regular file of that name. On failure
// the temp file is rolled back; no partial state remains.
func (h *TempHandle) Commit(finalPath string) error {
	if err := os.Rename(h.path, finalPath); err != nil {
		h.Rollback()
		return classifyFSError(err, "failed to commit %s", finalPath)
	}
	h.committed = true
	return nil
}

// Rollback removes the staged file. Safe to call multiple times and
// after Commit, where it is a no-op.
func (h *TempHandle) Rollback() {
	if h == nil || h.committed {
		return
	}
	_ = os.Remove(h.path)
}

// classifyFSError maps OS-level failures onto the public error
// taxonomy.
func classifyFSError(err error, format string, args ...interface{}) *errors.BinstallError {
	switch {
	case stderrors.Is(err, syscall.ENOSPC):
		return errors.Wrapf(err, errors.ErrInsufficientSpace, format, args...)
	case stderrors.Is(err, syscall.EXDEV):
		return errors.Wrapf(err, errors.ErrCrossFilesystem, format, args...)
	case os.IsPermission(err):
		return errors.Wrapf(err, errors.ErrPermission, format, args...)
	default:
		return errors.Wrapf(err, errors.ErrInternal, format, args...)
	}
}
