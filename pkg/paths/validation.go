package paths

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/binstall/pkg/errors"
)

// ValidateName ensures an installed name is safe to join onto a
// destination root. Names must be bare file names:
// - not empty
// - no path separators (forward or backward)
// - no traversal sequences
// - no null or control characters
func ValidateName(name string) error {
	if name == "" {
		return errors.New(errors.ErrInvalidName, "name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return errors.Newf(errors.ErrPathTraversal,
			"name %q contains path separators", name)
	}

	if name == "." || name == ".." || strings.Contains(name, "..") {
		return errors.Newf(errors.ErrPathTraversal,
			"name %q contains traversal sequences", name)
	}

	for _, r := range name {
		if r < 32 || r == 0x7f {
			return errors.Newf(errors.ErrInvalidName,
				"name %q contains control characters", name)
		}
	}

	return nil
}

// ValidateSource checks that a source path is a safe install source:
// it must exist, be a regular file, not be (or sit behind) a symlink,
// and not have additional hard links. Symlink sources are rejected
// outright rather than followed, since an attacker controlling the
// link target could swap the content after validation.
func ValidateSource(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "invalid source path %q", path)
	}

	fi, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrSourceNotFound, "source file not found: %s", path)
		}
		return errors.Wrapf(err, errors.ErrPermission, "cannot stat source %s", path)
	}

	if fi.Mode()&fs.ModeSymlink != 0 {
		return errors.Newf(errors.ErrSymlinkDetected,
			"source %s is a symlink; symlink sources are not allowed", path)
	}

	if err := checkNoSymlinkComponents(filepath.Dir(abs)); err != nil {
		return err
	}

	if !fi.Mode().IsRegular() {
		return errors.Newf(errors.ErrNotRegularFile,
			"source %s is not a regular file", path)
	}

	if linkCount(fi) > 1 {
		return errors.Newf(errors.ErrHardlinkDetected,
			"source %s has multiple hard links; the content could be swapped through another link", path)
	}

	return nil
}

// ValidateDestination checks a computed target path against the
// destination root. The target must be an immediate child of the root
// after canonicalization, the root's path chain must not contain
// symlinks, and if the target name already exists it must be a regular
// non-symlink file (so an atomic rename over it is well defined).
func ValidateDestination(root, target string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "invalid destination root %q", root)
	}
	absRoot = filepath.Clean(absRoot)

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "invalid target path %q", target)
	}
	absTarget = filepath.Clean(absTarget)

	// The destination directory is flat: the target's parent must be
	// the root itself, not merely some descendant.
	if filepath.Dir(absTarget) != absRoot {
		return errors.Newf(errors.ErrOutsideRoot,
			"target %s is outside allowed directory %s", target, absRoot).
			WithDetail("root", absRoot).
			WithDetail("target", absTarget)
	}

	if err := checkNoSymlinkComponents(absRoot); err != nil {
		return err
	}

	if fi, err := os.Lstat(absTarget); err == nil {
		if fi.Mode()&fs.ModeSymlink != 0 {
			return errors.Newf(errors.ErrSymlinkDetected,
				"destination %s is a symlink", absTarget)
		}
		if !fi.Mode().IsRegular() {
			return errors.Newf(errors.ErrNotRegularFile,
				"destination %s exists and is not a regular file", absTarget)
		}
	}

	return nil
}

// checkNoSymlinkComponents walks every prefix of an absolute path and
// rejects the path if any existing component is a symlink. Components
// that do not exist yet are allowed; they cannot redirect a write.
func checkNoSymlinkComponents(abs string) error {
	prefix := string(filepath.Separator)
	for _, part := range strings.Split(abs, string(filepath.Separator)) {
		if part == "" {
			continue
		}
		prefix = filepath.Join(prefix, part)
		fi, err := os.Lstat(prefix)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return errors.Wrapf(err, errors.ErrPermission, "cannot stat %s", prefix)
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			return errors.Newf(errors.ErrSymlinkDetected,
				"path component %s is a symlink", prefix)
		}
	}
	return nil
}
