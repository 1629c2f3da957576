package installer

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/binstall/pkg/errors"
	"github.com/arthur-debert/binstall/pkg/logging"
	"github.com/arthur-debert/binstall/pkg/paths"
	"github.com/arthur-debert/binstall/pkg/types"
)

// Engine orchestrates validation, staging, and atomic commit for a
// single destination directory.
type Engine struct {
	paths         *paths.Paths
	mode          fs.FileMode
	createRoot    bool
	keepExtension bool
}

// New creates an Engine for the destination described by p. mode is the
// permission bits applied to installed files; createRoot permits
// creating a missing destination root; keepExtension disables script
// extension stripping.
func New(p *paths.Paths, mode fs.FileMode, createRoot, keepExtension bool) *Engine {
	return &Engine{
		paths:         p,
		mode:          mode & 0777,
		createRoot:    createRoot,
		keepExtension: keepExtension,
	}
}

// InstallRequest describes one install operation.
type InstallRequest struct {
	// Source is the path of the file to install.
	Source string

	// Name overrides the installed name. When empty the name derives
	// from the source filename, with recognized script extensions
	// stripped unless keep-extension is in effect.
	Name string

	// Force permits overwriting an existing installed name. The
	// overwrite still happens via atomic rename, never truncation.
	Force bool

	// KeepExtension keeps the script extension for this one install.
	KeepExtension bool
}

// sourceFingerprint captures the stat fields compared before commit to
// detect a source swapped mid-operation.
type sourceFingerprint struct {
	size    int64
	modTime time.Time
}

// Install validates, stages, and atomically commits a file into the
// destination directory, returning the record of what landed on disk.
// Any failure before commit leaves the destination unchanged.
func (e *Engine) Install(req InstallRequest) (*types.InstallTarget, error) {
	logger := logging.GetLogger("installer")

	absSource, err := filepath.Abs(req.Source)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid source path %q", req.Source)
	}

	if err := paths.ValidateSource(absSource); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(absSource)
	if err != nil {
		return nil, classifyFSError(err, "cannot read source %s", absSource)
	}
	fp, err := fingerprint(absSource)
	if err != nil {
		return nil, err
	}

	name := req.Name
	script := isScript(absSource, content)
	if name == "" {
		name = filepath.Base(absSource)
		if script && !e.keepExtension && !req.KeepExtension {
			name = stripExtension(name)
		}
	}
	if script {
		content = normalizeShebang(absSource, content)
	}

	target, err := e.paths.TargetPath(name)
	if err != nil {
		return nil, err
	}

	if _, err := os.Lstat(target); err == nil && !req.Force {
		return nil, errors.Newf(errors.ErrAlreadyExists,
			"%s already exists in %s; use force to overwrite", name, e.paths.Root()).
			WithDetail("name", name)
	}

	if err := e.ensureRoot(); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("source", absSource).
		Str("target", target).
		Bool("script", script).
		Msg("Staging install")

	handle, err := Stage(e.paths.Root(), content, e.mode)
	if err != nil {
		return nil, err
	}

	// Re-validation immediately before the rename closes the
	// time-of-check/time-of-use window: the filesystem is attacker
	// writable between the checks above and this point.
	if err := e.preCommitCheck(absSource, fp, target, req.Force); err != nil {
		handle.Rollback()
		return nil, err
	}

	if err := handle.Commit(target); err != nil {
		return nil, err
	}

	// Read the committed file back rather than trusting the staged
	// buffer; this also verifies the rename landed.
	installed, err := readBack(name, absSource, target)
	if err != nil {
		if _, statErr := os.Lstat(target); statErr != nil {
			// The file is gone: the rename did not land after all.
			return nil, err
		}
		// The rename landed but the file cannot be read back, for
		// example when the configured mode has no read bit. The install
		// stands; record it from the staged bytes instead.
		logger.Warn().Err(err).
			Str("target", target).
			Msg("Installed, but could not read the file back to verify")
		sum := sha256.Sum256(content)
		installed = &types.InstallTarget{
			Name:        name,
			Path:        target,
			Source:      absSource,
			InstalledAt: time.Now().UTC(),
			Mode:        e.mode,
			Size:        int64(len(content)),
			Digest:      hex.EncodeToString(sum[:]),
		}
	}

	logger.Info().
		Str("name", name).
		Str("target", target).
		Str("digest", installed.Digest).
		Msg("Installed")

	return installed, nil
}

// Uninstall removes an installed name from the destination directory,
// returning the removed path. Only names that validate and exist as
// regular non-symlink files inside the root are eligible.
func (e *Engine) Uninstall(name string) (string, error) {
	logger := logging.GetLogger("installer")

	target, err := e.paths.TargetPath(name)
	if err != nil {
		return "", err
	}

	if _, err := os.Lstat(target); err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf(errors.ErrNotFound,
				"%s is not installed in %s", name, e.paths.Root())
		}
		return "", errors.Wrapf(err, errors.ErrPermission, "cannot stat %s", target)
	}

	if err := os.Remove(target); err != nil {
		return "", errors.Wrapf(err, errors.ErrRemovalFailed, "failed to remove %s", target)
	}

	logger.Info().Str("name", name).Str("target", target).Msg("Uninstalled")
	return target, nil
}

// ensureRoot checks the destination root exists, creating it only when
// configured to.
func (e *Engine) ensureRoot() error {
	root := e.paths.Root()
	fi, err := os.Lstat(root)
	if err == nil {
		if !fi.IsDir() {
			return errors.Newf(errors.ErrNotRegularFile,
				"destination root %s is not a directory", root)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrPermission, "cannot stat destination root %s", root)
	}
	if !e.createRoot {
		return errors.Newf(errors.ErrNotFound,
			"destination root %s does not exist (set install.create_root to create it)", root)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return classifyFSError(err, "failed to create destination root %s", root)
	}
	return nil
}

// preCommitCheck re-runs the full validation adjacent to the rename.
// Failures surface as CONCURRENT_MODIFICATION: the original checks
// passed, so something changed underneath us.
func (e *Engine) preCommitCheck(source string, fp sourceFingerprint, target string, force bool) error {
	if err := paths.ValidateSource(source); err != nil {
		return errors.Wrap(err, errors.ErrConcurrentModification,
			"source changed during installation")
	}

	now, err := fingerprint(source)
	if err != nil {
		return errors.Wrap(err, errors.ErrConcurrentModification,
			"source changed during installation")
	}
	if now != fp {
		return errors.New(errors.ErrConcurrentModification,
			"source was modified during installation")
	}

	if err := paths.ValidateDestination(e.paths.Root(), target); err != nil {
		return errors.Wrap(err, errors.ErrConcurrentModification,
			"destination changed during installation")
	}

	if !force {
		if _, err := os.Lstat(target); err == nil {
			return errors.Newf(errors.ErrAlreadyExists,
				"%s appeared during installation", target)
		}
	}

	return nil
}

func fingerprint(path string) (sourceFingerprint, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return sourceFingerprint{}, errors.Wrapf(err, errors.ErrSourceNotFound,
			"cannot stat source %s", path)
	}
	return sourceFingerprint{size: fi.Size(), modTime: fi.ModTime()}, nil
}

// readBack stats and hashes the committed file, building the
// InstallTarget from what is actually on disk.
func readBack(name, source, target string) (*types.InstallTarget, error) {
	f, err := os.Open(target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal,
			"installed file %s cannot be read back", target)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal,
			"failed to hash installed file %s", target)
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal,
			"cannot stat installed file %s", target)
	}

	return &types.InstallTarget{
		Name:        name,
		Path:        target,
		Source:      source,
		InstalledAt: time.Now().UTC(),
		Mode:        fi.Mode().Perm(),
		Size:        size,
		Digest:      hex.EncodeToString(h.Sum(nil)),
	}, nil
}
