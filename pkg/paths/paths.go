package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/binstall/pkg/errors"
	"github.com/arthur-debert/binstall/pkg/types"
)

// Default directories and files.
// IMPORTANT: the history file layout is not user-visible API, but it is
// shared between concurrent binstall processes, so these names must stay
// stable across versions.
const (
	// DefaultSystemRoot is the destination root for the system scope.
	DefaultSystemRoot = "/usr/local/bin"

	// DefaultSystemHistoryDir is where the system-scope history log lives.
	DefaultSystemHistoryDir = "/var/log/binstall"

	// BinstallDirName is the directory name for binstall-specific files.
	BinstallDirName = "binstall"

	// HistoryFileName is the name of the append-only history log.
	HistoryFileName = "history.jsonl"

	// LockFileSuffix is appended to the history file path to form the
	// cross-process lock file.
	LockFileSuffix = ".lock"
)

// Paths resolves a single installation scope to its destination root
// and history log. All returned paths are absolute.
type Paths struct {
	scope       types.Scope
	root        string
	historyFile string
}

// New creates a Paths for the given scope. Empty root or historyFile
// select the scope's default location; non-empty values override it
// (already-resolved absolute paths are expected from config).
func New(scope types.Scope, root, historyFile string) (*Paths, error) {
	if !scope.Valid() {
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown scope %q", scope)
	}

	p := &Paths{scope: scope}

	if root == "" {
		root = defaultRoot(scope)
	}
	absRoot, err := filepath.Abs(expandHome(root))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to resolve destination root %q", root)
	}
	p.root = filepath.Clean(absRoot)

	if historyFile == "" {
		historyFile = defaultHistoryFile(scope)
	}
	absHistory, err := filepath.Abs(expandHome(historyFile))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to resolve history file %q", historyFile)
	}
	p.historyFile = filepath.Clean(absHistory)

	return p, nil
}

// Scope returns the scope this Paths was created for.
func (p *Paths) Scope() types.Scope { return p.scope }

// Root returns the absolute destination root.
func (p *Paths) Root() string { return p.root }

// HistoryFile returns the absolute path of the history log.
func (p *Paths) HistoryFile() string { return p.historyFile }

// LockFile returns the path of the cross-process lock file guarding
// the history log.
func (p *Paths) LockFile() string { return p.historyFile + LockFileSuffix }

// TargetPath computes the destination path for an installed name and
// validates it against the root. The name must be a bare file name;
// separators and traversal sequences are rejected.
func (p *Paths) TargetPath(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	target := filepath.Join(p.root, name)
	if err := ValidateDestination(p.root, target); err != nil {
		return "", err
	}
	return target, nil
}

func defaultRoot(scope types.Scope) string {
	if scope == types.ScopeSystem {
		return DefaultSystemRoot
	}
	return xdg.BinHome
}

func defaultHistoryFile(scope types.Scope) string {
	if scope == types.ScopeSystem {
		return filepath.Join(DefaultSystemHistoryDir, HistoryFileName)
	}
	// XDG state dir: data that should persist but is not config
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(BinstallDirName, HistoryFileName)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, BinstallDirName, HistoryFileName)
}

// expandHome expands a leading ~/ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
