// Package commands provides high-level command implementations for binstall.
//
// This package is the orchestration layer between the CLI and the
// lower-level packages: it resolves configuration into concrete paths,
// runs the install engine, and records the outcome in the history log.
package commands

import (
	"os"
	"time"

	"github.com/arthur-debert/binstall/pkg/history"
	"github.com/arthur-debert/binstall/pkg/installer"
	"github.com/arthur-debert/binstall/pkg/paths"
	"github.com/arthur-debert/binstall/pkg/types"
)

// Options carries the resolved settings shared by every command. The CLI
// fills it from configuration plus flags; tests fill it directly.
type Options struct {
	// Scope selects the system or user installation area.
	Scope types.Scope
	// Root overrides the installation directory for the scope. Empty
	// selects the scope default.
	Root string
	// HistoryFile overrides the history log location. Empty selects the
	// scope default.
	HistoryFile string
	// Mode is the permission mode applied to installed files. Zero
	// selects 0755.
	Mode uint32
	// CreateRoot creates a missing installation directory instead of
	// failing.
	CreateRoot bool
	// KeepExtension keeps recognized script extensions on installed
	// names.
	KeepExtension bool
	// LockTimeout bounds how long history appends wait for the log
	// lock. Non-positive selects the default.
	LockTimeout time.Duration
}

// env is the resolved runtime for one command invocation.
type env struct {
	paths  *paths.Paths
	engine *installer.Engine
	store  *history.Store
}

func newEnv(opts Options) (*env, error) {
	p, err := paths.New(opts.Scope, opts.Root, opts.HistoryFile)
	if err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == 0 {
		mode = 0755
	}

	return &env{
		paths:  p,
		engine: installer.New(p, os.FileMode(mode), opts.CreateRoot, opts.KeepExtension),
		store:  history.New(p.HistoryFile(), p.LockFile(), opts.LockTimeout),
	}, nil
}

// currentActor resolves who ran the command. Under sudo the invoking
// user is recorded, not root.
func currentActor() (string, int) {
	uid := os.Getuid()
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u, uid
	}
	if u := os.Getenv("USER"); u != "" {
		return u, uid
	}
	return "unknown", uid
}
