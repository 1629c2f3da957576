package types

import (
	"io/fs"
	"time"
)

// EventType identifies the kind of history event.
type EventType string

const (
	// EventInstall records a successfully committed installation.
	EventInstall EventType = "install"

	// EventUninstall records a successful removal.
	EventUninstall EventType = "uninstall"

	// EventInstallFailed records an installation attempt that failed
	// after validation started. Failed removals are not recorded.
	EventInstallFailed EventType = "install_failed"
)

// Scope selects which destination root an operation targets.
type Scope string

const (
	// ScopeSystem targets the system-wide binary directory.
	ScopeSystem Scope = "system"

	// ScopeUser targets the per-user binary directory.
	ScopeUser Scope = "user"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeSystem || s == ScopeUser
}

// InstallTarget is the logical record of a currently installed file.
// At most one InstallTarget per Name may exist on disk in a given
// destination directory; the history log may hold many historical
// records for the same name.
type InstallTarget struct {
	// Name is the installed command name, unique within the
	// destination directory.
	Name string `json:"name" yaml:"name"`

	// Path is the absolute path of the installed file.
	Path string `json:"path" yaml:"path"`

	// Source is the path the file was installed from. Informational
	// only; the source may have changed or vanished since.
	Source string `json:"source" yaml:"source"`

	// InstalledAt is when the install was committed.
	InstalledAt time.Time `json:"installed_at" yaml:"installed_at"`

	// Mode holds the permission bits of the installed file.
	Mode fs.FileMode `json:"mode" yaml:"mode"`

	// Size is the installed content size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// Digest is the SHA-256 hex digest of the installed content,
	// computed by reading the committed file back.
	Digest string `json:"digest" yaml:"digest"`
}

// HistoryEvent is one immutable, append-only audit record. Events are
// never mutated or deleted; the log is the source of truth for what is
// currently installed.
type HistoryEvent struct {
	// ID is assigned by the history store and increases monotonically
	// across the life of the log.
	ID int64 `json:"id" yaml:"id"`

	Type EventType `json:"type" yaml:"type"`
	Name string    `json:"name" yaml:"name"`
	Path string    `json:"path" yaml:"path"`

	// Source is the origin path for install events.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Actor is the invoking user. When running under sudo this is the
	// original user, not root.
	Actor string `json:"actor" yaml:"actor"`
	UID   int    `json:"uid" yaml:"uid"`

	// Digest is empty for uninstall and failed-install events.
	Digest string      `json:"digest,omitempty" yaml:"digest,omitempty"`
	Mode   fs.FileMode `json:"mode,omitempty" yaml:"mode,omitempty"`
	Size   int64       `json:"size,omitempty" yaml:"size,omitempty"`

	// Details carries free-form diagnostic text, e.g. the failure
	// reason on install_failed events.
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Target converts an install event back into the InstallTarget it
// recorded. Only meaningful for EventInstall events.
func (e *HistoryEvent) Target() InstallTarget {
	return InstallTarget{
		Name:        e.Name,
		Path:        e.Path,
		Source:      e.Source,
		InstalledAt: e.Timestamp,
		Mode:        e.Mode,
		Size:        e.Size,
		Digest:      e.Digest,
	}
}
