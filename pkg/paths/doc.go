// Package paths provides centralized path handling for binstall.
//
// It resolves each installation scope (system or user) to its
// destination root and history log location, following the XDG Base
// Directory specification for the user scope, and implements the path
// safety checks that gate every install and uninstall:
//
//   - symlink rejection, for sources and destinations alike
//   - hardlink rejection for sources
//   - traversal and outside-root rejection for computed target paths
//
// Validation here is pure classification: callers decide what to do
// with a rejection. The install engine re-runs these checks immediately
// before the atomic commit to close the time-of-check/time-of-use
// window.
package paths
