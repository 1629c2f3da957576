// Package installer implements the install/uninstall engine.
//
// Installs move through a strict sequence: validate, stage into a
// temporary file in the destination directory, fsync and chmod the
// staged copy, re-validate, then commit with a single atomic rename.
// Any failure after staging rolls the temp file back, so the
// destination directory never holds partial state. Staging in the
// destination directory itself guarantees the rename never crosses a
// filesystem boundary.
//
// Scripts with a recognized extension get their interpreter line
// normalized to an absolute path and the extension stripped from the
// installed name, so `myscript.py` installs as the command `myscript`.
package installer
