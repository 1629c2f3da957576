// Package history implements the append-only install audit log.
//
// The log is a JSON-lines file: one event per line, the newline acting
// as the record delimiter. A record only exists once its line,
// delimiter included, is fully flushed; readers ignore a partial tail
// and writers truncate it away before appending, so a crash mid-append
// never corrupts the store.
//
// Writers across all processes sharing a destination directory are
// serialized by an exclusive lock on a sibling lock file. Lock
// acquisition is bounded; waiting past the configured timeout fails
// with LOCK_TIMEOUT rather than blocking indefinitely. Readers take no
// lock.
package history
