//go:build unix

package history

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/arthur-debert/binstall/pkg/errors"
)

// fileLock holds an exclusive flock on the history lock file. The
// zero-byte lock file is harmless if orphaned: the kernel releases the
// flock automatically when the fd closes, including on process crash.
type fileLock struct {
	file *os.File
}

// acquireLock opens (or creates) the lock file and acquires an
// exclusive flock, polling non-blockingly until the timeout elapses.
func acquireLock(path string, timeout time.Duration) (*fileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrHistoryOpen,
			"cannot create lock directory for %s", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrHistoryOpen,
			"cannot open lock file %s", path)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &fileLock{file: f}, nil
		}
		if err != unix.EWOULDBLOCK && err != unix.EAGAIN {
			f.Close()
			return nil, errors.Wrapf(err, errors.ErrHistoryOpen,
				"cannot lock %s", path)
		}
		if time.Now().After(deadline) {
			f.Close()
			return nil, errors.Newf(errors.ErrLockTimeout,
				"another process held the history lock %s for more than %s", path, timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Release unlocks and closes the lock file. Safe to call multiple
// times.
func (l *fileLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	// Close releases the flock; the explicit unlock keeps intent clear.
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
