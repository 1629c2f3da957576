//go:build !unix

package history

import (
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/binstall/pkg/errors"
)

// fileLock is the non-Unix fallback: exclusive creation of the lock
// file stands in for flock. Unlike flock it can leave a stale lock
// behind on a crash, which the timeout then surfaces as LOCK_TIMEOUT.
type fileLock struct {
	path string
	held bool
}

func acquireLock(path string, timeout time.Duration) (*fileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrHistoryOpen,
			"cannot create lock directory for %s", path)
	}

	deadline := time.Now().Add(timeout)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			f.Close()
			return &fileLock{path: path, held: true}, nil
		}
		if !os.IsExist(err) {
			return nil, errors.Wrapf(err, errors.ErrHistoryOpen,
				"cannot create lock file %s", path)
		}
		if time.Now().After(deadline) {
			return nil, errors.Newf(errors.ErrLockTimeout,
				"another process held the history lock %s for more than %s", path, timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Release removes the lock file. Safe to call multiple times.
func (l *fileLock) Release() {
	if l == nil || !l.held {
		return
	}
	_ = os.Remove(l.path)
	l.held = false
}
