package history

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/binstall/pkg/errors"
	"github.com/arthur-debert/binstall/pkg/logging"
	"github.com/arthur-debert/binstall/pkg/types"
)

// DefaultLockTimeout bounds lock acquisition when no timeout is
// configured.
const DefaultLockTimeout = 10 * time.Second

// Store is an append-only event log backed by a single JSON-lines
// file. A Store holds no open handles between calls; every operation
// opens, works, and closes, so independent Store values in different
// processes cooperate purely through the filesystem.
type Store struct {
	path        string
	lockPath    string
	lockTimeout time.Duration
}

// New creates a Store for the log at path, guarded by the lock file at
// lockPath. A non-positive lockTimeout selects DefaultLockTimeout.
func New(path, lockPath string, lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		path:        path,
		lockPath:    lockPath,
		lockTimeout: lockTimeout,
	}
}

// Path returns the log file path.
func (s *Store) Path() string { return s.path }

// Append assigns the event the next ID and durably writes it under the
// cross-process write lock. The event is flushed, delimiter included,
// before Append returns. A partial record left by a crashed writer is
// truncated away first.
func (s *Store) Append(e *types.HistoryEvent) (int64, error) {
	logger := logging.GetLogger("history")

	lock, err := acquireLock(s.lockPath, s.lockTimeout)
	if err != nil {
		return 0, err
	}
	defer lock.Release()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return 0, errors.Wrapf(err, errors.ErrHistoryOpen,
			"cannot create history directory for %s", s.path)
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrHistoryOpen,
			"cannot open history log %s", s.path)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrHistoryOpen,
			"cannot read history log %s", s.path)
	}

	events, end, err := parseLog(data)
	if err != nil {
		return 0, err
	}

	// Self-heal: drop a partial tail record left by a crashed writer.
	if int64(len(data)) > end {
		logger.Warn().
			Str("log", s.path).
			Int64("truncatedBytes", int64(len(data))-end).
			Msg("Discarding partial history record")
		if err := f.Truncate(end); err != nil {
			return 0, errors.Wrapf(err, errors.ErrHistoryOpen,
				"cannot truncate partial record in %s", s.path)
		}
	}

	var lastID int64
	if len(events) > 0 {
		lastID = events[len(events)-1].ID
	}
	e.ID = lastID + 1
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(e)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrHistoryAppend, "cannot encode event")
	}
	line = append(line, '\n')

	if _, err := f.WriteAt(line, end); err != nil {
		return 0, errors.Wrapf(err, errors.ErrHistoryAppend,
			"cannot append to history log %s", s.path)
	}
	if err := f.Sync(); err != nil {
		return 0, errors.Wrapf(err, errors.ErrHistoryAppend,
			"cannot flush history log %s", s.path)
	}

	return e.ID, nil
}

// AllEvents returns every complete event in ID order. Reads take no
// lock: the snapshot is everything up to the last fully written
// delimiter, so a concurrent in-flight append is simply not yet
// visible.
func (s *Store) AllEvents() ([]types.HistoryEvent, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrHistoryOpen,
			"cannot read history log %s", s.path)
	}

	events, _, err := parseLog(data)
	return events, err
}

// CurrentState derives what is currently installed by replaying the
// log: for each name, the latest event wins, and only a final install
// leaves the name present.
func (s *Store) CurrentState() (map[string]types.InstallTarget, error) {
	events, err := s.AllEvents()
	if err != nil {
		return nil, err
	}

	state := make(map[string]types.InstallTarget)
	for i := range events {
		e := &events[i]
		switch e.Type {
		case types.EventInstall:
			state[e.Name] = e.Target()
		case types.EventUninstall:
			delete(state, e.Name)
		}
		// install_failed events never change the derived state.
	}
	return state, nil
}

// Query filters events in Search. Zero fields match everything.
type Query struct {
	// Term matches case-insensitively against name, path, and source.
	Term string

	// Name matches an exact installed name.
	Name string

	// Since/Until bound the event timestamp (inclusive).
	Since time.Time
	Until time.Time
}

// Search returns all complete events matching the query, in ID order.
func (s *Store) Search(q Query) ([]types.HistoryEvent, error) {
	events, err := s.AllEvents()
	if err != nil {
		return nil, err
	}

	matched := events[:0:0]
	for _, e := range events {
		if q.matches(&e) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (q *Query) matches(e *types.HistoryEvent) bool {
	if q.Name != "" && e.Name != q.Name {
		return false
	}
	if q.Term != "" {
		term := strings.ToLower(q.Term)
		if !strings.Contains(strings.ToLower(e.Name), term) &&
			!strings.Contains(strings.ToLower(e.Path), term) &&
			!strings.Contains(strings.ToLower(e.Source), term) {
			return false
		}
	}
	if !q.Since.IsZero() && e.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && e.Timestamp.After(q.Until) {
		return false
	}
	return true
}

// parseLog decodes complete records and returns them together with the
// byte offset just past the last complete record. A trailing chunk
// without its newline delimiter is not an event. A malformed record
// that does carry its delimiter is real corruption and is surfaced,
// not silently skipped.
func parseLog(data []byte) ([]types.HistoryEvent, int64, error) {
	var events []types.HistoryEvent
	var offset int64

	for {
		rest := data[offset:]
		nl := bytes.IndexByte(rest, '\n')
		if nl < 0 {
			break
		}
		line := rest[:nl]
		next := offset + int64(nl) + 1

		if len(bytes.TrimSpace(line)) > 0 {
			var e types.HistoryEvent
			if err := json.Unmarshal(line, &e); err != nil {
				return nil, 0, errors.Wrapf(err, errors.ErrHistoryCorrupt,
					"corrupt history record at byte %d", offset)
			}
			events = append(events, e)
		}
		offset = next
	}

	return events, offset, nil
}
