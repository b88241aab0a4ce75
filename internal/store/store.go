// Package store persists the state document (and the narrow
// surface's auxiliary keys) to a storage area shared by both
// processes: a SQLite key-value table as the primary, a JSON file
// mirror for crash recovery, and timestamped backups with a rolling
// retention window.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const (
	dbFileName = "shared.db"
	mirrorDir  = "Data"
	backupDir  = "Backups"

	// AppStateKey is the canonical document key. Only the main
	// surface writes it; the narrow surface owns its own keys.
	AppStateKey = "app_state"

	defaultTimeout  = 5 * time.Second
	maxWriteRetries = 3
	retryBackoff    = 50 * time.Millisecond

	// BackupRetention is how long timestamped backups are kept.
	BackupRetention = 7 * 24 * time.Hour
)

// Store owns exclusive access to one storage area. Construct one per
// process and inject it; tests point an isolated instance at a
// temporary directory.
type Store struct {
	db      *sql.DB
	dir     string
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout overrides the per-operation watchdog timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithClock injects a clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open prepares the shared storage area rooted at dir, creating the
// database, mirror, and backup locations as needed. The directory
// path is the single configuration parameter of the storage area.
func Open(dir string, opts ...Option) (*Store, error) {
	for _, sub := range []string{"", mirrorDir, backupDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", ErrUnavailable, filepath.Join(dir, sub), err)
		}
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrUnavailable, err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: apply pragmas: %v", ErrUnavailable, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrUnavailable, err)
	}

	s := &Store{
		db:       db,
		dir:      dir,
		timeout:  defaultTimeout,
		now:      time.Now,
		keyLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// applyPragmas configures SQLite for two cooperating local processes:
// WAL so a reader never sees a half-written row, busy_timeout so the
// processes queue instead of failing, synchronous=FULL so a write
// that returned success survives a process kill.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = FULL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the storage area root.
func (s *Store) Dir() string { return s.dir }

// MirrorPath returns the mirror file path for a key.
func (s *Store) MirrorPath(key string) string {
	return filepath.Join(s.dir, mirrorDir, key+".json")
}

// MirrorDir returns the directory holding mirror files. The daemon
// watches it for writes from the other process.
func (s *Store) MirrorDir() string {
	return filepath.Join(s.dir, mirrorDir)
}

// lockKey serializes all operations for one logical key: one
// operation in flight per key, the rest queue. This is the
// single-writer discipline that prevents lost updates within the
// process.
func (s *Store) lockKey(key string) func() {
	s.mu.Lock()
	l, ok := s.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.keyLocks[key] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// withWatchdog runs fn but abandons it when the deadline passes. An
// abandoned operation is reported as ErrTimeout and not retried; the
// underlying write may still complete, which is harmless because
// writes are idempotent.
func (s *Store) withWatchdog(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}

// DefaultDir resolves the shared storage directory in priority order:
// PETPROGRESS_DATA, then $XDG_DATA_HOME/petprogress, then
// ~/.local/share/petprogress.
func DefaultDir() (string, error) {
	if p := os.Getenv("PETPROGRESS_DATA"); p != "" {
		return p, nil
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "petprogress"), nil
}
