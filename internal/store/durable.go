package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Source says where a read was satisfied from.
type Source int

const (
	SourcePrimary Source = iota
	SourceMirror
)

func (s Source) String() string {
	if s == SourceMirror {
		return "mirror"
	}
	return "primary"
}

// Put durably writes value under key. The write is verified by
// reading the key back and byte-comparing; verification failures are
// retried with increasing backoff. On success the same bytes are
// mirrored to the file area, and any previous value was backed up
// first. A Put that returns nil is recoverable after an immediate
// process kill.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	unlock := s.lockKey(key)
	defer unlock()

	return s.withWatchdog(ctx, func(ctx context.Context) error {
		return s.putLocked(ctx, key, value)
	})
}

func (s *Store) putLocked(ctx context.Context, key string, value []byte) error {
	prev, err := s.readPrimary(ctx, key)
	if err == nil && !bytes.Equal(prev, value) {
		if berr := s.writeBackup(key, prev); berr != nil {
			// A failed backup does not block the write; the mirror
			// still holds the previous generation until this write
			// completes.
			slog.Warn("backup before overwrite failed", "key", key, "error", berr)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxWriteRetries; attempt++ {
		if err := s.writePrimary(ctx, key, value); err != nil {
			lastErr = err
		} else if verifyErr := s.verifyPrimary(ctx, key, value); verifyErr != nil {
			lastErr = verifyErr
		} else {
			if err := s.writeMirror(key, value); err != nil {
				slog.Warn("mirror write failed", "key", key, "error", err)
			}
			s.pruneBackups()
			return nil
		}

		slog.Warn("write attempt failed", "key", key, "attempt", attempt, "error", lastErr)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w for %q after %d attempts: %v", ErrVerification, key, maxWriteRetries, lastErr)
}

// Get reads the current value of key. The primary area is tried
// first; on a miss or decode failure the file mirror is consulted,
// and a value recovered from the mirror immediately repairs the
// primary (self-healing read).
func (s *Store) Get(ctx context.Context, key string) ([]byte, Source, error) {
	unlock := s.lockKey(key)
	defer unlock()

	var value []byte
	var source Source
	err := s.withWatchdog(ctx, func(ctx context.Context) error {
		var err error
		value, source, err = s.getLocked(ctx, key)
		return err
	})
	return value, source, err
}

func (s *Store) getLocked(ctx context.Context, key string) ([]byte, Source, error) {
	value, err := s.readPrimary(ctx, key)
	if err == nil {
		return value, SourcePrimary, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		slog.Warn("primary read failed, trying mirror", "key", key, "error", err)
	}

	mirrored, merr := s.readMirror(key)
	if merr != nil {
		return nil, SourcePrimary, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	if err := s.writePrimary(ctx, key, mirrored); err != nil {
		slog.Warn("self-heal rewrite failed", "key", key, "error", err)
	} else {
		slog.Info("primary repaired from mirror", "key", key)
	}
	return mirrored, SourceMirror, nil
}

// Delete removes key from the primary and the mirror. The previous
// value is backed up first.
func (s *Store) Delete(ctx context.Context, key string) error {
	unlock := s.lockKey(key)
	defer unlock()

	return s.withWatchdog(ctx, func(ctx context.Context) error {
		if prev, err := s.readPrimary(ctx, key); err == nil {
			if berr := s.writeBackup(key, prev); berr != nil {
				slog.Warn("backup before delete failed", "key", key, "error", berr)
			}
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete %q: %w", key, err)
		}
		return s.removeMirror(key)
	})
}

func (s *Store) readPrimary(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) writePrimary(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

func (s *Store) verifyPrimary(ctx context.Context, key string, want []byte) error {
	got, err := s.readPrimary(ctx, key)
	if err != nil {
		return fmt.Errorf("verify read %q: %w", key, err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("verify %q: stored %d bytes differ from written %d bytes", key, len(got), len(want))
	}
	return nil
}
