package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
)

// RecoverFromMirror bypasses the primary and reads the mirror copy of
// key, repairing the primary on success. Callers use it when the
// primary holds bytes that fail to decode.
func (s *Store) RecoverFromMirror(ctx context.Context, key string) ([]byte, error) {
	unlock := s.lockKey(key)
	defer unlock()

	var value []byte
	err := s.withWatchdog(ctx, func(ctx context.Context) error {
		b, err := s.readMirror(key)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrNotFound, key)
		}
		if werr := s.writePrimary(ctx, key, b); werr != nil {
			slog.Warn("primary repair failed", "key", key, "error", werr)
		}
		value = b
		return nil
	})
	return value, err
}

// writeMirror writes value to the key's mirror file using
// write-to-temp, verify, then atomic rename. A reader of the mirror
// path never observes a partial file.
func (s *Store) writeMirror(key string, value []byte) error {
	final := s.MirrorPath(key)
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open mirror temp: %w", err)
	}
	if _, err := f.Write(value); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write mirror temp: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync mirror temp: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close mirror temp: %w", err)
	}

	// Re-read the temp file before the rename; only verified bytes
	// replace the previous mirror generation.
	written, err := os.ReadFile(tmp)
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("verify mirror temp: %w", err)
	}
	if !bytes.Equal(written, value) {
		os.Remove(tmp)
		return fmt.Errorf("mirror temp for %q does not match written bytes", key)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename mirror: %w", err)
	}
	return nil
}

func (s *Store) readMirror(key string) ([]byte, error) {
	b, err := os.ReadFile(s.MirrorPath(key))
	if err != nil {
		return nil, fmt.Errorf("read mirror: %w", err)
	}
	return b, nil
}

func (s *Store) removeMirror(key string) error {
	err := os.Remove(s.MirrorPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove mirror: %w", err)
	}
	return nil
}
