package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// backupStampLayout is RFC3339 with dashes instead of colons so the
// stamp is a portable filename component.
const backupStampLayout = "2006-01-02T15-04-05.000Z"

// writeBackup copies the previous value of key into a timestamped
// backup file before it is overwritten.
func (s *Store) writeBackup(key string, value []byte) error {
	stamp := s.now().UTC().Format(backupStampLayout)
	path := filepath.Join(s.dir, backupDir, fmt.Sprintf("%s_%s.json", key, stamp))
	if err := os.WriteFile(path, value, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// pruneBackups opportunistically removes backups older than the
// retention window. Failures are logged, never surfaced: pruning is
// housekeeping, not correctness.
func (s *Store) pruneBackups() {
	dir := filepath.Join(s.dir, backupDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("backup prune scan failed", "error", err)
		return
	}

	cutoff := s.now().UTC().Add(-BackupRetention)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stamp, ok := backupStamp(e.Name())
		if !ok {
			continue
		}
		if stamp.Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				slog.Warn("backup prune failed", "file", e.Name(), "error", err)
			}
		}
	}
}

// backupStamp extracts the timestamp from a backup filename of the
// form <key>_<stamp>.json.
func backupStamp(name string) (time.Time, bool) {
	base := strings.TrimSuffix(name, ".json")
	if base == name {
		return time.Time{}, false
	}
	i := strings.LastIndexByte(base, '_')
	if i < 0 {
		return time.Time{}, false
	}
	stamp, err := time.Parse(backupStampLayout, base[i+1:])
	if err != nil {
		return time.Time{}, false
	}
	return stamp, true
}
