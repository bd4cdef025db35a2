// Package backup writes periodic snapshots of the history database and
// prunes old ones. Snapshots are taken through the live connection with
// VACUUM INTO, so they are consistent even mid-write.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix = "clipvault_"
	fileSuffix = ".db"
	timeLayout = "20060102_150405"
)

// Runner snapshots the database on a fixed interval.
type Runner struct {
	db         *sql.DB
	dir        string
	interval   time.Duration
	maxBackups int
	log        *slog.Logger
	now        func() time.Time
}

// New creates a Runner writing snapshots into dir, keeping at most
// maxBackups of them.
func New(db *sql.DB, dir string, interval time.Duration, maxBackups int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		db:         db,
		dir:        dir,
		interval:   interval,
		maxBackups: maxBackups,
		log:        logger,
		now:        time.Now,
	}
}

// Run snapshots on every tick until ctx is canceled. The first snapshot
// waits a full interval; a fresh process start is not worth a backup.
func (r *Runner) Run(ctx context.Context) {
	r.log.Info("backup: started", "dir", r.dir, "interval", r.interval, "max", r.maxBackups)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("backup: stopped")
			return
		case <-ticker.C:
			if _, err := r.BackupOnce(ctx); err != nil {
				r.log.Error("backup: snapshot failed", "error", err)
			}
		}
	}
}

// BackupOnce writes one snapshot and prunes old ones, returning the
// snapshot path.
func (r *Runner) BackupOnce(ctx context.Context) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create dir: %w", err)
	}
	name := filePrefix + r.now().Format(timeLayout) + fileSuffix
	path := filepath.Join(r.dir, name)

	// VACUUM INTO refuses to overwrite; a leftover from a crashed run is
	// stale by definition.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("backup: clear stale snapshot: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("backup: vacuum into %s: %w", path, err)
	}
	r.log.Info("backup: snapshot written", "path", path)

	if err := r.prune(); err != nil {
		r.log.Warn("backup: prune failed", "error", err)
	}
	return path, nil
}

// prune deletes the oldest snapshots beyond maxBackups. Snapshot names
// embed their timestamp, so lexical order is chronological.
func (r *Runner) prune() error {
	if r.maxBackups <= 0 {
		return nil
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			names = append(names, name)
		}
	}
	if len(names) <= r.maxBackups {
		return nil
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-r.maxBackups] {
		if err := os.Remove(filepath.Join(r.dir, name)); err != nil {
			return err
		}
		r.log.Debug("backup: pruned", "name", name)
	}
	return nil
}
