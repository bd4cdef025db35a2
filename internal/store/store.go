// Package store is the persistence engine for clipboard history: one SQLite
// file holding items and groups, plus a sibling directory of image blobs
// referenced by relative path. The store owns every invariant the history
// depends on — insertion ordering, group/retention exemptions, and safe
// cleanup of on-disk blobs when rows die.
//
// The backing file is single-writer. Writes go through a bounded busy-retry
// (dbopen.Exec / dbopen.RunTx); once retries are exhausted the operation
// surfaces ErrStorage and the caller skips the cycle.
package store

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adyhwang/clipvault/dbopen"
)

// DefaultGroupName is seeded on first initialization when no group exists.
const DefaultGroupName = "Favorites"

// Store wraps the history database and its blob directory.
type Store struct {
	db      *sql.DB
	blobDir string
	log     *slog.Logger
	now     func() time.Time
}

// New creates a Store from an already-opened database. blobDir is the
// directory image blobs live in; item rows reference blobs relative to it.
func New(db *sql.DB, blobDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, blobDir: blobDir, log: logger, now: time.Now}
}

// Init applies the schema, runs migrations, creates the blob directory, and
// seeds the default group when the groups table is empty. Idempotent.
func (s *Store) Init(ctx context.Context) error {
	if err := ApplySchema(s.db); err != nil {
		return storageErr("apply schema", err)
	}
	if s.blobDir != "" {
		if err := os.MkdirAll(s.blobDir, 0o755); err != nil {
			return storageErr("create blob dir", err)
		}
	}
	return s.ensureDefaultGroup(ctx)
}

// BlobDir returns the image blob directory.
func (s *Store) BlobDir() string { return s.blobDir }

// BlobPath resolves an item's relative image reference to an absolute path.
func (s *Store) BlobPath(ref string) string {
	return filepath.Join(s.blobDir, ref)
}

func (s *Store) ensureDefaultGroup(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups`).Scan(&count); err != nil {
		return storageErr("count groups", err)
	}
	if count > 0 {
		return nil
	}
	_, err := dbopen.Exec(ctx, s.db,
		`INSERT OR IGNORE INTO groups (name, created_at) VALUES (?, ?)`,
		DefaultGroupName, s.now().UnixMilli())
	if err != nil {
		return storageErr("seed default group", err)
	}
	return nil
}

// deleteBlob removes an image blob from disk. Best-effort: failures are
// logged and swallowed so a stuck file never blocks a metadata delete.
func (s *Store) deleteBlob(ref string) {
	if ref == "" {
		return
	}
	path := s.BlobPath(ref)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("store: blob delete failed", "path", path, "error", err)
	}
}
