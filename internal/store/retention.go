package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/adyhwang/clipvault/dbopen"
)

// Retention and eviction only ever touch ungrouped rows: assigning an item
// to a group is the user's "keep forever" signal.

// DeleteOlderThan removes ungrouped items created before cutoff, along with
// their image blobs.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	ms := cutoff.UnixMilli()
	refs, err := s.collectBlobRefs(ctx,
		`SELECT image_ref FROM items
		WHERE kind = ? AND created_at < ? AND group_id IS NULL AND image_ref IS NOT NULL`,
		int(KindImage), ms)
	if err != nil {
		return err
	}

	if _, err := dbopen.Exec(ctx, s.db,
		`DELETE FROM items WHERE created_at < ? AND group_id IS NULL`, ms); err != nil {
		return storageErr("delete older than", err)
	}

	for _, ref := range refs {
		s.deleteBlob(ref)
	}
	return nil
}

// ClearAll bulk-deletes history. With ungroupedOnly, grouped items are
// exempt exactly as in retention.
func (s *Store) ClearAll(ctx context.Context, ungroupedOnly bool) error {
	sel := `SELECT image_ref FROM items WHERE kind = ? AND image_ref IS NOT NULL`
	del := `DELETE FROM items`
	if ungroupedOnly {
		sel += ` AND group_id IS NULL`
		del += ` WHERE group_id IS NULL`
	}

	refs, err := s.collectBlobRefs(ctx, sel, int(KindImage))
	if err != nil {
		return err
	}
	if _, err := dbopen.Exec(ctx, s.db, del); err != nil {
		return storageErr("clear all", err)
	}
	for _, ref := range refs {
		s.deleteBlob(ref)
	}
	return nil
}

// EvictExcess enforces the history cap: when more than maxItems ungrouped
// rows exist, the oldest surplus rows (created_at ascending) die together
// with their blobs. maxItems <= 0 means unlimited.
func (s *Store) EvictExcess(ctx context.Context, maxItems int) error {
	if maxItems <= 0 {
		return nil
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE group_id IS NULL`).Scan(&count); err != nil {
		return storageErr("count ungrouped", err)
	}
	if count <= maxItems {
		return nil
	}
	surplus := count - maxItems

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, image_ref FROM items
		WHERE group_id IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT ?`, surplus)
	if err != nil {
		return storageErr("select surplus", err)
	}
	var ids []any
	var refs []string
	for rows.Next() {
		var id int64
		var ref sql.NullString
		if err := rows.Scan(&id, &ref); err != nil {
			rows.Close()
			return storageErr("scan surplus", err)
		}
		ids = append(ids, id)
		if ref.Valid {
			refs = append(refs, ref.String)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return storageErr("iterate surplus", err)
	}
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	if _, err := dbopen.Exec(ctx, s.db,
		`DELETE FROM items WHERE id IN (`+placeholders+`)`, ids...); err != nil {
		return storageErr("evict excess", err)
	}

	for _, ref := range refs {
		s.deleteBlob(ref)
	}
	return nil
}

func (s *Store) collectBlobRefs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("collect blob refs", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref sql.NullString
		if err := rows.Scan(&ref); err != nil {
			return nil, storageErr("scan blob ref", err)
		}
		if ref.Valid && ref.String != "" {
			refs = append(refs, ref.String)
		}
	}
	return refs, rows.Err()
}
