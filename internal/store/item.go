package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/adyhwang/clipvault/dbopen"
	"github.com/adyhwang/clipvault/internal/fingerprint"
)

const itemColumns = `i.id, i.kind, i.content, i.image_ref, i.image_fp, i.file_paths,
	i.created_at, i.preview_text, i.group_id, g.name`

const defaultPageSize = 100

// Insert persists a new item, assigning ID and, when unset, CreatedAt and
// PreviewText. The row is fully persisted before Insert returns, so the
// caller may publish the item immediately.
func (s *Store) Insert(ctx context.Context, item *Item) error {
	if item.CreatedAt == 0 {
		item.CreatedAt = s.now().UnixMilli()
	}
	if item.PreviewText == "" && item.Kind == KindText {
		item.PreviewText = Preview(item.Content)
	}

	res, err := dbopen.Exec(ctx, s.db,
		`INSERT INTO items (kind, content, image_ref, image_fp, file_paths, created_at, preview_text, group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		int(item.Kind), item.Content, nullStr(item.ImageRef), nullStr(item.ImageFingerprint),
		strings.Join(item.FilePaths, "|"), item.CreatedAt, item.PreviewText, item.GroupID,
	)
	if err != nil {
		return storageErr("insert item", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("insert item id", err)
	}
	item.ID = id
	return nil
}

// Query returns items newest first. Ordering is created_at descending with
// ties broken by id descending, so same-timestamp captures keep insertion
// order. Search matches a case-insensitive substring of content or preview.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]*Item, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultPageSize
	}

	where, args := buildFilter(opts)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		FROM items i LEFT JOIN groups g ON i.group_id = g.id
		`+where+`
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, storageErr("query items", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, storageErr("scan item", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the number of items matching the filter, for pagination.
func (s *Store) Count(ctx context.Context, opts QueryOptions) (int, error) {
	where, args := buildFilter(opts)
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items i `+where, args...).Scan(&count)
	if err != nil {
		return 0, storageErr("count items", err)
	}
	return count, nil
}

func buildFilter(opts QueryOptions) (string, []any) {
	var conds []string
	var args []any
	if opts.Search != "" {
		conds = append(conds, `(i.content LIKE '%' || ? || '%' OR i.preview_text LIKE '%' || ? || '%')`)
		args = append(args, opts.Search, opts.Search)
	}
	if opts.Kind != nil {
		conds = append(conds, `i.kind = ?`)
		args = append(args, int(*opts.Kind))
	}
	if opts.GroupID != nil {
		conds = append(conds, `i.group_id = ?`)
		args = append(args, *opts.GroupID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// GetByID returns one item or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		FROM items i LEFT JOIN groups g ON i.group_id = g.id
		WHERE i.id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get item", err)
	}
	return item, nil
}

// Delete removes the row and, for images, the referenced blob. The blob
// delete is best-effort and never fails the row delete.
func (s *Store) Delete(ctx context.Context, id int64) error {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := dbopen.Exec(ctx, s.db, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return storageErr("delete item", err)
	}
	if item.Kind == KindImage {
		s.deleteBlob(item.ImageRef)
	}
	return nil
}

// UpdateContent edits a text item's content and recomputes its preview.
func (s *Store) UpdateContent(ctx context.Context, id int64, content string) error {
	res, err := dbopen.Exec(ctx, s.db,
		`UPDATE items SET content = ?, preview_text = ? WHERE id = ? AND kind = ?`,
		content, Preview(content), id, int(KindText))
	if err != nil {
		return storageErr("update content", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateGroup reassigns an item to a group, or clears the assignment when
// groupID is nil.
func (s *Store) UpdateGroup(ctx context.Context, id int64, groupID *int64) error {
	res, err := dbopen.Exec(ctx, s.db,
		`UPDATE items SET group_id = ? WHERE id = ?`, groupID, id)
	if err != nil {
		return storageErr("update group", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchTimestamp refreshes created_at on rows matching content and kind,
// moving a duplicate capture back to the top of history.
func (s *Store) TouchTimestamp(ctx context.Context, content string, kind Kind) error {
	_, err := dbopen.Exec(ctx, s.db,
		`UPDATE items SET created_at = ? WHERE content = ? AND kind = ?`,
		s.now().UnixMilli(), content, int(kind))
	if err != nil {
		return storageErr("touch timestamp", err)
	}
	return nil
}

// TouchTimestampByID refreshes created_at on one row ("move to top").
func (s *Store) TouchTimestampByID(ctx context.Context, id int64) error {
	res, err := dbopen.Exec(ctx, s.db,
		`UPDATE items SET created_at = ? WHERE id = ?`, s.now().UnixMilli(), id)
	if err != nil {
		return storageErr("touch by id", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchByImageFingerprint refreshes created_at on image rows with the
// given fingerprint.
func (s *Store) TouchByImageFingerprint(ctx context.Context, fp string) error {
	_, err := dbopen.Exec(ctx, s.db,
		`UPDATE items SET created_at = ? WHERE image_fp = ?`, s.now().UnixMilli(), fp)
	if err != nil {
		return storageErr("touch by fingerprint", err)
	}
	return nil
}

// ExistsByContent reports whether an item with identical content and kind
// is already stored.
func (s *Store) ExistsByContent(ctx context.Context, content string, kind Kind) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE content = ? AND kind = ?`,
		content, int(kind)).Scan(&count)
	if err != nil {
		return false, storageErr("exists by content", err)
	}
	return count > 0, nil
}

// ExistsByImageFingerprint reports whether an image with this fingerprint
// is already stored.
func (s *Store) ExistsByImageFingerprint(ctx context.Context, fp string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE image_fp = ?`, fp).Scan(&count)
	if err != nil {
		return false, storageErr("exists by fingerprint", err)
	}
	return count > 0, nil
}

// ExistsByFileSet reports whether a stored file list matches paths as a
// set: after case-insensitive normalization and sorting, same length and
// identical members. Returns the matching row's content so the caller can
// touch it.
func (s *Store) ExistsByFileSet(ctx context.Context, paths []string) (bool, string, error) {
	if len(paths) == 0 {
		return false, "", nil
	}
	want := strings.Join(fingerprint.NormalizeFileSet(paths), "|")

	rows, err := s.db.QueryContext(ctx,
		`SELECT content, file_paths FROM items WHERE kind = ? ORDER BY created_at DESC`,
		int(KindFileList))
	if err != nil {
		return false, "", storageErr("exists by file set", err)
	}
	defer rows.Close()

	for rows.Next() {
		var content, joined string
		if err := rows.Scan(&content, &joined); err != nil {
			return false, "", storageErr("scan file set", err)
		}
		stored := splitFilePaths(joined)
		if len(stored) != len(paths) {
			continue
		}
		if strings.Join(fingerprint.NormalizeFileSet(stored), "|") == want {
			return true, content, nil
		}
	}
	return false, "", rows.Err()
}

func splitFilePaths(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, "|")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (*Item, error) {
	var (
		item      Item
		kind      int
		imageRef  sql.NullString
		imageFP   sql.NullString
		paths     string
		groupID   sql.NullInt64
		groupName sql.NullString
	)
	err := sc.Scan(&item.ID, &kind, &item.Content, &imageRef, &imageFP, &paths,
		&item.CreatedAt, &item.PreviewText, &groupID, &groupName)
	if err != nil {
		return nil, err
	}
	item.Kind = Kind(kind)
	item.ImageRef = imageRef.String
	item.ImageFingerprint = imageFP.String
	item.FilePaths = splitFilePaths(paths)
	if groupID.Valid {
		id := groupID.Int64
		item.GroupID = &id
	}
	item.GroupName = groupName.String
	return &item, nil
}
