package store

import (
	"context"
	"database/sql"

	"github.com/adyhwang/clipvault/dbopen"
)

// CreateGroup adds a named group. Names are unique; a collision returns
// ErrDuplicateName.
func (s *Store) CreateGroup(ctx context.Context, name string) (int64, error) {
	res, err := dbopen.Exec(ctx, s.db,
		`INSERT INTO groups (name, created_at) VALUES (?, ?)`,
		name, s.now().UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateName
		}
		return 0, storageErr("create group", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("create group id", err)
	}
	return id, nil
}

// RenameGroup changes a group's name, keeping the uniqueness constraint.
func (s *Store) RenameGroup(ctx context.Context, id int64, name string) error {
	res, err := dbopen.Exec(ctx, s.db,
		`UPDATE groups SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return storageErr("rename group", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGroup removes a group and ungroups its members in one transaction.
// Member items are never deleted; they fall back to plain history and
// become subject to retention again.
func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET group_id = NULL WHERE group_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err == ErrNotFound {
		return err
	}
	if err != nil {
		return storageErr("delete group", err)
	}
	return nil
}

// ListGroups returns all groups, oldest first.
func (s *Store) ListGroups(ctx context.Context) ([]*Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM groups ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, storageErr("list groups", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, storageErr("scan group", err)
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

// GetGroupName resolves a group name, or "" when id is nil or unknown.
func (s *Store) GetGroupName(ctx context.Context, id *int64) (string, error) {
	if id == nil {
		return "", nil
	}
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM groups WHERE id = ?`, *id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", storageErr("get group name", err)
	}
	return name, nil
}
