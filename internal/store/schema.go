package store

import (
	"database/sql"
	"fmt"
)

// Schema creates the two history tables. Applied idempotently on every
// open; upgrades are additive nullable columns only, so an old database
// file is never rewritten destructively.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    kind         INTEGER NOT NULL,
    content      TEXT NOT NULL DEFAULT '',
    image_ref    TEXT,
    image_fp     TEXT,
    file_paths   TEXT NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL,
    preview_text TEXT NOT NULL DEFAULT '',
    group_id     INTEGER DEFAULT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_items_kind    ON items(kind);
CREATE INDEX IF NOT EXISTS idx_items_imagefp ON items(image_fp);
CREATE INDEX IF NOT EXISTS idx_items_group   ON items(group_id);

CREATE TABLE IF NOT EXISTS groups (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL
);
`

// Migration001GroupID backfills group_id on databases created before
// grouping existed.
const Migration001GroupID = `
ALTER TABLE items ADD COLUMN group_id INTEGER DEFAULT NULL;
`

// ApplySchema creates all tables and indexes, then applies column
// migrations. Safe to run on every start.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return err
	}
	return applyColumnMigration(db, "items", "group_id", Migration001GroupID)
}

// applyColumnMigration adds a column if it doesn't exist (idempotent). A
// column already present is not an error; a failed ALTER is.
func applyColumnMigration(db *sql.DB, table, column, ddl string) error {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&count)
	if err != nil {
		return fmt.Errorf("store: inspect %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate %s.%s: %w", table, column, err)
	}
	return nil
}
