package dbopen

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpenAppliesPragmas(t *testing.T) {
	// WHAT: Open yields a usable database with foreign keys enabled.
	// WHY: Group/item referential behaviour depends on the pragma set.
	db := OpenMemory(t)

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("pragma query: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys: got %d, want 1", fk)
	}
}

func TestOpenWithSchema(t *testing.T) {
	// WHAT: Inline schema SQL executes during Open.
	// WHY: The store hands its schema to Open for idempotent bootstrap.
	db := OpenMemory(t, WithSchema(`CREATE TABLE t (id INTEGER PRIMARY KEY)`))
	if _, err := db.Exec(`INSERT INTO t (id) VALUES (1)`); err != nil {
		t.Fatalf("insert into schema table: %v", err)
	}
}

func TestOpenWithMkdirAll(t *testing.T) {
	// WHAT: Parent directories are created when requested.
	// WHY: First run happens before the data directory exists.
	path := filepath.Join(t.TempDir(), "deep", "nested", "history.db")
	db, err := Open(path, WithMkdirAll())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.Close()
}

func TestIsBusy(t *testing.T) {
	// WHAT: Busy classification matches SQLite lock errors only.
	// WHY: Retrying non-transient errors would mask real failures.
	if IsBusy(nil) {
		t.Error("nil classified busy")
	}
	if IsBusy(errors.New("UNIQUE constraint failed: groups.name")) {
		t.Error("constraint violation classified busy")
	}
	if !IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Error("lock error not classified busy")
	}
}

func TestExecAndRunTx(t *testing.T) {
	// WHAT: The retry wrappers execute plain statements and transactions.
	// WHY: Every store write goes through one of them.
	db := OpenMemory(t, WithSchema(`CREATE TABLE t (n INTEGER)`))
	ctx := context.Background()

	if _, err := Exec(ctx, db, `INSERT INTO t (n) VALUES (?)`, 1); err != nil {
		t.Fatalf("exec: %v", err)
	}

	err := RunTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO t (n) VALUES (?)`, 2)
		return err
	})
	if err != nil {
		t.Fatalf("run tx: %v", err)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&count)
	if count != 2 {
		t.Errorf("rows: got %d, want 2", count)
	}
}
