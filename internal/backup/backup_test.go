package backup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adyhwang/clipvault/dbopen"
	"github.com/adyhwang/clipvault/internal/store"
)

func newTestStore(t *testing.T) (*store.Store, *Runner, string) {
	t.Helper()
	db := dbopen.OpenMemory(t)
	st := store.New(db, t.TempDir(), slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}
	dir := t.TempDir()
	return st, New(db, dir, time.Hour, 3, nil), dir
}

// WHAT: a snapshot is a complete, openable database containing the same
// rows as the source.
func TestBackupOnce(t *testing.T) {
	st, r, _ := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"alpha", "beta"} {
		if err := st.Insert(ctx, &store.Item{Kind: store.KindText, Content: content}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	path, err := r.BackupOnce(ctx)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}

	snap, err := dbopen.Open(path)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer snap.Close()
	var n int
	if err := snap.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		t.Fatalf("count snapshot rows: %v", err)
	}
	if n != 2 {
		t.Fatalf("snapshot rows = %d, want 2", n)
	}
}

// WHAT: once more than maxBackups snapshots exist, the oldest are pruned
// and the newest survive.
func TestBackupPrunes(t *testing.T) {
	_, r, dir := newTestStore(t)
	ctx := context.Background()
	r.maxBackups = 2

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		stamp := base.Add(time.Duration(i) * time.Minute)
		r.now = func() time.Time { return stamp }
		if _, err := r.BackupOnce(ctx); err != nil {
			t.Fatalf("backup %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(entries))
	}
	want := []string{
		"clipvault_20260829_100300.db",
		"clipvault_20260829_100400.db",
	}
	for i, e := range entries {
		if e.Name() != want[i] {
			t.Fatalf("survivor %d = %q, want %q", i, e.Name(), want[i])
		}
	}
}

// WHAT: files in the backup dir that are not snapshots are left alone.
func TestPruneIgnoresForeignFiles(t *testing.T) {
	_, r, dir := newTestStore(t)
	ctx := context.Background()
	r.maxBackups = 1

	foreign := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(foreign, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		stamp := base.Add(time.Duration(i) * time.Minute)
		r.now = func() time.Time { return stamp }
		if _, err := r.BackupOnce(ctx); err != nil {
			t.Fatalf("backup %d: %v", i, err)
		}
	}

	if _, err := os.Stat(foreign); err != nil {
		t.Fatalf("foreign file was pruned: %v", err)
	}
}
