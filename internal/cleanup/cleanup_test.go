package cleanup

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adyhwang/clipvault/dbopen"
	"github.com/adyhwang/clipvault/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	st := store.New(db, t.TempDir(), slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}
	return st
}

func insertAt(t *testing.T, st *store.Store, content string, at time.Time, groupID *int64) {
	t.Helper()
	item := &store.Item{
		Kind:      store.KindText,
		Content:   content,
		CreatedAt: at.UnixMilli(),
		GroupID:   groupID,
	}
	if err := st.Insert(context.Background(), item); err != nil {
		t.Fatalf("insert %q: %v", content, err)
	}
}

// WHAT: a sweep removes ungrouped items past the cutoff, keeps fresh ones,
// and never touches grouped items regardless of age.
func TestSweepOnce(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	gid, err := st.CreateGroup(ctx, "keepers")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	insertAt(t, st, "ancient", now.Add(-40*24*time.Hour), nil)
	insertAt(t, st, "ancient grouped", now.Add(-40*24*time.Hour), &gid)
	insertAt(t, st, "fresh", now.Add(-time.Hour), nil)

	r := New(st, 30, time.Hour, nil)
	r.now = func() time.Time { return now }
	r.SweepOnce(ctx)

	items, err := st.Query(ctx, store.QueryOptions{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	for _, it := range items {
		if it.Content == "ancient" {
			t.Fatal("expired ungrouped item survived the sweep")
		}
	}
}

// WHAT: Run sweeps immediately on start and stops cleanly on cancel.
func TestRunSweepsOnStart(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	insertAt(t, st, "ancient", now.Add(-40*24*time.Hour), nil)

	r := New(st, 30, time.Hour, nil)
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// The initial sweep runs before the first tick; poll briefly for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := st.Count(context.Background(), store.QueryOptions{})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("initial sweep never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
