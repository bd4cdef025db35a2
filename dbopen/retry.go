package dbopen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	maxRetries = 3
	retryDelay = 50 * time.Millisecond
)

// IsBusy reports whether err indicates an SQLite BUSY/LOCKED condition —
// the transient contention between the capture writer and history readers.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// Exec executes a statement, retrying up to 3 times with a fixed 50ms delay
// when the database is busy. Non-busy errors surface immediately.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		result, err := db.ExecContext(ctx, query, args...)
		if err == nil {
			return result, nil
		}
		if !IsBusy(err) {
			return nil, err
		}
		lastErr = err
		if err := sleepCtx(ctx, retryDelay); err != nil {
			return nil, fmt.Errorf("dbopen: cancelled during retry: %w", err)
		}
	}
	return nil, fmt.Errorf("dbopen: retries exhausted: %w", lastErr)
}

// RunTx executes fn inside a transaction with the same busy-retry policy as
// Exec. fn must be safe to run more than once.
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := runOnce(ctx, db, fn)
		if err == nil {
			return nil
		}
		if !IsBusy(err) {
			return err
		}
		lastErr = err
		if err := sleepCtx(ctx, retryDelay); err != nil {
			return fmt.Errorf("dbopen: cancelled during retry: %w", err)
		}
	}
	return fmt.Errorf("dbopen: retries exhausted: %w", lastErr)
}

func runOnce(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dbopen: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dbopen: commit: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
