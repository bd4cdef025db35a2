// Package cleanup periodically deletes ungrouped history older than the
// configured retention. Grouped items are never touched.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/adyhwang/clipvault/internal/store"
)

// Runner is the retention sweep loop.
type Runner struct {
	store     *store.Store
	retention time.Duration
	interval  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// New creates a Runner deleting ungrouped items older than retentionDays,
// sweeping every interval.
func New(st *store.Store, retentionDays int, interval time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:     st,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		log:       logger,
		now:       time.Now,
	}
}

// Run sweeps once immediately, then on every tick until ctx is canceled.
func (r *Runner) Run(ctx context.Context) {
	r.log.Info("cleanup: started", "retention", r.retention, "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("cleanup: stopped")
			return
		case <-ticker.C:
			r.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes everything ungrouped past the retention cutoff.
func (r *Runner) SweepOnce(ctx context.Context) {
	cutoff := r.now().Add(-r.retention)
	if err := r.store.DeleteOlderThan(ctx, cutoff); err != nil {
		r.log.Error("cleanup: sweep failed", "error", err)
		return
	}
	r.log.Debug("cleanup: sweep done", "cutoff", cutoff)
}
