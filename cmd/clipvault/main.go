// Command clipvault is the clipboard history daemon: it watches the system
// clipboard, persists text, images and file lists into SQLite, deduplicates
// repeats, and ages out old ungrouped history.
//
// Usage:
//
//	clipvault -config clipvault.yaml
//	clipvault -db history.db -log-level debug
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/adyhwang/clipvault/dbopen"
	"github.com/adyhwang/clipvault/internal/backup"
	"github.com/adyhwang/clipvault/internal/cleanup"
	"github.com/adyhwang/clipvault/internal/clipboard"
	"github.com/adyhwang/clipvault/internal/config"
	"github.com/adyhwang/clipvault/internal/monitor"
	"github.com/adyhwang/clipvault/internal/store"
)

func main() {
	configPath := flag.String("config", "clipvault.yaml", "path to clipvault.yaml config file")
	dbPath := flag.String("db", "", "database path (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *dbPath); err != nil {
		logger.Error("clipvault: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, dbPath string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}

	db, err := dbopen.Open(cfg.Storage.DatabasePath, dbopen.WithMkdirAll())
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.New(db, cfg.Storage.BlobDir, logger)
	if err := st.Init(ctx); err != nil {
		return err
	}

	sys, err := clipboard.NewSystem()
	if err != nil {
		return err
	}

	mon := monitor.New(sys, sys, st, monitor.Config{
		PollInterval:     cfg.Monitor.PollInterval.Std(),
		IgnoreWindow:     cfg.Monitor.IgnoreWindow.Std(),
		MonitorEnabled:   cfg.Monitor.Enabled,
		CaptureImages:    cfg.Monitor.CaptureImages,
		CaptureFiles:     cfg.Monitor.CaptureFiles,
		RemoveDuplicates: cfg.Monitor.RemoveDuplicates,
		MaxHistoryItems:  cfg.Monitor.MaxHistoryItems,
	}, logger)

	var wg sync.WaitGroup
	if cfg.Cleanup.Enabled {
		sweeper := cleanup.New(st, cfg.Cleanup.RetentionDays, cfg.Cleanup.Interval.Std(), logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweeper.Run(ctx)
		}()
	}
	if cfg.Backup.Enabled {
		snapshots := backup.New(db, cfg.Backup.Dir, cfg.Backup.Interval.Std(), cfg.Backup.MaxBackups, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshots.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logEvents(ctx, logger, mon.Events())
	}()

	mon.Start()
	logger.Info("clipvault: running",
		"db", cfg.Storage.DatabasePath,
		"blobs", st.BlobDir(),
		"poll", cfg.Monitor.PollInterval.Std(),
	)

	<-ctx.Done()
	mon.Stop()
	wg.Wait()
	return nil
}

func logEvents(ctx context.Context, logger *slog.Logger, events <-chan monitor.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch ev.Type {
			case monitor.EventItemCaptured:
				logger.Info("clipvault: captured",
					"id", ev.Item.ID,
					"kind", ev.Item.Kind.String(),
					"preview", ev.Item.PreviewText,
				)
			case monitor.EventDuplicateRefreshed:
				logger.Debug("clipvault: duplicate refreshed")
			}
		}
	}
}
