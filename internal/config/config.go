// Package config handles clipvault configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that accepts YAML strings like "500ms" or
// "24h" as well as raw nanosecond integers.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: bad duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("config: bad duration %v: %w", value.Value, err)
	}
	*d = Duration(n)
	return nil
}

// Config is the top-level clipvault configuration.
type Config struct {
	Monitor MonitorConfig `yaml:"monitor"`
	Storage StorageConfig `yaml:"storage"`
	Cleanup CleanupConfig `yaml:"cleanup"`
	Backup  BackupConfig  `yaml:"backup"`
}

// MonitorConfig controls the clipboard capture loop.
type MonitorConfig struct {
	Enabled          bool          `yaml:"enabled"`
	PollInterval     Duration      `yaml:"poll_interval"`
	IgnoreWindow     Duration      `yaml:"ignore_window"`
	CaptureImages    bool          `yaml:"capture_images"`
	CaptureFiles     bool          `yaml:"capture_files"`
	RemoveDuplicates bool          `yaml:"remove_duplicates"`
	MaxHistoryItems  int           `yaml:"max_history_items"`
}

// StorageConfig locates the database and the image blob directory.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	BlobDir      string `yaml:"blob_dir"`
}

// CleanupConfig controls retention of old ungrouped history.
type CleanupConfig struct {
	Enabled       bool          `yaml:"enabled"`
	RetentionDays int           `yaml:"retention_days"`
	Interval      Duration      `yaml:"interval"`
}

// BackupConfig controls periodic database file backups.
type BackupConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Dir        string        `yaml:"dir"`
	Interval   Duration      `yaml:"interval"`
	MaxBackups int           `yaml:"max_backups"`
}

// Default returns the configuration used when no file or key is present.
func Default() Config {
	return Config{
		Monitor: MonitorConfig{
			Enabled:          true,
			PollInterval:     Duration(500 * time.Millisecond),
			IgnoreWindow:     Duration(500 * time.Millisecond),
			CaptureImages:    true,
			CaptureFiles:     true,
			RemoveDuplicates: true,
			MaxHistoryItems:  500,
		},
		Storage: StorageConfig{
			DatabasePath: "clipvault.db",
			// BlobDir and Backup.Dir default relative to the database
			// directory; applyDefaults derives them.
		},
		Cleanup: CleanupConfig{
			Enabled:       true,
			RetentionDays: 30,
			Interval:      Duration(24 * time.Hour),
		},
		Backup: BackupConfig{
			Enabled:    false,
			Interval:   Duration(24 * time.Hour),
			MaxBackups: 7,
		},
	}
}

// LoadFile reads a YAML configuration file. Keys absent from the file keep
// their defaults; a missing file yields the defaults unchanged.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyDefaults()
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyDefaults backfills values an explicit zero or negative setting
// would break.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Monitor.PollInterval <= 0 {
		c.Monitor.PollInterval = d.Monitor.PollInterval
	}
	if c.Monitor.IgnoreWindow <= 0 {
		c.Monitor.IgnoreWindow = d.Monitor.IgnoreWindow
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = d.Storage.DatabasePath
	}
	if c.Storage.BlobDir == "" {
		c.Storage.BlobDir = filepath.Join(filepath.Dir(c.Storage.DatabasePath), "images")
	}
	if c.Cleanup.Interval <= 0 {
		c.Cleanup.Interval = d.Cleanup.Interval
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = filepath.Join(filepath.Dir(c.Storage.DatabasePath), "backups")
	}
	if c.Backup.Interval <= 0 {
		c.Backup.Interval = d.Backup.Interval
	}
	if c.Backup.MaxBackups <= 0 {
		c.Backup.MaxBackups = d.Backup.MaxBackups
	}
}

func (c *Config) validate() error {
	if c.Monitor.MaxHistoryItems < 0 {
		return fmt.Errorf("config: max_history_items must not be negative, got %d", c.Monitor.MaxHistoryItems)
	}
	if c.Cleanup.Enabled && c.Cleanup.RetentionDays <= 0 {
		return fmt.Errorf("config: retention_days must be positive when cleanup is enabled, got %d", c.Cleanup.RetentionDays)
	}
	return nil
}
