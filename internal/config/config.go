package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"studyflow/internal/scheduler"
	"studyflow/internal/slot"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path" json:"db_path"`

	// LogLevel is a zerolog level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Workers bounds how many users are regenerated concurrently.
	Workers int `yaml:"workers" json:"workers"`

	// RegenerateCron schedules regeneration for every user (e.g. "0 6 * * *").
	// Empty disables it.
	RegenerateCron string `yaml:"regenerate_cron" json:"regenerate_cron"`

	SkipWeekends       bool `yaml:"skip_weekends" json:"skip_weekends"`
	SessionMinutes     int  `yaml:"session_minutes" json:"session_minutes"`
	BulkStepMinutes    int  `yaml:"bulk_step_minutes" json:"bulk_step_minutes"`
	MoveStepMinutes    int  `yaml:"move_step_minutes" json:"move_step_minutes"`
	TodayBufferMinutes int  `yaml:"today_buffer_minutes" json:"today_buffer_minutes"`
	DeadlineMarginDays int  `yaml:"deadline_margin_days" json:"deadline_margin_days"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	opts := scheduler.DefaultOptions()
	return &Config{
		Listen:             "127.0.0.1:8080",
		DBPath:             "./studyflow.db",
		LogLevel:           "info",
		Workers:            4,
		SessionMinutes:     opts.SessionMinutes,
		BulkStepMinutes:    opts.Step,
		MoveStepMinutes:    slot.MoveStep,
		TodayBufferMinutes: opts.TodayBufferMinutes,
		DeadlineMarginDays: opts.DeadlineMarginDays,
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = d.LogLevel
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.SessionMinutes <= 0 {
		c.SessionMinutes = d.SessionMinutes
	}
	if c.BulkStepMinutes <= 0 {
		c.BulkStepMinutes = d.BulkStepMinutes
	}
	if c.MoveStepMinutes <= 0 {
		c.MoveStepMinutes = d.MoveStepMinutes
	}
	if c.TodayBufferMinutes < 0 {
		c.TodayBufferMinutes = d.TodayBufferMinutes
	}
	if c.DeadlineMarginDays < 0 {
		c.DeadlineMarginDays = d.DeadlineMarginDays
	}
}

// SchedulerOptions returns the bulk scheduling policies.
func (c *Config) SchedulerOptions() scheduler.Options {
	return scheduler.Options{
		SessionMinutes:     c.SessionMinutes,
		Step:               c.BulkStepMinutes,
		DeadlineMarginDays: c.DeadlineMarginDays,
		TodayBufferMinutes: c.TodayBufferMinutes,
		SkipWeekends:       c.SkipWeekends,
	}
}

// Load reads the YAML config at path. On first run the file does not exist
// yet; the defaults are written there and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	// Keys absent from the file keep their default values.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".studyflow-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
