// Package config loads timekeep settings. Sources are applied in order:
// defaults, a TOML file, a .env file, then TIMEKEEP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting.
type Config struct {
	DBPath                  string `toml:"db_path"`
	ListenAddr              string `toml:"listen_addr"`
	ReferenceSecondsPerTask int64  `toml:"reference_seconds_per_task"`
	StoreTimeoutMs          int    `toml:"store_timeout_ms"`
	WriteRetries            int    `toml:"write_retries"`
	RetryBaseDelayMs        int    `toml:"retry_base_delay_ms"`
	ExportFlushRows         int    `toml:"export_flush_rows"`
	ExportTimeoutMs         int    `toml:"export_timeout_ms"`
	FlushIntervalMs         int    `toml:"flush_interval_ms"`
	LogCalls                bool   `toml:"log_calls"`
	Location                string `toml:"location"`
	UserID                  string `toml:"user_id"`

	// Path is the TOML file that was read, empty when none existed.
	Path string `toml:"-"`
}

// DefaultConfig returns a Config with sensible defaults. The database lives
// under ~/.timekeep and reports use UTC.
func DefaultConfig() Config {
	dbPath := "timekeep.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".timekeep", "timekeep.db")
	}
	return Config{
		DBPath:                  dbPath,
		ListenAddr:              "127.0.0.1:8080",
		ReferenceSecondsPerTask: 8 * 60 * 60,
		StoreTimeoutMs:          5000,
		WriteRetries:            3,
		RetryBaseDelayMs:        50,
		ExportFlushRows:         500,
		ExportTimeoutMs:         10 * 60 * 1000,
		FlushIntervalMs:         30000,
		Location:                "UTC",
	}
}

// Load builds the effective configuration. The TOML file is read from
// $TIMEKEEP_CONFIG or ~/.timekeep/config.toml and the env file from
// $TIMEKEEP_ENV_FILE or ./.env; either may be missing.
func Load() (Config, error) {
	cfg := DefaultConfig()

	if err := loadEnvFile(); err != nil {
		return cfg, err
	}

	path := os.Getenv("TIMEKEEP_CONFIG")
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".timekeep", "config.toml")
		}
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadEnvFile copies a .env file into the process environment. Variables
// already set are left alone.
func loadEnvFile() error {
	path := os.Getenv("TIMEKEEP_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("reading env file %s: %w", path, err)
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s: unknown key %q", path, undecoded[0].String())
	}
	cfg.Path = path
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TIMEKEEP_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TIMEKEEP_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TIMEKEEP_USER"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("TIMEKEEP_LOCATION"); v != "" {
		cfg.Location = v
	}
	if v := os.Getenv("TIMEKEEP_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("TIMEKEEP_REFERENCE_SECONDS_PER_TASK"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.ReferenceSecondsPerTask = n
		}
	}
	applyIntEnv(&cfg.StoreTimeoutMs, "TIMEKEEP_STORE_TIMEOUT_MS", 1)
	applyIntEnv(&cfg.WriteRetries, "TIMEKEEP_WRITE_RETRIES", 0)
	applyIntEnv(&cfg.RetryBaseDelayMs, "TIMEKEEP_RETRY_BASE_DELAY_MS", 0)
	applyIntEnv(&cfg.ExportFlushRows, "TIMEKEEP_EXPORT_FLUSH_ROWS", 1)
	applyIntEnv(&cfg.ExportTimeoutMs, "TIMEKEEP_EXPORT_TIMEOUT_MS", 1)
	applyIntEnv(&cfg.FlushIntervalMs, "TIMEKEEP_FLUSH_INTERVAL_MS", 0)
}

// applyIntEnv overrides *dst when envName holds an integer >= min.
func applyIntEnv(dst *int, envName string, min int) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return
	}
	*dst = n
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.ReferenceSecondsPerTask <= 0 {
		return fmt.Errorf("reference_seconds_per_task must be positive, got %d", c.ReferenceSecondsPerTask)
	}
	if c.StoreTimeoutMs <= 0 {
		return fmt.Errorf("store_timeout_ms must be positive, got %d", c.StoreTimeoutMs)
	}
	if c.WriteRetries < 0 {
		return fmt.Errorf("write_retries must not be negative, got %d", c.WriteRetries)
	}
	if _, err := c.Loc(); err != nil {
		return err
	}
	return nil
}

// Loc returns the reporting time zone.
func (c Config) Loc() (*time.Location, error) {
	if c.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("location %q: %w", c.Location, err)
	}
	return loc, nil
}

func (c Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMs) * time.Millisecond
}

func (c Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

func (c Config) ExportTimeout() time.Duration {
	return time.Duration(c.ExportTimeoutMs) * time.Millisecond
}

// FlushInterval is how often the server retries pending time logs. Zero
// disables the background flush.
func (c Config) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}
