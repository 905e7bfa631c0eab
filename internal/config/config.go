// Package config loads cookiestore settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config holds all settings.
type Config struct {
	Backend                string `yaml:"backend"`
	Snapshot               string `yaml:"snapshot"`
	SQLite                 string `yaml:"sqlite"`
	AllowSpecialUseDomains bool   `yaml:"allow_special_use_domains"`
	LogLevel               string `yaml:"log_level"`
	Redis                  Redis  `yaml:"redis"`
}

// Redis configures the optional Redis snapshot sink. It is used instead of
// the snapshot file when Addr is set.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// DefaultDir returns the directory holding cookiestore data.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cookiestore")
	}
	return ".cookiestore"
}

// Default returns the built-in configuration.
func Default() *Config {
	dir := DefaultDir()
	return &Config{
		Backend:  BackendMemory,
		Snapshot: filepath.Join(dir, "cookies.json"),
		SQLite:   filepath.Join(dir, "cookies.db"),
		LogLevel: "warn",
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		if c.Snapshot == "" && c.Redis.Addr == "" {
			return errors.New("memory backend needs a snapshot path or a redis address")
		}
	case BackendSQLite:
		if c.SQLite == "" {
			return errors.New("sqlite backend needs a database path")
		}
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level. Empty means warn.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level: %q", name)
}
