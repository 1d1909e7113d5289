// SPDX-License-Identifier: Apache-2.0

// Package config loads service configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
)

// Config holds the service settings. Zero values are filled from Default.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":7000".
	Addr string `yaml:"addr"`
	// DatabasePath is the SQLite database file.
	DatabasePath string `yaml:"database_path"`
	// RetentionDays is how long uploads and reports are kept.
	RetentionDays int `yaml:"retention_days"`
	// MaxUploadBytes caps the accepted upload size.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// RateLimitPerMin caps API requests per minute.
	RateLimitPerMin int `yaml:"rate_limit_per_min"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            ":7000",
		DatabasePath:    "getscheck.db",
		RetentionDays:   7,
		MaxUploadBytes:  5 << 20,
		RateLimitPerMin: 100,
	}
}

// Load reads the YAML file at path, fills unset values from Default, and
// applies environment overrides. A missing file is not an error; the
// defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("unmarshal %s: %w", path, err)
			}
			cfg = fillDefaults(cfg)
		}
	}

	return applyEnv(cfg), nil
}

func fillDefaults(cfg Config) Config {
	def := Default()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = def.DatabasePath
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = def.RetentionDays
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = def.RateLimitPerMin
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if addr := os.Getenv("GETSCHECK_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if db := os.Getenv("GETSCHECK_DB"); db != "" {
		cfg.DatabasePath = db
	}
	if days := os.Getenv("GETSCHECK_RETENTION_DAYS"); days != "" {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			cfg.RetentionDays = n
		}
	}
	return cfg
}
