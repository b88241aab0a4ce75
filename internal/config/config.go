// Package config loads process-level settings: where the shared data
// lives, which timezone day boundaries use, and how noisy logging is.
// User behavior knobs (grace window, rollover) live in the state
// document instead, so both surfaces always agree on them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration. Zero values mean "use the
// default", resolved by Load.
type Config struct {
	DataDir   string `yaml:"data_dir"`
	Timezone  string `yaml:"timezone"`
	StageFile string `yaml:"stage_file"`
	LogLevel  string `yaml:"log_level"`
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "petprogress", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "petprogress", "config.yaml")
}

// Load reads the YAML file at path and applies environment overrides.
// A missing file is not an error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := &Config{LogLevel: "info"}

	if path == "" {
		path = DefaultPath()
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fine, first run
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if v := os.Getenv("PETPROGRESS_DATA"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PETPROGRESS_TZ"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("PETPROGRESS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// Location resolves the configured timezone, defaulting to the
// system's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
