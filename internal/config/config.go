// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration, populated from the
// environment after .env discovery.
type Config struct {
	DatabasePath  string        `envconfig:"DATABASE_PATH"`
	TargetsPath   string        `envconfig:"TARGETS_PATH"`
	ListenAddr    string        `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8630"`
	FetchInterval time.Duration `envconfig:"FETCH_INTERVAL" default:"5m"`
	// CollectorTimeout bounds one collector invocation.
	CollectorTimeout time.Duration `envconfig:"COLLECTOR_TIMEOUT" default:"120s"`
	// CostRetentionDays is how long cost samples are kept before the daily
	// prune removes them. Usage samples are never pruned automatically.
	CostRetentionDays int `envconfig:"COST_RETENTION_DAYS" default:"30"`
	// LookbackHours and HorizonHours shape the default regression window.
	LookbackHours float64 `envconfig:"LOOKBACK_HOURS" default:"24"`
	HorizonHours  float64 `envconfig:"HORIZON_HOURS" default:"1"`
	Debug         bool    `envconfig:"DEBUG"`
}

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	for _, path := range envPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{}
	if err := envconfig.Process("QUOTATRACK", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath()
	}
	if cfg.TargetsPath == "" {
		cfg.TargetsPath = defaultTargetsPath()
	}

	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CostRetention returns the cost retention window as a duration.
func (c *Config) CostRetention() time.Duration {
	return time.Duration(c.CostRetentionDays) * 24 * time.Hour
}

// envPaths returns a list of paths to check for .env files.
func envPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "quotatrack", ".env"),
			filepath.Join(home, ".quotatrack", ".env"),
		)
	}

	return paths
}

// defaultDatabasePath returns the default path for the SQLite database.
func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "quotatrack.db"
	}
	return filepath.Join(home, ".config", "quotatrack", "quotatrack.db")
}

// defaultTargetsPath returns the default path for the targets YAML file.
func defaultTargetsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "targets.yaml"
	}
	return filepath.Join(home, ".config", "quotatrack", "targets.yaml")
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
