// Package db manages the database connection
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New creates a new database connection and initializes the schema.
func New(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// All store access is funneled through a single connection. Write volume
	// is low (one collection cycle per interval) and a single writer keeps
	// concurrent readers and the background collector linearizable without
	// SQLITE_BUSY churn.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	// Upgrade databases created by earlier releases in place
	if err := db.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// configure sets up database pragmas for durability and performance.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000", // 64MB cache
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema() error {
	if err := db.createUsageSamplesTable(); err != nil {
		return err
	}
	return db.createCostSamplesTable()
}

func (db *DB) createUsageSamplesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS usage_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		primary_used_percent REAL,
		secondary_used_percent REAL,
		tertiary_used_percent REAL,
		primary_window_minutes INTEGER,
		secondary_window_minutes INTEGER,
		tertiary_window_minutes INTEGER,
		primary_resets_at DATETIME,
		secondary_resets_at DATETIME,
		primary_reset_desc TEXT,
		secondary_reset_desc TEXT,
		account_email TEXT,
		account_plan TEXT,
		version TEXT,
		source_label TEXT,
		credits_remaining REAL,
		raw_payload TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_usage_samples_provider_time ON usage_samples(provider, timestamp);
	CREATE INDEX IF NOT EXISTS idx_usage_samples_timestamp ON usage_samples(timestamp);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createCostSamplesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS cost_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		session_tokens INTEGER DEFAULT 0,
		session_cost_usd REAL DEFAULT 0,
		period_tokens INTEGER DEFAULT 0,
		period_cost_usd REAL DEFAULT 0,
		period_days INTEGER DEFAULT 0,
		models_used TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_cost_samples_provider_time ON cost_samples(provider, timestamp);
	CREATE INDEX IF NOT EXISTS idx_cost_samples_timestamp ON cost_samples(timestamp);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	// Checkpoint WAL before closing
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
