package db

import (
	"context"
	"fmt"
)

// Columns introduced after the initial release. Databases created by older
// versions are upgraded in place; historical rows backfill as NULL rather
// than erroring or truncating.
var migrationColumns = map[string][][2]string{
	"usage_samples": {
		{"tertiary_used_percent", "REAL"},
		{"tertiary_window_minutes", "INTEGER"},
		{"credits_remaining", "REAL"},
		{"raw_payload", "TEXT"},
	},
	"cost_samples": {
		{"period_days", "INTEGER DEFAULT 0"},
		{"models_used", "TEXT"},
	},
}

// migrate adds any columns missing from tables created by earlier releases.
func (db *DB) migrate() error {
	for table, columns := range migrationColumns {
		existing, err := db.tableColumns(table)
		if err != nil {
			return err
		}
		for _, col := range columns {
			if existing[col[0]] {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, col[0], col[1])
			if _, err := db.ExecContext(context.Background(), stmt); err != nil {
				return fmt.Errorf("failed to add column %s.%s: %w", table, col[0], err)
			}
		}
	}
	return nil
}

// tableColumns returns the set of column names currently on a table.
func (db *DB) tableColumns(table string) (map[string]bool, error) {
	rows, err := db.QueryContext(context.Background(), fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan table info: %w", err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}
