package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/quotatrack/quotatrack/internal/models"
)

// usageSampleColumns is the canonical column list for usage sample queries.
const usageSampleColumns = `id, provider, timestamp,
	primary_used_percent, secondary_used_percent, tertiary_used_percent,
	primary_window_minutes, secondary_window_minutes, tertiary_window_minutes,
	primary_resets_at, secondary_resets_at, primary_reset_desc, secondary_reset_desc,
	account_email, account_plan, version, source_label, credits_remaining, raw_payload`

// InsertUsageSample appends a usage sample and assigns its ID. Samples are
// never deduplicated; inserting the same reading twice produces two rows.
func (db *DB) InsertUsageSample(sample *models.UsageSample) error {
	if sample.Provider == "" {
		return fmt.Errorf("usage sample missing provider")
	}
	if sample.Timestamp.IsZero() {
		return fmt.Errorf("usage sample missing timestamp")
	}

	query := `
		INSERT INTO usage_samples (
			provider, timestamp,
			primary_used_percent, secondary_used_percent, tertiary_used_percent,
			primary_window_minutes, secondary_window_minutes, tertiary_window_minutes,
			primary_resets_at, secondary_resets_at, primary_reset_desc, secondary_reset_desc,
			account_email, account_plan, version, source_label, credits_remaining, raw_payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.ExecContext(context.Background(), query,
		sample.Provider,
		formatTime(sample.Timestamp),
		nullFloat(sample.PrimaryUsedPercent),
		nullFloat(sample.SecondaryUsedPercent),
		nullFloat(sample.TertiaryUsedPercent),
		nullInt(sample.PrimaryWindowMinutes),
		nullInt(sample.SecondaryWindowMinutes),
		nullInt(sample.TertiaryWindowMinutes),
		nullTime(sample.PrimaryResetsAt),
		nullTime(sample.SecondaryResetsAt),
		nullString(sample.PrimaryResetDesc),
		nullString(sample.SecondaryResetDesc),
		nullString(sample.AccountEmail),
		nullString(sample.AccountPlan),
		nullString(sample.Version),
		nullString(sample.SourceLabel),
		nullFloat(sample.CreditsRemaining),
		nullString(sample.RawPayload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage sample: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		sample.ID = id
	}

	return nil
}

// UsageHistory returns up to limit samples for one provider, newest first.
// Same-instant samples are ordered most-recently-inserted first. A non-nil
// since bounds the window to timestamp >= since.
func (db *DB) UsageHistory(provider string, limit int, since *time.Time) ([]models.UsageSample, error) {
	query := `SELECT ` + usageSampleColumns + ` FROM usage_samples WHERE provider = ?`
	args := []any{provider}
	if since != nil {
		query += ` AND timestamp >= ?`
		args = append(args, formatTime(*since))
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	args = append(args, clampLimit(limit))

	return db.queryUsageSamples(query, args...)
}

// AllUsageHistory returns up to limit samples across all providers, ordered
// the same way as UsageHistory.
func (db *DB) AllUsageHistory(limit int, since *time.Time) ([]models.UsageSample, error) {
	query := `SELECT ` + usageSampleColumns + ` FROM usage_samples`
	var args []any
	if since != nil {
		query += ` WHERE timestamp >= ?`
		args = append(args, formatTime(*since))
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	args = append(args, clampLimit(limit))

	return db.queryUsageSamples(query, args...)
}

// LatestPerProvider returns, for every provider with at least one sample,
// the sample with the highest timestamp. Timestamp ties resolve to the
// highest ID so the result is deterministic.
func (db *DB) LatestPerProvider() (map[string]*models.UsageSample, error) {
	query := `
		SELECT ` + usageSampleColumns + `
		FROM usage_samples s
		WHERE s.id = (
			SELECT s2.id FROM usage_samples s2
			WHERE s2.provider = s.provider
			ORDER BY s2.timestamp DESC, s2.id DESC
			LIMIT 1
		)
	`

	samples, err := db.queryUsageSamples(query)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*models.UsageSample, len(samples))
	for i := range samples {
		latest[samples[i].Provider] = &samples[i]
	}
	return latest, nil
}

// ActiveProviders returns the distinct providers with at least one sample,
// alphabetically sorted.
func (db *DB) ActiveProviders() ([]string, error) {
	rows, err := db.QueryContext(context.Background(),
		"SELECT DISTINCT provider FROM usage_samples ORDER BY provider")
	if err != nil {
		return nil, fmt.Errorf("failed to query active providers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var providers []string
	for rows.Next() {
		var provider string
		if err := rows.Scan(&provider); err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, provider)
	}
	return providers, rows.Err()
}

// UsageSampleCount returns the total number of usage samples.
func (db *DB) UsageSampleCount() (int64, error) {
	var count int64
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM usage_samples").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count usage samples: %w", err)
	}
	return count, nil
}

// PruneUsageSamplesBefore deletes usage samples older than cutoff and
// returns the number deleted. Usage retention is caller-driven; nothing in
// the store schedules this.
func (db *DB) PruneUsageSamplesBefore(cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM usage_samples WHERE timestamp < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage samples: %w", err)
	}
	return result.RowsAffected()
}

// DeleteAllUsageSamples removes every usage sample. Administrative use only.
func (db *DB) DeleteAllUsageSamples() error {
	if _, err := db.ExecContext(context.Background(), "DELETE FROM usage_samples"); err != nil {
		return fmt.Errorf("failed to delete usage samples: %w", err)
	}
	return nil
}

func (db *DB) queryUsageSamples(query string, args ...any) ([]models.UsageSample, error) {
	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var samples []models.UsageSample
	for rows.Next() {
		sample, err := scanUsageSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, *sample)
	}
	return samples, rows.Err()
}

func scanUsageSample(rows *sql.Rows) (*models.UsageSample, error) {
	var (
		sample                         models.UsageSample
		timestamp                      string
		primaryPct, secondaryPct       sql.NullFloat64
		tertiaryPct, credits           sql.NullFloat64
		primaryWin, secondaryWin       sql.NullInt64
		tertiaryWin                    sql.NullInt64
		primaryResets, secondaryResets sql.NullString
		primaryDesc, secondaryDesc     sql.NullString
		email, plan, version, source   sql.NullString
		rawPayload                     sql.NullString
	)

	err := rows.Scan(
		&sample.ID,
		&sample.Provider,
		&timestamp,
		&primaryPct,
		&secondaryPct,
		&tertiaryPct,
		&primaryWin,
		&secondaryWin,
		&tertiaryWin,
		&primaryResets,
		&secondaryResets,
		&primaryDesc,
		&secondaryDesc,
		&email,
		&plan,
		&version,
		&source,
		&credits,
		&rawPayload,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan usage sample: %w", err)
	}

	sample.Timestamp, err = parseTime(timestamp)
	if err != nil {
		return nil, err
	}

	sample.PrimaryUsedPercent = floatPtr(primaryPct)
	sample.SecondaryUsedPercent = floatPtr(secondaryPct)
	sample.TertiaryUsedPercent = floatPtr(tertiaryPct)
	sample.PrimaryWindowMinutes = intPtr(primaryWin)
	sample.SecondaryWindowMinutes = intPtr(secondaryWin)
	sample.TertiaryWindowMinutes = intPtr(tertiaryWin)
	sample.CreditsRemaining = floatPtr(credits)
	sample.PrimaryResetDesc = primaryDesc.String
	sample.SecondaryResetDesc = secondaryDesc.String
	sample.AccountEmail = email.String
	sample.AccountPlan = plan.String
	sample.Version = version.String
	sample.SourceLabel = source.String
	sample.RawPayload = rawPayload.String

	if sample.PrimaryResetsAt, err = timePtr(primaryResets); err != nil {
		return nil, err
	}
	if sample.SecondaryResetsAt, err = timePtr(secondaryResets); err != nil {
		return nil, err
	}

	return &sample, nil
}

// clampLimit bounds a requested row limit to the hard ceiling. Requests for
// more rows silently return the ceiling's worth, not an error.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqlTimeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqlTimeFormat, s)
	if err != nil {
		// DATETIME columns come back from the sqlite driver as time.Time
		// values, which database/sql renders as RFC 3339 when scanned into
		// a string.
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullTime(p *time.Time) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*p), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func timePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
