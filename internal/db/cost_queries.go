package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quotatrack/quotatrack/internal/models"
)

// InsertCostSample appends a cost sample and assigns its ID.
func (db *DB) InsertCostSample(sample *models.CostSample) error {
	if sample.Provider == "" {
		return fmt.Errorf("cost sample missing provider")
	}
	if sample.Timestamp.IsZero() {
		return fmt.Errorf("cost sample missing timestamp")
	}

	encoded, err := encodeModelsUsed(sample.ModelsUsed)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cost_samples (
			provider, timestamp, session_tokens, session_cost_usd,
			period_tokens, period_cost_usd, period_days, models_used
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.ExecContext(context.Background(), query,
		sample.Provider,
		formatTime(sample.Timestamp),
		sample.SessionTokens,
		sample.SessionCostUSD,
		sample.PeriodTokens,
		sample.PeriodCostUSD,
		sample.PeriodDays,
		encoded,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cost sample: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		sample.ID = id
	}

	return nil
}

// CostHistory returns up to limit cost samples for one provider, newest
// first, with timestamp ties resolved most-recently-inserted first.
func (db *DB) CostHistory(provider string, limit int) ([]models.CostSample, error) {
	query := `
		SELECT id, provider, timestamp, session_tokens, session_cost_usd,
			   period_tokens, period_cost_usd, period_days, models_used
		FROM cost_samples
		WHERE provider = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, provider, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query cost samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var samples []models.CostSample
	for rows.Next() {
		var (
			sample     models.CostSample
			timestamp  string
			modelsUsed sql.NullString
		)
		err := rows.Scan(
			&sample.ID,
			&sample.Provider,
			&timestamp,
			&sample.SessionTokens,
			&sample.SessionCostUSD,
			&sample.PeriodTokens,
			&sample.PeriodCostUSD,
			&sample.PeriodDays,
			&modelsUsed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cost sample: %w", err)
		}

		if sample.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}
		if sample.ModelsUsed, err = decodeModelsUsed(modelsUsed); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	return samples, rows.Err()
}

// CostSampleCount returns the total number of cost samples.
func (db *DB) CostSampleCount() (int64, error) {
	var count int64
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM cost_samples").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cost samples: %w", err)
	}
	return count, nil
}

// PruneCostSamplesBefore deletes cost samples older than cutoff and returns
// the number deleted. Used by the scheduled retention job.
func (db *DB) PruneCostSamplesBefore(cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM cost_samples WHERE timestamp < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to prune cost samples: %w", err)
	}
	return result.RowsAffected()
}

// DeleteAllCostSamples removes every cost sample. Administrative use only.
func (db *DB) DeleteAllCostSamples() error {
	if _, err := db.ExecContext(context.Background(), "DELETE FROM cost_samples"); err != nil {
		return fmt.Errorf("failed to delete cost samples: %w", err)
	}
	return nil
}

func encodeModelsUsed(modelsUsed []string) (sql.NullString, error) {
	if len(modelsUsed) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(modelsUsed)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode models list: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeModelsUsed(v sql.NullString) ([]string, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var modelsUsed []string
	if err := json.Unmarshal([]byte(v.String), &modelsUsed); err != nil {
		return nil, fmt.Errorf("failed to decode models list: %w", err)
	}
	return modelsUsed, nil
}
