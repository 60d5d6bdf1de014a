package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/quotatrack/quotatrack/internal/models"
)

// UsageStatistics aggregates one provider's samples over [from, to]. A
// window matching no samples returns a zero-count result, never an error.
func (db *DB) UsageStatistics(provider string, from, to time.Time) (*models.UsageStatistics, error) {
	query := `
		SELECT
			COUNT(*) as sample_count,
			AVG(primary_used_percent) as avg_primary,
			MIN(primary_used_percent) as min_primary,
			MAX(primary_used_percent) as max_primary,
			AVG(secondary_used_percent) as avg_secondary,
			MAX(secondary_used_percent) as max_secondary
		FROM usage_samples
		WHERE provider = ? AND timestamp >= ? AND timestamp <= ?
	`

	stats := &models.UsageStatistics{
		Provider: provider,
		From:     from,
		To:       to,
	}

	var avgPrimary, minPrimary, maxPrimary sql.NullFloat64
	var avgSecondary, maxSecondary sql.NullFloat64

	err := db.QueryRowContext(context.Background(), query,
		provider, formatTime(from), formatTime(to)).Scan(
		&stats.Count,
		&avgPrimary,
		&minPrimary,
		&maxPrimary,
		&avgSecondary,
		&maxSecondary,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage statistics: %w", err)
	}

	stats.AvgPrimary = floatPtr(avgPrimary)
	stats.MinPrimary = floatPtr(minPrimary)
	stats.MaxPrimary = floatPtr(maxPrimary)
	stats.AvgSecondary = floatPtr(avgSecondary)
	stats.MaxSecondary = floatPtr(maxSecondary)

	return stats, nil
}
