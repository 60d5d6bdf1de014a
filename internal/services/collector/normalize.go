package collector

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/quotatrack/quotatrack/internal/logger"
	"github.com/quotatrack/quotatrack/internal/models"
)

// NormalizeUsage converts one usage payload into a store row. The serialized
// payload is retained on the sample for audit.
func NormalizeUsage(payload *models.UsagePayload, collectedAt time.Time) *models.UsageSample {
	timestamp := payload.Usage.UpdatedAt
	if timestamp.IsZero() {
		timestamp = collectedAt
	}

	sample := &models.UsageSample{
		Provider:    payload.Provider,
		Timestamp:   timestamp,
		Version:     payload.Version,
		SourceLabel: payload.Source,
	}

	if w := payload.Usage.Primary; w != nil {
		pct := w.UsedPercent
		sample.PrimaryUsedPercent = &pct
		sample.PrimaryWindowMinutes = w.WindowMinutes
		sample.PrimaryResetsAt = w.ResetsAt
		sample.PrimaryResetDesc = w.ResetDescription
	}
	if w := payload.Usage.Secondary; w != nil {
		pct := w.UsedPercent
		sample.SecondaryUsedPercent = &pct
		sample.SecondaryWindowMinutes = w.WindowMinutes
		sample.SecondaryResetsAt = w.ResetsAt
		sample.SecondaryResetDesc = w.ResetDescription
	}
	if w := payload.Usage.Tertiary; w != nil {
		pct := w.UsedPercent
		sample.TertiaryUsedPercent = &pct
		sample.TertiaryWindowMinutes = w.WindowMinutes
	}

	if id := payload.Usage.Identity; id != nil {
		sample.AccountEmail = id.AccountEmail
		sample.AccountPlan = id.Plan
	}

	if payload.Credits != nil {
		remaining := payload.Credits.Remaining
		sample.CreditsRemaining = &remaining
	}

	if raw, err := json.Marshal(payload); err == nil {
		sample.RawPayload = string(raw)
	}

	return sample
}

// NormalizeCost converts one cost payload into a store row. Session totals
// come from the chronologically last daily entry and period totals from the
// sum over all daily entries; the daily breakdown is authoritative. A
// top-level total that disagrees with the derived figure is logged as a
// data-quality signal, not preferred.
func NormalizeCost(payload *models.CostPayload, collectedAt time.Time) *models.CostSample {
	sample := &models.CostSample{
		Provider:   payload.Provider,
		Timestamp:  collectedAt,
		PeriodDays: len(payload.Daily),
	}

	daily := append([]models.DailyCostPayload(nil), payload.Daily...)
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	modelSet := make(map[string]bool)
	for _, day := range daily {
		sample.PeriodTokens += day.TotalTokens
		sample.PeriodCostUSD += day.TotalCost
		for _, m := range day.ModelsUsed {
			modelSet[m] = true
		}
		for _, b := range day.ModelBreakdowns {
			modelSet[b.ModelName] = true
		}
	}

	if len(daily) > 0 {
		last := daily[len(daily)-1]
		sample.SessionTokens = last.TotalTokens
		sample.SessionCostUSD = last.TotalCost
	}

	for m := range modelSet {
		sample.ModelsUsed = append(sample.ModelsUsed, m)
	}
	sort.Strings(sample.ModelsUsed)

	if payload.SessionTokens != nil && *payload.SessionTokens != sample.SessionTokens {
		logger.Warn("collector session token total diverges from daily breakdown",
			"provider", payload.Provider,
			"reported", *payload.SessionTokens,
			"derived", sample.SessionTokens)
	}
	if payload.SessionCostUSD != nil && *payload.SessionCostUSD != sample.SessionCostUSD {
		logger.Warn("collector session cost total diverges from daily breakdown",
			"provider", payload.Provider,
			"reported", *payload.SessionCostUSD,
			"derived", sample.SessionCostUSD)
	}

	return sample
}
