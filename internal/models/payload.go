package models

import "time"

// Collector payload shapes. The collector is an external process; its output
// is decoded into these structures, one element at a time, with malformed
// elements skipped rather than failing the batch.

// RateWindowPayload is one rate window's reading inside a usage payload.
type RateWindowPayload struct {
	UsedPercent      float64    `json:"usedPercent"`
	WindowMinutes    *int       `json:"windowMinutes,omitempty"`
	ResetsAt         *time.Time `json:"resetsAt,omitempty"`
	ResetDescription string     `json:"resetDescription,omitempty"`
}

// IdentityPayload carries account metadata attached to a usage payload.
type IdentityPayload struct {
	AccountEmail string `json:"accountEmail,omitempty"`
	LoginMethod  string `json:"loginMethod,omitempty"`
	Plan         string `json:"plan,omitempty"`
}

// UsageBlockPayload groups the rate-window readings of a usage payload.
type UsageBlockPayload struct {
	Primary   *RateWindowPayload `json:"primary,omitempty"`
	Secondary *RateWindowPayload `json:"secondary,omitempty"`
	Tertiary  *RateWindowPayload `json:"tertiary,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Identity  *IdentityPayload   `json:"identity,omitempty"`
}

// CreditsPayload is an absolute remaining-credits reading.
type CreditsPayload struct {
	Remaining float64    `json:"remaining"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// UsagePayload is one provider's usage snapshot as produced by the collector.
type UsagePayload struct {
	Provider string            `json:"provider"`
	Version  string            `json:"version,omitempty"`
	Source   string            `json:"source"`
	Usage    UsageBlockPayload `json:"usage"`
	Credits  *CreditsPayload   `json:"credits,omitempty"`
}

// ModelBreakdownPayload attributes cost to a single model within a day.
type ModelBreakdownPayload struct {
	ModelName string  `json:"modelName"`
	Cost      float64 `json:"cost"`
}

// DailyCostPayload is one day's cost entry inside a cost payload.
type DailyCostPayload struct {
	Date            string                  `json:"date"`
	TotalTokens     int64                   `json:"totalTokens,omitempty"`
	TotalCost       float64                 `json:"totalCost,omitempty"`
	ModelsUsed      []string                `json:"modelsUsed,omitempty"`
	ModelBreakdowns []ModelBreakdownPayload `json:"modelBreakdowns,omitempty"`
}

// CostPayload is one provider's cost snapshot as produced by the collector.
// Session and period totals are derived from the Daily list during
// normalization; the top-level totals are only consulted as a data-quality
// cross-check.
type CostPayload struct {
	Provider       string             `json:"provider"`
	SessionTokens  *int64             `json:"sessionTokens,omitempty"`
	SessionCostUSD *float64           `json:"sessionCostUSD,omitempty"`
	Daily          []DailyCostPayload `json:"daily"`
}
