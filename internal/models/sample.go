// Package models defines data structures and domain types.
package models

import (
	"slices"
	"time"
)

// KnownProviders lists the provider keys the API and batch prediction operate on.
// The storage layer itself accepts any provider string.
var KnownProviders = []string{"claude", "codex", "copilot", "cursor", "gemini"}

// IsKnownProvider reports whether the given key is a recognized provider.
func IsKnownProvider(provider string) bool {
	return slices.Contains(KnownProviders, provider)
}

// UsageSample is one timestamped usage reading for a provider. Samples are
// immutable once written; corrections are made by inserting a new sample.
type UsageSample struct {
	ID        int64     `json:"id"`
	Provider  string    `json:"provider"`
	Timestamp time.Time `json:"timestamp"`

	// Up to three independently-reset rate windows per provider,
	// e.g. a short session limit and a longer rolling limit.
	PrimaryUsedPercent     *float64 `json:"primaryUsedPercent,omitempty"`
	SecondaryUsedPercent   *float64 `json:"secondaryUsedPercent,omitempty"`
	TertiaryUsedPercent    *float64 `json:"tertiaryUsedPercent,omitempty"`
	PrimaryWindowMinutes   *int     `json:"primaryWindowMinutes,omitempty"`
	SecondaryWindowMinutes *int     `json:"secondaryWindowMinutes,omitempty"`
	TertiaryWindowMinutes  *int     `json:"tertiaryWindowMinutes,omitempty"`

	PrimaryResetsAt    *time.Time `json:"primaryResetsAt,omitempty"`
	SecondaryResetsAt  *time.Time `json:"secondaryResetsAt,omitempty"`
	PrimaryResetDesc   string     `json:"primaryResetDesc,omitempty"`
	SecondaryResetDesc string     `json:"secondaryResetDesc,omitempty"`

	// Descriptive metadata, display/audit only.
	AccountEmail string `json:"accountEmail,omitempty"`
	AccountPlan  string `json:"accountPlan,omitempty"`
	Version      string `json:"version,omitempty"`
	SourceLabel  string `json:"sourceLabel,omitempty"`

	CreditsRemaining *float64 `json:"creditsRemaining,omitempty"`

	// RawPayload is an opaque serialized copy of the originating collector
	// payload, retained for audit and debugging.
	RawPayload string `json:"-"`
}

// CostSample is one cost/token reading for a provider, recorded once per
// collection interval with daily-granularity semantics.
type CostSample struct {
	ID        int64     `json:"id"`
	Provider  string    `json:"provider"`
	Timestamp time.Time `json:"timestamp"`

	SessionTokens  int64   `json:"sessionTokens"`
	SessionCostUSD float64 `json:"sessionCostUSD"`
	PeriodTokens   int64   `json:"periodTokens"`
	PeriodCostUSD  float64 `json:"periodCostUSD"`
	PeriodDays     int     `json:"periodDays"`

	// ModelsUsed is deduplicated and sorted; order carries no meaning.
	ModelsUsed []string `json:"modelsUsed,omitempty"`
}

// UsageStatistics aggregates one provider's samples over a queried window.
// Computed on demand, never persisted. A window with no samples yields
// Count == 0 and nil aggregate fields.
type UsageStatistics struct {
	Provider     string     `json:"provider"`
	From         time.Time  `json:"from"`
	To           time.Time  `json:"to"`
	Count        int        `json:"count"`
	AvgPrimary   *float64   `json:"avgPrimary,omitempty"`
	MinPrimary   *float64   `json:"minPrimary,omitempty"`
	MaxPrimary   *float64   `json:"maxPrimary,omitempty"`
	AvgSecondary *float64   `json:"avgSecondary,omitempty"`
	MaxSecondary *float64   `json:"maxSecondary,omitempty"`
}

// Window selects which of a sample's three percentage fields to read.
type Window int

const (
	// WindowPrimary selects the short-horizon rate window.
	WindowPrimary Window = iota
	// WindowSecondary selects the medium-horizon rate window.
	WindowSecondary
	// WindowTertiary selects the long-horizon rate window.
	WindowTertiary
)

// String returns the display name for a window.
func (w Window) String() string {
	switch w {
	case WindowPrimary:
		return "primary"
	case WindowSecondary:
		return "secondary"
	case WindowTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// Value returns the sample's percentage reading for this window, or nil when
// the sample has no reading for it.
func (w Window) Value(s *UsageSample) *float64 {
	switch w {
	case WindowPrimary:
		return s.PrimaryUsedPercent
	case WindowSecondary:
		return s.SecondaryUsedPercent
	case WindowTertiary:
		return s.TertiaryUsedPercent
	default:
		return nil
	}
}
