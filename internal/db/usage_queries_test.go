package db

import (
	"testing"
	"time"

	"github.com/quotatrack/quotatrack/internal/models"
)

func pctSample(provider string, ts time.Time, pct float64) *models.UsageSample {
	return &models.UsageSample{
		Provider:           provider,
		Timestamp:          ts,
		PrimaryUsedPercent: &pct,
	}
}

func TestInsertUsageSample(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	pct := 42.5
	secondary := 12.0
	windowMin := 300
	resets := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)

	sample := &models.UsageSample{
		Provider:             "claude",
		Timestamp:            time.Now().UTC(),
		PrimaryUsedPercent:   &pct,
		SecondaryUsedPercent: &secondary,
		PrimaryWindowMinutes: &windowMin,
		PrimaryResetsAt:      &resets,
		AccountEmail:         "dev@example.com",
		AccountPlan:          "pro",
		SourceLabel:          "workstation",
		RawPayload:           `{"provider":"claude"}`,
	}

	if err := db.InsertUsageSample(sample); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}
	if sample.ID == 0 {
		t.Error("InsertUsageSample() should set ID")
	}

	got, err := db.UsageHistory("claude", 1, nil)
	if err != nil {
		t.Fatalf("UsageHistory() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("UsageHistory() returned %d samples, want 1", len(got))
	}
	if got[0].PrimaryUsedPercent == nil || *got[0].PrimaryUsedPercent != pct {
		t.Errorf("PrimaryUsedPercent = %v, want %v", got[0].PrimaryUsedPercent, pct)
	}
	if got[0].PrimaryResetsAt == nil || !got[0].PrimaryResetsAt.Equal(resets) {
		t.Errorf("PrimaryResetsAt = %v, want %v", got[0].PrimaryResetsAt, resets)
	}
	if got[0].AccountEmail != "dev@example.com" {
		t.Errorf("AccountEmail = %q, want dev@example.com", got[0].AccountEmail)
	}
	if got[0].RawPayload != `{"provider":"claude"}` {
		t.Errorf("RawPayload not round-tripped, got %q", got[0].RawPayload)
	}
}

func TestInsertUsageSample_Validation(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if err := db.InsertUsageSample(&models.UsageSample{Timestamp: time.Now()}); err == nil {
		t.Error("Expected error for missing provider")
	}
	if err := db.InsertUsageSample(&models.UsageSample{Provider: "claude"}); err == nil {
		t.Error("Expected error for missing timestamp")
	}
}

func TestInsertUsageSample_SparseFields(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	// Only provider and timestamp are required; everything else may be NULL.
	sample := &models.UsageSample{
		Provider:  "gemini",
		Timestamp: time.Now().UTC(),
	}
	if err := db.InsertUsageSample(sample); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}

	got, err := db.UsageHistory("gemini", 1, nil)
	if err != nil {
		t.Fatalf("UsageHistory() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("UsageHistory() returned %d samples, want 1", len(got))
	}
	if got[0].PrimaryUsedPercent != nil {
		t.Errorf("PrimaryUsedPercent = %v, want nil", *got[0].PrimaryUsedPercent)
	}
	if got[0].PrimaryResetsAt != nil {
		t.Errorf("PrimaryResetsAt = %v, want nil", got[0].PrimaryResetsAt)
	}
}

func TestUsageHistory_Ordering(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	for i, pct := range []float64{10, 20, 30} {
		sample := pctSample("claude", now.Add(time.Duration(i)*time.Minute), pct)
		if err := db.InsertUsageSample(sample); err != nil {
			t.Fatalf("InsertUsageSample() failed: %v", err)
		}
	}

	got, err := db.UsageHistory("claude", 10, nil)
	if err != nil {
		t.Fatalf("UsageHistory() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("UsageHistory() returned %d samples, want 3", len(got))
	}

	// Newest first
	for i, want := range []float64{30, 20, 10} {
		if *got[i].PrimaryUsedPercent != want {
			t.Errorf("sample %d = %.0f, want %.0f", i, *got[i].PrimaryUsedPercent, want)
		}
	}
}

func TestUsageHistory_SameTimestampTieBreak(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	ts := time.Now().UTC().Truncate(time.Second)
	first := pctSample("claude", ts, 10)
	second := pctSample("claude", ts, 20)
	if err := db.InsertUsageSample(first); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}
	if err := db.InsertUsageSample(second); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}

	got, err := db.UsageHistory("claude", 2, nil)
	if err != nil {
		t.Fatalf("UsageHistory() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("UsageHistory() returned %d samples, want 2", len(got))
	}
	// Same instant resolves to the most recently inserted row first.
	if got[0].ID != second.ID {
		t.Errorf("First sample ID = %d, want %d", got[0].ID, second.ID)
	}
}

func TestUsageHistory_Since(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	old := pctSample("claude", now.Add(-3*time.Hour), 10)
	recent := pctSample("claude", now.Add(-10*time.Minute), 20)
	for _, s := range []*models.UsageSample{old, recent} {
		if err := db.InsertUsageSample(s); err != nil {
			t.Fatalf("InsertUsageSample() failed: %v", err)
		}
	}

	since := now.Add(-1 * time.Hour)
	got, err := db.UsageHistory("claude", 10, &since)
	if err != nil {
		t.Fatalf("UsageHistory() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("UsageHistory() with since returned %d samples, want 1", len(got))
	}
	if got[0].ID != recent.ID {
		t.Errorf("Got sample ID %d, want %d", got[0].ID, recent.ID)
	}
}

func TestUsageHistory_LimitClamp(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 1205; i++ {
		sample := pctSample("claude", now.Add(time.Duration(i)*time.Second), float64(i%100))
		if err := db.InsertUsageSample(sample); err != nil {
			t.Fatalf("InsertUsageSample() failed: %v", err)
		}
	}

	got, err := db.UsageHistory("claude", 5000, nil)
	if err != nil {
		t.Fatalf("UsageHistory() failed: %v", err)
	}
	if len(got) != maxHistoryLimit {
		t.Errorf("UsageHistory(5000) returned %d samples, want %d", len(got), maxHistoryLimit)
	}

	// Zero limit falls back to the default
	got, err = db.UsageHistory("claude", 0, nil)
	if err != nil {
		t.Fatalf("UsageHistory() failed: %v", err)
	}
	if len(got) != defaultHistoryLimit {
		t.Errorf("UsageHistory(0) returned %d samples, want %d", len(got), defaultHistoryLimit)
	}
}

func TestUsageHistory_ProviderIsolation(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	if err := db.InsertUsageSample(pctSample("claude", now, 10)); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}
	if err := db.InsertUsageSample(pctSample("codex", now, 20)); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}

	got, err := db.UsageHistory("claude", 10, nil)
	if err != nil {
		t.Fatalf("UsageHistory() failed: %v", err)
	}
	if len(got) != 1 || got[0].Provider != "claude" {
		t.Errorf("UsageHistory(claude) returned %d samples, want exactly 1 claude sample", len(got))
	}
}

func TestAllUsageHistory(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	if err := db.InsertUsageSample(pctSample("claude", now.Add(-time.Minute), 10)); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}
	if err := db.InsertUsageSample(pctSample("codex", now, 20)); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}

	got, err := db.AllUsageHistory(10, nil)
	if err != nil {
		t.Fatalf("AllUsageHistory() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("AllUsageHistory() returned %d samples, want 2", len(got))
	}
	if got[0].Provider != "codex" {
		t.Errorf("First sample provider = %q, want codex (newest)", got[0].Provider)
	}
}

func TestLatestPerProvider(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	if err := db.InsertUsageSample(pctSample("claude", now.Add(-time.Hour), 10)); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}
	claudeLatest := pctSample("claude", now, 55)
	if err := db.InsertUsageSample(claudeLatest); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}
	if err := db.InsertUsageSample(pctSample("gemini", now.Add(-time.Minute), 30)); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}

	latest, err := db.LatestPerProvider()
	if err != nil {
		t.Fatalf("LatestPerProvider() failed: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("LatestPerProvider() returned %d providers, want 2", len(latest))
	}
	if latest["claude"].ID != claudeLatest.ID {
		t.Errorf("claude latest ID = %d, want %d", latest["claude"].ID, claudeLatest.ID)
	}
	if *latest["gemini"].PrimaryUsedPercent != 30 {
		t.Errorf("gemini latest = %.0f, want 30", *latest["gemini"].PrimaryUsedPercent)
	}
}

func TestLatestPerProvider_TimestampTie(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	ts := time.Now().UTC().Truncate(time.Second)
	first := pctSample("claude", ts, 10)
	second := pctSample("claude", ts, 20)
	for _, s := range []*models.UsageSample{first, second} {
		if err := db.InsertUsageSample(s); err != nil {
			t.Fatalf("InsertUsageSample() failed: %v", err)
		}
	}

	latest, err := db.LatestPerProvider()
	if err != nil {
		t.Fatalf("LatestPerProvider() failed: %v", err)
	}
	if latest["claude"].ID != second.ID {
		t.Errorf("Tie resolved to ID %d, want %d (highest)", latest["claude"].ID, second.ID)
	}
}

func TestActiveProviders(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	providers, err := db.ActiveProviders()
	if err != nil {
		t.Fatalf("ActiveProviders() failed: %v", err)
	}
	if len(providers) != 0 {
		t.Errorf("Empty store returned %d providers, want 0", len(providers))
	}

	now := time.Now().UTC().Truncate(time.Second)
	for _, p := range []string{"gemini", "claude", "claude"} {
		if err := db.InsertUsageSample(pctSample(p, now, 10)); err != nil {
			t.Fatalf("InsertUsageSample() failed: %v", err)
		}
	}

	providers, err = db.ActiveProviders()
	if err != nil {
		t.Fatalf("ActiveProviders() failed: %v", err)
	}
	if len(providers) != 2 || providers[0] != "claude" || providers[1] != "gemini" {
		t.Errorf("ActiveProviders() = %v, want [claude gemini]", providers)
	}

	if err := db.DeleteAllUsageSamples(); err != nil {
		t.Fatalf("DeleteAllUsageSamples() failed: %v", err)
	}
	providers, err = db.ActiveProviders()
	if err != nil {
		t.Fatalf("ActiveProviders() failed: %v", err)
	}
	if len(providers) != 0 {
		t.Errorf("After delete, ActiveProviders() = %v, want empty", providers)
	}
}

func TestUsageSampleCount(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	count, err := db.UsageSampleCount()
	if err != nil {
		t.Fatalf("UsageSampleCount() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Count = %d, want 0", count)
	}

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		if err := db.InsertUsageSample(pctSample("claude", now.Add(time.Duration(i)*time.Minute), 10)); err != nil {
			t.Fatalf("InsertUsageSample() failed: %v", err)
		}
	}

	count, err = db.UsageSampleCount()
	if err != nil {
		t.Fatalf("UsageSampleCount() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}

func TestPruneUsageSamplesBefore(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	if err := db.InsertUsageSample(pctSample("claude", now.AddDate(0, 0, -7), 10)); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}
	if err := db.InsertUsageSample(pctSample("claude", now, 20)); err != nil {
		t.Fatalf("InsertUsageSample() failed: %v", err)
	}

	deleted, err := db.PruneUsageSamplesBefore(now.AddDate(0, 0, -3))
	if err != nil {
		t.Fatalf("PruneUsageSamplesBefore() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Deleted %d samples, want 1", deleted)
	}

	count, err := db.UsageSampleCount()
	if err != nil {
		t.Fatalf("UsageSampleCount() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Remaining count = %d, want 1", count)
	}
}
