// Package prediction forecasts quota exhaustion from recent usage samples
// with ordinary least squares regression.
package prediction

import (
	"fmt"
	"sort"
	"time"

	"github.com/quotatrack/quotatrack/internal/models"
)

// Defaults for the regression window and forecast horizon.
const (
	DefaultLookbackHours = 24.0
	DefaultHorizonHours  = 1.0
)

const (
	// minSamples is the fewest qualifying points a regression accepts.
	minSamples = 3
	// minSpan is the shortest timestamp spread a regression accepts.
	minSpan = 5 * time.Minute
	// fetchLimit bounds how many samples a provider fetch pulls for one
	// regression window.
	fetchLimit = 1000
)

// Store is the slice of the storage layer the engine reads from.
type Store interface {
	UsageHistory(provider string, limit int, since *time.Time) ([]models.UsageSample, error)
}

// Service runs predictions against a sample store.
type Service struct {
	store Store
}

// New creates a prediction service backed by the given store.
func New(store Store) *Service {
	return &Service{store: store}
}

// Predict fits a least-squares line through the selected window's values and
// forecasts usage at now+horizonHours. It returns nil when the samples carry
// insufficient evidence (fewer than three qualifying points, or a span under
// five minutes); that is a normal outcome for sparse data, not an error.
func Predict(samples []models.UsageSample, horizonHours float64, window models.Window) *models.UsagePrediction {
	return predictAt(samples, horizonHours, window, time.Now())
}

func predictAt(samples []models.UsageSample, horizonHours float64, window models.Window, now time.Time) *models.UsagePrediction {
	type point struct {
		t     time.Time
		value float64
	}

	var points []point
	for i := range samples {
		if v := window.Value(&samples[i]); v != nil {
			points = append(points, point{t: samples[i].Timestamp, value: *v})
		}
	}
	if len(points) < minSamples {
		return nil
	}

	sort.Slice(points, func(i, j int) bool { return points[i].t.Before(points[j].t) })

	first := points[0].t
	span := points[len(points)-1].t.Sub(first)
	if span < minSpan {
		return nil
	}

	// Regress value against seconds since the first qualifying sample.
	n := float64(len(points))
	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		x := p.t.Sub(first).Seconds()
		sumX += x
		sumY += p.value
		sumXY += x * p.value
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	// R² = 1 - SSres/SStot, defined as 0 when all values are identical.
	meanY := sumY / n
	var ssRes, ssTot float64
	for _, p := range points {
		x := p.t.Sub(first).Seconds()
		fitted := intercept + slope*x
		ssRes += (p.value - fitted) * (p.value - fitted)
		ssTot += (p.value - meanY) * (p.value - meanY)
	}
	rSquared := 0.0
	if ssTot > 0 {
		rSquared = clamp(1-ssRes/ssTot, 0, 1)
	}

	xNow := now.Sub(first).Seconds()
	current := clamp(intercept+slope*xNow, 0, 100)
	predicted := clamp(intercept+slope*(xNow+horizonHours*3600), 0, 100)
	ratePerHour := slope * 3600

	// Flat or decreasing usage never reaches the limit by this model, even
	// when the current value sits near 100 from a single spike.
	var hoursToLimit *float64
	if ratePerHour > 0 && current < 100 {
		h := (100 - current) / ratePerHour
		hoursToLimit = &h
	}

	spanHours := span.Hours()
	return &models.UsagePrediction{
		Window:           window.String(),
		GeneratedAt:      now,
		SampleCount:      len(points),
		SpanHours:        spanHours,
		RatePerHour:      ratePerHour,
		RSquared:         rSquared,
		CurrentPercent:   current,
		PredictedPercent: predicted,
		HorizonHours:     horizonHours,
		HoursToLimit:     hoursToLimit,
		Confidence:       confidence(len(points), spanHours, rSquared),
		Status:           models.StatusFor(current, hoursToLimit),
	}
}

// confidence blends sample-count adequacy, time-span adequacy, and fit
// quality into a [0,1] heuristic. It is not a statistical confidence
// interval.
func confidence(sampleCount int, spanHours, rSquared float64) float64 {
	countScore := 0.4
	switch {
	case sampleCount >= 50:
		countScore = 1.0
	case sampleCount >= 20:
		countScore = 0.8
	case sampleCount >= 10:
		countScore = 0.6
	}

	spanScore := 0.4
	switch {
	case spanHours >= 12:
		spanScore = 1.0
	case spanHours >= 4:
		spanScore = 0.8
	case spanHours >= 1:
		spanScore = 0.6
	}

	return 0.3*countScore + 0.3*spanScore + 0.4*rSquared
}

// PredictProvider fetches the lookback window for one provider and regresses
// its primary rate window. A nil prediction with nil error means
// insufficient data.
func (s *Service) PredictProvider(provider string, lookbackHours, horizonHours float64) (*models.UsagePrediction, error) {
	samples, err := s.fetchWindow(provider, lookbackHours)
	if err != nil {
		return nil, err
	}

	pred := Predict(samples, horizonHours, models.WindowPrimary)
	if pred != nil {
		pred.Provider = provider
	}
	return pred, nil
}

// PredictAll runs the single-provider prediction over every known provider,
// skipping providers whose data is too sparse to predict.
func (s *Service) PredictAll(lookbackHours, horizonHours float64) (map[string]*models.UsagePrediction, error) {
	predictions := make(map[string]*models.UsagePrediction)
	for _, provider := range models.KnownProviders {
		pred, err := s.PredictProvider(provider, lookbackHours, horizonHours)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			predictions[provider] = pred
		}
	}
	return predictions, nil
}

// PredictProviderWindows computes independent primary- and secondary-window
// predictions from a single fetched sample set.
func (s *Service) PredictProviderWindows(provider string, lookbackHours, horizonHours float64) (*models.ProviderForecast, error) {
	samples, err := s.fetchWindow(provider, lookbackHours)
	if err != nil {
		return nil, err
	}

	forecast := &models.ProviderForecast{Provider: provider}
	if pred := Predict(samples, horizonHours, models.WindowPrimary); pred != nil {
		pred.Provider = provider
		forecast.Primary = pred
	}
	if pred := Predict(samples, horizonHours, models.WindowSecondary); pred != nil {
		pred.Provider = provider
		forecast.Secondary = pred
	}
	return forecast, nil
}

func (s *Service) fetchWindow(provider string, lookbackHours float64) ([]models.UsageSample, error) {
	if lookbackHours <= 0 {
		lookbackHours = DefaultLookbackHours
	}
	since := time.Now().Add(-time.Duration(lookbackHours * float64(time.Hour)))

	samples, err := s.store.UsageHistory(provider, fetchLimit, &since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", provider, err)
	}
	return samples, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
