package models

import (
	"fmt"
	"time"
)

// PredictionStatus indicates urgency level for a usage forecast.
type PredictionStatus string

const (
	// StatusAtLimit means the fitted current value is at or past 100%.
	StatusAtLimit PredictionStatus = "atLimit"
	// StatusCritical means the limit is predicted within one hour.
	StatusCritical PredictionStatus = "critical"
	// StatusWarning means the limit is predicted within four hours.
	StatusWarning PredictionStatus = "warning"
	// StatusHealthy means the limit is more than four hours away.
	StatusHealthy PredictionStatus = "healthy"
	// StatusDecreasing means usage is flat or falling and never reaches the limit.
	StatusDecreasing PredictionStatus = "decreasing"
)

// StatusFor classifies a forecast from its fitted current value and hours
// until the limit. It is a pure function so a serialized prediction can be
// re-classified without re-running the regression. A current value at or
// above 100% is atLimit regardless of trend.
func StatusFor(currentPercent float64, hoursToLimit *float64) PredictionStatus {
	if currentPercent >= 100 {
		return StatusAtLimit
	}
	if hoursToLimit == nil {
		return StatusDecreasing
	}
	switch {
	case *hoursToLimit < 1:
		return StatusCritical
	case *hoursToLimit < 4:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

// UsagePrediction is a least-squares forecast over one provider's recent
// samples. Confidence is a heuristic blend of sample count, time span, and
// fit quality; it is not a statistical confidence interval and must not be
// presented as a probability.
type UsagePrediction struct {
	Provider    string    `json:"provider"`
	Window      string    `json:"window"`
	GeneratedAt time.Time `json:"generatedAt"`

	SampleCount int     `json:"sampleCount"`
	SpanHours   float64 `json:"spanHours"`

	// RatePerHour is the regression slope expressed as percent per hour.
	RatePerHour float64 `json:"ratePerHour"`
	RSquared    float64 `json:"rSquared"`

	// CurrentPercent is the regression line evaluated at GeneratedAt,
	// clamped to [0,100]. PredictedPercent is the line evaluated at
	// GeneratedAt plus the horizon, clamped the same way.
	CurrentPercent   float64 `json:"currentPercent"`
	PredictedPercent float64 `json:"predictedPercent"`
	HorizonHours     float64 `json:"horizonHours"`

	// HoursToLimit is set only when usage is rising and the fitted current
	// value is below 100%.
	HoursToLimit *float64 `json:"hoursToLimit,omitempty"`

	Confidence float64          `json:"confidence"`
	Status     PredictionStatus `json:"status"`
}

// TimeToLimit returns the forecast's time-to-limit as a duration, or nil
// when usage never reaches the limit by this model.
func (p *UsagePrediction) TimeToLimit() *time.Duration {
	if p.HoursToLimit == nil {
		return nil
	}
	d := time.Duration(*p.HoursToLimit * float64(time.Hour))
	return &d
}

// TimeToLimitLabel returns the human-readable time-to-limit, or "-" when
// undefined.
func (p *UsagePrediction) TimeToLimitLabel() string {
	d := p.TimeToLimit()
	if d == nil {
		return "-"
	}
	return FormatDuration(*d)
}

// ProviderForecast combines independent predictions for a provider's short
// and long rate windows, both regressed over the same fetched sample set.
type ProviderForecast struct {
	Provider  string           `json:"provider"`
	Primary   *UsagePrediction `json:"primary,omitempty"`
	Secondary *UsagePrediction `json:"secondary,omitempty"`
}

// FormatDuration renders a duration for display: minutes-only under an hour,
// hours and minutes under a day, days and hours under 30 days, and a
// saturating "30d+" beyond that.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) - h*60
		return fmt.Sprintf("%dh %dm", h, m)
	case d < 30*24*time.Hour:
		days := int(d.Hours()) / 24
		h := int(d.Hours()) - days*24
		return fmt.Sprintf("%dd %dh", days, h)
	default:
		return "30d+"
	}
}
