package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsHandler registers gauges over the store and warning registry and
// returns the scrape endpoint.
func (s *Server) metricsHandler() http.Handler {
	registry := prometheus.NewRegistry()

	registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "quotatrack_usage_samples_total",
			Help: "Total usage samples stored.",
		},
		func() float64 {
			count, err := s.db.UsageSampleCount()
			if err != nil {
				return 0
			}
			return float64(count)
		},
	))

	registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "quotatrack_cost_samples_total",
			Help: "Total cost samples stored.",
		},
		func() float64 {
			count, err := s.db.CostSampleCount()
			if err != nil {
				return 0
			}
			return float64(count)
		},
	))

	registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "quotatrack_collection_warnings",
			Help: "Active collection warnings, one per failing target.",
		},
		func() float64 {
			if s.sched == nil {
				return 0
			}
			return float64(len(s.sched.Warnings()))
		},
	))

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
