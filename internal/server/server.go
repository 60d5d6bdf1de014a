// Package server exposes the store and prediction engine over a JSON API.
// It owns the translation of faults into HTTP responses; nothing below it
// knows about status codes.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quotatrack/quotatrack/internal/config"
	"github.com/quotatrack/quotatrack/internal/db"
	"github.com/quotatrack/quotatrack/internal/models"
	"github.com/quotatrack/quotatrack/internal/services/prediction"
	"github.com/quotatrack/quotatrack/internal/services/scheduler"
)

// Server wires the JSON API routes.
type Server struct {
	db        *db.DB
	predictor *prediction.Service
	sched     *scheduler.Service
	cfg       *config.Config
	router    chi.Router
}

// New creates a server over the given store, predictor, and scheduler.
func New(database *db.DB, predictor *prediction.Service, sched *scheduler.Service, cfg *config.Config) *Server {
	s := &Server{
		db:        database,
		predictor: predictor,
		sched:     sched,
		cfg:       cfg,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/usage", s.handleAllUsage)
	r.Get("/api/usage/{provider}", s.handleUsage)
	r.Get("/api/usage/{provider}/stats", s.handleStats)
	r.Get("/api/predictions", s.handlePredictions)
	r.Get("/api/predictions/{provider}", s.handlePrediction)
	r.Get("/api/costs/{provider}", s.handleCosts)
	r.Post("/api/fetch", s.handleFetch)
	r.Handle("/metrics", s.metricsHandler())

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving the API on the configured address.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	usageCount, err := s.db.UsageSampleCount()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	costCount, err := s.db.CostSampleCount()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := "ok"
	warnings := []scheduler.Warning{}
	if s.sched != nil {
		warnings = s.sched.Warnings()
		if !s.sched.Healthy() {
			status = "warning"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"warnings":     warnings,
		"usageSamples": usageCount,
		"costSamples":  costCount,
	})
}

func (s *Server) handleAllUsage(w http.ResponseWriter, r *http.Request) {
	limit, since, ok := historyParams(w, r)
	if !ok {
		return
	}

	samples, err := s.db.AllUsageHistory(limit, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"samples": emptyIfNil(samples)})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	provider, ok := knownProvider(w, r)
	if !ok {
		return
	}
	limit, since, ok := historyParams(w, r)
	if !ok {
		return
	}

	samples, err := s.db.UsageHistory(provider, limit, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider": provider, "samples": emptyIfNil(samples)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	provider, ok := knownProvider(w, r)
	if !ok {
		return
	}

	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		to = t
	}

	stats, err := s.db.UsageStatistics(provider, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	predictions, err := s.predictor.PredictAll(s.cfg.LookbackHours, s.cfg.HorizonHours)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": predictions})
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	provider, ok := knownProvider(w, r)
	if !ok {
		return
	}

	forecast, err := s.predictor.PredictProviderWindows(provider, s.cfg.LookbackHours, s.cfg.HorizonHours)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (s *Server) handleCosts(w http.ResponseWriter, r *http.Request) {
	provider, ok := knownProvider(w, r)
	if !ok {
		return
	}
	limit, _, ok := historyParams(w, r)
	if !ok {
		return
	}

	samples, err := s.db.CostHistory(provider, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider": provider, "samples": emptyIfNil(samples)})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not running")
		return
	}
	s.sched.FetchNow()
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "scheduled"})
}

// knownProvider validates the provider path parameter. An unrecognized key
// is a client error, distinct from a well-formed query matching zero rows.
func knownProvider(w http.ResponseWriter, r *http.Request) (string, bool) {
	provider := chi.URLParam(r, "provider")
	if !models.IsKnownProvider(provider) {
		writeError(w, http.StatusNotFound, "unknown provider: "+provider)
		return "", false
	}
	return provider, true
}

func historyParams(w http.ResponseWriter, r *http.Request) (int, *time.Time, bool) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return 0, nil, false
		}
		limit = n
	}

	var since *time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since timestamp")
			return 0, nil, false
		}
		since = &t
	}

	return limit, since, true
}
