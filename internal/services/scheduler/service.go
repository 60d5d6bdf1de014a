// Package scheduler drives periodic collection cycles, tracks per-target
// health, and schedules cost-history retention.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/robfig/cron/v3"

	"github.com/quotatrack/quotatrack/internal/config"
	"github.com/quotatrack/quotatrack/internal/logger"
	"github.com/quotatrack/quotatrack/internal/models"
	"github.com/quotatrack/quotatrack/internal/services/collector"
)

// Store is the slice of the storage layer the scheduler writes to.
type Store interface {
	InsertUsageSample(*models.UsageSample) error
	InsertCostSample(*models.CostSample) error
	PruneCostSamplesBefore(time.Time) (int64, error)
}

// Forecaster produces the predictions used for critical-transition
// notifications after each cycle.
type Forecaster interface {
	PredictAll(lookbackHours, horizonHours float64) (map[string]*models.UsagePrediction, error)
}

// Config holds scheduler settings.
type Config struct {
	Interval      time.Duration
	CostRetention time.Duration
	LookbackHours float64
	HorizonHours  float64
	// TargetsPath, when set, is watched for changes; a change reloads the
	// target list and triggers an immediate cycle.
	TargetsPath string
	Targets     []config.Target
}

// Service runs collection cycles on an interval until stopped.
type Service struct {
	store      Store
	runner     collector.Runner
	forecaster Forecaster
	cfg        Config

	mu         sync.Mutex
	running    bool
	targets    []config.Target
	warnings   map[warningKey]Warning
	lastStatus map[string]models.PredictionStatus

	stopChan  chan struct{}
	fetchChan chan struct{}
	cron      *cron.Cron
	watcher   *watcher
	wg        sync.WaitGroup

	// notify is swappable for tests; defaults to a desktop notification.
	notify func(title, body string) error
}

// New creates a scheduler. The forecaster may be nil to disable
// notifications.
func New(store Store, runner collector.Runner, forecaster Forecaster, cfg Config) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.CostRetention <= 0 {
		cfg.CostRetention = 30 * 24 * time.Hour
	}
	return &Service{
		store:      store,
		runner:     runner,
		forecaster: forecaster,
		cfg:        cfg,
		targets:    cfg.Targets,
		warnings:   make(map[warningKey]Warning),
		lastStatus: make(map[string]models.PredictionStatus),
		fetchChan:  make(chan struct{}, 1),
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
}

// Start begins periodic collection. Calling Start on a running scheduler is
// a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	if s.cfg.TargetsPath != "" {
		if err := s.startWatcher(); err != nil {
			logger.Warn("failed to watch targets file", "path", s.cfg.TargetsPath, "error", err)
		}
	}
	s.startRetentionJob()

	s.wg.Add(1)
	go s.loop()
}

// Stop halts the schedule. It is safe to call repeatedly and from any
// goroutine; an in-progress cycle is allowed to complete.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
	}
	if s.watcher != nil {
		s.watcher.close()
		s.watcher = nil
	}
	s.wg.Wait()
}

// Running reports whether the scheduler is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// FetchNow triggers an out-of-band cycle without disturbing the periodic
// schedule. It is a no-op when the scheduler is stopped or a manual fetch is
// already pending.
func (s *Service) FetchNow() {
	select {
	case s.fetchChan <- struct{}{}:
	default:
	}
}

func (s *Service) loop() {
	defer s.wg.Done()

	s.runCycle()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCycle()
		case <-s.fetchChan:
			s.runCycle()
		case <-s.stopChan:
			return
		}
	}
}

// runCycle collects every configured target once. Targets fail
// independently; one error never aborts the rest of the cycle.
func (s *Service) runCycle() {
	now := time.Now().UTC()
	for _, target := range s.currentTargets() {
		s.collectUsage(target, now)
		if target.Cost {
			s.collectCost(target, now)
		}
	}
	s.notifyTransitions()
}

func (s *Service) collectUsage(target config.Target, now time.Time) {
	payloads, err := s.runner.CollectUsage(context.Background(), target.Providers, target.Source)
	if err != nil {
		logger.Error("usage collection failed", "source", target.Source, "error", err)
		s.recordWarning(WarnUsage, target, err)
		return
	}

	var stored int
	for i := range payloads {
		sample := collector.NormalizeUsage(&payloads[i], now)
		if err := s.store.InsertUsageSample(sample); err != nil {
			logger.Error("failed to store usage sample", "provider", sample.Provider, "error", err)
			s.recordWarning(WarnUsage, target, err)
			return
		}
		stored++
	}

	s.clearWarning(WarnUsage, target)
	logger.Debug("usage cycle complete", "source", target.Source, "samples", stored)
}

func (s *Service) collectCost(target config.Target, now time.Time) {
	payloads, err := s.runner.CollectCost(context.Background(), target.Providers, target.Source)
	if err != nil {
		logger.Error("cost collection failed", "source", target.Source, "error", err)
		s.recordWarning(WarnCost, target, err)
		return
	}

	for i := range payloads {
		sample := collector.NormalizeCost(&payloads[i], now)
		if err := s.store.InsertCostSample(sample); err != nil {
			logger.Error("failed to store cost sample", "provider", sample.Provider, "error", err)
			s.recordWarning(WarnCost, target, err)
			return
		}
	}

	s.clearWarning(WarnCost, target)
}

// notifyTransitions sends a desktop notification when a provider first
// enters critical or at-limit status.
func (s *Service) notifyTransitions() {
	if s.forecaster == nil {
		return
	}

	predictions, err := s.forecaster.PredictAll(s.cfg.LookbackHours, s.cfg.HorizonHours)
	if err != nil {
		logger.Error("failed to compute predictions after cycle", "error", err)
		return
	}

	for provider, pred := range predictions {
		s.mu.Lock()
		previous := s.lastStatus[provider]
		s.lastStatus[provider] = pred.Status
		s.mu.Unlock()

		urgent := pred.Status == models.StatusCritical || pred.Status == models.StatusAtLimit
		if urgent && previous != pred.Status {
			title := "Quota alert: " + provider
			body := "Usage at " + pred.TimeToLimitLabel() + " from limit"
			if pred.Status == models.StatusAtLimit {
				body = "Usage limit reached"
			}
			if err := s.notify(title, body); err != nil {
				logger.Debug("notification failed", "error", err)
			}
		}
	}
}

// startRetentionJob schedules the daily cost-history prune.
func (s *Service) startRetentionJob() {
	s.cron = cron.New()
	_, err := s.cron.AddFunc("@daily", func() {
		cutoff := time.Now().UTC().Add(-s.cfg.CostRetention)
		deleted, err := s.store.PruneCostSamplesBefore(cutoff)
		if err != nil {
			logger.Error("cost retention prune failed", "error", err)
			return
		}
		if deleted > 0 {
			logger.Info("pruned cost samples", "deleted", deleted, "cutoff", cutoff)
		}
	})
	if err != nil {
		logger.Error("failed to schedule retention job", "error", err)
		return
	}
	s.cron.Start()
}

func (s *Service) currentTargets() []config.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]config.Target(nil), s.targets...)
}

// reloadTargets re-reads the targets file after an external change and
// triggers an immediate cycle. Collector command and allow-list changes
// still require a restart.
func (s *Service) reloadTargets() {
	file, err := config.LoadTargets(s.cfg.TargetsPath)
	if err != nil {
		logger.Error("failed to reload targets file", "path", s.cfg.TargetsPath, "error", err)
		return
	}

	s.mu.Lock()
	s.targets = file.Targets
	s.mu.Unlock()

	logger.Info("targets reloaded", "count", len(file.Targets))
	s.FetchNow()
}
