package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quotatrack/quotatrack/internal/config"
	"github.com/quotatrack/quotatrack/internal/logger"
	"github.com/quotatrack/quotatrack/internal/server"
	"github.com/quotatrack/quotatrack/internal/services/collector"
	"github.com/quotatrack/quotatrack/internal/services/prediction"
	"github.com/quotatrack/quotatrack/internal/services/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the collection scheduler and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, database, err := setup()
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := database.Close(); closeErr != nil {
				logger.Error("failed to close database", "error", closeErr)
			}
		}()

		predictor := prediction.New(database)

		var sched *scheduler.Service
		targets, err := config.LoadTargets(cfg.TargetsPath)
		if err != nil {
			// The API still serves stored data without a targets file; only
			// collection is disabled.
			logger.Warn("collection disabled", "path", cfg.TargetsPath, "error", err)
		} else {
			runner := &collector.ProcessRunner{
				Command:      targets.Collector,
				EnvAllowlist: targets.EnvAllowlist,
				Timeout:      cfg.CollectorTimeout,
			}
			sched = scheduler.New(database, runner, predictor, scheduler.Config{
				Interval:      cfg.FetchInterval,
				CostRetention: cfg.CostRetention(),
				LookbackHours: cfg.LookbackHours,
				HorizonHours:  cfg.HorizonHours,
				TargetsPath:   cfg.TargetsPath,
				Targets:       targets.Targets,
			})
			sched.Start()
			defer sched.Stop()
		}

		srv := server.New(database, predictor, sched, cfg)

		errChan := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", cfg.ListenAddr)
			errChan <- srv.ListenAndServe()
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			logger.Info("shutting down", "signal", sig.String())
			return nil
		case err := <-errChan:
			return fmt.Errorf("server stopped: %w", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
