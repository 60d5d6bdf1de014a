package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quotatrack/quotatrack/internal/config"
	"github.com/quotatrack/quotatrack/internal/db"
	"github.com/quotatrack/quotatrack/internal/logger"
	"github.com/quotatrack/quotatrack/internal/services/collector"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one collection cycle and store the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, database, err := setup()
		if err != nil {
			return err
		}
		defer database.Close()

		targets, err := config.LoadTargets(cfg.TargetsPath)
		if err != nil {
			return err
		}

		runner := &collector.ProcessRunner{
			Command:      targets.Collector,
			EnvAllowlist: targets.EnvAllowlist,
			Timeout:      cfg.CollectorTimeout,
		}

		ctx := cmd.Context()
		now := time.Now().UTC()
		var usageStored, costStored, failed int

		for _, target := range targets.Targets {
			n, err := fetchUsage(ctx, runner, database, target, now)
			if err != nil {
				logger.Error("usage collection failed", "source", target.Source, "error", err)
				failed++
			}
			usageStored += n

			if target.Cost {
				n, err := fetchCost(ctx, runner, database, target, now)
				if err != nil {
					logger.Error("cost collection failed", "source", target.Source, "error", err)
					failed++
				}
				costStored += n
			}
		}

		fmt.Printf("Stored %d usage and %d cost samples\n", usageStored, costStored)
		if failed > 0 {
			return fmt.Errorf("%d target(s) failed", failed)
		}
		return nil
	},
}

func fetchUsage(ctx context.Context, runner collector.Runner, store *db.DB, target config.Target, now time.Time) (int, error) {
	payloads, err := runner.CollectUsage(ctx, target.Providers, target.Source)
	if err != nil {
		return 0, err
	}

	var stored int
	for i := range payloads {
		sample := collector.NormalizeUsage(&payloads[i], now)
		if err := store.InsertUsageSample(sample); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

func fetchCost(ctx context.Context, runner collector.Runner, store *db.DB, target config.Target, now time.Time) (int, error) {
	payloads, err := runner.CollectCost(ctx, target.Providers, target.Source)
	if err != nil {
		return 0, err
	}

	var stored int
	for i := range payloads {
		sample := collector.NormalizeCost(&payloads[i], now)
		if err := store.InsertCostSample(sample); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
