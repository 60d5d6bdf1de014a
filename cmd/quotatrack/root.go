package main

import (
	"github.com/spf13/cobra"

	"github.com/quotatrack/quotatrack/internal/config"
	"github.com/quotatrack/quotatrack/internal/db"
	"github.com/quotatrack/quotatrack/internal/logger"
	"github.com/quotatrack/quotatrack/internal/version"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:     "quotatrack",
	Short:   "Track AI coding tool quota usage and forecast exhaustion",
	Long:    "quotatrack records usage and cost snapshots from an external collector\ninto SQLite and forecasts time-to-quota-exhaustion with linear regression.",
	Version: version.Info(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetDebug(debugFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// setup loads configuration and opens the database. Callers own the close.
func setup() (*config.Config, *db.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if debugFlag || cfg.Debug {
		logger.SetDebug(true)
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, database, nil
}
