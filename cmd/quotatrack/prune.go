package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	pruneDays   int
	pruneVacuum bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cost samples older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, database, err := setup()
		if err != nil {
			return err
		}
		defer database.Close()

		days := pruneDays
		if days <= 0 {
			days = cfg.CostRetentionDays
		}
		cutoff := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

		deleted, err := database.PruneCostSamplesBefore(cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d cost samples older than %s\n", deleted, cutoff.Format(time.RFC3339))

		if pruneVacuum {
			if err := database.Vacuum(); err != nil {
				return err
			}
			fmt.Println("Database vacuumed")
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "retention in days (default: configured retention)")
	pruneCmd.Flags().BoolVar(&pruneVacuum, "vacuum", false, "vacuum the database after pruning")
	rootCmd.AddCommand(pruneCmd)
}
