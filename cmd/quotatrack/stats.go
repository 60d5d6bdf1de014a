package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quotatrack/quotatrack/internal/models"
)

var statsHours float64

var statsCmd = &cobra.Command{
	Use:   "stats <provider>",
	Short: "Print aggregate usage statistics for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := args[0]
		if !models.IsKnownProvider(provider) {
			return fmt.Errorf("unknown provider: %s", provider)
		}

		_, database, err := setup()
		if err != nil {
			return err
		}
		defer database.Close()

		to := time.Now().UTC()
		from := to.Add(-time.Duration(statsHours * float64(time.Hour)))

		stats, err := database.UsageStatistics(provider, from, to)
		if err != nil {
			return err
		}

		fmt.Printf("Provider: %s\n", stats.Provider)
		fmt.Printf("Window:   %s to %s\n", from.Format(time.RFC3339), to.Format(time.RFC3339))
		fmt.Printf("Samples:  %d\n", stats.Count)
		if stats.Count == 0 {
			return nil
		}
		printStat := func(label string, v *float64) {
			if v != nil {
				fmt.Printf("%s %.1f%%\n", label, *v)
			}
		}
		printStat("Avg:     ", stats.AvgPrimary)
		printStat("Min:     ", stats.MinPrimary)
		printStat("Max:     ", stats.MaxPrimary)
		return nil
	},
}

func init() {
	statsCmd.Flags().Float64Var(&statsHours, "hours", 24, "lookback window in hours")
	rootCmd.AddCommand(statsCmd)
}
