package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/quotatrack/quotatrack/internal/services/prediction"
	"github.com/quotatrack/quotatrack/internal/ui"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show a live terminal dashboard of provider usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, database, err := setup()
		if err != nil {
			return err
		}
		defer database.Close()

		model := ui.NewModel(database, prediction.New(database), cfg.LookbackHours, cfg.HorizonHours)

		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running dashboard: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
}
