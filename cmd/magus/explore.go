package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/magus/pkg/explore"
)

var exploreDatastore string

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Interactively explore scan results",
	Long: `Browse a scan database in a terminal UI: a filter pane for faceted
narrowing (source kind, extension, candidate presence), a sortable
targets table, and a detail pane showing each target's candidate
offsets with surrounding bytes. On-disk targets open in $PAGER.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := explore.New(exploreDatastore)
		if err != nil {
			return fmt.Errorf("loading database: %w", err)
		}
		defer model.Close()

		prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
		if _, err := prog.Run(); err != nil {
			return fmt.Errorf("running explore TUI: %w", err)
		}
		return nil
	},
}

func init() {
	exploreCmd.Flags().StringVar(&exploreDatastore, "datastore", "magus.db", "Path to scan database")
}
