package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/magus/pkg/store"
)

var mergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge <scan1.db> <scan2.db> [scan3.db...]",
	Short: "Combine scan databases into one",
	Long: `Combine candidate databases from separate scan runs into a single
database, deduplicating targets and offsets along the way. Useful when
firmware images were scanned on different machines or in parallel shards.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := store.Merge(store.MergeConfig{
			SourcePaths: args,
			DestPath:    mergeOutput,
		})
		if err != nil {
			return fmt.Errorf("merge failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"Merged %d sources into %s: %d targets, %d candidates\n",
			stats.SourcesProcessed, mergeOutput, stats.TargetsMerged, stats.CandidatesMerged)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Output database path")
}
