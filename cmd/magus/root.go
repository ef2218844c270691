package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "magus",
	Short: "Magus - magic signature pre-filter for binary analysis",
	Long: `Magus scans binary content for signature pattern candidates using
libmagic-style definition files. It reports every offset where a known
magic pattern begins, leaving confirmation to a downstream verification
engine.

Definitions use the classic magic format: offset, type, condition and
description fields separated by whitespace.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	rootCmd.AddCommand(
		scanCmd,
		signaturesCmd,
		reportCmd,
		mergeCmd,
		exploreCmd,
		serveCmd,
		versionCmd,
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// stderrLogger narrates to stderr when --verbose is set.
type stderrLogger struct{}

func (stderrLogger) Log(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
