package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Overridden at release time via -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the magus version and build details",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildVersion())
	},
}

// buildVersion assembles the version block, falling back to VCS metadata
// embedded by the toolchain when ldflags were not set.
func buildVersion() string {
	rev := commit
	if rev == "" {
		rev = "unknown"
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					rev = s.Value
					break
				}
			}
		}
	}
	return fmt.Sprintf("magus v%s\ncommit: %s\ngo: %s\nplatform: %s/%s",
		version, rev, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
