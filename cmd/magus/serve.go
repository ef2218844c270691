package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/magus/pkg/scanner"
	"github.com/praetorian-inc/magus/pkg/serve"
)

var serveMagicPaths []string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming scan server",
	Long: `Run Magus as a long-lived streaming server that accepts scan requests
via stdin and reports candidate offsets via stdout using NDJSON framing.

The process loads signature definitions once at startup and handles
requests until stdin closes or SIGTERM is received.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringSliceVar(&serveMagicPaths, "magic", nil, "Magic definition file(s); builtin definitions when omitted")
}

func runServe(cmd *cobra.Command, args []string) error {
	magicText, err := readMagicFiles(serveMagicPaths)
	if err != nil {
		return err
	}

	var logger scanner.DebugLogger
	if verbose {
		logger = stderrLogger{}
	}

	core, err := scanner.NewCore(magicText, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	// SIGTERM/SIGINT stop the server once the in-flight request drains.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	srv := serve.NewServer(core, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}

// readMagicFiles concatenates definition files into the core's inline
// definition text. No paths means the builtin definitions.
func readMagicFiles(paths []string) (string, error) {
	if len(paths) == 0 {
		return "builtin", nil
	}

	var sb strings.Builder
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading definitions: %w", err)
		}
		sb.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}
