package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/praetorian-inc/magus/pkg/sarif"
	"github.com/praetorian-inc/magus/pkg/store"
	"github.com/praetorian-inc/magus/pkg/types"
)

var (
	reportDatastore string
	reportFormat    string
	reportColor     string
)

// reportRow pairs a target with its recorded candidate offsets.
type reportRow struct {
	Target     types.Target `json:"target"`
	Candidates []int64      `json:"candidates"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from scan results",
	Long:  "Summarize the targets and candidate offsets recorded in a scan database",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatastore, "datastore", "magus.db", "Path to scan database")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
}

func runReport(cmd *cobra.Command, args []string) error {
	storePath, err := resolveStorePath(reportDatastore)
	if err != nil {
		return err
	}

	s, err := store.New(store.Config{Path: storePath})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	rows, err := collectRows(s)
	if err != nil {
		return err
	}

	switch reportFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	case "sarif":
		return outputReportSarif(cmd, rows)
	case "human":
		return outputReportHuman(cmd, rows)
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveStorePath rejects in-memory stores and resolves database
// directories to the magus.db file inside.
func resolveStorePath(path string) (string, error) {
	if path == ":memory:" {
		return "", fmt.Errorf("cannot report from in-memory store")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("database not found: %s", path)
	}
	if info.IsDir() {
		return filepath.Join(path, "magus.db"), nil
	}
	return path, nil
}

// collectRows loads every target with its candidate offsets.
func collectRows(s store.Store) ([]reportRow, error) {
	targets, err := s.Targets()
	if err != nil {
		return nil, fmt.Errorf("retrieving targets: %w", err)
	}

	rows := make([]reportRow, 0, len(targets))
	for _, t := range targets {
		offsets, err := s.Candidates(t.ID)
		if err != nil {
			return nil, fmt.Errorf("retrieving candidates for %s: %w", t.Path, err)
		}
		rows = append(rows, reportRow{Target: t, Candidates: offsets})
	}
	return rows, nil
}

// outputReportSarif renders candidate offsets as SARIF byte-offset regions.
func outputReportSarif(cmd *cobra.Command, rows []reportRow) error {
	report := sarif.NewReport()
	for _, row := range rows {
		report.AddTarget(row.Target, row.Candidates)
	}

	data, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("rendering sarif: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// =============================================================================
// HUMAN OUTPUT
// =============================================================================

// palette carries the color formatters for human-readable output.
type palette struct {
	title  *color.Color
	label  *color.Color
	hash   *color.Color
	path   *color.Color
	offset *color.Color
	dim    *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		title:  color.New(color.Bold, color.FgHiWhite),
		label:  color.New(color.Bold),
		hash:   color.New(color.FgHiGreen),
		path:   color.New(color.Bold, color.FgHiBlue),
		offset: color.New(color.FgYellow),
		dim:    color.New(color.FgHiBlue),
	}
	if !enabled {
		for _, c := range []*color.Color{p.title, p.label, p.hash, p.path, p.offset, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

// colorEnabled resolves the --color flag; auto follows the TTY state and
// the NO_COLOR convention.
func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
}

// maxOffsetsShown caps the per-target offset listing in human output.
const maxOffsetsShown = 16

func outputReportHuman(cmd *cobra.Command, rows []reportRow) error {
	out := cmd.OutOrStdout()

	enabled := colorEnabled(reportColor)
	color.NoColor = !enabled
	pal := newPalette(enabled)

	totalCandidates := 0
	for _, row := range rows {
		totalCandidates += len(row.Candidates)
	}

	fmt.Fprintf(out, "%s %s\n\n",
		pal.label.Sprint("Scan database:"),
		pal.dim.Sprintf("%d targets, %d candidates", len(rows), totalCandidates))

	for i, row := range rows {
		fmt.Fprintf(out, "%s (%s %s)\n",
			pal.title.Sprintf("Target %d/%d", i+1, len(rows)),
			pal.label.Sprint("id"),
			pal.hash.Sprint(shortID(row.Target.ID)))

		fmt.Fprintf(out, "%s %s\n", pal.label.Sprint("Path:"), pal.path.Sprint(row.Target.Path))
		fmt.Fprintf(out, "%s %s\n", pal.label.Sprint("Size:"), pal.dim.Sprint(humanize.Bytes(uint64(row.Target.Size))))
		fmt.Fprintf(out, "%s %d\n", pal.label.Sprint("Candidates:"), len(row.Candidates))

		shown := row.Candidates
		if len(shown) > maxOffsetsShown {
			shown = shown[:maxOffsetsShown]
		}
		for _, off := range shown {
			fmt.Fprintf(out, "    %s (%d)\n", pal.offset.Sprintf("%#010x", off), off)
		}
		if rest := len(row.Candidates) - len(shown); rest > 0 {
			fmt.Fprintf(out, "    ... and %d more\n", rest)
		}

		fmt.Fprintln(out)
	}

	return nil
}

// shortID renders the leading bytes of a content hash for display.
func shortID(id types.TargetID) string {
	return id.Hex()[:12] + "..."
}
