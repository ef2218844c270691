package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/magus/pkg/catalog"
	"github.com/praetorian-inc/magus/pkg/enum"
	"github.com/praetorian-inc/magus/pkg/filter"
	"github.com/praetorian-inc/magus/pkg/magic"
	"github.com/praetorian-inc/magus/pkg/prefilter"
	"github.com/praetorian-inc/magus/pkg/scanner"
	"github.com/praetorian-inc/magus/pkg/store"
	"github.com/praetorian-inc/magus/pkg/types"
)

var (
	scanMagicPaths    []string
	scanRaw           string
	scanInclude       string
	scanExclude       string
	scanPolicyPath    string
	scanOutputPath    string
	scanOutputFormat  string
	scanBound         int
	scanChunkSize     int
	scanMaxFileSize   int64
	scanIncludeHidden bool
	scanArchives      string
	scanIncremental   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>...",
	Short: "Scan files or directories for signature candidates",
	Long:  "Scan files, directories, or archives for magic signature candidates using definition files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanMagicPaths, "magic", nil, "Magic definition file(s); builtin definitions when omitted")
	scanCmd.Flags().StringVar(&scanRaw, "raw", "", "Scan for this raw byte sequence (C-style escapes) instead of definition files")
	scanCmd.Flags().StringVar(&scanInclude, "include", "", "Include signatures whose description matches pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanExclude, "exclude", "", "Exclude signatures whose description matches pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanPolicyPath, "filter-policy", "", "YAML filter policy file with include/exclude pattern lists")
	scanCmd.Flags().StringVar(&scanOutputPath, "output", "magus.db", "Output database path (:memory: to skip persistence)")
	scanCmd.Flags().StringVar(&scanOutputFormat, "format", "human", "Output format: json, human")
	scanCmd.Flags().IntVar(&scanBound, "bound", 0, "Only report candidates below this offset (0 = whole buffer)")
	scanCmd.Flags().IntVar(&scanChunkSize, "chunk-size", 0, "Scan window size for large buffers (0 = default)")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to scan (bytes)")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().StringVar(&scanArchives, "archives", "", "Enumerate archive members for these extensions (comma-separated, or 'all')")
	scanCmd.Flags().BoolVar(&scanIncremental, "incremental", false, "Skip already-scanned targets")
}

func runScan(cmd *cobra.Command, args []string) error {
	// Validate targets exist
	for _, target := range args {
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("target does not exist: %s", target)
		}
	}

	// Load signature definitions
	session, err := loadSignatures(scanMagicPaths, scanRaw, scanInclude, scanExclude, scanPolicyPath)
	if err != nil {
		return fmt.Errorf("loading signatures: %w", err)
	}

	// Compile the candidate pattern set
	set, err := prefilter.Compile(session.Catalog().Conditions())
	if err != nil {
		return fmt.Errorf("compiling patterns: %w", err)
	}
	defer set.Close()

	// Create store
	s, err := store.New(store.Config{
		Path: scanOutputPath,
	})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer s.Close()

	// Create enumerator
	enumerator := createEnumerator(args)

	// Scan
	ctx := context.Background()
	var mu sync.Mutex // the enumerator invokes the callback from parallel readers
	targetCount := 0
	candidateCount := 0
	skippedCount := 0

	err = enumerator.Enumerate(ctx, func(name string, content []byte) error {
		id := types.ComputeTargetID(content)

		bound := scanBound
		if bound <= 0 {
			bound = len(content)
		}

		mu.Lock()
		if scanIncremental {
			exists, err := s.TargetExists(id)
			if err != nil {
				mu.Unlock()
				return fmt.Errorf("checking target: %w", err)
			}
			if exists {
				skippedCount++
				mu.Unlock()
				return nil
			}
		}
		mu.Unlock()

		offsets, err := scanner.ScanChunked(set, content, bound, scanChunkSize)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", name, err)
		}

		mu.Lock()
		defer mu.Unlock()

		if err := s.AddTarget(types.Target{ID: id, Path: name, Size: int64(len(content))}); err != nil {
			return fmt.Errorf("storing target: %w", err)
		}
		if err := s.AddCandidates(id, offsets); err != nil {
			return fmt.Errorf("storing candidates: %w", err)
		}

		targetCount++
		candidateCount += len(offsets)
		return nil
	})

	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	// Output summary (to stderr when using json format to keep stdout pure JSON)
	summaryOut := cmd.OutOrStdout()
	if scanOutputFormat == "json" {
		summaryOut = cmd.ErrOrStderr()
	}
	if !quiet {
		if scanIncremental {
			fmt.Fprintf(summaryOut, "Scan complete: %d targets, %d candidates (%d targets skipped)\n", targetCount, candidateCount, skippedCount)
		} else {
			fmt.Fprintf(summaryOut, "Scan complete: %d targets, %d candidates\n", targetCount, candidateCount)
		}
		if scanOutputPath != ":memory:" {
			fmt.Fprintf(summaryOut, "Results stored in: %s\n", scanOutputPath)
		}
	}

	// Get results for output
	rows, err := collectRows(s)
	if err != nil {
		return err
	}

	if scanOutputFormat == "json" {
		return outputRowsJSON(cmd, rows)
	}
	return outputRowsHuman(cmd, rows)
}

// =============================================================================
// HELPERS
// =============================================================================

func loadSignatures(paths []string, raw, include, exclude, policyPath string) (*catalog.Session, error) {
	cfg := filter.Config{
		Include: filter.ParsePatterns(include),
		Exclude: filter.ParsePatterns(exclude),
	}
	if policyPath != "" {
		loaded, err := filter.LoadPolicy(policyPath)
		if err != nil {
			return nil, err
		}
		// Flag patterns stack on top of the policy file.
		cfg.Include = append(loaded.Include, cfg.Include...)
		cfg.Exclude = append(loaded.Exclude, cfg.Exclude...)
	}

	var opts []catalog.Option
	if len(cfg.Include) > 0 || len(cfg.Exclude) > 0 {
		eng, err := filter.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("building signature filter: %w", err)
		}
		opts = append(opts, catalog.WithFilter(eng))
	}
	if verbose {
		opts = append(opts, catalog.WithLogFunc(stderrLogger{}.Log))
	}

	session := catalog.New(opts...)

	// A raw byte sequence replaces definition files entirely.
	if raw != "" {
		value, err := magic.Unescape(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding raw signature: %w", err)
		}
		if err := session.AddRaw(0, value, ""); err != nil {
			return nil, err
		}
		return session, nil
	}

	if len(paths) == 0 {
		if err := session.LoadBuiltin(); err != nil {
			return nil, err
		}
		return session, nil
	}

	if err := session.Load(paths...); err != nil {
		return nil, err
	}
	return session, nil
}

func createEnumerator(targets []string) enum.Enumerator {
	enumerators := make([]enum.Enumerator, 0, len(targets))
	for _, target := range targets {
		enumerators = append(enumerators, enum.NewFilesystemEnumerator(enum.Config{
			Root:          target,
			IncludeHidden: scanIncludeHidden,
			MaxFileSize:   scanMaxFileSize,
			EnumArchives:  scanArchives,
		}))
	}
	if len(enumerators) == 1 {
		return enumerators[0]
	}
	return enum.NewCombinedEnumerator(enumerators...)
}

func outputRowsJSON(cmd *cobra.Command, rows []reportRow) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func outputRowsHuman(cmd *cobra.Command, rows []reportRow) error {
	out := cmd.OutOrStdout()

	withCandidates := 0
	for _, row := range rows {
		if len(row.Candidates) > 0 {
			withCandidates++
		}
	}

	if withCandidates == 0 {
		fmt.Fprintf(out, "\nNo candidates.\n")
		return nil
	}

	fmt.Fprintf(out, "\nTargets with candidates:\n")
	i := 0
	for _, row := range rows {
		if len(row.Candidates) == 0 {
			continue
		}
		i++
		fmt.Fprintf(out, "%d. %s: %d candidates at %s\n", i, row.Target.Path, len(row.Candidates), formatOffsets(row.Candidates, 8))
	}
	return nil
}

// formatOffsets renders candidate offsets in hex, capped at limit entries.
func formatOffsets(offsets []int64, limit int) string {
	s := "["
	for i, off := range offsets {
		if i == limit {
			s += fmt.Sprintf(" ... +%d more", len(offsets)-limit)
			break
		}
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%#x", off)
	}
	return s + "]"
}
