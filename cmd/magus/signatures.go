package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	sigMagicPaths []string
	sigInclude    string
	sigExclude    string
	sigFormat     string
	exportOutput  string
)

var signaturesCmd = &cobra.Command{
	Use:   "signatures",
	Short: "Manage signature definitions",
	Long:  "Commands for listing and exporting magic signature definitions",
}

var signaturesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded signatures",
	Long:  "Display signatures parsed from definition files with their offsets and patterns",
	RunE:  runSignaturesList,
}

var signaturesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered definition stream",
	Long: `Re-emit the loaded definition text after filtering, byte for byte.

Included entry lines keep their continuation lines, so the output is a
valid definition file a downstream verification engine can consume.`,
	RunE: runSignaturesExport,
}

func init() {
	signaturesCmd.AddCommand(signaturesListCmd)
	signaturesCmd.AddCommand(signaturesExportCmd)

	signaturesCmd.PersistentFlags().StringSliceVar(&sigMagicPaths, "magic", nil, "Magic definition file(s); builtin definitions when omitted")
	signaturesCmd.PersistentFlags().StringVar(&sigInclude, "include", "", "Include signatures whose description matches pattern (comma-separated)")
	signaturesCmd.PersistentFlags().StringVar(&sigExclude, "exclude", "", "Exclude signatures whose description matches pattern (comma-separated)")

	signaturesListCmd.Flags().StringVar(&sigFormat, "format", "table", "Output format: table, json")
	signaturesExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "Output path (- for stdout)")
}

func runSignaturesList(cmd *cobra.Command, args []string) error {
	session, err := loadSignatures(sigMagicPaths, "", sigInclude, sigExclude, "")
	if err != nil {
		return fmt.Errorf("loading signatures: %w", err)
	}

	sigs := session.Catalog().Signatures()

	switch sigFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(sigs)
	case "table":
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintf(w, "Offset\tType\tPattern\tDescription\n")
		fmt.Fprintf(w, "------\t----\t-------\t-----------\n")

		for _, sig := range sigs {
			fmt.Fprintf(w, "%#x\t%s\t%s\t%s\n", sig.Offset, sig.Type, sig.Condition, sig.Description)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", sigFormat)
	}
}

func runSignaturesExport(cmd *cobra.Command, args []string) error {
	session, err := loadSignatures(sigMagicPaths, "", sigInclude, sigExclude, "")
	if err != nil {
		return fmt.Errorf("loading signatures: %w", err)
	}

	if exportOutput == "-" {
		_, err = session.WriteStream(cmd.OutOrStdout())
		return err
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("creating %s: %w", exportOutput, err)
	}
	defer f.Close()

	if _, err := session.WriteStream(f); err != nil {
		return fmt.Errorf("writing definitions: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d signatures to %s\n", session.SignatureCount(), exportOutput)
	}
	return nil
}
