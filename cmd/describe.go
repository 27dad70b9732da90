package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/cohortscope/internal/dataset"
)

var (
	descOutputPath string
	descDelimiter  string
	descSheetName  string
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Summarize the projected patient table and its missing values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		delim, err := parseDelimiter(descDelimiter)
		if err != nil {
			return err
		}
		t, _, err := dataset.Load(path, dataset.LoadOptions{Delimiter: delim, SheetName: descSheetName})
		if err != nil {
			return err
		}
		md := dataset.Summarize(filepath.Base(path), t).Markdown()

		if descOutputPath != "" {
			if err := os.WriteFile(descOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", descOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	describeCmd.Flags().StringVar(&descDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	describeCmd.Flags().StringVar(&descSheetName, "sheet-name", "", "XLSX: sheet name to read")
}
