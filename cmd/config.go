package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/cohortscope/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set cohortscope configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "input: %s\n", c.Input)
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "charts_dir: %s\n", c.ResolvedChartsDir())
		fmt.Fprintf(out, "chart_format: %s\n", c.ChartFormat)
		fmt.Fprintf(out, "charts_enabled: %t\n", c.ChartsEnabled)
		fmt.Fprintf(out, "hist_bins: %d\n", c.HistBins)
		fmt.Fprintf(out, "artifacts_enabled: %t\n", c.ArtifactsEnabled)
		fmt.Fprintf(out, "artifacts_compress: %t\n", c.ArtifactsCompress)
		fmt.Fprintf(out, "filtered_file: %s\n", c.FilteredFile)
		fmt.Fprintf(out, "processed_file: %s\n", c.ProcessedFile)
		if c.ReportPath != "" {
			fmt.Fprintf(out, "report_path: %s\n", c.ReportPath)
		}
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := c.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
