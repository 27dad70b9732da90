package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/cohortscope/internal/dataset"
	"github.com/KaramelBytes/cohortscope/internal/logging"
	"github.com/KaramelBytes/cohortscope/internal/pipeline"
	"github.com/KaramelBytes/cohortscope/internal/plots"
	"github.com/KaramelBytes/cohortscope/internal/report"
)

var (
	runOutDir      string
	runChartsDir   string
	runFormat      string
	runNoCharts    bool
	runNoArtifacts bool
	runCompress    bool
	runReport      string
	runDelimiter   string
	runSheetName   string
	runBins        int
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run the full cohort analysis",
	Long: `Load the patient table, drop incomplete rows, assign age groups, render the charts and
print the statistical tests. Without a file argument the configured input is used
(default alzheimers_disease_data.csv).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := currentConfig()
		if err != nil {
			return err
		}
		c := *base
		if len(args) == 1 {
			c.Input = args[0]
		}
		f := cmd.Flags()
		if f.Changed("out-dir") {
			c.OutputDir = runOutDir
		}
		if f.Changed("charts-dir") {
			c.ChartsDir = runChartsDir
		}
		if f.Changed("format") {
			c.ChartFormat = runFormat
		}
		if f.Changed("bins") {
			c.HistBins = runBins
		}
		if f.Changed("report") {
			c.ReportPath = runReport
		}
		if runNoCharts {
			c.ChartsEnabled = false
		}
		if runNoArtifacts {
			c.ArtifactsEnabled = false
		}
		if runCompress {
			c.ArtifactsCompress = true
		}
		if err := c.Validate(); err != nil {
			return err
		}
		delim, err := parseDelimiter(runDelimiter)
		if err != nil {
			return err
		}

		runID := uuid.NewString()
		log := logging.WithRun(runID)
		out := cmd.OutOrStdout()

		opt := pipeline.EDAOptions{
			Input: c.Input,
			Load:  dataset.LoadOptions{Delimiter: delim, SheetName: runSheetName, Compress: c.ArtifactsCompress},
			Clean: dataset.CleanOptions{Compress: c.ArtifactsCompress},
		}
		if c.ArtifactsEnabled {
			opt.Load.ArtifactPath = filepath.Join(c.OutputDir, c.FilteredFile)
			opt.Clean.ArtifactPath = filepath.Join(c.OutputDir, c.ProcessedFile)
		}
		if c.ChartsEnabled {
			r, err := plots.NewRenderer(plots.Options{Dir: c.ResolvedChartsDir(), Format: c.ChartFormat, Bins: c.HistBins}, log)
			if err != nil {
				return err
			}
			opt.Charts = r
		}

		log.Info("run started", zap.String("input", c.Input), zap.Bool("charts", c.ChartsEnabled), zap.Bool("artifacts", c.ArtifactsEnabled))
		eda := pipeline.NewEDA(opt, out, log)
		_, sum, runErr := pipeline.NewRunner(runID, log, out).Run(cmd.Context(), eda.Steps(), nil)

		if c.ReportPath != "" {
			if err := report.Write(c.ReportPath, report.Build(c.Input, sum, eda.Result())); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v\n", err)
			} else {
				fmt.Fprintf(out, "✓ Wrote run report to %s\n", c.ReportPath)
			}
		}
		if runErr != nil {
			return runErr
		}

		failures := sum.Failures()
		ok := color.New(color.FgGreen)
		if charts := eda.Result().Charts; len(charts) > 0 {
			ok.Fprintf(out, "✓ Wrote %d charts to %s\n", len(charts), c.ResolvedChartsDir())
		}
		if len(failures) > 0 {
			color.New(color.FgYellow).Fprintf(out, "⚠ Analysis finished with %d failed step(s) (run %s)\n", len(failures), runID)
			return nil
		}
		ok.Fprintf(out, "✓ Analysis complete (run %s)\n", runID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runOutDir, "out-dir", "", "directory for intermediate CSV files (overrides config)")
	runCmd.Flags().StringVar(&runChartsDir, "charts-dir", "", "directory for chart images (default <out-dir>/charts)")
	runCmd.Flags().StringVar(&runFormat, "format", "png", "chart image format: png|svg")
	runCmd.Flags().BoolVar(&runNoCharts, "no-charts", false, "skip chart rendering")
	runCmd.Flags().BoolVar(&runNoArtifacts, "no-artifacts", false, "do not write intermediate CSV files")
	runCmd.Flags().BoolVar(&runCompress, "compress-artifacts", false, "gzip intermediate CSV files")
	runCmd.Flags().StringVar(&runReport, "report", "", "optional path to write a JSON run report")
	runCmd.Flags().StringVar(&runDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe' (auto by extension if omitted)")
	runCmd.Flags().StringVar(&runSheetName, "sheet-name", "", "XLSX: sheet name to read (default first sheet)")
	runCmd.Flags().IntVar(&runBins, "bins", 20, "histogram bins")
}
