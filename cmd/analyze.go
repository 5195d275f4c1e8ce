package cmd

import (
	"errors"

	"github.com/huangsam/rowscope/core"
	"github.com/huangsam/rowscope/internal/contract"
	"github.com/spf13/cobra"
)

// analyzeCmd classifies every capture and prints one report per file.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Classify access timings and recommend acts_per_ref per capture.",
	Long: `Load each capture, drop outliers, split the samples into row buffer hits and
row conflicts, and summarize the spacing between consecutive conflicts.

Each capture is analyzed independently on the worker pool. A capture that fails
to load is reported as ERROR and does not stop the others. The command exits
non-zero only when every capture failed.

Captures are CSV (a header row with a 'timing' column, optional 'index') or
Parquet. Use '-' to read CSV from stdin. When no files are given, the 'files'
list from the config file is used.

Presets:
  acts     no-conflict 1000, conflict 1000, max-latency 5000 (default)
  timings  no-conflict 800, conflict 1000, no outlier filter

Examples:
  # Analyze acts-per-ref captures with the default preset
  rowscope analyze bank0.csv bank1.csv

  # Threshold captures with a custom conflict threshold
  rowscope analyze --preset timings --conflict-threshold 950 timings.csv

  # Full summary blocks, exported to JSON
  rowscope analyze --detail --output json --output-file report.json captures/*.csv`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, args, true)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg, cacheManager); err != nil {
			if errors.Is(err, core.ErrAllFailed) {
				contract.LogFatal("No capture could be analyzed", err)
			}
			contract.LogFatal("Analysis failed", err)
		}
	},
}
