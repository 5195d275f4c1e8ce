package cmd

import (
	"fmt"
	"strconv"

	"github.com/huangsam/rowscope/core"
	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/schema"
	"github.com/spf13/cobra"
)

// recommendCmd turns a known gap mean into an acts_per_ref value.
var recommendCmd = &cobra.Command{
	Use:   "recommend <gap-mean>",
	Short: "Print acts_per_ref for a known mean conflict spacing.",
	Long: `Compute acts_per_ref = floor(2 * gap-mean) without loading any capture.

Useful when the mean spacing between conflicts was measured elsewhere.

Examples:
  rowscope recommend 30.75`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		gapMean, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			contract.LogFatal("Invalid gap mean", fmt.Errorf("%w: %q is not a number", schema.ErrInvalidConfiguration, args[0]))
		}
		if err := core.ExecuteRecommend(cmd.OutOrStdout(), gapMean); err != nil {
			contract.LogFatal("Recommendation failed", err)
		}
	},
}
