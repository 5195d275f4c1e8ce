package cmd

import (
	"github.com/huangsam/rowscope/core"
	"github.com/huangsam/rowscope/internal/contract"
	"github.com/spf13/cobra"
)

// checkCmd gates captures against a policy for CI pipelines.
var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Fail when captures fall outside the conflict and acts_per_ref policy.",
	Long: `Analyze every capture and enforce a policy on the results.

A capture violates the policy when it cannot be analyzed, contains fewer than
--min-conflicts conflicts, or its acts_per_ref recommendation lies outside
[--min-acts, --max-acts]. A bound of 0 means unbounded. An acts bound also
rejects captures with fewer than two conflicts, since they yield no
recommendation.

Exits non-zero when any capture violates the policy.

Examples:
  # Require at least 50 conflicts per capture
  rowscope check --min-conflicts 50 captures/*.csv

  # Keep the recommendation within the engine's supported range
  rowscope check --min-acts 16 --max-acts 128 bank*.csv`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, args, true)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCheck(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Policy check failed", err)
		}
	},
}
