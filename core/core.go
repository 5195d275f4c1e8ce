// Package core has core logic for batch analysis, caching, history tracking and gating.
package core

import (
	"context"
	"fmt"
	"io"

	"github.com/huangsam/rowscope/core/algo"
	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/internal/outwriter"
)

// ExecutorFunc defines the function signature for executing the batch commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteAnalyze runs the batch analysis and prints the reports.
// It serves as the main entry point for the 'analyze' command.
// Reports are printed even when every dataset failed, and ErrAllFailed is returned afterwards.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	batch, runErr := RunBatch(ctx, cfg, mgr)
	if batch == nil {
		return runErr
	}
	if err := outwriter.NewOutWriter().WriteReports(batch, cfg); err != nil {
		return err
	}
	return runErr
}

// ExecuteRecommend prints the acts-per-ref advice for a known mean gap.
func ExecuteRecommend(w io.Writer, gapMean float64) error {
	acts, err := algo.RecommendActsPerRef(gapMean)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "acts_per_ref=%d\n", acts)
	return err
}
