package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/internal/outwriter"
	"github.com/huangsam/rowscope/schema"
)

// ErrCheckFailed is returned when at least one dataset violates the check policy.
var ErrCheckFailed = errors.New("check failed")

// ExecuteCheck runs the check command for CI/CD gating.
// Every dataset is analyzed and held against cfg.Check; any violation is
// reported and turned into ErrCheckFailed so the caller can exit non-zero.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()

	batch, err := RunBatch(ctx, cfg, mgr)
	if err != nil && !errors.Is(err, ErrAllFailed) {
		return err
	}

	result := EvaluateCheck(batch, cfg.Check)
	if err := outwriter.NewOutWriter().WriteCheck(result, cfg, time.Since(start)); err != nil {
		return err
	}

	if !result.Passed {
		return fmt.Errorf("%w: %d violation(s) found", ErrCheckFailed, len(result.Violations))
	}
	return nil
}

// EvaluateCheck holds every report in batch against policy.
// A dataset may produce more than one violation.
func EvaluateCheck(batch *schema.BatchResult, policy schema.CheckPolicy) *schema.CheckResult {
	result := &schema.CheckResult{
		Policy:     policy,
		TotalFiles: len(batch.Reports),
		Violations: []schema.CheckViolation{},
	}

	for i := range batch.Reports {
		for _, reason := range checkReport(&batch.Reports[i], policy) {
			result.Violations = append(result.Violations, schema.CheckViolation{
				Path:   batch.Reports[i].Path,
				Reason: reason,
			})
		}
	}

	result.Passed = len(result.Violations) == 0
	return result
}

// checkReport lists the reasons one report fails policy.
func checkReport(r *schema.FileReport, policy schema.CheckPolicy) []string {
	if r.Status() == schema.ErrorStatus {
		return []string{"analysis failed: " + r.Error}
	}

	var reasons []string
	if conflicts := r.Analysis.Conflicts(); conflicts < policy.MinConflicts {
		reasons = append(reasons, fmt.Sprintf("conflicts %d < min %d", conflicts, policy.MinConflicts))
	}

	acts := r.Analysis.ActsPerRef
	switch {
	case acts == nil && (policy.MinActs > 0 || policy.MaxActs > 0):
		reasons = append(reasons, "no acts-per-ref recommendation (fewer than two conflicts)")
	case acts == nil:
	case policy.MinActs > 0 && *acts < policy.MinActs:
		reasons = append(reasons, fmt.Sprintf("acts-per-ref %d < min %d", *acts, policy.MinActs))
	case policy.MaxActs > 0 && *acts > policy.MaxActs:
		reasons = append(reasons, fmt.Sprintf("acts-per-ref %d > max %d", *acts, policy.MaxActs))
	}
	return reasons
}
