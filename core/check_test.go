package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/rowscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actsPtr(v int64) *int64 { return &v }

func reportWith(path string, conflicts int, acts *int64) schema.FileReport {
	a := &schema.Analysis{TotalSamples: 10, ActsPerRef: acts}
	if conflicts > 0 {
		a.Above = &schema.Summary{Count: conflicts}
	}
	return schema.FileReport{Path: path, Analysis: a}
}

func TestEvaluateCheck(t *testing.T) {
	tests := []struct {
		name       string
		report     schema.FileReport
		policy     schema.CheckPolicy
		violations int
		reason     string
	}{
		{
			name:   "passes with default policy",
			report: reportWith("a.csv", 2, actsPtr(4)),
		},
		{
			name:       "analysis error",
			report:     schema.FileReport{Path: "a.csv", Error: "no timing column"},
			violations: 1,
			reason:     "analysis failed: no timing column",
		},
		{
			name:       "too few conflicts",
			report:     reportWith("a.csv", 1, nil),
			policy:     schema.CheckPolicy{MinConflicts: 2},
			violations: 1,
			reason:     "conflicts 1 < min 2",
		},
		{
			name:       "acts below minimum",
			report:     reportWith("a.csv", 3, actsPtr(4)),
			policy:     schema.CheckPolicy{MinActs: 10},
			violations: 1,
			reason:     "acts-per-ref 4 < min 10",
		},
		{
			name:       "acts above maximum",
			report:     reportWith("a.csv", 3, actsPtr(90)),
			policy:     schema.CheckPolicy{MinActs: 10, MaxActs: 80},
			violations: 1,
			reason:     "acts-per-ref 90 > max 80",
		},
		{
			name:   "acts inside bounds",
			report: reportWith("a.csv", 3, actsPtr(40)),
			policy: schema.CheckPolicy{MinConflicts: 2, MinActs: 10, MaxActs: 80},
		},
		{
			name:       "missing recommendation with acts bounds",
			report:     reportWith("a.csv", 1, nil),
			policy:     schema.CheckPolicy{MaxActs: 80},
			violations: 1,
			reason:     "no acts-per-ref recommendation (fewer than two conflicts)",
		},
		{
			name:       "empty dataset fails both gates",
			report:     schema.FileReport{Path: "a.csv", Analysis: &schema.Analysis{}},
			policy:     schema.CheckPolicy{MinConflicts: 1, MinActs: 1},
			violations: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := &schema.BatchResult{Reports: []schema.FileReport{tt.report}}
			result := EvaluateCheck(batch, tt.policy)

			assert.Equal(t, 1, result.TotalFiles)
			assert.Equal(t, tt.policy, result.Policy)
			assert.Len(t, result.Violations, tt.violations)
			assert.Equal(t, tt.violations == 0, result.Passed)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, result.Violations[0].Reason)
				assert.Equal(t, "a.csv", result.Violations[0].Path)
			}
		})
	}
}

func TestExecuteCheck(t *testing.T) {
	dir := t.TempDir()
	path := writeCapture(t, dir, "bank0.csv", scenarioCSV)

	t.Run("passing policy", func(t *testing.T) {
		cfg := testConfig(path)
		cfg.OutputFile = filepath.Join(dir, "pass.json")
		cfg.Check = schema.CheckPolicy{MinConflicts: 2, MinActs: 4, MaxActs: 4}
		require.NoError(t, ExecuteCheck(context.Background(), cfg, nil))

		data, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"passed": true`)
	})

	t.Run("failing policy", func(t *testing.T) {
		cfg := testConfig(path, filepath.Join(dir, "missing.csv"))
		cfg.OutputFile = filepath.Join(dir, "fail.json")
		cfg.Check = schema.CheckPolicy{MinConflicts: 3}
		err := ExecuteCheck(context.Background(), cfg, nil)
		require.ErrorIs(t, err, ErrCheckFailed)
		assert.Contains(t, err.Error(), "2 violation(s)")
	})

	t.Run("every dataset failed is still a gate result", func(t *testing.T) {
		cfg := testConfig(filepath.Join(dir, "missing.csv"))
		cfg.OutputFile = filepath.Join(dir, "allfail.json")
		err := ExecuteCheck(context.Background(), cfg, nil)
		require.ErrorIs(t, err, ErrCheckFailed)
		assert.NotErrorIs(t, err, ErrAllFailed)
	})
}
