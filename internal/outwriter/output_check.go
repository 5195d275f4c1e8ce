package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/schema"
)

// WriteCheckResult outputs a check result, dispatching based on the output format configured.
func WriteCheckResult(result *schema.CheckResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.YAMLOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, result)
		}, "Wrote YAML")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCheckCSV(w, result)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for check results")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCheckText(w, result, cfg, duration)
		}, "Wrote check result")
	}
}

// writeCheckText prints the check result in a concise format suitable for CI/CD.
func writeCheckText(w io.Writer, result *schema.CheckResult, cfg *contract.Config, duration time.Duration) error {
	// Define labels and values for dynamic padding
	labels := []string{"Thresholds:", "Min conflicts:", "Acts/ref:"}
	values := []string{
		fmt.Sprintf("no-conflict=%.*f, conflict=%.*f", cfg.Precision, cfg.Thresholds.NoConflict, cfg.Precision, cfg.Thresholds.Conflict),
		fmt.Sprintf("%d", result.Policy.MinConflicts),
		formatActsBounds(result.Policy),
	}

	// Find the longest label for consistent padding
	maxLabelLen := 0
	for _, label := range labels {
		maxLabelLen = max(maxLabelLen, len(label))
	}

	if _, err := fmt.Fprintln(w, "Policy Check Results:"); err != nil {
		return err
	}
	for i, label := range labels {
		if _, err := fmt.Fprintf(w, "  %-*s %s\n", maxLabelLen+1, label, values[i]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nChecked %d files in %v\n\n", result.TotalFiles, duration.Round(time.Millisecond)); err != nil {
		return err
	}

	if result.Passed {
		_, err := fmt.Fprintln(w, "✅ All files passed policy checks")
		return err
	}

	if _, err := fmt.Fprintf(w, "❌ Policy check failed: %d violation(s) found across %d files\n", len(result.Violations), result.TotalFiles); err != nil {
		return err
	}
	for _, v := range result.Violations {
		if _, err := fmt.Fprintf(w, "  - %s: %s\n", v.Path, v.Reason); err != nil {
			return err
		}
	}
	return nil
}

// formatActsBounds renders the acts-per-ref window with unbounded sides shown as "-".
func formatActsBounds(p schema.CheckPolicy) string {
	lo, hi := "-", "-"
	if p.MinActs > 0 {
		lo = fmt.Sprintf("%d", p.MinActs)
	}
	if p.MaxActs > 0 {
		hi = fmt.Sprintf("%d", p.MaxActs)
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}

// writeCheckCSV writes one row per violation.
func writeCheckCSV(w io.Writer, result *schema.CheckResult) error {
	return writeCSVWithHeader(w, []string{"path", "reason"}, func(cw *csv.Writer) error {
		for _, v := range result.Violations {
			if err := cw.Write([]string{v.Path, v.Reason}); err != nil {
				return err
			}
		}
		return nil
	})
}
