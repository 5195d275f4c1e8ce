package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/rowscope/internal/contract"
	rsparquet "github.com/huangsam/rowscope/internal/parquet"
	"github.com/huangsam/rowscope/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// reportView is the serialized form of one report in JSON and YAML output.
type reportView struct {
	Path        string              `json:"path" yaml:"path"`
	Status      schema.ReportStatus `json:"status" yaml:"status"`
	Label       string              `json:"label" yaml:"label"`
	DatasetHash string              `json:"dataset_hash,omitempty" yaml:"dataset_hash,omitempty"`
	Cached      bool                `json:"cached" yaml:"cached"`
	DurationMs  float64             `json:"duration_ms" yaml:"duration_ms"`
	Error       string              `json:"error,omitempty" yaml:"error,omitempty"`
	Analysis    *schema.Analysis    `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// batchView is the serialized form of a whole batch in JSON and YAML output.
type batchView struct {
	RunUUID     string       `json:"run_uuid" yaml:"run_uuid"`
	TotalFiles  int          `json:"total_files" yaml:"total_files"`
	FailedFiles int          `json:"failed_files" yaml:"failed_files"`
	DurationMs  float64      `json:"duration_ms" yaml:"duration_ms"`
	Reports     []reportView `json:"reports" yaml:"reports"`
}

// WriteReportResults outputs the batch results, dispatching based on the output format configured.
func WriteReportResults(batch *schema.BatchResult, cfg *contract.Config) error {
	// Create formatters using helper
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, newBatchView(batch))
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.YAMLOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, newBatchView(batch))
		}, "Wrote YAML"); err != nil {
			return fmt.Errorf("error writing YAML output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForReports(w, batch.Reports, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeParquetResultsForReports(batch.Reports, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportTable(batch, cfg, fmtFloat, intFmt, w)
		}, "Wrote table")
	}
	return nil
}

// newBatchView adds status labels to the reports for serialization.
func newBatchView(batch *schema.BatchResult) batchView {
	view := batchView{
		RunUUID:     batch.RunUUID,
		TotalFiles:  len(batch.Reports),
		FailedFiles: batch.Failed(),
		DurationMs:  durationMs(batch.Duration),
		Reports:     make([]reportView, len(batch.Reports)),
	}
	for i := range batch.Reports {
		r := &batch.Reports[i]
		view.Reports[i] = reportView{
			Path:        r.Path,
			Status:      r.Status(),
			Label:       contract.GetPlainLabel(r.Status()),
			DatasetHash: r.DatasetHash,
			Cached:      r.Cached,
			DurationMs:  durationMs(r.Duration),
			Error:       r.Error,
			Analysis:    r.Analysis,
		}
	}
	return view
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// writeReportTable generates and writes the human-readable table.
func writeReportTable(batch *schema.BatchResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	table.Header([]string{"Path", "Status", "Samples", "Below", "Above", "Gap Mean", "Acts/Ref"})

	// 2. Configure Separators/Borders to match a minimal look
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	pathWidth := GetMaxTablePathWidth(cfg)
	var data [][]string
	for i := range batch.Reports {
		r := &batch.Reports[i]
		label := contract.GetPlainLabel(r.Status())
		if cfg.UseColors {
			label = contract.GetColorLabel(r.Status())
		}

		row := []string{contract.TruncatePath(r.Path, pathWidth), label}
		if a := r.Analysis; a != nil {
			row = append(row,
				fmt.Sprintf(intFmt, a.TotalSamples), // Samples
				formatCount(a.Below, intFmt),        // Below
				formatCount(a.Above, intFmt),        // Above
				formatMean(a.Gaps, fmtFloat),        // Gap Mean
				optionalInt(a.ActsPerRef, notAvailable),
			)
		} else {
			row = append(row, notAvailable, notAvailable, notAvailable, notAvailable, notAvailable)
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if cfg.Detail {
		for i := range batch.Reports {
			if err := writeReportDetail(writer, &batch.Reports[i], fmtFloat, intFmt); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(writer, "Analyzed %d datasets (%d failed) in %v with %d workers. Cache backend: %s\n",
		len(batch.Reports), batch.Failed(), batch.Duration.Round(time.Millisecond), cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeReportDetail prints the full summary block for one report.
func writeReportDetail(w io.Writer, r *schema.FileReport, fmtFloat func(float64) string, intFmt string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", r.Path)

	if r.Analysis == nil {
		fmt.Fprintf(&b, "  %-12s %s\n", "error", r.Error)
		_, err := io.WriteString(w, b.String())
		return err
	}

	a := r.Analysis
	maxLatency := "off"
	if a.MaxLatency > 0 {
		maxLatency = fmtFloat(a.MaxLatency)
	}
	fmt.Fprintf(&b, "  %-12s no-conflict=%s conflict=%s max-latency=%s\n", "thresholds",
		fmtFloat(a.Thresholds.NoConflict), fmtFloat(a.Thresholds.Conflict), maxLatency)
	fmt.Fprintf(&b, "  %-12s total="+intFmt+" filtered="+intFmt+" unclassified="+intFmt+"\n", "samples",
		a.TotalSamples, a.Filtered, a.Unclassified)
	fmt.Fprintf(&b, "  %-12s %s\n", "below", formatSummary(a.Below, fmtFloat, intFmt))
	fmt.Fprintf(&b, "  %-12s %s\n", "above", formatSummary(a.Above, fmtFloat, intFmt))
	fmt.Fprintf(&b, "  %-12s %s\n", "gaps", formatSummary(a.Gaps, fmtFloat, intFmt))
	fmt.Fprintf(&b, "  %-12s %s\n", "acts/ref", optionalInt(a.ActsPerRef, notAvailable))
	if r.DatasetHash != "" {
		fmt.Fprintf(&b, "  %-12s %s (cached=%t)\n", "hash", r.DatasetHash, r.Cached)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatSummary renders every field of s on one line.
func formatSummary(s *schema.Summary, fmtFloat func(float64) string, intFmt string) string {
	if s == nil {
		return notAvailable
	}
	return fmt.Sprintf("count="+intFmt+" mean=%s std=%s min=%s median=%s max=%s",
		s.Count, fmtFloat(s.Mean), fmtFloat(s.StdDev), fmtFloat(s.Min), fmtFloat(s.Median), fmtFloat(s.Max))
}

// formatCount renders the population of s, zero when undefined.
func formatCount(s *schema.Summary, intFmt string) string {
	if s == nil {
		return fmt.Sprintf(intFmt, 0)
	}
	return fmt.Sprintf(intFmt, s.Count)
}

// formatMean renders the mean of s, or n/a when undefined.
func formatMean(s *schema.Summary, fmtFloat func(float64) string) string {
	if s == nil {
		return notAvailable
	}
	return fmtFloat(s.Mean)
}

// reportCSVHeader lists the columns of CSV report output.
var reportCSVHeader = []string{
	"path", "status", "dataset_hash", "cached",
	"total_samples", "filtered", "unclassified",
	"below_count", "below_mean", "below_std_dev",
	"above_count", "above_mean", "above_std_dev",
	"gap_mean", "gap_std_dev", "acts_per_ref", "error",
}

// writeCSVResultsForReports writes one row per report. Undefined statistics are empty cells.
func writeCSVResultsForReports(w io.Writer, reports []schema.FileReport, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, reportCSVHeader, func(cw *csv.Writer) error {
		for i := range reports {
			rec := reports[i].Record(0, time.Time{})
			errMsg := ""
			if rec.ErrorMessage != nil {
				errMsg = *rec.ErrorMessage
			}
			row := []string{
				rec.FilePath,
				rec.Status,
				rec.DatasetHash,
				strconv.FormatBool(reports[i].Cached),
				strconv.FormatInt(rec.TotalSamples, 10),
				strconv.FormatInt(rec.Filtered, 10),
				strconv.FormatInt(rec.Unclassified, 10),
				strconv.FormatInt(rec.BelowCount, 10),
				optionalFloat(rec.BelowMean, fmtFloat, ""),
				optionalFloat(rec.BelowStdDev, fmtFloat, ""),
				strconv.FormatInt(rec.AboveCount, 10),
				optionalFloat(rec.AboveMean, fmtFloat, ""),
				optionalFloat(rec.AboveStdDev, fmtFloat, ""),
				optionalFloat(rec.GapMean, fmtFloat, ""),
				optionalFloat(rec.GapStdDev, fmtFloat, ""),
				optionalInt(rec.ActsPerRef, ""),
				errMsg,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeParquetResultsForReports writes the flattened report rows to outputFile.
func writeParquetResultsForReports(reports []schema.FileReport, outputFile string) error {
	if outputFile == "" {
		return fmt.Errorf("an output file is required for parquet output")
	}
	now := time.Now()
	records := make([]schema.FileReportRecord, len(reports))
	for i := range reports {
		records[i] = reports[i].Record(0, now)
	}
	if err := rsparquet.WriteFileReportsParquet(rsparquet.ConvertFileReportRecords(records), outputFile); err != nil {
		return err
	}
	logWrote("Wrote parquet", outputFile)
	return nil
}
