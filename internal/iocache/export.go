package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/internal/parquet"
)

// Suffixes appended to the export prefix for each table.
const (
	RunsExportSuffix    = ".analysis_runs.parquet"
	ReportsExportSuffix = ".file_reports.parquet"
)

// ErrNoHistory is returned when there is nothing to export.
var ErrNoHistory = errors.New("no run history found to export")

// ExecuteHistoryExport writes the run history of store to two Parquet files named after outputFile.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not initialized. Set --history-backend to enable it")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return ErrNoHistory
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total file records: %d\n", status.TableSizes[fileReportsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	reports, err := store.GetAllFileReports()
	if err != nil {
		return fmt.Errorf("failed to retrieve file reports: %w", err)
	}

	parquetRuns := parquet.ConvertAnalysisRunRecords(runs)
	runsFile := outputFile + RunsExportSuffix
	if err := parquet.WriteAnalysisRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d analysis runs to: %s\n", len(parquetRuns), runsFile)

	parquetReports := parquet.ConvertFileReportRecords(reports)
	reportsFile := outputFile + ReportsExportSuffix
	if err := parquet.WriteFileReportsParquet(parquetReports, reportsFile); err != nil {
		return fmt.Errorf("failed to write file reports: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d file reports to: %s\n", len(parquetReports), reportsFile)

	return nil
}
