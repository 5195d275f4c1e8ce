// Package parquet provides data structures and functions for exporting rowscope
// results and run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/rowscope/schema"
	"github.com/parquet-go/parquet-go"
)

// AnalysisRun represents a single batch run with metadata.
// This struct maps to the rowscope_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// RunUUID is the identifier assigned when the batch started
	RunUUID string `parquet:"run_uuid,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	// TotalFiles is the number of datasets in the run (nullable)
	TotalFiles *int64 `parquet:"total_files,optional,snappy"`

	// FailedFiles is the number of datasets that could not be analyzed (nullable)
	FailedFiles *int64 `parquet:"failed_files,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FileReport is the stored outcome for one dataset in a run.
// This struct maps to the rowscope_file_reports database table.
type FileReport struct {
	AnalysisID   int64     `parquet:"analysis_id,snappy"`
	FilePath     string    `parquet:"file_path,snappy"`
	AnalysisTime time.Time `parquet:"analysis_time,snappy"`
	DatasetHash  string    `parquet:"dataset_hash,snappy"`
	Status       string    `parquet:"status,snappy"`
	TotalSamples int64     `parquet:"total_samples,snappy"`
	Filtered     int64     `parquet:"filtered,snappy"`
	Unclassified int64     `parquet:"unclassified,snappy"`
	BelowCount   int64     `parquet:"below_count,snappy"`
	BelowMean    *float64  `parquet:"below_mean,optional,snappy"`
	BelowStdDev  *float64  `parquet:"below_std_dev,optional,snappy"`
	AboveCount   int64     `parquet:"above_count,snappy"`
	AboveMean    *float64  `parquet:"above_mean,optional,snappy"`
	AboveStdDev  *float64  `parquet:"above_std_dev,optional,snappy"`
	GapMean      *float64  `parquet:"gap_mean,optional,snappy"`
	GapStdDev    *float64  `parquet:"gap_std_dev,optional,snappy"`
	ActsPerRef   *int64    `parquet:"acts_per_ref,optional,snappy"`
	ErrorMessage *string   `parquet:"error_message,optional,snappy"`
}

// Sample is one timing measurement as stored in capture files.
type Sample struct {
	Index  int64   `parquet:"index,snappy"`
	Timing float64 `parquet:"timing,snappy"`
}

// WriteRows writes a slice of rows to a Parquet file, inferring the schema from T.
func WriteRows[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteAnalysisRunsParquet writes run records to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return WriteRows(data, outputPath)
}

// WriteFileReportsParquet writes file report records to a Parquet file.
func WriteFileReportsParquet(data []FileReport, outputPath string) error {
	return WriteRows(data, outputPath)
}

// WriteSamplesParquet writes a capture as index/timing rows.
func WriteSamplesParquet(samples schema.SampleSet, outputPath string) error {
	rows := make([]Sample, len(samples))
	for i, s := range samples {
		rows[i] = Sample{Index: int64(s.Index), Timing: s.Latency}
	}
	return WriteRows(rows, outputPath)
}

// ConvertAnalysisRunRecords converts stored run rows for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:    record.AnalysisID,
			RunUUID:       record.RunUUID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalFiles:    record.TotalFiles,
			FailedFiles:   record.FailedFiles,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertFileReportRecords converts stored report rows for Parquet export.
func ConvertFileReportRecords(records []schema.FileReportRecord) []FileReport {
	result := make([]FileReport, len(records))
	for i, r := range records {
		result[i] = FileReport{
			AnalysisID:   r.AnalysisID,
			FilePath:     r.FilePath,
			AnalysisTime: r.AnalysisTime,
			DatasetHash:  r.DatasetHash,
			Status:       r.Status,
			TotalSamples: r.TotalSamples,
			Filtered:     r.Filtered,
			Unclassified: r.Unclassified,
			BelowCount:   r.BelowCount,
			BelowMean:    r.BelowMean,
			BelowStdDev:  r.BelowStdDev,
			AboveCount:   r.AboveCount,
			AboveMean:    r.AboveMean,
			AboveStdDev:  r.AboveStdDev,
			GapMean:      r.GapMean,
			GapStdDev:    r.GapStdDev,
			ActsPerRef:   r.ActsPerRef,
			ErrorMessage: r.ErrorMessage,
		}
	}
	return result
}
