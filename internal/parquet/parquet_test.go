package parquet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/rowscope/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisRunStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	s := parquet.SchemaOf(new(AnalysisRun))
	require.NotNil(t, s)

	for _, colName := range []string{
		"analysis_id", "run_uuid", "start_time", "end_time",
		"run_duration_ms", "total_files", "failed_files", "config_params",
	} {
		col, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestFileReportStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(FileReport))
	require.NotNil(t, s)

	for _, colName := range []string{
		"analysis_id", "file_path", "analysis_time", "dataset_hash", "status",
		"total_samples", "filtered", "unclassified",
		"below_count", "below_mean", "below_std_dev",
		"above_count", "above_mean", "above_std_dev",
		"gap_mean", "gap_std_dev", "acts_per_ref", "error_message",
	} {
		_, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}

	// Nullable statistics map to optional columns
	for _, colName := range []string{"below_mean", "gap_mean", "acts_per_ref", "error_message"} {
		leaf, _ := s.Lookup(colName)
		assert.True(t, leaf.Node.Optional(), "Column %s should be optional", colName)
	}
}

func TestWriteAnalysisRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "analysis_runs.parquet")

	now := time.Now()
	end := now.Add(time.Minute)
	duration := int64(60000)
	total, failed := int64(3), int64(1)
	config := `{"preset":"acts"}`
	data := []AnalysisRun{
		{
			AnalysisID:    1,
			RunUUID:       "3f0e2c52-5d07-4bf0-9f8f-111111111111",
			StartTime:     now,
			EndTime:       &end,
			RunDurationMs: &duration,
			TotalFiles:    &total,
			FailedFiles:   &failed,
			ConfigParams:  &config,
		},
		// Still running, nullable fields unset
		{AnalysisID: 2, RunUUID: "3f0e2c52-5d07-4bf0-9f8f-222222222222", StartTime: now},
	}

	require.NoError(t, WriteAnalysisRunsParquet(data, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")

	readData, err := parquet.ReadFile[AnalysisRun](outputPath)
	require.NoError(t, err)
	require.Len(t, readData, len(data))

	assert.Equal(t, data[0].RunUUID, readData[0].RunUUID)
	require.NotNil(t, readData[0].EndTime)
	assert.WithinDuration(t, end, *readData[0].EndTime, time.Nanosecond)
	require.NotNil(t, readData[0].FailedFiles)
	assert.Equal(t, failed, *readData[0].FailedFiles)
	require.NotNil(t, readData[0].ConfigParams)
	assert.Equal(t, config, *readData[0].ConfigParams)

	assert.Nil(t, readData[1].EndTime)
	assert.Nil(t, readData[1].RunDurationMs)
	assert.Nil(t, readData[1].TotalFiles)
	assert.Nil(t, readData[1].ConfigParams)
}

func TestWriteFileReportsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "file_reports.parquet")

	acts := int64(4)
	report := schema.FileReport{
		Path:        "captures/bank0.csv",
		DatasetHash: "00000000deadbeef",
		Analysis: &schema.Analysis{
			TotalSamples: 6,
			Below:        &schema.Summary{Count: 4, Mean: 100},
			Above:        &schema.Summary{Count: 2, Mean: 1250, StdDev: 70.7},
			Gaps:         &schema.Summary{Count: 1, Mean: 2},
			ActsPerRef:   &acts,
		},
	}
	failed := schema.FileReport{Path: "broken.csv", Error: "no timing column"}

	now := time.Now()
	records := []schema.FileReportRecord{report.Record(7, now), failed.Record(7, now)}
	require.NoError(t, WriteFileReportsParquet(ConvertFileReportRecords(records), outputPath))

	readData, err := parquet.ReadFile[FileReport](outputPath)
	require.NoError(t, err)
	require.Len(t, readData, 2)

	ok := readData[0]
	assert.Equal(t, int64(7), ok.AnalysisID)
	assert.Equal(t, string(schema.OKStatus), ok.Status)
	assert.Equal(t, int64(2), ok.AboveCount)
	require.NotNil(t, ok.AboveMean)
	assert.InDelta(t, 1250.0, *ok.AboveMean, 1e-9)
	require.NotNil(t, ok.ActsPerRef)
	assert.Equal(t, int64(4), *ok.ActsPerRef)
	assert.Nil(t, ok.ErrorMessage)

	bad := readData[1]
	assert.Equal(t, string(schema.ErrorStatus), bad.Status)
	assert.Nil(t, bad.AboveMean)
	assert.Nil(t, bad.GapMean)
	require.NotNil(t, bad.ErrorMessage)
	assert.Equal(t, "no timing column", *bad.ErrorMessage)
}

func TestWriteSamplesParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "samples.parquet")
	samples := schema.SampleSet{{Index: 3, Latency: 100}, {Index: 8, Latency: 1250.5}}

	require.NoError(t, WriteSamplesParquet(samples, outputPath))

	rows, err := parquet.ReadFile[Sample](outputPath)
	require.NoError(t, err)
	assert.Equal(t, []Sample{{Index: 3, Timing: 100}, {Index: 8, Timing: 1250.5}}, rows)
}

func TestWriteRowsEmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteFileReportsParquet([]FileReport{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteRowsInvalidPath(t *testing.T) {
	err := WriteAnalysisRunsParquet([]AnalysisRun{{AnalysisID: 1}}, "/nonexistent/directory/output.parquet")
	require.Error(t, err, "Writing to invalid path should produce error")
}

func TestConvertAnalysisRunRecords(t *testing.T) {
	end := time.Now()
	records := []schema.AnalysisRunRecord{{AnalysisID: 5, RunUUID: "u", StartTime: end.Add(-time.Second), EndTime: &end}}

	got := ConvertAnalysisRunRecords(records)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].AnalysisID)
	assert.Equal(t, "u", got[0].RunUUID)
	assert.Equal(t, &end, got[0].EndTime)
	assert.Empty(t, ConvertAnalysisRunRecords(nil))
}
