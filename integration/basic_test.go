//go:build basic

package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jsonReport struct {
	Path     string `json:"path"`
	Status   string `json:"status"`
	Cached   bool   `json:"cached"`
	Error    string `json:"error"`
	Analysis *struct {
		TotalSamples int    `json:"total_samples"`
		ActsPerRef   *int64 `json:"acts_per_ref"`
		Above        *struct {
			Count int     `json:"count"`
			Mean  float64 `json:"mean"`
		} `json:"above"`
	} `json:"analysis"`
}

type jsonBatch struct {
	TotalFiles  int          `json:"total_files"`
	FailedFiles int          `json:"failed_files"`
	Reports     []jsonReport `json:"reports"`
}

func readBatch(t *testing.T, path string) jsonBatch {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var batch jsonBatch
	require.NoError(t, json.Unmarshal(data, &batch))
	return batch
}

// TestAnalyzeEndToEnd runs analyze against generated captures and checks the recommendation.
func TestAnalyzeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	bank0 := writeTimings(t, dir, "bank0.csv", periodicCapture(100, 10)...)
	bank1 := writeTimings(t, dir, "bank1.csv", periodicCapture(120, 4)...)
	out := filepath.Join(dir, "report.json")

	_, err := runRowscope(t, dir, "analyze", "--output", "json", "--output-file", out, bank0, bank1)
	require.NoError(t, err)

	batch := readBatch(t, out)
	require.Len(t, batch.Reports, 2)
	assert.Equal(t, 0, batch.FailedFiles)

	// Conflicts every 10 samples: gap mean 10, acts_per_ref 20
	first := batch.Reports[0]
	assert.Equal(t, bank0, first.Path)
	require.NotNil(t, first.Analysis)
	require.NotNil(t, first.Analysis.ActsPerRef)
	assert.Equal(t, int64(20), *first.Analysis.ActsPerRef)
	assert.Equal(t, 10, first.Analysis.Above.Count)

	// Conflicts every 4 samples: gap mean 4, acts_per_ref 8
	second := batch.Reports[1]
	require.NotNil(t, second.Analysis.ActsPerRef)
	assert.Equal(t, int64(8), *second.Analysis.ActsPerRef)
}

// TestAnalyzeUsesCacheOnRerun checks the second run of an unchanged capture is served from cache.
func TestAnalyzeUsesCacheOnRerun(t *testing.T) {
	dir := t.TempDir()
	capture := writeTimings(t, dir, "bank0.csv", periodicCapture(50, 5)...)
	out := filepath.Join(dir, "report.json")

	_, err := runRowscope(t, dir, "analyze", "--output", "json", "--output-file", out, capture)
	require.NoError(t, err)
	assert.False(t, readBatch(t, out).Reports[0].Cached)

	_, err = runRowscope(t, dir, "analyze", "--output", "json", "--output-file", out, capture)
	require.NoError(t, err)
	assert.True(t, readBatch(t, out).Reports[0].Cached)

	output, err := runRowscope(t, dir, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, output, "Total Entries: 1")

	_, err = runRowscope(t, dir, "cache", "clear")
	require.NoError(t, err)
}

// TestAnalyzePartialFailure keeps going when one capture is unreadable.
func TestAnalyzePartialFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeTimings(t, dir, "good.csv", periodicCapture(40, 4)...)
	out := filepath.Join(dir, "report.json")

	_, err := runRowscope(t, dir, "analyze", "--cache-backend", "none", "--output", "json", "--output-file", out,
		good, filepath.Join(dir, "missing.csv"))
	require.NoError(t, err)

	batch := readBatch(t, out)
	require.Len(t, batch.Reports, 2)
	assert.Equal(t, 1, batch.FailedFiles)
	assert.Equal(t, "error", batch.Reports[1].Status)
	assert.NotEmpty(t, batch.Reports[1].Error)
}

// TestAnalyzeAllFailedExitsNonZero fails when no capture can be read.
func TestAnalyzeAllFailedExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	_, err := runRowscope(t, dir, "analyze", "--cache-backend", "none", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

// TestAnalyzeTextTable prints the table with status labels.
func TestAnalyzeTextTable(t *testing.T) {
	dir := t.TempDir()
	capture := writeTimings(t, dir, "bank0.csv", periodicCapture(30, 3)...)
	flat := writeTimings(t, dir, "flat.csv", 200, 210, 190)

	output, err := runRowscope(t, dir, "analyze", "--cache-backend", "none", "--color", "no", "--width", "200", "--detail", capture, flat)
	require.NoError(t, err)
	assert.Contains(t, output, "bank0.csv")
	assert.Contains(t, output, "NO CONFLICTS")
	assert.Contains(t, output, "acts/ref")
	assert.Contains(t, output, "Analyzed 2 datasets (0 failed)")
}

// TestAnalyzeFromConfigFile reads thresholds and files from .rowscope.yaml.
func TestAnalyzeFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeTimings(t, dir, "t.csv", 700, 900, 1100, 700, 1200)
	config := "preset: timings\ncache-backend: none\noutput: json\nfiles:\n  - t.csv\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rowscope.yaml"), []byte(config), 0o600))
	out := filepath.Join(dir, "report.json")

	_, err := runRowscope(t, dir, "analyze", "--output-file", out)
	require.NoError(t, err)

	// timings preset: 900 is inside [800, 1000] and left unclassified
	report := readBatch(t, out).Reports[0]
	require.NotNil(t, report.Analysis)
	assert.Equal(t, 5, report.Analysis.TotalSamples)
	assert.Equal(t, 2, report.Analysis.Above.Count)
	assert.InDelta(t, 1150.0, report.Analysis.Above.Mean, 1e-9)
}

// TestCheckGate enforces the policy through the exit code.
func TestCheckGate(t *testing.T) {
	dir := t.TempDir()
	capture := writeTimings(t, dir, "bank0.csv", periodicCapture(100, 10)...)

	_, err := runRowscope(t, dir, "check", "--cache-backend", "none", "--min-conflicts", "5", "--min-acts", "16", "--max-acts", "32", capture)
	assert.NoError(t, err)

	output, err := runRowscope(t, dir, "check", "--cache-backend", "none", "--max-acts", "8", capture)
	assert.Error(t, err)
	assert.Contains(t, output, "acts-per-ref 20 > max 8")
}

// TestRecommend prints floor(2 * gap mean).
func TestRecommend(t *testing.T) {
	dir := t.TempDir()
	output, err := runRowscope(t, dir, "recommend", "30.75")
	require.NoError(t, err)
	assert.Contains(t, output, "acts_per_ref=61")

	_, err = runRowscope(t, dir, "recommend", "-1")
	assert.Error(t, err)
}

// TestHistoryLifecycle records runs in SQLite and exports them.
func TestHistoryLifecycle(t *testing.T) {
	dir := t.TempDir()
	capture := writeTimings(t, dir, "bank0.csv", periodicCapture(20, 5)...)
	historyDB := filepath.Join(dir, "history.db")
	backend := []string{"--history-backend", "sqlite", "--history-db-connect", historyDB}

	_, err := runRowscope(t, dir, append([]string{"history", "migrate"}, backend...)...)
	require.NoError(t, err)

	_, err = runRowscope(t, dir, append([]string{"analyze", "--cache-backend", "none", capture}, backend...)...)
	require.NoError(t, err)

	output, err := runRowscope(t, dir, append([]string{"history", "status"}, backend...)...)
	require.NoError(t, err)
	assert.Contains(t, output, "Total Runs: 1")

	prefix := filepath.Join(dir, "export")
	_, err = runRowscope(t, dir, append([]string{"history", "export", "--output-file", prefix}, backend...)...)
	require.NoError(t, err)
	assert.FileExists(t, prefix+".analysis_runs.parquet")
	assert.FileExists(t, prefix+".file_reports.parquet")

	_, err = runRowscope(t, dir, append([]string{"history", "clear"}, backend...)...)
	require.NoError(t, err)
	assert.NoFileExists(t, historyDB)
}

// TestVersion prints build metadata.
func TestVersion(t *testing.T) {
	output, err := runRowscope(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, output, "rowscope CLI")
}
