package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/internal/iocache"
	"github.com/huangsam/rowscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// scenarioCSV is the six-sample capture with conflicts at indices 2 and 4.
const scenarioCSV = "timing\n100\n100\n1200\n100\n1300\n100\n"

func writeCapture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testConfig(files ...string) *contract.Config {
	return &contract.Config{
		Files:      files,
		Preset:     "test",
		Thresholds: schema.Thresholds{NoConflict: 300, Conflict: 300},
		Column:     contract.DefaultColumn,
		Workers:    2,
		Precision:  1,
		Output:     schema.JSONOut,
	}
}

func TestRunBatchScenario(t *testing.T) {
	dir := t.TempDir()
	good := writeCapture(t, dir, "bank0.csv", scenarioCSV)
	quiet := writeCapture(t, dir, "bank1.csv", "timing\n100\n120\n")
	empty := writeCapture(t, dir, "bank2.csv", "timing\n")
	broken := writeCapture(t, dir, "bank3.csv", "latency\n1\n")

	batch, err := RunBatch(context.Background(), testConfig(good, quiet, empty, broken), nil)
	require.NoError(t, err)
	require.Len(t, batch.Reports, 4)
	assert.NotEmpty(t, batch.RunUUID)

	// Input order is preserved regardless of worker scheduling
	assert.Equal(t, good, batch.Reports[0].Path)
	assert.Equal(t, broken, batch.Reports[3].Path)

	r := batch.Reports[0]
	assert.Equal(t, schema.OKStatus, r.Status())
	assert.Len(t, r.DatasetHash, 16)
	require.NotNil(t, r.Analysis.Below)
	assert.Equal(t, 4, r.Analysis.Below.Count)
	assert.InDelta(t, 100.0, r.Analysis.Below.Mean, 1e-9)
	require.NotNil(t, r.Analysis.Above)
	assert.InDelta(t, 1250.0, r.Analysis.Above.Mean, 1e-9)
	assert.Equal(t, []uint64{2, 4}, r.Analysis.ConflictIndices)
	assert.Equal(t, []uint64{2}, r.Analysis.GapSequence)
	require.NotNil(t, r.Analysis.ActsPerRef)
	assert.Equal(t, int64(4), *r.Analysis.ActsPerRef)
	assert.False(t, r.Cached)

	assert.Equal(t, schema.NoConflictStatus, batch.Reports[1].Status())
	assert.Equal(t, schema.EmptyStatus, batch.Reports[2].Status())
	assert.Equal(t, schema.ErrorStatus, batch.Reports[3].Status())
	assert.Contains(t, batch.Reports[3].Error, "timing")
	assert.Equal(t, 1, batch.Failed())
}

func TestRunBatchAllFailed(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.csv"))

	batch, err := RunBatch(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrAllFailed)
	require.NotNil(t, batch, "batch is returned with the error so it can still be printed")
	assert.Equal(t, schema.ErrorStatus, batch.Reports[0].Status())
}

func TestRunBatchNoFiles(t *testing.T) {
	_, err := RunBatch(context.Background(), testConfig(), nil)
	assert.ErrorIs(t, err, schema.ErrEmptyInput)
}

func TestRunBatchCancelled(t *testing.T) {
	path := writeCapture(t, t.TempDir(), "bank0.csv", scenarioCSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunBatch(ctx, testConfig(path, path), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBatchInvalidThresholdsAreReported(t *testing.T) {
	path := writeCapture(t, t.TempDir(), "bank0.csv", scenarioCSV)
	cfg := testConfig(path)
	cfg.Thresholds = schema.Thresholds{NoConflict: 500, Conflict: 100}

	batch, err := RunBatch(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrAllFailed)
	assert.Contains(t, batch.Reports[0].Error, schema.ErrInvalidConfiguration.Error())
}

func TestRunBatchTracksHistory(t *testing.T) {
	dir := t.TempDir()
	good := writeCapture(t, dir, "bank0.csv", scenarioCSV)
	broken := writeCapture(t, dir, "bank1.csv", "timing\nfast\n")

	history := &iocache.MockHistoryStore{}
	history.On("BeginRun", mock.AnythingOfType("string"), mock.Anything, mock.MatchedBy(func(p map[string]any) bool {
		return p["preset"] == "test" && p["files"] == 2
	})).Return(int64(7), nil)
	history.On("RecordFileReport", int64(7), mock.Anything, mock.MatchedBy(func(r schema.FileReport) bool {
		return r.Path == good && r.Status() == schema.OKStatus
	})).Return(nil).Once()
	history.On("RecordFileReport", int64(7), mock.Anything, mock.MatchedBy(func(r schema.FileReport) bool {
		return r.Path == broken && r.Status() == schema.ErrorStatus
	})).Return(nil).Once()
	history.On("EndRun", int64(7), mock.Anything, 2, 1).Return(nil)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetHistoryStore").Return(history)
	mgr.On("GetResultStore").Return(nil)

	_, err := RunBatch(context.Background(), testConfig(good, broken), mgr)
	require.NoError(t, err)
	history.AssertExpectations(t)
}

func TestRunBatchTrackingFailuresDoNotAbort(t *testing.T) {
	path := writeCapture(t, t.TempDir(), "bank0.csv", scenarioCSV)

	history := &iocache.MockHistoryStore{}
	history.On("BeginRun", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetHistoryStore").Return(history)
	mgr.On("GetResultStore").Return(nil)

	batch, err := RunBatch(context.Background(), testConfig(path), mgr)
	require.NoError(t, err)
	assert.Equal(t, schema.OKStatus, batch.Reports[0].Status())

	// Without a run ID nothing else is written
	history.AssertNumberOfCalls(t, "RecordFileReport", 0)
	history.AssertNumberOfCalls(t, "EndRun", 0)
}

func TestExecuteAnalyzeWritesReports(t *testing.T) {
	dir := t.TempDir()
	path := writeCapture(t, dir, "bank0.csv", scenarioCSV)
	cfg := testConfig(path)
	cfg.OutputFile = filepath.Join(dir, "out.json")

	require.NoError(t, ExecuteAnalyze(context.Background(), cfg, nil))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"acts_per_ref": 4`)
}

func TestExecuteAnalyzeAllFailedStillWrites(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(filepath.Join(dir, "missing.csv"))
	cfg.OutputFile = filepath.Join(dir, "out.json")

	err := ExecuteAnalyze(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrAllFailed)

	data, readErr := os.ReadFile(cfg.OutputFile)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), `"status": "error"`)
}

func TestExecuteRecommend(t *testing.T) {
	tests := []struct {
		gapMean  float64
		expected string
		wantErr  bool
	}{
		{gapMean: 2, expected: "acts_per_ref=4\n"},
		{gapMean: 0, expected: "acts_per_ref=0\n"},
		{gapMean: 30.75, expected: "acts_per_ref=61\n"},
		{gapMean: -1, wantErr: true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		err := ExecuteRecommend(&buf, tt.gapMean)
		if tt.wantErr {
			assert.ErrorIs(t, err, schema.ErrInvalidConfiguration)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.expected, buf.String())
	}
}
