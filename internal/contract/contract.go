// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/rowscope/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetResultStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking analysis runs and their per-file reports.
type HistoryStore interface {
	// BeginRun creates a new analysis run and returns its ID
	BeginRun(runUUID string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the analysis run with completion data
	EndRun(runID int64, endTime time.Time, totalFiles, failedFiles int) error

	// RecordFileReport stores the outcome for one dataset
	RecordFileReport(runID int64, analysisTime time.Time, report schema.FileReport) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every stored run ordered by ID
	GetAllRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllFileReports returns every stored report ordered by run and path
	GetAllFileReports() ([]schema.FileReportRecord, error)

	// Close closes the underlying connection
	Close() error
}
