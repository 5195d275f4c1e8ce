package schema

import "time"

// CacheStatus represents the status of the result cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the run history store.
type HistoryStatus struct {
	Backend            string           `json:"backend"`
	Connected          bool             `json:"connected"`
	TotalRuns          int              `json:"total_runs"`
	LastRunID          int64            `json:"last_run_id"`
	LastRunUUID        string           `json:"last_run_uuid"`
	LastRunTime        time.Time        `json:"last_run_time"`
	OldestRunTime      time.Time        `json:"oldest_run_time"`
	TotalFilesAnalyzed int              `json:"total_files_analyzed"`
	TableSizes         map[string]int64 `json:"table_sizes"`
}

// AnalysisRunRecord represents a row from the rowscope_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	RunUUID       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int64
	TotalFiles    *int64
	FailedFiles   *int64
	ConfigParams  *string
}

// FileReportRecord represents a row from the rowscope_file_reports table.
type FileReportRecord struct {
	AnalysisID   int64
	FilePath     string
	AnalysisTime time.Time
	DatasetHash  string
	Status       string
	TotalSamples int64
	Filtered     int64
	Unclassified int64
	BelowCount   int64
	BelowMean    *float64
	BelowStdDev  *float64
	AboveCount   int64
	AboveMean    *float64
	AboveStdDev  *float64
	GapMean      *float64
	GapStdDev    *float64
	ActsPerRef   *int64
	ErrorMessage *string
}
