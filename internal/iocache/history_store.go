package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/schema"
)

// Table names for run history.
const (
	analysisRunsTable = "rowscope_analysis_runs"
	fileReportsTable  = "rowscope_file_reports"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	if err := applyUpMigrations(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// q quotes the table and rebinds placeholders for the backend.
func (hs *HistoryStoreImpl) q(format, table string) string {
	return rebind(fmt.Sprintf(format, quoteTableName(table, hs.backend)), hs.backend)
}

// scanTime reads a timestamp column stored by formatTime.
func (hs *HistoryStoreImpl) scanTime(row interface{ Scan(...any) error }, dest *time.Time) error {
	if hs.backend != schema.SQLiteBackend {
		return row.Scan(dest)
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return err
	}
	t, err := parseSQLiteTime(s)
	if err != nil {
		return err
	}
	*dest = t
	return nil
}

// BeginRun creates a new analysis run and returns its ID.
func (hs *HistoryStoreImpl) BeginRun(runUUID string, startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	var runID int64
	if hs.backend == schema.PostgreSQLBackend {
		query := hs.q(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (?, ?, ?) RETURNING analysis_id`, analysisRunsTable)
		err = hs.db.QueryRow(query, runUUID, startTime, string(configJSON)).Scan(&runID)
	} else {
		query := hs.q(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (?, ?, ?)`, analysisRunsTable)
		var result sql.Result
		result, err = hs.db.Exec(query, runUUID, formatTime(startTime, hs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return runID, nil
}

// EndRun updates the analysis run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, totalFiles, failedFiles int) error {
	if hs.db == nil {
		return nil
	}

	var startTime time.Time
	row := hs.db.QueryRow(hs.q(`SELECT start_time FROM %s WHERE analysis_id = ?`, analysisRunsTable), runID)
	if err := hs.scanTime(row, &startTime); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	query := hs.q(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_files = ?, failed_files = ? WHERE analysis_id = ?`, analysisRunsTable)
	if _, err := hs.db.Exec(query, formatTime(endTime, hs.backend), durationMs, totalFiles, failedFiles, runID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// RecordFileReport stores the outcome for one dataset.
func (hs *HistoryStoreImpl) RecordFileReport(runID int64, analysisTime time.Time, report schema.FileReport) error {
	if hs.db == nil {
		return nil
	}

	rec := report.Record(runID, analysisTime)
	query := hs.q(`
		INSERT INTO %s (analysis_id, file_path, analysis_time, dataset_hash, status,
		                total_samples, filtered, unclassified,
		                below_count, below_mean, below_std_dev,
		                above_count, above_mean, above_std_dev,
		                gap_mean, gap_std_dev, acts_per_ref, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, fileReportsTable)

	_, err := hs.db.Exec(query,
		rec.AnalysisID, rec.FilePath, formatTime(rec.AnalysisTime, hs.backend), rec.DatasetHash, rec.Status,
		rec.TotalSamples, rec.Filtered, rec.Unclassified,
		rec.BelowCount, rec.BelowMean, rec.BelowStdDev,
		rec.AboveCount, rec.AboveMean, rec.AboveStdDev,
		rec.GapMean, rec.GapStdDev, rec.ActsPerRef, rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file report: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	if err := hs.db.QueryRow(hs.q("SELECT COUNT(*) FROM %s", analysisRunsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := hs.db.QueryRow(hs.q("SELECT analysis_id, run_uuid FROM %s ORDER BY analysis_id DESC LIMIT 1", analysisRunsTable))
		if err := row.Scan(&status.LastRunID, &status.LastRunUUID); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}

		row = hs.db.QueryRow(hs.q("SELECT start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", analysisRunsTable))
		if err := hs.scanTime(row, &status.LastRunTime); err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}

		row = hs.db.QueryRow(hs.q("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", analysisRunsTable))
		if err := hs.scanTime(row, &status.OldestRunTime); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}

		row = hs.db.QueryRow(hs.q("SELECT COALESCE(SUM(total_files), 0) FROM %s", analysisRunsTable))
		if err := row.Scan(&status.TotalFilesAnalyzed); err != nil {
			return status, fmt.Errorf("failed to get total files analyzed: %w", err)
		}
	}

	for _, table := range []string{analysisRunsTable, fileReportsTable} {
		var count int64
		if err := hs.db.QueryRow(hs.q("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves every stored run ordered by ID.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.AnalysisRunRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	rows, err := hs.db.Query(hs.q(`SELECT analysis_id, run_uuid, start_time, end_time, run_duration_ms,
		total_files, failed_files, config_params FROM %s ORDER BY analysis_id`, analysisRunsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord

		if hs.backend == schema.SQLiteBackend {
			var startTimeStr string
			var endTimeStr *string
			if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &startTimeStr, &endTimeStr, &record.RunDurationMs,
				&record.TotalFiles, &record.FailedFiles, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan analysis run: %w", err)
			}
			if record.StartTime, err = parseSQLiteTime(startTimeStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endTimeStr != nil {
				endTime, err := parseSQLiteTime(*endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		} else if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &record.StartTime, &record.EndTime, &record.RunDurationMs,
			&record.TotalFiles, &record.FailedFiles, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}

		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllFileReports retrieves every stored report ordered by run and path.
func (hs *HistoryStoreImpl) GetAllFileReports() ([]schema.FileReportRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	rows, err := hs.db.Query(hs.q(`SELECT analysis_id, file_path, analysis_time, dataset_hash, status,
		total_samples, filtered, unclassified,
		below_count, below_mean, below_std_dev,
		above_count, above_mean, above_std_dev,
		gap_mean, gap_std_dev, acts_per_ref, error_message
		FROM %s ORDER BY analysis_id, file_path`, fileReportsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query file reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FileReportRecord
	for rows.Next() {
		var r schema.FileReportRecord
		var analysisTimeStr string
		var analysisTime any = &r.AnalysisTime
		if hs.backend == schema.SQLiteBackend {
			analysisTime = &analysisTimeStr
		}

		if err := rows.Scan(&r.AnalysisID, &r.FilePath, analysisTime, &r.DatasetHash, &r.Status,
			&r.TotalSamples, &r.Filtered, &r.Unclassified,
			&r.BelowCount, &r.BelowMean, &r.BelowStdDev,
			&r.AboveCount, &r.AboveMean, &r.AboveStdDev,
			&r.GapMean, &r.GapStdDev, &r.ActsPerRef, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan file report: %w", err)
		}
		if hs.backend == schema.SQLiteBackend {
			if r.AnalysisTime, err = parseSQLiteTime(analysisTimeStr); err != nil {
				return nil, fmt.Errorf("failed to parse analysis_time: %w", err)
			}
		}

		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file reports: %w", err)
	}
	return results, nil
}
