package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/schema"
)

// historyStore returns the history store of mgr, or nil when tracking is off.
func historyStore(mgr contract.CacheManager) contract.HistoryStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetHistoryStore()
}

// resultStore returns the result cache of mgr, or nil when caching is off.
func resultStore(mgr contract.CacheManager) contract.CacheStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetResultStore()
}

// beginTracking opens a history run and stores its ID in the returned context.
// Tracking failures leave ctx unchanged.
func beginTracking(ctx context.Context, cfg *contract.Config, runUUID string, startTime time.Time) context.Context {
	store := historyStore(cacheManagerFromContext(ctx))
	if store == nil {
		return ctx
	}

	runID, err := store.BeginRun(runUUID, startTime, trackingParams(cfg))
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return ctx
	}
	if runID <= 0 {
		return ctx
	}
	return withRunID(ctx, runID)
}

// recordFileReport stores one dataset outcome under the active run.
func recordFileReport(ctx context.Context, report *schema.FileReport) {
	runID, ok := getRunID(ctx)
	if !ok || runID <= 0 {
		return
	}
	store := historyStore(cacheManagerFromContext(ctx))
	if store == nil {
		return
	}
	if err := store.RecordFileReport(runID, time.Now(), *report); err != nil {
		logTrackingError("RecordFileReport", report.Path, err)
	}
}

// endTracking closes the active run with its totals.
func endTracking(ctx context.Context, totalFiles, failedFiles int) {
	runID, ok := getRunID(ctx)
	if !ok || runID <= 0 {
		return
	}
	store := historyStore(cacheManagerFromContext(ctx))
	if store == nil {
		return
	}
	if err := store.EndRun(runID, time.Now(), totalFiles, failedFiles); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// trackingParams captures the options that shaped a run.
func trackingParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"preset":                cfg.Preset,
		"no_conflict_threshold": cfg.Thresholds.NoConflict,
		"conflict_threshold":    cfg.Thresholds.Conflict,
		"max_latency":           cfg.MaxLatency,
		"column":                cfg.Column,
		"workers":               cfg.Workers,
		"files":                 len(cfg.Files),
	}
}

// newRunUUID returns the identifier shared by a run and its reports.
func newRunUUID() string {
	return uuid.NewString()
}

// logTrackingError logs database tracking errors to stderr without disrupting analysis.
func logTrackingError(operation, path string, err error) {
	contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s on %s", operation, path), err)
}
