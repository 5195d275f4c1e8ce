package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/rowscope/core/algo"
	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/internal/sampleio"
	"github.com/huangsam/rowscope/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrAllFailed is returned with the batch when no dataset could be analyzed.
var ErrAllFailed = errors.New("every dataset failed")

// RunBatch analyzes every configured dataset independently and returns the
// reports in input order. A failing dataset is recorded in its report; the
// batch itself fails only on cancellation, an empty file list, or when every
// dataset failed (ErrAllFailed, returned together with the batch).
func RunBatch(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.BatchResult, error) {
	if len(cfg.Files) == 0 {
		return nil, fmt.Errorf("no input datasets: %w", schema.ErrEmptyInput)
	}
	start := time.Now()

	// Add cache manager to context for use in worker goroutines
	ctx = contextWithCacheManager(ctx, mgr)

	// --- 0. Begin Analysis Tracking (if configured) ---
	runUUID := newRunUUID()
	ctx = beginTracking(ctx, cfg, runUUID, start)

	// --- 1. Analyze every dataset on the worker pool ---
	reports, err := analyzeFiles(ctx, cfg)
	if err != nil {
		return nil, err
	}

	batch := &schema.BatchResult{
		RunUUID:  runUUID,
		Reports:  reports,
		Duration: time.Since(start),
	}

	// --- 2. End Analysis Tracking ---
	failed := batch.Failed()
	endTracking(ctx, len(reports), failed)

	if failed == len(reports) {
		return batch, fmt.Errorf("%w: %d of %d", ErrAllFailed, failed, len(reports))
	}
	return batch, nil
}

// analyzeFiles fans the datasets out to at most cfg.Workers goroutines.
// Each worker writes only its own slot, so the result keeps input order.
func analyzeFiles(ctx context.Context, cfg *contract.Config) ([]schema.FileReport, error) {
	reports := make([]schema.FileReport, len(cfg.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))

	for i, path := range cfg.Files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = analyzeFile(gctx, cfg, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

// analyzeFile loads, analyzes and records one dataset.
// Errors are captured in the report rather than returned.
func analyzeFile(ctx context.Context, cfg *contract.Config, path string) schema.FileReport {
	start := time.Now()
	report := schema.FileReport{Path: path}

	ds, err := sampleio.Load(path, cfg.Column)
	if err != nil {
		report.Error = err.Error()
	} else {
		report.DatasetHash = ds.HashString()
		opts := algo.Options{Thresholds: cfg.Thresholds, MaxLatency: cfg.MaxLatency}
		store := resultStore(cacheManagerFromContext(ctx))

		analysis, cached, err := cachedAnalyze(store, ds, opts, cfg.Column)
		if err != nil {
			report.Error = err.Error()
		} else {
			report.Analysis = analysis
			report.Cached = cached
		}
	}
	report.Duration = time.Since(start)

	contract.Logger().Debug("Analyzed dataset",
		zap.String("path", path),
		zap.String("status", string(report.Status())),
		zap.Bool("cached", report.Cached),
		zap.Duration("duration", report.Duration),
	)

	// Record the outcome to the history store (if analysis tracking is enabled)
	recordFileReport(ctx, &report)

	return report
}
