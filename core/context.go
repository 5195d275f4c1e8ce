package core

import (
	"context"

	"github.com/huangsam/rowscope/internal/contract"
)

// Context keys for analysis options
type contextKey string

const (
	cacheManagerKey contextKey = "cacheManager"
	runIDKey        contextKey = "runID"
)

// contextWithCacheManager stores the cache manager for use in worker goroutines.
func contextWithCacheManager(ctx context.Context, mgr contract.CacheManager) context.Context {
	return context.WithValue(ctx, cacheManagerKey, mgr)
}

// cacheManagerFromContext returns the cache manager, or nil when none was set.
func cacheManagerFromContext(ctx context.Context) contract.CacheManager {
	mgr, _ := ctx.Value(cacheManagerKey).(contract.CacheManager)
	return mgr
}

// withRunID records the history run ID of the current batch.
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// getRunID returns the history run ID, if tracking is active.
func getRunID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(runIDKey).(int64)
	return id, ok
}
