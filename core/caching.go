package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/rowscope/core/algo"
	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/internal/sampleio"
	"github.com/huangsam/rowscope/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL bounds how long a stored analysis is trusted.
const cacheTTL = 7 * 24 * time.Hour

// cachedAnalyze returns the analysis for ds, served from the result store when possible.
// The second return value reports a cache hit.
func cachedAnalyze(store contract.CacheStore, ds *sampleio.Dataset, opts algo.Options, column string) (*schema.Analysis, bool, error) {
	if store == nil {
		// Fallback to direct computation
		result, err := algo.Analyze(ds.Samples, opts)
		return result, false, err
	}

	key := generateCacheKey(ds, opts, column)

	// Check for cache hit
	if result := checkCacheHit(store, key); result != nil {
		return result, true, nil
	}

	// Cache miss: compute and store
	result, err := computeAndStore(store, key, ds, opts)
	return result, false, err
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) *schema.Analysis {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version == currentCacheVersion {
		entryTimestamp := time.Unix(ts, 0)
		if time.Since(entryTimestamp) <= cacheTTL {
			var result schema.Analysis
			if err := json.Unmarshal(data, &result); err == nil {
				return &result // Cache hit
			}
		}
	}

	return nil // Cache miss (stale or version mismatch)
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(store contract.CacheStore, key string, ds *sampleio.Dataset, opts algo.Options) (*schema.Analysis, error) {
	result, err := algo.Analyze(ds.Samples, opts)
	if err != nil {
		return nil, err
	}

	// Store in cache
	if data, err := json.Marshal(result); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			logTrackingError("CacheSet", ds.Path, err)
		}
	}

	return result, nil
}

// generateCacheKey creates a unique key from the dataset content and the analysis options.
// The path is left out so a renamed capture still hits.
func generateCacheKey(ds *sampleio.Dataset, opts algo.Options, column string) string {
	return fmt.Sprintf("analysis:v%d:%s:%g:%g:%g:%s",
		currentCacheVersion,
		ds.HashString(),
		opts.Thresholds.NoConflict,
		opts.Thresholds.Conflict,
		opts.MaxLatency,
		strings.ToLower(column),
	)
}
