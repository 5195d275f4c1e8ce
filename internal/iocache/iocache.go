// Package iocache persists analysis results and run history in SQL databases.
package iocache

import (
	"sync"

	"github.com/huangsam/rowscope/internal/contract"
)

// CacheStoreManager holds the result cache and the run history store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	result       contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetResultStore returns the analysis result cache.
func (mgr *CacheStoreManager) GetResultStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.result
}

// GetHistoryStore returns the run history store.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}

// NewCacheStoreManager wires explicit stores. Either may be nil.
func NewCacheStoreManager(result contract.CacheStore, history contract.HistoryStore) *CacheStoreManager {
	return &CacheStoreManager{result: result, history: history}
}
