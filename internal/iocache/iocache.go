// Package iocache persists activity tables, entity colors and ranking history
// in SQL backends.
package iocache

import (
	"sync"

	"github.com/huangsam/racebar/internal/contract"
)

// CacheStoreManager manages the CacheStore and HistoryStore instances.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	activity     contract.CacheStore
	color        contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetActivityStore returns the activity table CacheStore.
func (mgr *CacheStoreManager) GetActivityStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.activity
}

// GetColorStore returns the entity color CacheStore.
func (mgr *CacheStoreManager) GetColorStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.color
}

// GetHistoryStore returns the ranking HistoryStore.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
