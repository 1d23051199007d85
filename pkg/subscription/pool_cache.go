package subscription

import (
	"fmt"
	"sync"
	"time"

	"solgraduate/pkg/pool/whirlpool"
)

// PoolCacheEntry represents a cached pool with metadata
type PoolCacheEntry struct {
	Pool       *whirlpool.WhirlpoolPool
	LastUpdate time.Time
	LastSlot   uint64
}

// PoolCache holds the latest decoded state of watched Whirlpools
type PoolCache struct {
	pools map[string]*PoolCacheEntry
	mu    sync.RWMutex
}

func NewPoolCache() *PoolCache {
	return &PoolCache{
		pools: make(map[string]*PoolCacheEntry),
	}
}

// SetPool adds or replaces a pool. A stale slot never overwrites a newer one.
func (pc *PoolCache) SetPool(pool *whirlpool.WhirlpoolPool, slot uint64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	poolID := pool.GetID()
	if entry, exists := pc.pools[poolID]; exists && entry.LastSlot > slot {
		return
	}
	pc.pools[poolID] = &PoolCacheEntry{
		Pool:       pool,
		LastUpdate: time.Now(),
		LastSlot:   slot,
	}
}

// GetPool returns a copy of the cached pool, safe to read while updates continue
func (pc *PoolCache) GetPool(poolID string) (*whirlpool.WhirlpoolPool, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	entry, exists := pc.pools[poolID]
	if !exists {
		return nil, false
	}
	pool := *entry.Pool
	return &pool, true
}

// GetAllPools returns copies of all cached pools
func (pc *PoolCache) GetAllPools() []*whirlpool.WhirlpoolPool {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	pools := make([]*whirlpool.WhirlpoolPool, 0, len(pc.pools))
	for _, entry := range pc.pools {
		pool := *entry.Pool
		pools = append(pools, &pool)
	}
	return pools
}

func (pc *PoolCache) RemovePool(poolID string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	delete(pc.pools, poolID)
}

// UpdatePoolAccount decodes fresh account data into a cached pool
func (pc *PoolCache) UpdatePoolAccount(poolID string, data []byte, slot uint64) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	entry, exists := pc.pools[poolID]
	if !exists {
		return fmt.Errorf("pool %s not found in cache", poolID)
	}
	if slot < entry.LastSlot {
		return nil
	}

	updated := *entry.Pool
	if err := updated.UpdateFromAccountData(poolID, data, slot); err != nil {
		return fmt.Errorf("failed to update pool %s: %w", poolID, err)
	}
	entry.Pool = &updated
	entry.LastUpdate = time.Now()
	entry.LastSlot = slot
	return nil
}

func (pc *PoolCache) Size() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	return len(pc.pools)
}

// GetStalePoolIDs returns pool IDs that haven't been updated recently
func (pc *PoolCache) GetStalePoolIDs(maxAge time.Duration) []string {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	now := time.Now()
	stalePools := make([]string, 0)
	for poolID, entry := range pc.pools {
		if now.Sub(entry.LastUpdate) > maxAge {
			stalePools = append(stalePools, poolID)
		}
	}
	return stalePools
}
