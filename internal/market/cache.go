package market

import (
	"sync"
	"time"

	"github.com/mtlprog/coinconv/internal/domain"
)

type cacheEntry struct {
	assets    []domain.Asset
	requested int
	fetchedAt time.Time
	expiresAt time.Time
}

// assetCache holds the last fetched list. An entry fetched for a larger limit
// serves any smaller one; a source returning fewer assets than asked still
// counts as an answer for the limit that was asked.
type assetCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	entry *cacheEntry
}

func newAssetCache(ttl time.Duration) *assetCache {
	return &assetCache{ttl: ttl}
}

func (c *assetCache) get(limit int) ([]domain.Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || time.Now().After(c.entry.expiresAt) || c.entry.requested < limit {
		return nil, false
	}
	return head(c.entry.assets, limit), true
}

// stale returns whatever is cached regardless of expiry.
func (c *assetCache) stale(limit int) ([]domain.Asset, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || len(c.entry.assets) == 0 {
		return nil, time.Time{}, false
	}
	return head(c.entry.assets, limit), c.entry.fetchedAt, true
}

func (c *assetCache) set(assets []domain.Asset, requested int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.entry = &cacheEntry{
		assets:    head(assets, len(assets)),
		requested: max(requested, len(assets)),
		fetchedAt: now,
		expiresAt: now.Add(c.ttl),
	}
}

func head(assets []domain.Asset, limit int) []domain.Asset {
	n := min(limit, len(assets))
	out := make([]domain.Asset, n)
	copy(out, assets[:n])
	return out
}
