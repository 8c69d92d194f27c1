package cache

import (
	"context"
	"sync"
	"time"

	"luncho-service/internal/domain/model"
	"luncho-service/internal/domain/ports"
	"luncho-service/pkg/logger"
	"luncho-service/pkg/utils"
)

// MemoryCache is the process-local LunchoStore. Records are never evicted;
// a stale record stays until the next fetch for its country overwrites it.
type MemoryCache struct {
	cacheMap map[model.CountryCode]*model.LunchoData
	mutex    sync.RWMutex
	log      *logger.Logger
}

var _ ports.LunchoStore = (*MemoryCache)(nil)

func NewMemoryCache(log *logger.Logger) *MemoryCache {
	return &MemoryCache{
		cacheMap: make(map[model.CountryCode]*model.LunchoData),
		log:      log.With("component", "memory_cache"),
	}
}

func (c *MemoryCache) Get(ctx context.Context, countryCode model.CountryCode, at time.Time) (*model.LunchoData, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	data, found := c.cacheMap[countryCode]
	if !found {
		c.log.Debug("Cache miss", "country_code", countryCode)
		return nil, false
	}

	if !data.IsFresh(at) {
		c.log.Debug("Cache entry expired", "country_code", countryCode, "expiration", utils.FormatEpoch(data.Expiration))
		return nil, false
	}

	c.log.Debug("Cache hit", "country_code", countryCode)
	return data.Clone(), true
}

func (c *MemoryCache) Set(ctx context.Context, countryCode model.CountryCode, data *model.LunchoData) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cacheMap[countryCode] = data.Clone()
	c.log.Debug("Cache set", "country_code", countryCode, "expiration", utils.FormatEpoch(data.Expiration))

	return nil
}

// ReplaceAll swaps the whole map in one step so readers never see a mix of
// old and new records.
func (c *MemoryCache) ReplaceAll(ctx context.Context, datas map[model.CountryCode]*model.LunchoData) error {
	fresh := model.CloneAll(datas)

	c.mutex.Lock()
	c.cacheMap = fresh
	c.mutex.Unlock()

	c.log.Info("Cache replaced", "count", len(fresh))
	return nil
}

// All returns a copy of every stored record, stale ones included.
func (c *MemoryCache) All(ctx context.Context) map[model.CountryCode]*model.LunchoData {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return model.CloneAll(c.cacheMap)
}
