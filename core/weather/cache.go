package weather

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/sortie/core/model"
)

// Cache stores the last live report per airfield. Implementations may expire
// entries on their own; Service checks freshness regardless.
type Cache interface {
	Get(ctx context.Context, icao string) (model.WeatherReport, bool, error)
	Set(ctx context.Context, r model.WeatherReport, ttl time.Duration) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	reports map[string]model.WeatherReport
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{reports: make(map[string]model.WeatherReport)}
}

func (c *MemoryCache) Get(_ context.Context, icao string) (model.WeatherReport, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.reports[icao]
	return r, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, r model.WeatherReport, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[r.ICAO] = r
	return nil
}
