package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/logger"
)

type cacheItem struct {
	value       interface{}
	expiration  time.Time
	createdAt   time.Time
	accessedAt  time.Time
	accessCount int64
}

func (item *cacheItem) isExpired() bool {
	if item.expiration.IsZero() {
		return false
	}
	return time.Now().After(item.expiration)
}

// MemoryCache is a concurrency-safe, TTL-and-LRU in-memory cache backed by
// sync.Map, with a background goroutine sweeping expired entries.
type MemoryCache struct {
	items           *sync.Map
	maxSize         int
	cleanupInterval time.Duration
	stats           *Stats
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewMemoryCache builds a cache. maxSize of 0 means unbounded; cleanupInterval
// of 0 disables the background sweep (expired entries are still skipped on
// Get/Exists, just never proactively removed).
func NewMemoryCache(maxSize int, cleanupInterval time.Duration) *MemoryCache {
	ctx, cancel := context.WithCancel(context.Background())

	c := &MemoryCache{
		items:           &sync.Map{},
		maxSize:         maxSize,
		cleanupInterval: cleanupInterval,
		stats:           &Stats{},
		ctx:             ctx,
		cancel:          cancel,
	}

	if cleanupInterval > 0 {
		c.wg.Add(1)
		go c.cleanupLoop()
	}

	return c
}

func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) error {
	c.mu.RLock()
	stopped := c.stopped
	c.mu.RUnlock()
	if stopped {
		return fmt.Errorf("cache stopped")
	}

	var expiration time.Time
	if ttl > 0 {
		expiration = time.Now().Add(ttl)
	}

	item := &cacheItem{
		value:      value,
		expiration: expiration,
		createdAt:  time.Now(),
		accessedAt: time.Now(),
	}

	if c.maxSize > 0 && c.Count() >= c.maxSize {
		c.evictLRU()
	}

	c.items.Store(key, item)
	c.stats.RecordSet()
	return nil
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	stopped := c.stopped
	c.mu.RUnlock()
	if stopped {
		return nil, false
	}

	raw, found := c.items.Load(key)
	if !found {
		c.stats.RecordMiss()
		return nil, false
	}

	item := raw.(*cacheItem)
	if item.isExpired() {
		c.items.Delete(key)
		c.stats.RecordMiss()
		c.stats.RecordEviction()
		return nil, false
	}

	item.accessedAt = time.Now()
	item.accessCount++
	c.stats.RecordHit()
	return item.value, true
}

func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return fmt.Errorf("cache stopped")
	}
	c.items.Delete(key)
	c.stats.RecordDelete()
	return nil
}

func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return fmt.Errorf("cache stopped")
	}
	c.items.Range(func(key, _ interface{}) bool {
		c.items.Delete(key)
		return true
	})
	return nil
}

func (c *MemoryCache) Exists(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stopped {
		return false
	}
	raw, found := c.items.Load(key)
	if !found {
		return false
	}
	if raw.(*cacheItem).isExpired() {
		c.items.Delete(key)
		return false
	}
	return true
}

func (c *MemoryCache) Count() int {
	count := 0
	c.items.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

func (c *MemoryCache) Stats() *Stats { return c.stats }

func (c *MemoryCache) evictLRU() {
	var oldestKey interface{}
	var oldestTime time.Time
	found := false

	c.items.Range(func(key, value interface{}) bool {
		item := value.(*cacheItem)
		if !found || item.accessedAt.Before(oldestTime) {
			oldestKey, oldestTime, found = key, item.accessedAt, true
		}
		return true
	})

	if found && oldestKey != nil {
		c.items.Delete(oldestKey)
		c.stats.RecordEviction()
	}
}

func (c *MemoryCache) cleanupLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *MemoryCache) cleanup() {
	deleted := 0
	c.items.Range(func(key, value interface{}) bool {
		if value.(*cacheItem).isExpired() {
			c.items.Delete(key)
			deleted++
			c.stats.RecordEviction()
		}
		return true
	})
	if deleted > 0 {
		logger.Debug("cache swept expired entries", zap.Int("count", deleted), zap.Int("remaining", c.Count()))
	}
}

func (c *MemoryCache) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}

	c.cancel()
	c.wg.Wait()
	c.stopped = true

	c.items.Range(func(key, _ interface{}) bool {
		c.items.Delete(key)
		return true
	})

	logger.Info("memory cache stopped", zap.Float64("hit_rate", c.stats.HitRate()))
}
