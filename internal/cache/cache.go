// Package cache keeps recently read fan performance curves in memory so fan
// selection requests do not hit the curve store on every calculation.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/calc-portal/internal/interfaces"
	"github.com/bobmcallan/calc-portal/internal/models"
)

// entry wraps cached points with expiry and insertion order tracking.
type entry struct {
	points    []models.PerformancePoint
	expiry    time.Time
	insertIdx int64
}

// CurveCache is a read-through cache in front of a PerformanceCurveStorage.
// Keys are fan model names. Misses, including ErrCurveNotFound, are never
// cached. Upsert invalidates the model it writes.
// Thread-safe with sync.RWMutex.
type CurveCache struct {
	next       interfaces.PerformanceCurveStorage
	mu         sync.RWMutex
	items      map[string]entry
	gens       map[string]uint64
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
	now        func() time.Time
}

// New wraps next with a cache of at most maxEntries models, each kept for ttl.
func New(next interfaces.PerformanceCurveStorage, ttl time.Duration, maxEntries int) *CurveCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &CurveCache{
		next:       next,
		items:      make(map[string]entry),
		gens:       make(map[string]uint64),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Wrap returns next unchanged when ttl is zero, otherwise a CurveCache over it.
func Wrap(next interfaces.PerformanceCurveStorage, ttl time.Duration, maxEntries int) interfaces.PerformanceCurveStorage {
	if ttl <= 0 {
		return next
	}
	return New(next, ttl, maxEntries)
}

// Get returns the cached points for model, reading through on a miss.
func (c *CurveCache) Get(ctx context.Context, model string) ([]models.PerformancePoint, error) {
	points, gen, ok := c.lookup(model)
	if ok {
		return points, nil
	}

	points, err := c.next.Get(ctx, model)
	if err != nil {
		return nil, err
	}
	c.set(model, points, gen)
	return clonePoints(points), nil
}

// Upsert writes through and drops the model from the cache.
func (c *CurveCache) Upsert(ctx context.Context, model string, point models.PerformancePoint) error {
	err := c.next.Upsert(ctx, model, point)
	c.Invalidate(model)
	return err
}

// Models is not cached; the model list is only read by listing endpoints.
func (c *CurveCache) Models(ctx context.Context) ([]string, error) {
	return c.next.Models(ctx)
}

// Invalidate removes model from the cache. Reads of model already in flight
// will not store what they loaded.
func (c *CurveCache) Invalidate(model string) {
	c.mu.Lock()
	delete(c.items, model)
	c.gens[model]++
	c.mu.Unlock()
}

// Len returns the number of cached models, expired ones included.
func (c *CurveCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// lookup also returns the model's generation for a following set.
func (c *CurveCache) lookup(model string) ([]models.PerformancePoint, uint64, bool) {
	c.mu.RLock()
	e, ok := c.items[model]
	gen := c.gens[model]
	c.mu.RUnlock()

	if !ok {
		return nil, gen, false
	}

	if c.now().After(e.expiry) {
		// Expired: remove lazily
		c.mu.Lock()
		if e2, ok2 := c.items[model]; ok2 && c.now().After(e2.expiry) {
			delete(c.items, model)
		}
		c.mu.Unlock()
		return nil, gen, false
	}

	return clonePoints(e.points), gen, true
}

// set stores points unless model was invalidated after generation gen was read.
func (c *CurveCache) set(model string, points []models.PerformancePoint, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[model] != gen {
		return
	}

	e := entry{
		points:    clonePoints(points),
		expiry:    c.now().Add(c.ttl),
		insertIdx: c.nextIdx,
	}
	c.nextIdx++

	if _, exists := c.items[model]; exists {
		c.items[model] = e
		return
	}

	if len(c.items) >= c.maxEntries {
		c.evictOldest()
	}

	c.items[model] = e
}

// evictOldest removes the entry with the lowest insertIdx. Must be called with mu held.
func (c *CurveCache) evictOldest() {
	var oldestKey string
	var oldestIdx int64 = -1

	for key, e := range c.items {
		if oldestIdx == -1 || e.insertIdx < oldestIdx {
			oldestIdx = e.insertIdx
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// clonePoints returns a copy so callers may sort or trim what they get back.
func clonePoints(points []models.PerformancePoint) []models.PerformancePoint {
	out := make([]models.PerformancePoint, len(points))
	copy(out, points)
	return out
}
