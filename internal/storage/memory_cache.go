package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/radiusdt/vector-insights/internal/models"
)

// InMemoryResultCache keeps the most recent results in process memory.
type InMemoryResultCache struct {
	mu       sync.RWMutex
	capacity int
	results  map[string]*models.Result
	order    []string // oldest first
}

// NewInMemoryResultCache returns a cache holding at most capacity results.
// A capacity below 1 is treated as 1.
func NewInMemoryResultCache(capacity int) *InMemoryResultCache {
	if capacity < 1 {
		capacity = 1
	}
	return &InMemoryResultCache{
		capacity: capacity,
		results:  make(map[string]*models.Result, capacity),
	}
}

var _ ResultCache = (*InMemoryResultCache)(nil)

func (c *InMemoryResultCache) Put(_ context.Context, res *models.Result) error {
	if res == nil || res.ID == "" {
		return fmt.Errorf("cache result: missing id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.results[res.ID]; ok {
		c.remove(res.ID)
	}
	c.results[res.ID] = res
	c.order = append(c.order, res.ID)

	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.results, oldest)
	}
	return nil
}

func (c *InMemoryResultCache) Get(_ context.Context, id string) (*models.Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res, ok := c.results[id]
	if !ok {
		return nil, ErrNotFound
	}
	return res, nil
}

func (c *InMemoryResultCache) Latest(_ context.Context) (*models.Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.order) == 0 {
		return nil, ErrNotFound
	}
	return c.results[c.order[len(c.order)-1]], nil
}

// Len returns the number of cached results.
func (c *InMemoryResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

func (c *InMemoryResultCache) remove(id string) {
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
