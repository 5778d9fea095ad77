// Package palette resolves and memoizes the two-stop bar gradient of each entity.
package palette

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
	"golang.org/x/sync/singleflight"
)

// Source produces the colors of an entity on a cache miss.
type Source interface {
	Colors(ctx context.Context, entityID string) (schema.ColorPair, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, entityID string) (schema.ColorPair, error)

// Colors implements Source.
func (f SourceFunc) Colors(ctx context.Context, entityID string) (schema.ColorPair, error) {
	return f(ctx, entityID)
}

// Cache memoizes one gradient per entity for the lifetime of the process.
// Concurrent misses for the same entity share a single Source call that is
// not canceled when one of its callers gives up. Failed lookups are not
// remembered, so the next frame retries them.
type Cache struct {
	mu      sync.RWMutex
	items   map[string]schema.ColorPair
	sf      singleflight.Group
	source  Source
	timeout time.Duration
}

var _ contract.ColorResolver = &Cache{} // Compile-time check

// NewCache creates a cache in front of source. A positive timeout bounds every lookup.
func NewCache(source Source, timeout time.Duration) *Cache {
	return &Cache{
		items:   make(map[string]schema.ColorPair),
		source:  source,
		timeout: timeout,
	}
}

// GetColors implements contract.ColorResolver.
func (c *Cache) GetColors(ctx context.Context, entityID string) (schema.ColorPair, error) {
	c.mu.RLock()
	pair, ok := c.items[entityID]
	c.mu.RUnlock()
	if ok {
		return pair, nil
	}

	// The shared load outlives any single caller; each caller stops waiting on its own context
	loadCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ch := c.sf.DoChan(entityID, func() (any, error) {
		lctx := loadCtx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			lctx, cancel = context.WithTimeout(lctx, c.timeout)
			defer cancel()
		}
		pair, err := c.source.Colors(lctx, entityID)
		if err != nil {
			return schema.ColorPair{}, err
		}
		c.Prime(entityID, pair)
		return pair, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return schema.ColorPair{}, fmt.Errorf("resolving colors for %q: %w", entityID, res.Err)
		}
		return res.Val.(schema.ColorPair), nil
	case <-ctx.Done():
		return schema.ColorPair{}, fmt.Errorf("resolving colors for %q: %w", entityID, ctx.Err())
	}
}

// Prime stores a known gradient, replacing any cached one.
func (c *Cache) Prime(entityID string, pair schema.ColorPair) {
	c.mu.Lock()
	c.items[entityID] = pair
	c.mu.Unlock()
}

// Len returns the number of memoized entities.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
