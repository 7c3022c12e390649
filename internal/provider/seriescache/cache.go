package seriescache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"stockexplorer/internal/provider"
	"stockexplorer/internal/series"
)

// entry stores one cached series with expiry.
type entry struct {
	expiresAt time.Time
	points    series.PriceSeries
}

// Provider caches normalized series per query for a TTL.
// The key is the full (symbol, interval, month) tuple, so a month query
// can never serve another month's data. Concurrent identical lookups are
// coalesced into a single upstream fetch.
type Provider struct {
	P          provider.SeriesProvider
	TTL        time.Duration
	MaxEntries int

	group singleflight.Group
	mu    sync.RWMutex
	items map[provider.Query]entry
}

func (c *Provider) Name() string { return c.P.Name() }

// Series returns the cached series when still valid, otherwise fetches
// through the wrapped provider. Errors are never cached.
func (c *Provider) Series(ctx context.Context, q provider.Query) (series.PriceSeries, error) {
	if c.TTL <= 0 {
		return c.P.Series(ctx, q)
	}

	if points, ok := c.lookup(q); ok {
		return points, nil
	}

	v, err, _ := c.group.Do(flightKey(q), func() (any, error) {
		// A concurrent flight may have filled the cache while this call
		// waited on the group.
		if points, ok := c.lookup(q); ok {
			return points, nil
		}
		// The flight's result is shared by every coalesced caller, so it
		// must not die with the first caller's context. The wrapped
		// provider's own timeouts still bound the fetch.
		points, err := c.P.Series(context.WithoutCancel(ctx), q)
		if err != nil {
			return nil, err
		}
		c.store(q, points)
		return points, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(series.PriceSeries), nil
}

func (c *Provider) lookup(q provider.Query) (series.PriceSeries, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[q]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.points, true
}

func (c *Provider) store(q provider.Query, points series.PriceSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[provider.Query]entry)
	}
	c.items[q] = entry{expiresAt: time.Now().Add(c.TTL), points: points}

	// best-effort cap: drop expired entries first, then arbitrary ones
	if c.MaxEntries > 0 && len(c.items) > c.MaxEntries {
		now := time.Now()
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
			if len(c.items) <= c.MaxEntries {
				return
			}
		}
		for k := range c.items {
			if k == q {
				continue
			}
			delete(c.items, k)
			if len(c.items) <= c.MaxEntries {
				return
			}
		}
	}
}

func flightKey(q provider.Query) string {
	return q.Symbol + "|" + string(q.Interval) + "|" + q.Month
}
