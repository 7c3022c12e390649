package ratelimit

import (
	"context"
	"sync"
	"time"

	"stockexplorer/internal/provider"
	"stockexplorer/internal/series"
)

// MinInterval wraps a provider and enforces a minimum time between calls.
// Concurrent calls wait until the interval has elapsed since the last
// call, or return early if the context is canceled.
type MinInterval struct {
	P        provider.SeriesProvider
	Interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Series(ctx context.Context, q provider.Query) (series.PriceSeries, error) {
	if m.Interval > 0 {
		m.mu.Lock()
		wait := time.Until(m.last.Add(m.Interval))
		m.mu.Unlock()
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}
	points, err := m.P.Series(ctx, q)
	if m.Interval > 0 {
		m.mu.Lock()
		m.last = time.Now()
		m.mu.Unlock()
	}
	return points, err
}
