package provider

import (
	"context"
	"fmt"

	"stockexplorer/internal/series"
)

// Interval is the sampling granularity of an intraday series.
type Interval string

const (
	Interval1Min  Interval = "1min"
	Interval5Min  Interval = "5min"
	Interval15Min Interval = "15min"
	Interval30Min Interval = "30min"
	Interval60Min Interval = "60min"
)

// ParseInterval validates a user-supplied interval string.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case Interval1Min, Interval5Min, Interval15Min, Interval30Min, Interval60Min:
		return Interval(s), nil
	}
	return "", fmt.Errorf("unsupported interval %q (want 1min, 5min, 15min, 30min or 60min)", s)
}

// Query identifies one intraday series request. It is an immutable value;
// caches must key on the full tuple so months never cross-contaminate.
type Query struct {
	Symbol   string
	Interval Interval
	// Month selects a historical month ("2006-01"). Empty means the most
	// recent data. Forwarded to the provider verbatim.
	Month string
}

// SeriesProvider returns a normalized, ascending price series for a query.
type SeriesProvider interface {
	Name() string
	Series(ctx context.Context, q Query) (series.PriceSeries, error)
}
