package recorder

import (
	"stockexplorer/internal/provider"
	"stockexplorer/internal/series"
)

// Recorder persists normalized series for offline analysis. The retrieval
// core never depends on it; commands wire one in when a database path is
// configured.
type Recorder interface {
	RecordSeries(symbol string, interval provider.Interval, points series.PriceSeries) error
	Close() error
}
