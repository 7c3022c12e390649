package recorder

import (
	"stockexplorer/internal/provider"
	"stockexplorer/internal/series"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSeries(string, provider.Interval, series.PriceSeries) error { return nil }
func (n *NoopRecorder) Close() error                                                     { return nil }
