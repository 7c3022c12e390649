package series

import (
	"sort"
	"time"
)

// PricePoint is one OHLCV bar at a single timestamp.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// PriceSeries is a sequence of price points in strictly ascending
// timestamp order. Providers sort before returning; consumers must not
// rely on any other ordering.
type PriceSeries []PricePoint

// Sort orders the series by ascending timestamp in place.
func (s PriceSeries) Sort() {
	sort.Slice(s, func(i, j int) bool { return s[i].Timestamp.Before(s[j].Timestamp) })
}

// IsAscending reports whether timestamps are strictly increasing.
func (s PriceSeries) IsAscending() bool {
	for i := 1; i < len(s); i++ {
		if !s[i-1].Timestamp.Before(s[i].Timestamp) {
			return false
		}
	}
	return true
}
