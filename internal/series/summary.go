package series

import (
	"math"
	"time"
)

// Summary condenses a series into the session headline numbers.
// An empty series yields a zero summary with Empty set so callers can
// tell "no trades" apart from real data.
type Summary struct {
	Empty         bool      `json:"empty"`
	Start         time.Time `json:"start,omitempty"`
	End           time.Time `json:"end,omitempty"`
	Open          float64   `json:"open"`
	Close         float64   `json:"close"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	TotalVolume   int64     `json:"total_volume"`
	AverageClose  float64   `json:"average_close"`
	ChangePercent float64   `json:"change_percent"`
}

// Summarize computes a Summary over an ascending series.
func Summarize(s PriceSeries) Summary {
	if len(s) == 0 {
		return Summary{Empty: true}
	}

	high := math.Inf(-1)
	low := math.Inf(1)
	var totalVolume int64
	var closeSum float64
	for _, p := range s {
		if p.High > high {
			high = p.High
		}
		if p.Low < low {
			low = p.Low
		}
		totalVolume += p.Volume
		closeSum += p.Close
	}

	first, last := s[0], s[len(s)-1]
	sum := Summary{
		Start:        first.Timestamp,
		End:          last.Timestamp,
		Open:         first.Open,
		Close:        last.Close,
		High:         high,
		Low:          low,
		TotalVolume:  totalVolume,
		AverageClose: closeSum / float64(len(s)),
	}
	if first.Open != 0 {
		sum.ChangePercent = (last.Close - first.Open) / first.Open * 100
	}
	return sum
}
