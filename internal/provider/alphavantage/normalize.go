package alphavantage

import (
	"fmt"
	"strconv"
	"time"

	"stockexplorer/internal/provider"
	"stockexplorer/internal/series"
)

// timestampLayout is the fixed format of time-series keys.
const timestampLayout = "2006-01-02 15:04:05"

// errorMessageKey marks a semantic rejection by the provider, e.g. an
// invalid symbol or a rate limit.
const errorMessageKey = "Error Message"

// Field keys as the provider names them.
const (
	fieldOpen   = "1. open"
	fieldHigh   = "2. high"
	fieldLow    = "3. low"
	fieldClose  = "4. close"
	fieldVolume = "5. volume"
)

// SeriesKey returns the payload key holding the time-series block for an
// interval, e.g. "Time Series (1min)".
func SeriesKey(interval provider.Interval) string {
	return fmt.Sprintf("Time Series (%s)", interval)
}

// Normalize validates the payload shape and coerces the time-series block
// into typed points ordered by strictly ascending timestamp, whatever
// order the provider sent. All-or-nothing: the first entry that fails to
// parse aborts the whole call with a *FormatError naming the offending
// timestamp and field, and no points are returned. An empty block is
// valid and yields an empty series.
func Normalize(payload RawPayload, interval provider.Interval) (series.PriceSeries, error) {
	if msg, ok := payload[errorMessageKey]; ok {
		return nil, &FormatError{Message: fmt.Sprint(msg)}
	}

	key := SeriesKey(interval)
	blockVal, ok := payload[key]
	if !ok {
		return nil, &FormatError{Message: fmt.Sprintf("invalid data format: missing %q key", key)}
	}
	block, ok := blockVal.(map[string]any)
	if !ok {
		return nil, &FormatError{Message: fmt.Sprintf("invalid data format: %q is not an object", key)}
	}

	points := make(series.PriceSeries, 0, len(block))
	for ts, entryVal := range block {
		entry, ok := entryVal.(map[string]any)
		if !ok {
			return nil, &FormatError{Message: "entry is not an object", Timestamp: ts, Field: "entry"}
		}

		t, err := time.Parse(timestampLayout, ts)
		if err != nil {
			return nil, &FormatError{Message: "invalid timestamp", Timestamp: ts, Field: "timestamp", Err: err}
		}

		open, err := floatField(entry, fieldOpen, ts)
		if err != nil {
			return nil, err
		}
		high, err := floatField(entry, fieldHigh, ts)
		if err != nil {
			return nil, err
		}
		low, err := floatField(entry, fieldLow, ts)
		if err != nil {
			return nil, err
		}
		closePrice, err := floatField(entry, fieldClose, ts)
		if err != nil {
			return nil, err
		}
		volume, err := intField(entry, fieldVolume, ts)
		if err != nil {
			return nil, err
		}

		points = append(points, series.PricePoint{
			Timestamp: t,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}

	points.Sort()
	return points, nil
}

func stringField(entry map[string]any, field, ts string) (string, error) {
	raw, ok := entry[field]
	if !ok {
		return "", &FormatError{Message: "missing field", Timestamp: ts, Field: field}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &FormatError{Message: fmt.Sprintf("field is %T, want string", raw), Timestamp: ts, Field: field}
	}
	return s, nil
}

func floatField(entry map[string]any, field, ts string) (float64, error) {
	s, err := stringField(entry, field, ts)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FormatError{Message: "invalid number", Timestamp: ts, Field: field, Err: err}
	}
	return v, nil
}

func intField(entry map[string]any, field, ts string) (int64, error) {
	s, err := stringField(entry, field, ts)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &FormatError{Message: "invalid integer", Timestamp: ts, Field: field, Err: err}
	}
	return v, nil
}
