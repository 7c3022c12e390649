package saver

import (
	"strings"

	"stockexplorer/internal/series"
)

// PointSaver writes a normalized series to a file. Commands inject the
// implementation; nothing below this interface knows about formats.
type PointSaver interface {
	Save(points series.PriceSeries, path string) error
	Extension() string
}

// NewPointSaver creates an implementation by format (csv, json).
// Returns nil if the format is not supported.
func NewPointSaver(format string) PointSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}
