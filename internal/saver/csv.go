package saver

import (
	"encoding/csv"
	"os"
	"strconv"

	"stockexplorer/internal/series"
)

const timestampLayout = "2006-01-02 15:04:05"

// CSVSaver writes points as CSV (header: timestamp,open,high,low,close,volume).
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(points series.PriceSeries, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := w.Write([]string{
			p.Timestamp.Format(timestampLayout),
			floatStr(p.Open),
			floatStr(p.High),
			floatStr(p.Low),
			floatStr(p.Close),
			strconv.FormatInt(p.Volume, 10),
		}); err != nil {
			return err
		}
	}
	return nil
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
