package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"stockexplorer/internal/provider"
	"stockexplorer/internal/series"
)

func TestSQLiteRecorder_UpsertsPoints(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	rec, err := NewSQLiteRecorder(dbPath)
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer rec.Close()

	t0 := time.Date(2023, 6, 8, 15, 0, 0, 0, time.UTC)
	points := series.PriceSeries{
		{Timestamp: t0, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000},
		{Timestamp: t0.Add(time.Minute), Open: 100.5, High: 102, Low: 100, Close: 101, Volume: 500},
	}

	if err := rec.RecordSeries("IBM", provider.Interval1Min, points); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Recording the same window again must not duplicate rows.
	if err := rec.RecordSeries("IBM", provider.Interval1Min, points); err != nil {
		t.Fatalf("record again: %v", err)
	}

	var count int
	if err := rec.db.QueryRow("SELECT COUNT(*) FROM price_points").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("want 2 rows, got %d", count)
	}

	var gotClose float64
	err = rec.db.QueryRow(
		"SELECT close FROM price_points WHERE symbol = ? AND interval = ? AND ts = ?",
		"IBM", "1min", t0.Unix(),
	).Scan(&gotClose)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if gotClose != 100.5 {
		t.Fatalf("want close 100.5, got %v", gotClose)
	}
}

func TestSQLiteRecorder_EmptySeriesIsNoop(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	rec, err := NewSQLiteRecorder(dbPath)
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer rec.Close()

	if err := rec.RecordSeries("IBM", provider.Interval1Min, nil); err != nil {
		t.Fatalf("record empty: %v", err)
	}
}
