package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stockexplorer/internal/config"
	"stockexplorer/internal/httpx"
	"stockexplorer/internal/provider"
	"stockexplorer/internal/provider/alphavantage"
	"stockexplorer/internal/provider/alphavantageadapter"
	"stockexplorer/internal/provider/ratelimit"
	"stockexplorer/internal/recorder"
	"stockexplorer/internal/saver"
	"stockexplorer/internal/series"
	"stockexplorer/internal/slogx"
)

func main() {
	var symbolsCSV string
	var intervalStr string
	var month string
	var outDir string
	var format string
	var sqlitePath string
	var timeout int
	var configPath string

	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "IBM"), "comma-separated ticker symbols")
	flag.StringVar(&intervalStr, "interval", getenv("INTERVAL", "1min"), "bar interval (1min, 5min, 15min, 30min, 60min)")
	flag.StringVar(&month, "month", getenv("MONTH", ""), "historical month YYYY-MM (optional, default latest)")
	flag.StringVar(&outDir, "out", getenv("OUT_DIR", "."), "directory for saved series files")
	flag.StringVar(&format, "format", getenv("FORMAT", "csv"), "output format: csv or json")
	flag.StringVar(&sqlitePath, "sqlite", getenv("SQLITE_PATH", ""), "sqlite database to record points into (optional)")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 0), "request timeout seconds (0 = config value)")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	mergeFlags(&cfg, timeout, sqlitePath)
	logger := slogx.NewDefault(cfg.LogLevel)

	if cfg.AlphaVantage.APIKey == "" {
		log.Fatal("no API key configured; set ALPHAVANTAGE_API_KEY or config.json")
	}
	interval, err := provider.ParseInterval(intervalStr)
	if err != nil {
		log.Fatalf("interval: %v", err)
	}
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			log.Fatalf("month %q: want YYYY-MM", month)
		}
	}
	symbols := splitCSV(symbolsCSV)
	if len(symbols) == 0 {
		log.Fatal("no symbols provided")
	}
	ps := saver.NewPointSaver(format)
	if ps == nil {
		log.Fatalf("unsupported format %q (want csv or json)", format)
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	opts := []alphavantage.ClientOption{alphavantage.WithHTTPClient(httpClient)}
	if cfg.AlphaVantage.BaseURL != "" {
		opts = append(opts, alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL))
	}
	client := alphavantage.NewClient(cfg.AlphaVantage.APIKey, opts...)

	var p provider.SeriesProvider = alphavantageadapter.New(alphavantageadapter.Config{}, client, logger)
	if cfg.AlphaVantage.MaxRequestsPerMinute > 0 {
		rate := float64(cfg.AlphaVantage.MaxRequestsPerMinute) / 60.0
		burst := cfg.AlphaVantage.Burst
		if burst <= 0 {
			burst = 1
		}
		p = &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.NewTokenBucket(rate, burst)}
	} else if cfg.AlphaVantage.MinRequestIntervalSec > 0 {
		p = &ratelimit.MinInterval{P: p, Interval: time.Duration(cfg.AlphaVantage.MinRequestIntervalSec) * time.Second}
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sqlRec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatalf("open recorder: %v", err)
		}
		defer sqlRec.Close()
		rec = sqlRec
	}

	// One request per symbol; the rate limiter spaces them out.
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(len(symbols)*cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	failed := 0
	for _, symbol := range symbols {
		q := provider.Query{Symbol: symbol, Interval: interval, Month: month}
		points, err := p.Series(ctx, q)
		if err != nil {
			log.Printf("%s error: %v", symbol, err)
			failed++
			continue
		}
		log.Printf("%s: %d points", symbol, len(points))

		if err := rec.RecordSeries(symbol, interval, points); err != nil {
			log.Printf("%s record: %v", symbol, err)
		}

		path := filepath.Join(outDir, fileName(symbol, interval, month)+"."+ps.Extension())
		if err := ps.Save(points, path); err != nil {
			log.Printf("%s save: %v", symbol, err)
			failed++
			continue
		}

		summary := series.Summarize(points)
		b, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Printf("%s -> %s\n%s\n", symbol, path, string(b))
	}
	if failed == len(symbols) {
		log.Fatal("all symbols failed")
	}
}

// mergeFlags overrides config values only where a flag (or its env
// fallback) was actually given; the zero values keep config.json intact.
func mergeFlags(cfg *config.Config, timeout int, sqlitePath string) {
	if timeout > 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}
	if sqlitePath != "" {
		cfg.Database.SQLitePath = sqlitePath
	}
}

func fileName(symbol string, interval provider.Interval, month string) string {
	name := fmt.Sprintf("%s_%s", symbol, interval)
	if month != "" {
		name += "_" + month
	}
	return strings.ReplaceAll(name, string(filepath.Separator), "-")
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 {
			return x
		}
	}
	return def
}
