// avdump crawls raw intraday payloads for a range of historical months and
// writes them to disk untouched, one JSON file per month. Useful for building
// local fixtures and for inspecting the upstream format when it shifts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"stockexplorer/internal/config"
	"stockexplorer/internal/httpx"
	"stockexplorer/internal/provider"
	"stockexplorer/internal/provider/alphavantage"
)

func main() {
	var (
		symbol      string
		intervalStr string
		fromMonth   string
		toMonth     string
		outDir      string
		cfgPath     string
		concurrency int
		timeoutSec  int
		maxRetries  int
		rpm         int
	)
	flag.StringVar(&symbol, "symbol", "IBM", "ticker symbol to dump")
	flag.StringVar(&intervalStr, "interval", "1min", "bar interval (1min, 5min, 15min, 30min, 60min)")
	flag.StringVar(&fromMonth, "from", "", "first month YYYY-MM (required)")
	flag.StringVar(&toMonth, "to", "", "last month YYYY-MM inclusive (default: from)")
	flag.StringVar(&outDir, "out", ".", "output directory")
	flag.StringVar(&cfgPath, "config", "", "path to config.json (optional)")
	flag.IntVar(&concurrency, "concurrency", 2, "number of parallel requests")
	flag.IntVar(&timeoutSec, "timeout", 20, "HTTP timeout seconds")
	flag.IntVar(&maxRetries, "retries", 3, "max retries on transport failures")
	flag.IntVar(&rpm, "rpm", 5, "max requests per minute (0 = unlimited)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.AlphaVantage.APIKey == "" {
		log.Fatal("ALPHAVANTAGE_API_KEY missing (set in config.json or env)")
	}
	interval, err := provider.ParseInterval(intervalStr)
	if err != nil {
		log.Fatalf("interval: %v", err)
	}
	months, err := monthRange(fromMonth, toMonth)
	if err != nil {
		log.Fatalf("month range: %v", err)
	}
	log.Printf("months: %d", len(months))

	opts := []alphavantage.ClientOption{
		alphavantage.WithHTTPClient(httpx.New(time.Duration(timeoutSec) * time.Second)),
	}
	if cfg.AlphaVantage.BaseURL != "" {
		opts = append(opts, alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL))
	}
	client := alphavantage.NewClient(cfg.AlphaVantage.APIKey, opts...)

	// Request rate limiter by RPM, if provided
	var tokenCh <-chan time.Time
	if rpm > 0 {
		t := time.NewTicker(time.Minute / time.Duration(rpm))
		defer t.Stop()
		tokenCh = t.C
	}

	timeout := time.Duration(timeoutSec) * time.Second
	jobs := make(chan string, concurrency*2)
	wg := sync.WaitGroup{}
	var failed atomic.Int32
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for month := range jobs {
				q := provider.Query{Symbol: symbol, Interval: interval, Month: month}
				payload, err := fetchMonth(client, q, tokenCh, timeout, maxRetries)
				if err != nil {
					log.Printf("%s error: %v", month, err)
					failed.Add(1)
					continue
				}
				path := filepath.Join(outDir, fmt.Sprintf("%s_%s_%s.json", symbol, interval, month))
				if err := writePayload(path, payload); err != nil {
					log.Printf("%s write: %v", month, err)
					failed.Add(1)
					continue
				}
				log.Printf("%s -> %s", month, path)
			}
		}()
	}

	for _, m := range months {
		jobs <- m
	}
	close(jobs)
	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Fatalf("done: %d/%d months failed", n, len(months))
	}
	log.Printf("done")
}

// fetchMonth fetches one month's payload, gated by the RPM ticker. The
// token is acquired before the request deadline starts, so waiting on the
// shared ticker never eats into the timeout, and every retry attempt gets
// a fresh context. Transport faults are worth retrying; a malformed or
// rejected payload never is.
func fetchMonth(client *alphavantage.Client, q provider.Query, tokenCh <-chan time.Time, timeout time.Duration, maxRetries int) (alphavantage.RawPayload, error) {
	attempt := 0
	for {
		if tokenCh != nil {
			<-tokenCh // gate by RPM
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		payload, err := client.IntradaySeries(ctx, q)
		cancel()
		if err == nil {
			return payload, nil
		}
		var fe *alphavantage.FetchError
		if errors.As(err, &fe) && attempt < maxRetries {
			back := time.Duration(250*(1<<attempt)) * time.Millisecond
			time.Sleep(back)
			attempt++
			continue
		}
		return nil, err
	}
}

func writePayload(path string, payload alphavantage.RawPayload) error {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// monthRange expands from..to (inclusive) into YYYY-MM strings.
func monthRange(from, to string) ([]string, error) {
	if from == "" {
		return nil, errors.New("-from is required")
	}
	if to == "" {
		to = from
	}
	start, err := time.Parse("2006-01", from)
	if err != nil {
		return nil, fmt.Errorf("from %q: want YYYY-MM", from)
	}
	end, err := time.Parse("2006-01", to)
	if err != nil {
		return nil, fmt.Errorf("to %q: want YYYY-MM", to)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("to %s precedes from %s", to, from)
	}
	var months []string
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format("2006-01"))
	}
	return months, nil
}
