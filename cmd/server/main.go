package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"stockexplorer/internal/config"
	"stockexplorer/internal/httpx"
	"stockexplorer/internal/provider"
	"stockexplorer/internal/provider/alphavantage"
	"stockexplorer/internal/provider/alphavantageadapter"
	"stockexplorer/internal/provider/ratelimit"
	"stockexplorer/internal/provider/seriescache"
	"stockexplorer/internal/recorder"
	"stockexplorer/internal/series"
	"stockexplorer/internal/slogx"
)

type seriesResponse struct {
	Symbol   string             `json:"symbol"`
	Interval string             `json:"interval"`
	Month    string             `json:"month,omitempty"`
	Points   series.PriceSeries `json:"points"`
	Summary  series.Summary     `json:"summary"`
}

type serverDeps struct {
	cfg        config.Config
	httpClient *httpx.Client
	logger     *slog.Logger
	rec        recorder.Recorder
	// def is the provider chain built from the configured API key;
	// nil when no key is configured.
	def provider.SeriesProvider
}

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := slogx.NewDefault(cfg.LogLevel)

	if cfg.AlphaVantage.APIKey == "" {
		logger.Warn("ALPHAVANTAGE_API_KEY not set; requests must supply api_key")
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	deps := &serverDeps{cfg: cfg, httpClient: httpClient, logger: logger}
	deps.def = buildProvider(cfg, httpClient, logger, cfg.AlphaVantage.APIKey)

	if cfg.Database.SQLitePath != "" {
		rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Error("open recorder", "path", cfg.Database.SQLitePath, "err", err)
			os.Exit(1)
		}
		defer rec.Close()
		deps.rec = rec
		logger.Info("recording fetched series", "path", cfg.Database.SQLitePath)
	} else {
		deps.rec = recorder.NewNoopRecorder()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/series", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deps.handleGetSeries(w, r)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// buildProvider assembles the chain cache(ratelimit(adapter)) for a key.
// Returns nil when the key is empty.
func buildProvider(cfg config.Config, hc *httpx.Client, logger *slog.Logger, apiKey string) provider.SeriesProvider {
	if apiKey == "" {
		return nil
	}
	opts := []alphavantage.ClientOption{alphavantage.WithHTTPClient(hc)}
	if cfg.AlphaVantage.BaseURL != "" {
		opts = append(opts, alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL))
	}
	client := alphavantage.NewClient(apiKey, opts...)

	var p provider.SeriesProvider = alphavantageadapter.New(alphavantageadapter.Config{}, client, logger)
	// Prefer token bucket with burst if RPM is set, otherwise min-interval
	if cfg.AlphaVantage.MaxRequestsPerMinute > 0 {
		rate := float64(cfg.AlphaVantage.MaxRequestsPerMinute) / 60.0
		burst := cfg.AlphaVantage.Burst
		if burst <= 0 {
			burst = 1
		}
		p = &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.NewTokenBucket(rate, burst)}
	} else if cfg.AlphaVantage.MinRequestIntervalSec > 0 {
		interval := time.Duration(cfg.AlphaVantage.MinRequestIntervalSec) * time.Second
		p = &ratelimit.MinInterval{P: p, Interval: interval}
	}
	if cfg.AlphaVantage.CacheTTLSeconds > 0 {
		p = &seriescache.Provider{
			P:          p,
			TTL:        time.Duration(cfg.AlphaVantage.CacheTTLSeconds) * time.Second,
			MaxEntries: cfg.AlphaVantage.CacheMaxEntries,
		}
	}
	return p
}

func (d *serverDeps) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	symbol := strings.TrimSpace(params.Get("symbol"))
	if symbol == "" {
		http.Error(w, "missing symbol query param", http.StatusBadRequest)
		return
	}

	intervalStr := params.Get("interval")
	if intervalStr == "" {
		intervalStr = string(provider.Interval1Min)
	}
	interval, err := provider.ParseInterval(intervalStr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	month := strings.TrimSpace(params.Get("month"))
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			http.Error(w, "month must be formatted YYYY-MM", http.StatusBadRequest)
			return
		}
	}

	p := d.def
	if key := params.Get("api_key"); key != "" {
		// A caller-supplied key bypasses the shared cache and rate
		// budget; the cost lands on the caller's account.
		opts := []alphavantage.ClientOption{alphavantage.WithHTTPClient(d.httpClient)}
		if d.cfg.AlphaVantage.BaseURL != "" {
			opts = append(opts, alphavantage.WithBaseURL(d.cfg.AlphaVantage.BaseURL))
		}
		p = alphavantageadapter.New(alphavantageadapter.Config{}, alphavantage.NewClient(key, opts...), d.logger)
	}
	if p == nil {
		http.Error(w, "no API key configured; pass api_key or set ALPHAVANTAGE_API_KEY", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	writeSeries(w, ctx, p, provider.Query{Symbol: symbol, Interval: interval, Month: month}, d.rec, d.logger)
}

// writeSeries fetches one series and renders the JSON response.
// FormatError means the provider rejected the request semantically and a
// retry would reproduce it: 422. Everything else is a transport-side
// fault: 502.
func writeSeries(w http.ResponseWriter, ctx context.Context, p provider.SeriesProvider, q provider.Query, rec recorder.Recorder, logger *slog.Logger) {
	points, err := p.Series(ctx, q)
	if err != nil {
		var formatErr *alphavantage.FormatError
		if errors.As(err, &formatErr) {
			http.Error(w, formatErr.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	if rec != nil {
		if err := rec.RecordSeries(q.Symbol, q.Interval, points); err != nil {
			logger.Warn("record series", "symbol", q.Symbol, "err", err)
		}
	}

	if points == nil {
		points = series.PriceSeries{}
	}
	resp := seriesResponse{
		Symbol:   q.Symbol,
		Interval: string(q.Interval),
		Month:    q.Month,
		Points:   points,
		Summary:  series.Summarize(points),
	}
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(resp)
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses the response when the client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		// Prefer best speed to reduce CPU usage since payloads are JSON
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
