package alphavantageadapter

import (
	"context"
	"log/slog"

	"stockexplorer/internal/provider"
	"stockexplorer/internal/provider/alphavantage"
	"stockexplorer/internal/series"
)

// Config configures the adapter.
type Config struct {
	// Name is the display name, default: AlphaVantage.
	Name string
}

// Adapter exposes the raw Alpha Vantage client through the
// provider.SeriesProvider interface: one fetch, one normalization pass,
// errors propagated unchanged. Logging goes through the injected logger
// only; there is no process-wide configuration here.
type Adapter struct {
	cfg    Config
	client *alphavantage.Client
	logger *slog.Logger
}

// New creates an adapter around the client. A nil logger discards logs.
func New(cfg Config, client *alphavantage.Client, logger *slog.Logger) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "AlphaVantage"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{cfg: cfg, client: client, logger: logger}
}

func (a *Adapter) Name() string { return a.cfg.Name }

// Series fetches and normalizes one intraday series. A *FetchError means
// the transport failed and the payload never reached normalization; a
// *FormatError means the payload arrived but was rejected semantically.
func (a *Adapter) Series(ctx context.Context, q provider.Query) (series.PriceSeries, error) {
	payload, err := a.client.IntradaySeries(ctx, q)
	if err != nil {
		return nil, err
	}
	points, err := alphavantage.Normalize(payload, q.Interval)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("series normalized",
		"symbol", q.Symbol,
		"interval", string(q.Interval),
		"month", q.Month,
		"points", len(points),
	)
	return points, nil
}
