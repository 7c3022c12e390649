package alphavantageadapter_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"stockexplorer/internal/provider"
	"stockexplorer/internal/provider/alphavantage"
	"stockexplorer/internal/provider/alphavantageadapter"
)

func TestSeries_FetchAndNormalize(t *testing.T) {
	t.Parallel()

	// Arrange: a fake provider endpoint returning a two-point series,
	// newest first, as the real provider does.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "TIME_SERIES_INTRADAY", r.URL.Query().Get("function"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"Time Series (1min)": {
				"2023-06-08 15:01:00": {"1. open":"100.5","2. high":"101.5","3. low":"100.0","4. close":"101.0","5. volume":"500"},
				"2023-06-08 15:00:00": {"1. open":"100.0","2. high":"101.0","3. low":"99.0","4. close":"100.5","5. volume":"1000"}
			}
		}`))
	}))
	defer srv.Close()

	client := alphavantage.NewClient("test-key",
		alphavantage.WithBaseURL(srv.URL),
		alphavantage.WithHTTPClient(srv.Client()),
	)
	adapter := alphavantageadapter.New(alphavantageadapter.Config{}, client, nil)
	require.Equal(t, "AlphaVantage", adapter.Name())

	// Act
	points, err := adapter.Series(t.Context(), provider.Query{Symbol: "IBM", Interval: provider.Interval1Min})
	require.NoError(t, err)

	// Assert: normalized, ascending
	require.Len(t, points, 2)
	require.True(t, points.IsAscending())
	require.Equal(t, time.Date(2023, 6, 8, 15, 0, 0, 0, time.UTC), points[0].Timestamp)
	require.Equal(t, int64(1000), points[0].Volume)
}

func TestSeries_ProviderRejection(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Error Message": "Invalid API call"}`))
	}))
	defer srv.Close()

	client := alphavantage.NewClient("test-key",
		alphavantage.WithBaseURL(srv.URL),
		alphavantage.WithHTTPClient(srv.Client()),
	)
	adapter := alphavantageadapter.New(alphavantageadapter.Config{}, client, nil)

	points, err := adapter.Series(t.Context(), provider.Query{Symbol: "NOPE", Interval: provider.Interval1Min})
	require.Nil(t, points)

	var formatErr *alphavantage.FormatError
	require.ErrorAs(t, err, &formatErr)
	require.Equal(t, "Invalid API call", formatErr.Error())
}

func TestSeries_TransportFault(t *testing.T) {
	t.Parallel()

	// A closed server forces a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := alphavantage.NewClient("test-key", alphavantage.WithBaseURL(url))
	adapter := alphavantageadapter.New(alphavantageadapter.Config{}, client, nil)

	points, err := adapter.Series(t.Context(), provider.Query{Symbol: "IBM", Interval: provider.Interval1Min})
	require.Nil(t, points)

	var fetchErr *alphavantage.FetchError
	require.ErrorAs(t, err, &fetchErr)
}
