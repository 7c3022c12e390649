package alphavantage_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"stockexplorer/internal/provider"
	"stockexplorer/internal/provider/alphavantage"
)

func TestIntradaySeries(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method and verify the wire contract
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			q := req.URL.Query()
			require.Equal(t, "TIME_SERIES_INTRADAY", q.Get("function"))
			require.Equal(t, "IBM", q.Get("symbol"))
			require.Equal(t, "1min", q.Get("interval"))
			require.Equal(t, "true", q.Get("adjusted"))
			require.Equal(t, "full", q.Get("outputsize"))
			require.Equal(t, "test-key", q.Get("apikey"))
			require.False(t, q.Has("month"))

			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(mockIntradayResponse))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: setup a new client
	client := alphavantage.NewClient("test-key", alphavantage.WithHTTPClient(httpClient))
	require.NotNil(t, client)

	// Act: call IntradaySeries
	payload, err := client.IntradaySeries(t.Context(), provider.Query{Symbol: "IBM", Interval: provider.Interval1Min})
	require.NoError(t, err)
	require.NotNil(t, payload)

	// Assert: the payload is returned undecoded beyond JSON
	require.Contains(t, payload, "Time Series (1min)")
}

func TestIntradaySeries_MonthForwardedVerbatim(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "2023-06", req.URL.Query().Get("month"))
			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(mockIntradayResponse))
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(buffer)}, nil
		}).
		Times(1)

	client := alphavantage.NewClient("test-key", alphavantage.WithHTTPClient(httpClient))

	_, err := client.IntradaySeries(t.Context(), provider.Query{
		Symbol:   "IBM",
		Interval: provider.Interval1Min,
		Month:    "2023-06",
	})
	require.NoError(t, err)
}

func TestIntradaySeries_EmptySymbol(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: no request is issued when the symbol invariant is violated
	httpClient.EXPECT().
		Do(gomock.Any()).
		Times(0)

	client := alphavantage.NewClient("test-key", alphavantage.WithHTTPClient(httpClient))

	payload, err := client.IntradaySeries(t.Context(), provider.Query{Symbol: "  ", Interval: provider.Interval1Min})
	require.Error(t, err)
	require.Nil(t, payload)
}

func TestIntradaySeries_EmptyAPIKey(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		Times(0)

	client := alphavantage.NewClient("", alphavantage.WithHTTPClient(httpClient))

	payload, err := client.IntradaySeries(t.Context(), provider.Query{Symbol: "IBM", Interval: provider.Interval1Min})
	require.Error(t, err)
	require.Nil(t, payload)
}

func TestIntradaySeries_ErrPerformingRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection refused")
		}).
		Times(1)

	client := alphavantage.NewClient("test-key", alphavantage.WithHTTPClient(httpClient))

	// Act: call IntradaySeries
	payload, err := client.IntradaySeries(t.Context(), provider.Query{Symbol: "IBM", Interval: provider.Interval1Min})
	require.Error(t, err)
	require.Nil(t, payload)

	// Assert: transport faults surface as *FetchError, never *FormatError
	var fetchErr *alphavantage.FetchError
	require.ErrorAs(t, err, &fetchErr)
	var formatErr *alphavantage.FormatError
	require.False(t, errors.As(err, &formatErr))
	require.Contains(t, fetchErr.Error(), "connection refused")
}

func TestIntradaySeries_ErrUnexpectedStatusCode(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(bytes.NewReader([]byte("boom"))),
			}, nil
		}).
		Times(1)

	client := alphavantage.NewClient("test-key", alphavantage.WithHTTPClient(httpClient))

	payload, err := client.IntradaySeries(t.Context(), provider.Query{Symbol: "IBM", Interval: provider.Interval1Min})
	require.Error(t, err)
	require.Nil(t, payload)

	var fetchErr *alphavantage.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Contains(t, fetchErr.Error(), "500")
}

func TestIntradaySeries_ErrDecodingResponse(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			buffer := &bytes.Buffer{}
			buffer.WriteString("<html>not json</html>")
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(buffer)}, nil
		}).
		Times(1)

	client := alphavantage.NewClient("test-key", alphavantage.WithHTTPClient(httpClient))

	payload, err := client.IntradaySeries(t.Context(), provider.Query{Symbol: "IBM", Interval: provider.Interval1Min})
	require.Error(t, err)
	require.Nil(t, payload)

	// Assert: a non-JSON body is a transport fault, not a format violation
	var fetchErr *alphavantage.FetchError
	require.ErrorAs(t, err, &fetchErr)
}

// mockIntradayResponse is a minimal well-formed provider response.
var mockIntradayResponse = map[string]any{
	"Meta Data": map[string]any{
		"1. Information": "Intraday (1min) open, high, low, close prices and volume",
		"2. Symbol":      "IBM",
	},
	"Time Series (1min)": map[string]any{
		"2023-06-08 15:00:00": map[string]any{
			"1. open":   "100.0",
			"2. high":   "101.0",
			"3. low":    "99.0",
			"4. close":  "100.5",
			"5. volume": "1000",
		},
	},
}
