package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"stockexplorer/internal/provider"
)

const functionIntraday = "TIME_SERIES_INTRADAY"

// RawPayload is the decoded provider response before any shape checking.
// It is handed to Normalize and discarded afterwards.
type RawPayload map[string]any

// IntradaySeries requests TIME_SERIES_INTRADAY for the query and returns
// the decoded JSON body unmodified. One attempt, no retry. Transport
// faults (including a non-JSON body) surface as *FetchError; the payload
// schema is not checked here so that provider-side rejections stay
// distinguishable from network faults.
func (c *Client) IntradaySeries(ctx context.Context, q provider.Query) (RawPayload, error) {
	if strings.TrimSpace(q.Symbol) == "" {
		return nil, errors.New("alphavantage: symbol must not be empty")
	}
	if c.apiKey == "" {
		return nil, errors.New("alphavantage: api key must not be empty")
	}

	query := url.Values{}
	query.Set("function", functionIntraday)
	query.Set("symbol", q.Symbol)
	query.Set("interval", string(q.Interval))
	query.Set("adjusted", "true")
	query.Set("outputsize", "full")
	query.Set("apikey", c.apiKey)
	if q.Month != "" {
		query.Set("month", q.Month)
	}

	u := fmt.Sprintf("%s?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, &FetchError{Op: "creating request", Err: err}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Op: "performing request", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return nil, &FetchError{
			Op:  "response status",
			Err: fmt.Errorf("unexpected status code %d: %s", res.StatusCode, strings.TrimSpace(string(b))),
		}
	}

	var payload RawPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Op: "decoding response", Err: err}
	}
	return payload, nil
}
