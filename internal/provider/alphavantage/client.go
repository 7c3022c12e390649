package alphavantage

import (
	"net/http"
	"time"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=alphavantage_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	defaultBaseURL = "https://www.alphavantage.co/query"
	// defaultTimeout bounds the single fetch attempt when no custom
	// HTTP client is supplied.
	defaultTimeout = 10 * time.Second
)

// Client is a client for the Alpha Vantage time-series API.
type Client struct {
	// baseURL is the query endpoint.
	baseURL string
	// apiKey authenticates every request. Supplied by the caller; the
	// client never reads the environment.
	apiKey string
	// httpClient performs the requests.
	httpClient HTTPClient
}

// ClientOption is a configuration option for the Alpha Vantage client.
type ClientOption func(*Client)

// WithBaseURL overrides the query endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Alpha Vantage client. The key is not validated
// here; IntradaySeries refuses to issue a request without one.
func NewClient(apiKey string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, option := range options {
		option(c)
	}
	return c
}
