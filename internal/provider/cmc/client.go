package cmc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	baseURL = "https://pro-api.coinmarketcap.com"

	// APIKeyHeader carries the static API key on every request.
	APIKeyHeader = "X-CMC_PRO_API_KEY"

	maxResponseBytes = 32 << 20
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=cmc_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the CoinMarketCap API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// Option is a configuration option for the CoinMarketCap client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new CoinMarketCap client authenticated with key.
func NewClient(key string, options ...Option) (*Client, error) {
	var client = &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	client.header.Set("Accept", "application/json")
	if key != "" {
		client.header.Set(APIKeyHeader, key)
	}
	for _, option := range options {
		option(client)
	}
	if client.baseURL == "" {
		return nil, fmt.Errorf("cmc: empty base url")
	}
	return client, nil
}

// envelope is the wrapper every CoinMarketCap response uses.
type envelope struct {
	Status *rawStatus      `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// get performs a GET request and decodes the envelope's data into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		if decodeErr == nil && env.Status != nil {
			return &APIError{HTTPStatus: res.StatusCode, Status: env.Status.normalize()}
		}
		// no usable envelope, fall back to what the status line tells us
		return &APIError{
			HTTPStatus: res.StatusCode,
			Status:     Status{ErrorMessage: fmt.Sprintf("request failed with status %d", res.StatusCode)},
		}
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: decoding envelope: %v", ErrMalformedResponse, decodeErr)
	}
	if env.Status != nil && env.Status.ErrorCode != 0 {
		return &APIError{HTTPStatus: res.StatusCode, Status: env.Status.normalize()}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

// joinIDs renders ids the way the API expects them in an id= parameter.
func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
