package coincap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	baseURL = "https://api.coincap.io/v2"

	maxResponseBytes = 16 << 20
)

// ErrMalformedResponse is returned when a 2xx body cannot be decoded into the
// expected shape.
var ErrMalformedResponse = errors.New("coincap: malformed response")

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=coincap_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client is a client for the CoinCap API. It needs no credentials.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	header     http.Header
}

// Option is a configuration option for the CoinCap client.
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

// NewClient creates a new CoinCap client.
func NewClient(options ...Option) (*Client, error) {
	client := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	client.header.Set("Accept", "application/json")
	for _, option := range options {
		option(client)
	}
	if client.baseURL == "" {
		return nil, fmt.Errorf("coincap: empty base url")
	}
	return client, nil
}

type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	Error     string          `json:"error"`
}

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
		msg := fmt.Sprintf("coincap: request failed with status %d", res.StatusCode)
		if decodeErr == nil && env.Error != "" {
			msg = "coincap: " + env.Error
		}
		return &APIError{StatusCode: res.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: decoding envelope: %v", ErrMalformedResponse, decodeErr)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}
