// Package http provides a configurable HTTP client with retry logic.
// It wraps the retryablehttp.Client from HashiCorp and exposes functional
// options for customizing timeouts, retry behavior and default headers.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/gabapcia/slotstream/internal/pkg/logger"
)

// config holds internal settings for the HTTP client.
type config struct {
	timeout      time.Duration     // maximum duration for a single HTTP request
	retryWaitMin time.Duration     // minimum delay between retry attempts
	retryWaitMax time.Duration     // maximum delay between retry attempts
	retryMax     int               // maximum number of retry attempts
	headers      map[string]string // headers added to every outgoing request
	logRetries   bool              // whether retried attempts are logged
}

// Option defines a functional option for configuring the HTTP client.
type Option func(*config)

// headerTransport sets fixed headers on each request before delegating.
type headerTransport struct {
	headers map[string]string
	next    http.RoundTripper
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.next.RoundTrip(req)
}

// NewClient creates and returns a retryablehttp.Client configured with
// the provided options. If no options are given, default values are used:
//
//   - timeout:      5 seconds
//   - retryWaitMin: 1 second
//   - retryWaitMax: 5 seconds
//   - retryMax:     2 retries
//   - logRetries:   true
//
// Responses with status 429 or 5xx are retried with the library's default
// policy.
func NewClient(opts ...Option) *retryablehttp.Client {
	cfg := config{
		timeout:      5 * time.Second,
		retryWaitMin: 1 * time.Second,
		retryWaitMax: 5 * time.Second,
		retryMax:     2,
		logRetries:   true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.HTTPClient.Timeout = cfg.timeout
	client.RetryWaitMin = cfg.retryWaitMin
	client.RetryWaitMax = cfg.retryWaitMax
	client.RetryMax = cfg.retryMax
	client.CheckRetry = retryablehttp.DefaultRetryPolicy

	if len(cfg.headers) > 0 {
		client.HTTPClient.Transport = headerTransport{
			headers: cfg.headers,
			next:    client.HTTPClient.Transport,
		}
	}

	if cfg.logRetries {
		client.RequestLogHook = logRetry
	}

	return client
}

// logRetry reports every attempt after the first one.
func logRetry(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}

	ctx := req.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Warn(ctx, "retrying http request",
		"http.method", req.Method,
		"http.host", req.URL.Host,
		"http.attempt", attempt,
	)
}

// WithTimeout sets the maximum duration allowed for a single HTTP request.
// Default: 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithRetryWaitMin sets the minimum delay between retry attempts.
// Default: 1 second.
func WithRetryWaitMin(d time.Duration) Option {
	return func(c *config) {
		c.retryWaitMin = d
	}
}

// WithRetryWaitMax sets the maximum delay between retry attempts.
// Default: 5 seconds.
func WithRetryWaitMax(d time.Duration) Option {
	return func(c *config) {
		c.retryWaitMax = d
	}
}

// WithRetryMax sets the maximum number of retry attempts for failed requests.
// Default: 2 retries.
func WithRetryMax(n int) Option {
	return func(c *config) {
		c.retryMax = n
	}
}

// WithHeader adds a header sent with every request, e.g. an API key some
// RPC providers require.
func WithHeader(key, value string) Option {
	return func(c *config) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers[key] = value
	}
}

// WithRetryLogging toggles the warning emitted for each retried attempt.
func WithRetryLogging(enabled bool) Option {
	return func(c *config) {
		c.logRetries = enabled
	}
}
