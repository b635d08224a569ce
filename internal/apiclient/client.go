// Package apiclient issues REST calls against the Tastemap API, unwraps
// response bodies, and normalizes every transport or server failure into a
// single error shape carrying the HTTP status and the decoded body.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/onnwee/tastemap/internal/metrics"
)

// DefaultTimeout applies when Options.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// maxGetRetries bounds retries for idempotent GETs, including the first try.
const maxGetRetries = 3

// Error is the normalized failure shape for all API calls: the HTTP status
// (0 for transport failures) and the decoded response body. The body is
// parsed as JSON when possible and kept as raw text otherwise.
type Error struct {
	Status int
	Data   any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, msg)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// Message digs the server's {message} out of the data envelope.
// Returns "" when the body carries no message.
func (e *Error) Message() string {
	switch data := e.Data.(type) {
	case map[string]any:
		if msg, ok := data["message"].(string); ok {
			return msg
		}
	case string:
		return data
	}
	return ""
}

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. "https://api.tastemap.example".
	BaseURL string

	// Timeout bounds each HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration

	// Metrics receives per-request observations when non-nil.
	Metrics *metrics.Metrics

	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger

	// Transport overrides the base round tripper (used in tests).
	// The otelhttp transport is layered on top of it.
	Transport http.RoundTripper
}

// Client issues JSON REST calls. It carries a cookie jar so the server's
// session cookie rides along on every call.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Client for the given API base URL.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// Jar exposes the cookie jar so the session store can inspect the session
// cookie (expiry peeking). Read-only use.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET and decodes the response into out (out may be nil).
// Transient failures (transport errors and 5xx) are retried with
// exponential backoff; 4xx responses are returned immediately.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	operation := func() (struct{}, error) {
		err := c.do(ctx, http.MethodGet, path, query, nil, out)
		if err == nil {
			return struct{}{}, nil
		}
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxGetRetries),
	)
	return err
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Patch issues a PATCH with a JSON body and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

// do performs one HTTP round trip: marshal the body, send, read the full
// response, and either decode into out or normalize the failure.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, path, query, body, out)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if c.metrics != nil {
		c.metrics.ObserveAPIRequest(method, outcome, time.Since(start).Seconds())
	}
	c.logger.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("outcome", outcome),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()))

	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	res, err := c.http.Do(req)
	if err != nil {
		return &Error{Status: 0, Data: err.Error()}
	}
	defer func() {
		_ = res.Body.Close()
	}()

	text, err := io.ReadAll(res.Body)
	if err != nil {
		return &Error{Status: res.StatusCode, Data: err.Error()}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &Error{Status: res.StatusCode, Data: decodeBody(text)}
	}

	if out != nil && len(text) > 0 {
		if err := json.Unmarshal(text, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// decodeBody parses the body as JSON when possible, keeping raw text otherwise.
func decodeBody(text []byte) any {
	if len(text) == 0 {
		return nil
	}
	var data any
	if err := json.Unmarshal(text, &data); err != nil {
		return string(text)
	}
	return data
}

