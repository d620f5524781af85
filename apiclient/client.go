// Package apiclient wraps outbound PropSight API calls with per-attempt
// timeouts, bounded retry with linear backoff, bearer-token attachment, and a
// single classified error per logical call.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds each individual attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries beyond the first attempt.
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the base delay; attempt N waits N * delay before
	// the next attempt fires.
	DefaultRetryDelay = time.Second
)

// DefaultRetryableStatuses are the HTTP statuses worth a repeated attempt:
// request timeout, rate limiting, and transient server/gateway failures.
var DefaultRetryableStatuses = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// TokenProvider supplies the bearer token attached to outgoing requests.
// An empty token means the call goes out unauthenticated; a provider error
// is treated the same way rather than failing the call.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client issues resilient HTTP calls against a single API base URL.
type Client struct {
	http       *http.Client
	baseURL    *url.URL
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	retryable  map[int]bool
	tokens     TokenProvider
	userAgent  string
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxRetries sets how many retries follow a failed first attempt.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithRetryableStatuses replaces the set of statuses that trigger a retry.
func WithRetryableStatuses(statuses ...int) Option {
	return func(c *Client) {
		c.retryable = make(map[int]bool, len(statuses))
		for _, s := range statuses {
			c.retryable[s] = true
		}
	}
}

// WithTokenProvider attaches a bearer-token source for authenticated calls.
func WithTokenProvider(tp TokenProvider) Option {
	return func(c *Client) { c.tokens = tp }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the given API base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("apiclient: base URL required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base URL: %w", err)
	}

	c := &Client{
		http:       http.DefaultClient,
		baseURL:    u,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		userAgent:  "propsight-go",
		log:        zerolog.Nop(),
	}
	WithRetryableStatuses(DefaultRetryableStatuses...)(c)
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Request describes one logical call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any

	// NoRetry disables the retry loop for this call.
	NoRetry bool
}

// Get issues a GET for path with optional query parameters.
func (c *Client) Get(ctx context.Context, p string, query url.Values) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: p, Query: query})
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, p string, body any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: p, Body: body})
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, p string, body any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: p, Body: body})
}

// Delete issues a DELETE for path.
func (c *Client) Delete(ctx context.Context, p string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: p})
}

// Do performs the logical call described by req: compose URL and headers,
// then run the attempt loop. On success it returns the raw JSON body (an
// empty object for empty or non-JSON success responses). On failure it
// returns exactly one *Error carrying the most recent classified failure.
//
// Retries are an internal concern: callers observe them only as latency.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, req.Path)
	if req.Query != nil {
		u.RawQuery = req.Query.Encode()
	}

	var body []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &Error{
				Message: fmt.Sprintf("encode request body: %v", err),
				Code:    CodeUnknown,
			}
		}
		body = b
	}

	maxAttempts := c.maxRetries + 1
	if req.NoRetry {
		maxAttempts = 1
	}
	requestID := uuid.NewString()

	var lastErr *Error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			// Linear backoff keyed to the attempt that just failed.
			delay := c.retryDelay * time.Duration(attempt-1)
			c.log.Debug().
				Str("request_id", requestID).
				Int("attempt", attempt).
				Int("max_attempts", maxAttempts).
				Dur("delay", delay).
				Msg("retrying request")
			select {
			case <-ctx.Done():
				return nil, lastErr
			case <-time.After(delay):
			}
		}

		raw, apiErr, retryAfter := c.attempt(ctx, req.Method, u.String(), body, req.Header, requestID)
		if apiErr == nil {
			return raw, nil
		}
		lastErr = apiErr
		if !retryAfter || attempt == maxAttempts || ctx.Err() != nil {
			return nil, lastErr
		}
	}

	if lastErr == nil {
		lastErr = &Error{Message: "request failed", Code: CodeUnknown}
	}
	return nil, lastErr
}

// attempt performs one HTTP attempt under its own timeout. retryAfter
// reports whether the failure is worth another attempt.
func (c *Client) attempt(ctx context.Context, method, target string, body []byte, extra http.Header, requestID string) (raw json.RawMessage, apiErr *Error, retryAfter bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
	if err != nil {
		return nil, &Error{Message: err.Error(), Code: CodeUnknown}, false
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, err := c.tokens.Token(ctx); err == nil && token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, vs := range extra {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(err, attemptCtx, ctx), true
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err, attemptCtx, ctx), true
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyResponse(resp.StatusCode, respBody), c.retryable[resp.StatusCode]
	}

	if len(respBody) == 0 || !isJSONResponse(resp) {
		return json.RawMessage("{}"), nil, false
	}
	return respBody, nil, false
}

// classifyTransport maps a transport failure to a classified error: a
// per-attempt deadline becomes a TIMEOUT (status 408), everything else a
// NETWORK_ERROR (status 0).
func classifyTransport(err error, attemptCtx, ctx context.Context) *Error {
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return &Error{
			Message:    "request timed out",
			StatusCode: http.StatusRequestTimeout,
			Code:       CodeTimeout,
		}
	}
	return &Error{
		Message: err.Error(),
		Code:    CodeNetwork,
	}
}

func isJSONResponse(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "json")
}

// Decode unmarshals a Do result into T, passing any call error through
// untouched so accessors can chain: Decode[[]Listing](c.Get(...)).
func Decode[T any](raw json.RawMessage, err error) (T, error) {
	var v T
	if err != nil {
		return v, err
	}
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode response: %w", err)
	}
	return v, nil
}
