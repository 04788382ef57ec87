// Package graphql provides a GraphQL-over-HTTP client with retry for transient failures.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"

	"articlefeed/internal/logger"
)

// Transport errors.
var (
	ErrTransport             = errors.New("transport error")
	ErrUnexpectedStatusCode  = errors.New("unexpected status code")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrMalformedResponse     = errors.New("malformed response")
	ErrGraphQLError          = errors.New("graphql error")
	ErrNoData                = errors.New("no data in response")
)

const (
	// RequestTimeout bounds a single HTTP attempt.
	RequestTimeout = 30 * time.Second
	// maxResponseBytes limits how much of a response body is read.
	maxResponseBytes = 10 * 1024 * 1024
	// noErrorMessage is reported when the server sent nothing recognizable.
	noErrorMessage = "no error message"
)

// Executor runs GraphQL requests.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Response, error)
}

// Ensure Client implements Executor.
var _ Executor = (*Client)(nil)

// Request is the JSON body of a GraphQL POST.
type Request struct {
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
}

// Response represents a GraphQL response.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors,omitempty"`
}

// Error represents a GraphQL error.
type Error struct {
	Message   string `json:"message"`
	Locations []struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	} `json:"locations,omitempty"`
	Path []any `json:"path,omitempty"`
}

// RetryPolicy defines retry behavior for transient failures.
type RetryPolicy struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy returns the fixed policy used in production.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

func (rp RetryPolicy) backOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = rp.InitialDelay
	bo.MaxInterval = rp.MaxDelay
	bo.Multiplier = rp.Multiplier

	return bo
}

// Client handles GraphQL communication with the content API.
type Client struct {
	httpClient *http.Client
	headers    http.Header
	logger     *logger.Logger
	endpoint   string
	path       string
	retry      RetryPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(rp RetryPolicy) Option {
	return func(c *Client) {
		c.retry = rp
	}
}

// NewClient creates a client posting to endpoint with the given headers on every request.
func NewClient(endpoint string, headers http.Header, log *logger.Logger, opts ...Option) *Client {
	path := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Path != "" {
		path = u.Path
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		headers:  headers.Clone(),
		logger:   log,
		endpoint: endpoint,
		path:     path,
		retry:    DefaultRetryPolicy(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Execute sends a GraphQL request, retrying transport failures and retryable statuses.
// The returned error names the endpoint path.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	attempt := 0
	operation := func() (*Response, error) {
		attempt++
		c.logger.Debug("executing graphql request", "operation", req.OperationName, "attempt", attempt)

		return c.do(ctx, body)
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.retry.backOff()),
		backoff.WithMaxTries(c.retry.MaxAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("graphql request failed, retrying", "error", err, "wait", wait)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", c.path, err)
	}

	return resp, nil
}

// do performs one attempt. Errors that must not be retried are marked permanent.
func (c *Client) do(ctx context.Context, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header = c.headers.Clone()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode, ExtractErrorMessage(data))
		if isRetryableStatus(resp.StatusCode) {
			return nil, statusErr
		}

		return nil, backoff.Permanent(statusErr)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !isJSONMediaType(mediaType) {
		return nil, backoff.Permanent(fmt.Errorf("%w: %q: %s",
			ErrUnexpectedContentType, resp.Header.Get("Content-Type"), ExtractErrorMessage(data)))
	}

	var gqlResp Response
	if err := json.Unmarshal(data, &gqlResp); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}

	if len(gqlResp.Errors) > 0 {
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrGraphQLError, gqlResp.Errors[0].Message))
	}

	if len(gqlResp.Data) == 0 || string(gqlResp.Data) == "null" {
		return nil, backoff.Permanent(ErrNoData)
	}

	return &gqlResp, nil
}

// UnmarshalData unmarshals the response data into the target struct.
func UnmarshalData[T any](resp *Response) (*T, error) {
	if resp == nil || resp.Data == nil {
		return nil, ErrNoData
	}

	var target T
	if err := json.Unmarshal(resp.Data, &target); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return &target, nil
}

// ExtractErrorMessage pulls a server-side error message out of a response body.
// It understands GraphQL error lists and the common message/error fields.
func ExtractErrorMessage(body []byte) string {
	var probe struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Errors  []Error         `json:"errors"`
	}

	if err := json.Unmarshal(body, &probe); err != nil {
		return noErrorMessage
	}

	if len(probe.Errors) > 0 && probe.Errors[0].Message != "" {
		return probe.Errors[0].Message
	}

	if probe.Message != "" {
		return probe.Message
	}

	if len(probe.Error) > 0 {
		var text string
		if err := json.Unmarshal(probe.Error, &text); err == nil && text != "" {
			return text
		}

		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(probe.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}

	return noErrorMessage
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || mediaType == "application/graphql-response+json"
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}

	return false
}
