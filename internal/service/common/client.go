//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oshokin/gitea-spk/internal/config"
	"github.com/oshokin/gitea-spk/internal/version"
)

// Client wraps an http.Client with the defaults every request needs.
type Client struct {
	// httpClient performs the requests.
	httpClient *http.Client
	// userAgent is sent with every request.
	userAgent string

	// callTimeout bounds GetJSON calls. Open is bounded only by its context.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for API calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// errBadHTTPStatus is wrapped by every StatusError.
var errBadHTTPStatus = errors.New("unexpected http status")

// StatusError reports a response other than 200 OK.
type StatusError struct {
	// URL is the requested address.
	URL string
	// StatusCode is the received HTTP status.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap returns the generic bad-status sentinel.
func (e *StatusError) Unwrap() error {
	return errBadHTTPStatus
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}

	return 0, false
}

// NewClient creates a client with the configured defaults applied.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient:  &http.Client{},
		userAgent:   version.UserAgent(),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// GetJSON fetches url and decodes a 200 response body into dst.
func (c *Client) GetJSON(ctx context.Context, url string, dst any) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.get(callCtx, url, "application/vnd.github+json")
	if err != nil {
		return err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}

	return nil
}

// Open starts a GET of url and returns the response of a 200 reply.
// The caller must close the body.
func (c *Client) Open(ctx context.Context, url string) (*http.Response, error) {
	return c.get(ctx, url, "")
}

func (c *Client) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		_ = resp.Body.Close()

		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
