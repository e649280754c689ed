// Package imds is a minimal client for the EC2 instance metadata service.
// It refuses to issue requests unless the process is confirmed to be running
// on a genuine EC2 instance, so resolution fails fast everywhere else.
package imds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// DefaultEndpoint is the link-local metadata address.
const DefaultEndpoint = "http://169.254.169.254"

// EnvLambdaTaskRoot marks a Lambda sandbox, where the metadata endpoint is
// absent even though the detection file may claim EC2.
const EnvLambdaTaskRoot = "LAMBDA_TASK_ROOT"

// defaultTimeout keeps metadata fetches short. The endpoint is only
// reachable on a real instance and must not hang elsewhere.
const defaultTimeout = 2 * time.Second

// ErrUnavailable is returned when the process is not on a genuine EC2
// instance or the metadata endpoint cannot be reached.
var ErrUnavailable = errors.New("instance metadata unavailable")

// Client fetches values from the instance metadata endpoint. No retries, no
// caching; the credential resolver calls it a handful of times per
// resolution.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
	probe    func() bool
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the metadata endpoint (tests point this at an
// httptest server).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client, including its timeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client with the default endpoint and a short timeout.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   slog.New(slog.DiscardHandler),
		probe:    onEC2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether metadata fetches can succeed: not inside a
// Lambda sandbox, and the platform probe confirms a genuine EC2 instance.
func (c *Client) Available(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if os.Getenv(EnvLambdaTaskRoot) != "" {
		return false
	}
	return c.probe()
}

// Fetch issues a GET for the given meta-data key and returns the raw body.
// The availability precondition is re-checked before any network call.
func (c *Client) Fetch(ctx context.Context, key string) (string, error) {
	if !c.Available(ctx) {
		return "", fmt.Errorf("fetch %s: %w", key, ErrUnavailable)
	}

	url := c.endpoint + "/latest/meta-data/" + key
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building metadata request for %s: %w", key, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %v: %w", key, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d: %w", key, resp.StatusCode, ErrUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading metadata response for %s: %w", key, err)
	}

	c.logger.Debug("fetched instance metadata", "key", key, "bytes", len(body))
	return string(body), nil
}
