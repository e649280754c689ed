// Package sts performs the one outbound call this module owns: a signed
// GetCallerIdentity request against the AWS Security Token Service, used to
// lazily enrich resolved credentials with the caller's ARN and account
// number.
package sts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/majorcontext/signet/credentials"
	"github.com/majorcontext/signet/sign"
)

const (
	// DefaultEndpoint is the global STS endpoint.
	DefaultEndpoint = "https://sts.amazonaws.com/"
	// DefaultRegion scopes signatures for the global endpoint.
	DefaultRegion = "us-east-1"

	service        = "sts"
	apiVersion     = "2011-06-15"
	defaultTimeout = 10 * time.Second
)

// Client calls STS GetCallerIdentity. It implements
// credentials.IdentityProvider.
type Client struct {
	creds    *credentials.Credentials
	endpoint string
	region   string
	http     *http.Client
	signer   *sign.Signer
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the STS endpoint (tests point this at an httptest
// server).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithRegion sets the signing region.
func WithRegion(region string) Option {
	return func(c *Client) { c.region = region }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client that signs with the given credentials.
func New(creds *credentials.Credentials, opts ...Option) *Client {
	c := &Client{
		creds:    creds,
		endpoint: DefaultEndpoint,
		region:   DefaultRegion,
		http:     &http.Client{Timeout: defaultTimeout},
		signer:   sign.New(),
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// callerIdentityResponse mirrors the JSON shape STS returns when asked for
// application/json.
type callerIdentityResponse struct {
	GetCallerIdentityResponse struct {
		GetCallerIdentityResult struct {
			Arn     string
			Account string
		}
	}
}

// CallerIdentity posts a signed GetCallerIdentity request and returns the
// caller's ARN and account number.
func (c *Client) CallerIdentity(ctx context.Context) (*credentials.Identity, error) {
	body := url.Values{
		"Action":  []string{"GetCallerIdentity"},
		"Version": []string{apiVersion},
	}.Encode()

	req := &sign.Request{
		Method:  http.MethodPost,
		URL:     c.endpoint,
		Header:  make(http.Header),
		Body:    []byte(body),
		Service: service,
		Region:  c.region,
		Creds:   c.creds,
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	if err := c.signer.Sign(req, c.now()); err != nil {
		return nil, fmt.Errorf("signing GetCallerIdentity request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("building GetCallerIdentity request: %w", err)
	}
	httpReq.Header = req.Header

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling GetCallerIdentity: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading GetCallerIdentity response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GetCallerIdentity returned %d: %s", resp.StatusCode, raw)
	}

	var parsed callerIdentityResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing GetCallerIdentity response: %w", err)
	}

	result := parsed.GetCallerIdentityResponse.GetCallerIdentityResult
	c.logger.Debug("resolved caller identity", "arn", result.Arn, "account", result.Account)
	return &credentials.Identity{ARN: result.Arn, Account: result.Account}, nil
}
