// Package auth delegates credential verification to the external auth
// service. No validation happens locally; the inbound credential is
// forwarded as-is and the upstream's verdict is final.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Katebsaber/IFSGuideTask/internal/models"
)

// ErrUnauthorized means the auth service rejected the credential.
var ErrUnauthorized = errors.New("auth: credential rejected")

// ErrUpstream means the auth service could not be reached or answered
// with something unusable.
var ErrUpstream = errors.New("auth: service unavailable")

// Client resolves bearer credentials against the auth service's /me
// endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates an auth client for the given /me endpoint URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolvePrincipal forwards the credential and returns the verified
// principal. Non-2xx responses map to ErrUnauthorized, transport and
// decode failures to ErrUpstream.
func (c *Client) ResolvePrincipal(ctx context.Context, credential string) (*models.Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: create request: %w", err)
	}
	req.Header.Set("Authorization", credential)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	var p models.Principal
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decode principal: %v", ErrUpstream, err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: principal missing id", ErrUpstream)
	}
	return &p, nil
}
