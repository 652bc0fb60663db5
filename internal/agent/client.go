// Package agent wraps the external inference service.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Katebsaber/IFSGuideTask/internal/metrics"
)

// ErrUpstream means the inference service could not be reached or
// answered with an error.
var ErrUpstream = errors.New("agent: inference service unavailable")

// botCue is appended to every prompt before dispatch: it signals the
// inference service that the chatbot speaks next.
const botCue = " \n CHATBOT : "

// Client calls the inference service's generation endpoint.
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

// NewClient creates an inference client for the given endpoint URL.
// The default timeout is generous; generation is slow.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends the prompt, suffixed with the chatbot role cue, and
// returns the generated text. An upstream that produced no completion
// yields an empty string, not an error.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	q := url.Values{}
	q.Set("prompt", prompt+botCue)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("agent: create request: %w", err)
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = res.Body.Close() }()
	metrics.InferenceLatency.Observe(time.Since(start).Seconds())

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrUpstream, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	return decodeCompletion(body), nil
}

// decodeCompletion unpacks the upstream body. The service answers with
// a JSON-encoded string, or an empty JSON object when it produced no
// completion; plain text is passed through untouched.
func decodeCompletion(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "{}" {
		return ""
	}
	var text string
	if err := json.Unmarshal([]byte(trimmed), &text); err == nil {
		return text
	}
	return trimmed
}
