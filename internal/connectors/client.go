package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// DefaultTimeout bounds every outbound provider API call. Fetch timeouts
// fail that single fetch without invalidating the stored token.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response from a provider data API.
type APIError struct {
	Provider   domain.ProviderID
	StatusCode int
	Message    string
	URL        string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API error %d: %s (URL: %s)", e.Provider, e.StatusCode, e.Message, e.URL)
}

// Client wraps an http.Client with bearer authentication, rate limiting,
// and error classification shared by all connectors.
type Client struct {
	provider domain.ProviderID
	http     *http.Client
	limiter  *RateLimiter
}

// NewClient creates an API client for a provider. A nil httpClient gets the
// default bounded-timeout client; a nil limiter disables rate limiting.
func NewClient(provider domain.ProviderID, httpClient *http.Client, limiter *RateLimiter) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{provider: provider, http: httpClient, limiter: limiter}
}

// GetJSON performs an authenticated GET and decodes the JSON response into
// out. Transport faults and 5xx responses wrap domain.ErrUpstreamUnavailable;
// other non-2xx responses return an *APIError.
func (c *Client) GetJSON(ctx context.Context, token *domain.Token, url string, out any) error {
	return c.doJSON(ctx, token, http.MethodGet, url, nil, out)
}

// PostJSON performs an authenticated POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, token *domain.Token, url string, body, out any) error {
	return c.doJSON(ctx, token, http.MethodPost, url, body, out)
}

// Do performs an authenticated request without decoding the response body.
// The caller owns the returned response.
func (c *Client) Do(ctx context.Context, token *domain.Token, method, url string) (*http.Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w: %w", c.provider, domain.ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, token *domain.Token, method, url string, body, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w: %w", c.provider, domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s returned %d: %w", c.provider, resp.StatusCode, domain.ErrUpstreamUnavailable)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(msg)),
			URL:        url,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.provider, err)
	}
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}
