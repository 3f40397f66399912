package identity

import (
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

	"github.com/spec-kit/property-market/internal/config"
)

// ErrAccountNotFound is returned when the provider has no account for the lookup.
var ErrAccountNotFound = errors.New("identity account not found")

// ErrNotConfigured is returned by a client without a base URL.
var ErrNotConfigured = errors.New("identity provider not configured")

// StatusError reports an unexpected provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to the identity provider admin API.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client from config. An empty base URL yields a client
// whose calls fail with ErrNotConfigured.
func NewClient(cfg config.IdentityConfig) (*Client, error) {
	c := &Client{
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return c, nil
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid IDENTITY_BASE_URL: %w", err)
	}
	c.baseURL = parsed
	return c, nil
}

type accountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ResolveByEmail returns the provider account id for email.
func (c *Client) ResolveByEmail(ctx context.Context, email string) (string, error) {
	var out accountResponse
	query := url.Values{"email": []string{email}}
	if err := c.do(ctx, http.MethodGet, "accounts", query, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", ErrAccountNotFound
	}
	return out.ID, nil
}

// Delete removes the provider account.
func (c *Client) Delete(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodDelete, path.Join("accounts", url.PathEscape(accountID)), nil, nil)
}

func (c *Client) do(ctx context.Context, method, reqPath string, query url.Values, out any) error {
	if c == nil || c.baseURL == nil {
		return ErrNotConfigured
	}

	u := *c.baseURL
	u.Path = path.Join(c.baseURL.Path, reqPath)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrAccountNotFound
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode identity response: %w", err)
	}
	return nil
}

// Timeout reports the per-request timeout in use.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}
